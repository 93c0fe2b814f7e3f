// Package taskqueue implements the auto-progressing queue of user-level
// tasks bound to conversations: at most one active task at a time, an
// auto-trigger that activates a task immediately when nothing else is
// running, and advancement driven by the Agent Loop's completion signal.
package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/sagitta-go/core/internal/apperr"
	"github.com/sagitta-go/core/internal/conversation"
)

// Status is the lifecycle state of one Task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// CompletionCriteria describes what "done" means for a task, consulted
// by the Agent Loop's completion analyzer in addition to its own
// heuristics.
type CompletionCriteria struct {
	RequireTestsPass       bool          `json:"require_tests_pass"`
	RequireExplicitKeyword bool          `json:"require_explicit_keyword"`
	Timeout                time.Duration `json:"timeout"`
	CompletionKeywords     []string      `json:"completion_keywords"`
	FailureKeywords        []string      `json:"failure_keywords"`
}

// Task is one user-level unit of work bound to a conversation.
type Task struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversation_id"`
	Description    string              `json:"description"`
	AutoTrigger    bool                `json:"auto_trigger"`
	Criteria       CompletionCriteria  `json:"criteria"`
	Status         Status              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	ActivatedAt    time.Time           `json:"activated_at,omitempty"`
	FinishedAt     time.Time           `json:"finished_at,omitempty"`
}

// ConversationFactory synthesizes a fresh conversation for a newly
// activated task — the queue never constructs conversations itself, it
// calls back into the conversation capability.
type ConversationFactory func(ctx context.Context, task *Task) (*conversation.Conversation, error)

// Queue holds tasks in arrival order and enforces the single-active-task
// invariant.
type Queue struct {
	mu       sync.Mutex
	tasks    []*Task
	activeID string
	maxSize  int
	factory  ConversationFactory
}

// NewQueue constructs an empty Queue. maxSize<=0 means unbounded.
func NewQueue(maxSize int, factory ConversationFactory) *Queue {
	return &Queue{maxSize: maxSize, factory: factory}
}

// Add enqueues task. When task.AutoTrigger is set and no task is
// currently active, it is activated immediately (property §8.10): a
// conversation is synthesized via the factory and the task's status
// moves straight to Active without ever visiting Pending.
func (q *Queue) Add(ctx context.Context, task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxSize > 0 && len(q.tasks) >= q.maxSize {
		return apperr.InvalidArguments("task queue is full (max %d)", q.maxSize)
	}
	if task.ID == "" {
		return apperr.InvalidArguments("task id cannot be empty")
	}
	for _, t := range q.tasks {
		if t.ID == task.ID {
			return apperr.AlreadyExists("task", task.ID)
		}
	}

	task.Status = StatusPending
	task.CreatedAt = time.Now()
	q.tasks = append(q.tasks, task)

	if task.AutoTrigger && q.activeID == "" {
		return q.activateLocked(ctx, task)
	}
	return nil
}

func (q *Queue) activateLocked(ctx context.Context, task *Task) error {
	if task.ConversationID == "" && q.factory != nil {
		conv, err := q.factory(ctx, task)
		if err != nil {
			return err
		}
		task.ConversationID = conv.ID
	}
	task.Status = StatusActive
	task.ActivatedAt = time.Now()
	q.activeID = task.ID
	return nil
}

// ActivateNext promotes the oldest pending task to active, if one exists
// and nothing is currently active. Returns (nil, nil) when there is
// nothing to activate.
func (q *Queue) ActivateNext(ctx context.Context) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.activeID != "" {
		return nil, nil
	}
	for _, t := range q.tasks {
		if t.Status == StatusPending {
			if err := q.activateLocked(ctx, t); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return nil, nil
}

// Active returns the currently active task, if any.
func (q *Queue) Active() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.activeID == "" {
		return nil, false
	}
	for _, t := range q.tasks {
		if t.ID == q.activeID {
			return t, true
		}
	}
	return nil, false
}

// Complete reports the active task's outcome, as observed from the
// Agent Loop's completion signal on its bound conversation. On success
// the task moves to Completed; on failure it moves to Failed — either
// way the queue then activates the next pending task (or idles).
func (q *Queue) Complete(ctx context.Context, taskID string, success bool) error {
	q.mu.Lock()
	var target *Task
	for _, t := range q.tasks {
		if t.ID == taskID {
			target = t
			break
		}
	}
	if target == nil {
		q.mu.Unlock()
		return apperr.NotFound("task", taskID)
	}
	if target.ID != q.activeID {
		q.mu.Unlock()
		return apperr.InvalidArguments("task %s is not the active task", taskID)
	}

	if success {
		target.Status = StatusCompleted
	} else {
		target.Status = StatusFailed
	}
	target.FinishedAt = time.Now()
	q.activeID = ""
	q.mu.Unlock()

	_, err := q.ActivateNext(ctx)
	return err
}

// List returns a snapshot of every task in the queue, in arrival order.
func (q *Queue) List() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = *t
	}
	return out
}

// Get returns a copy of the task with id, or NotFound.
func (q *Queue) Get(id string) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("task", id)
}
