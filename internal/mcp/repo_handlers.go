package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sagitta-go/core/internal/gitfacade"
	"github.com/sagitta-go/core/internal/protocol"
	"github.com/sagitta-go/core/internal/taskqueue"
)

// RepositoryRequest is the payload for the context.repository tool.
type RepositoryRequest struct {
	Action    string `json:"action"`
	Name      string `json:"name"`
	Origin    string `json:"origin"`
	TargetRef string `json:"target_ref"`
	Force     bool   `json:"force"`
}

// handleRepository dispatches add/sync/switch/remove/list against the
// repository lifecycle manager.
func (s *Server) handleRepository(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.repos == nil {
		return nil, &protocol.Error{
			Code:    protocol.InternalError,
			Message: "repository manager not available",
		}
	}

	var req RepositoryRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: fmt.Sprintf("invalid request: %v", err),
		}
	}

	switch req.Action {
	case "list":
		return map[string]interface{}{"repositories": s.repos.List()}, nil

	case "add":
		if req.Origin == "" {
			return nil, &protocol.Error{Code: protocol.InvalidParams, Message: "origin is required"}
		}
		record, err := s.repos.Add(ctx, req.Origin, req.TargetRef, gitfacade.Credentials{})
		if err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		return record, nil

	case "sync":
		if req.Name == "" {
			return nil, &protocol.Error{Code: protocol.InvalidParams, Message: "name is required"}
		}
		outcome, err := s.repos.Sync(ctx, req.Name, gitfacade.Credentials{})
		if err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		return outcome, nil

	case "switch":
		if req.Name == "" || req.TargetRef == "" {
			return nil, &protocol.Error{Code: protocol.InvalidParams, Message: "name and target_ref are required"}
		}
		outcome, err := s.repos.Switch(ctx, req.Name, req.TargetRef, req.Force, gitfacade.Credentials{})
		if err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		return outcome, nil

	case "remove":
		if req.Name == "" {
			return nil, &protocol.Error{Code: protocol.InvalidParams, Message: "name is required"}
		}
		if err := s.repos.Remove(ctx, req.Name); err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		return map[string]interface{}{"status": "removed", "name": req.Name}, nil

	default:
		return nil, &protocol.Error{Code: protocol.InvalidParams, Message: fmt.Sprintf("invalid action: %s", req.Action)}
	}
}

// TaskQueueRequest is the payload for the context.task_queue tool.
type TaskQueueRequest struct {
	Action      string `json:"action"`
	ID          string `json:"id"`
	Description string `json:"description"`
	AutoTrigger bool   `json:"auto_trigger"`
	Success     bool   `json:"success"`
}

// handleTaskQueue dispatches list/add/active/complete against the task
// queue coordinating agent conversations.
func (s *Server) handleTaskQueue(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.tasks == nil {
		return nil, &protocol.Error{
			Code:    protocol.InternalError,
			Message: "task queue not available",
		}
	}

	var req TaskQueueRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: fmt.Sprintf("invalid request: %v", err),
		}
	}

	switch req.Action {
	case "list":
		return map[string]interface{}{"tasks": s.tasks.List()}, nil

	case "active":
		task, ok := s.tasks.Active()
		if !ok {
			return map[string]interface{}{"active": nil}, nil
		}
		return map[string]interface{}{"active": task}, nil

	case "add":
		if req.ID == "" || req.Description == "" {
			return nil, &protocol.Error{Code: protocol.InvalidParams, Message: "id and description are required"}
		}
		task := &taskqueue.Task{ID: req.ID, Description: req.Description, AutoTrigger: req.AutoTrigger}
		if err := s.tasks.Add(ctx, task); err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		return task, nil

	case "complete":
		if req.ID == "" {
			return nil, &protocol.Error{Code: protocol.InvalidParams, Message: "id is required"}
		}
		if err := s.tasks.Complete(ctx, req.ID, req.Success); err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		task, err := s.tasks.Get(req.ID)
		if err != nil {
			return nil, &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
		}
		return task, nil

	default:
		return nil, &protocol.Error{Code: protocol.InvalidParams, Message: fmt.Sprintf("invalid action: %s", req.Action)}
	}
}
