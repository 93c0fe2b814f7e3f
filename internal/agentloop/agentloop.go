// Package agentloop drives a conversation through LLM calls and tool
// dispatch: one step composes a token-budgeted prompt, invokes the LLM,
// dispatches any tool calls (consulting the tool-execution cache first),
// scores completion, and updates the reasoning state; run repeats step
// until termination.
package agentloop

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sagitta-go/core/internal/apperr"
	"github.com/sagitta-go/core/internal/conversation"
	"github.com/sagitta-go/core/internal/tool"
	"github.com/sagitta-go/core/pkg/schema"
)

// LLMResponse is one assistant turn returned by an LLMClient.
type LLMResponse struct {
	Content   string
	ToolCalls []conversation.ToolCall
}

// LLMClient is the capability the loop drives on every step. Streaming
// is modeled as onToken being invoked for each emitted fragment as the
// response is produced; implementations that can't stream may call it
// once with the full content.
type LLMClient interface {
	Complete(ctx context.Context, messages []conversation.Message, onToken func(string)) (LLMResponse, error)
}

// AnalyzerConfig tunes the completion analyzer's keyword/threshold
// behavior.
type AnalyzerConfig struct {
	CompletionKeywords  []string
	FailureKeywords     []string
	ConfidenceThreshold float64
}

// DefaultAnalyzerConfig mirrors config.AgentConfig's defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		CompletionKeywords:  []string{"completed", "finished", "done"},
		FailureKeywords:     []string{"failed", "error"},
		ConfidenceThreshold: 0.7,
	}
}

// analyzeCompletion scores the current response text and the tool
// results gathered so far this step, and reports whether the session
// should be considered finally, successfully done. A 1.0 score from an
// explicit completion keyword with no failure keyword present is enough
// on its own; otherwise completion blends keyword presence with the
// tool-result success rate and compares against the configured
// threshold.
func analyzeCompletion(cfg AnalyzerConfig, responseText string, toolResults []conversation.ToolResult) (score float64, done bool) {
	lower := strings.ToLower(responseText)

	hasCompletion := containsAny(lower, cfg.CompletionKeywords)
	hasFailure := containsAny(lower, cfg.FailureKeywords)

	successRate := 1.0
	if len(toolResults) > 0 {
		succeeded := 0
		for _, r := range toolResults {
			if r.Success {
				succeeded++
			}
		}
		successRate = float64(succeeded) / float64(len(toolResults))
	}

	switch {
	case hasCompletion && !hasFailure:
		score = 0.5 + 0.5*successRate
	case hasFailure:
		score = 0.2 * successRate
	default:
		score = 0.4 * successRate
	}

	return score, score >= cfg.ConfidenceThreshold
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// estimateTokens counts tokens the way the prompt budget is measured,
// via the cl100k_base encoding (the same family OpenAI- and
// Anthropic-style chat models are commonly tokenized against). Falls
// back to a four-characters-per-token heuristic if the encoding can't
// be loaded.
func estimateTokens(text string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// composePrompt trims messages to fit within tokenBudget tokens. System
// messages are never evicted; among the rest, the oldest non-system
// messages are evicted first until the remainder fits (or only system
// messages remain).
func composePrompt(messages []conversation.Message, tokenBudget int) []conversation.Message {
	total := 0
	for _, m := range messages {
		total += estimateTokens(m.Content)
	}
	if total <= tokenBudget {
		return messages
	}

	kept := make([]conversation.Message, len(messages))
	copy(kept, messages)

	for total > tokenBudget {
		evictIdx := -1
		for i, m := range kept {
			if m.Role != conversation.RoleSystem {
				evictIdx = i
				break
			}
		}
		if evictIdx == -1 {
			break // nothing left but system messages
		}
		total -= estimateTokens(kept[evictIdx].Content)
		kept = append(kept[:evictIdx], kept[evictIdx+1:]...)
	}
	return kept
}

// Config tunes one Session's loop behavior.
type Config struct {
	MaxIterations       int
	TokenBudget         int
	Analyzer            AnalyzerConfig
	ToolCacheEnabled    bool
	AutoCheckpointEvery int // 0 disables auto-checkpointing
}

// Session drives one Conversation through the agent loop.
type Session struct {
	Conversation *conversation.Conversation
	llm          LLMClient
	tools        *tool.Executor
	perms        schema.Permissions
	cfg          Config

	// checkpointSeq and messageSeq back generated Checkpoint/branch ids;
	// callers supplying their own conversation ids should prefer
	// WithIDGenerator (not yet needed by any caller) over relying on the
	// defaults' exact format.
	checkpointSeq int
}

// NewSession wires a Conversation to an LLMClient and tool Executor
// under cfg.
func NewSession(conv *conversation.Conversation, llm LLMClient, tools *tool.Executor, perms schema.Permissions, cfg Config) *Session {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 25
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 32000
	}
	if cfg.Analyzer.ConfidenceThreshold == 0 {
		cfg.Analyzer = DefaultAnalyzerConfig()
	}
	return &Session{Conversation: conv, llm: llm, tools: tools, perms: perms, cfg: cfg}
}

// StepResult summarizes one Step call.
type StepResult struct {
	Response           conversation.Message
	CompletionScore    float64
	AnalyzerDone       bool
	TerminationReason  string // "", "completed", "analyzer_done", "iteration_limit", "cancelled"
}

// Step advances the session one reasoning iteration: compose the
// token-budgeted prompt, invoke the LLM, dispatch any tool calls
// (consulting the tool cache first), score completion, update
// confidence, and optionally checkpoint.
func (s *Session) Step(ctx context.Context, onToken func(string)) (StepResult, error) {
	select {
	case <-ctx.Done():
		return StepResult{TerminationReason: "cancelled"}, apperr.Cancelled()
	default:
	}

	if s.Conversation.Reasoning.Iteration >= s.cfg.MaxIterations {
		return StepResult{TerminationReason: "iteration_limit"}, apperr.IterationLimitExceeded(s.cfg.MaxIterations)
	}

	prompt := composePrompt(s.Conversation.Messages, s.cfg.TokenBudget)

	resp, err := s.llm.Complete(ctx, prompt, onToken)
	if err != nil {
		return StepResult{}, apperr.Internal(err)
	}

	assistantMsg := conversation.Message{
		ID:        generateMessageID(s.Conversation),
		Role:      conversation.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
	s.Conversation.AppendMessage(assistantMsg)

	toolResults := make([]conversation.ToolResult, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		result := s.dispatchTool(ctx, call)
		toolResults = append(toolResults, result)
	}
	if len(toolResults) > 0 {
		s.Conversation.AppendMessage(conversation.Message{
			ID:          generateMessageID(s.Conversation),
			Role:        conversation.RoleTool,
			ToolResults: toolResults,
		})
	}

	score, done := analyzeCompletion(s.cfg.Analyzer, resp.Content, toolResults)
	s.Conversation.Reasoning.RecordStepConfidence(score)
	s.Conversation.Reasoning.Iteration++
	if done {
		s.Conversation.Reasoning.IsFinalSuccess = true
	}

	result := StepResult{Response: assistantMsg, CompletionScore: score, AnalyzerDone: done}
	if done {
		result.TerminationReason = "analyzer_done"
	}

	if s.cfg.AutoCheckpointEvery > 0 && s.Conversation.Reasoning.Iteration%s.cfg.AutoCheckpointEvery == 0 {
		s.Conversation.CreateCheckpoint(generateCheckpointID(s), assistantMsg.ID, "auto")
	}

	return result, nil
}

// dispatchTool consults the tool-execution cache before invoking the
// real tool, and stores fresh successful results back into the cache.
func (s *Session) dispatchTool(ctx context.Context, call conversation.ToolCall) conversation.ToolResult {
	cache := s.Conversation.Reasoning.ToolCache
	if s.cfg.ToolCacheEnabled && cache != nil {
		if cached, ok := cache.Lookup(call.Name, call.Args); ok {
			cached.ToolCallID = call.ID
			return cached
		}
	}

	params := tool.ToolParams{}
	if path, ok := call.Args["path"].(string); ok {
		params.Path = path
	}
	if pattern, ok := call.Args["pattern"].(string); ok {
		params.Pattern = pattern
	}

	raw, err := s.tools.Execute(ctx, call.Name, params, s.perms)
	result := conversation.ToolResult{ToolCallID: call.ID}
	if err != nil {
		result.Success = false
		result.Error = err.Error()
	} else {
		result.Success = raw.Success
		result.Output = raw.Output
		result.Error = raw.Error
	}

	if s.cfg.ToolCacheEnabled && cache != nil {
		cache.Store(call.Name, call.Args, result)
	}
	return result
}

// Run drives Step until termination: completion, analyzer done,
// iteration limit, or cancellation.
func (s *Session) Run(ctx context.Context, onToken func(string)) (StepResult, error) {
	var last StepResult
	for {
		result, err := s.Step(ctx, onToken)
		if err != nil {
			return result, err
		}
		last = result
		if result.TerminationReason != "" {
			return last, nil
		}
	}
}

func generateMessageID(conv *conversation.Conversation) string {
	return conv.ID + "-msg-" + strconv.Itoa(len(conv.Messages))
}

func generateCheckpointID(s *Session) string {
	s.checkpointSeq++
	return s.Conversation.ID + "-cp-" + strconv.Itoa(s.checkpointSeq)
}
