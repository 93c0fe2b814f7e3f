package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sagitta-go/core/internal/connectors"
	"github.com/sagitta-go/core/internal/conversation"
	"github.com/sagitta-go/core/internal/embedding"
	"github.com/sagitta-go/core/internal/indexer"
	"github.com/sagitta-go/core/internal/observability"
	"github.com/sagitta-go/core/internal/protocol"
	"github.com/sagitta-go/core/internal/repository"
	"github.com/sagitta-go/core/internal/search/contextual"
	"github.com/sagitta-go/core/internal/taskqueue"
	"github.com/sagitta-go/core/internal/vectorstore"
)

// Server implements the MCP protocol server
type Server struct {
	rootPath       string
	vectorStore    vectorstore.VectorStore
	connectorStore connectors.ConnectorStore
	embedder       embedding.Embedder
	metrics        *observability.MetricsCollector
	errorHandler   *observability.ErrorHandler
	indexer        indexer.IndexController
	jsonrpcSrv     *protocol.Server

	// repos, convStore and tasks are optional: a caller that only needs
	// search/indexing tools can leave them nil, in which case the
	// corresponding MCP tools report themselves unavailable rather than
	// panicking.
	repos     *repository.Service
	convStore *conversation.Store
	tasks     *taskqueue.Queue

	// contextual is optional: when set, context.search honors a
	// profile_id by routing through profile-aware embedding
	// optimization, ranking and quality assessment instead of the plain
	// hybrid-search path.
	contextual *contextual.ContextualRetrievalFramework
}

// SetContextualFramework attaches the profile-aware retrieval framework,
// enabling context.search's optional profile_id parameter.
func (s *Server) SetContextualFramework(crf *contextual.ContextualRetrievalFramework) {
	s.contextual = crf
}

// SetRepositoryService attaches the repository lifecycle manager, enabling
// the context.repository tool.
func (s *Server) SetRepositoryService(svc *repository.Service) {
	s.repos = svc
}

// SetConversationStore attaches conversation persistence, used by the task
// queue's conversation factory and available for future session tools.
func (s *Server) SetConversationStore(store *conversation.Store) {
	s.convStore = store
}

// SetTaskQueue attaches the task queue, enabling the context.task_queue tool.
func (s *Server) SetTaskQueue(q *taskqueue.Queue) {
	s.tasks = q
}

// NewServer creates a new MCP server
func NewServer(
	reader io.Reader,
	writer io.Writer,
	rootPath string,
	vectorStore vectorstore.VectorStore,
	connectorStore connectors.ConnectorStore,
	embedder embedding.Embedder,
	metrics *observability.MetricsCollector,
	errorHandler *observability.ErrorHandler,
	idx indexer.IndexController,
) *Server {
	s := &Server{
		rootPath:       rootPath,
		vectorStore:    vectorStore,
		connectorStore: connectorStore,
		embedder:       embedder,
		metrics:        metrics,
		errorHandler:   errorHandler,
		indexer:        idx,
	}

	// Create JSON-RPC server with this server as handler
	s.jsonrpcSrv = protocol.NewServer(reader, writer, s)

	return s
}

// Handle implements protocol.Handler interface
func (s *Server) Handle(method string, params json.RawMessage) (interface{}, error) {
	ctx := context.Background()
	
	switch method {
	case "tools/list":
		return s.handleToolsList(ctx)
	case "tools/call":
		return s.handleToolsCall(ctx, params)
	case "resources/list":
		return s.handleResourcesList(ctx, params)
	case "resources/read":
		return s.handleResourcesRead(ctx, params)
	default:
		return nil, &protocol.Error{
			Code:    protocol.MethodNotFound,
			Message: fmt.Sprintf("method not found: %s", method),
		}
	}
}

// Serve starts the MCP server
func (s *Server) Serve() error {
	return s.jsonrpcSrv.Serve()
}

// Close releases resources
func (s *Server) Close() error {
	if s.vectorStore != nil {
		return s.vectorStore.Close()
	}
	return nil
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(ctx context.Context) (interface{}, error) {
	return map[string]interface{}{
		"tools": GetToolDefinitions(),
	}, nil
}

// ToolCallRequest represents a tool call request
type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall executes a tool call
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req ToolCallRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: fmt.Sprintf("invalid parameters: %v", err),
		}
	}
	
	switch req.Name {
	case ToolContextSearch:
		return s.handleContextSearch(ctx, req.Arguments)
	case ToolContextGetRelatedInfo:
		return s.handleGetRelatedInfo(ctx, req.Arguments)
	case ToolContextIndexControl:
		return s.handleIndexControl(ctx, req.Arguments)
	case ToolContextConnectorManagement:
		return s.handleConnectorManagement(ctx, req.Arguments)
	case ToolContextExplain:
		return s.handleContextExplain(ctx, req.Arguments)
	case ToolContextGrep:
		return s.handleContextGrep(ctx, req.Arguments)
	case ToolContextRepository:
		return s.handleRepository(ctx, req.Arguments)
	case ToolContextTaskQueue:
		return s.handleTaskQueue(ctx, req.Arguments)
	default:
		return nil, &protocol.Error{
			Code:    protocol.MethodNotFound,
			Message: fmt.Sprintf("unknown tool: %s", req.Name),
		}
	}
}

// ResourcesListRequest represents a resources/list request
type ResourcesListRequest struct {
	URI string `json:"uri,omitempty"`
}

// handleResourcesList returns available resources
func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req ResourcesListRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, &protocol.Error{
				Code:    protocol.InvalidParams,
				Message: fmt.Sprintf("invalid parameters: %v", err),
			}
		}
	}
	
	// For now, return placeholder - will be implemented when indexer provides file listing
	return map[string]interface{}{
		"resources": []ResourceDefinition{
			{
				URI:         fmt.Sprintf("%s://%s/", ResourceScheme, ResourceFiles),
				Name:        "Indexed Files",
				Description: "Browse indexed project files",
				MimeType:    "application/x-directory",
			},
		},
	}, nil
}

// ResourcesReadRequest represents a resources/read request
type ResourcesReadRequest struct {
	URI string `json:"uri"`
}

// handleResourcesRead returns resource content
func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req ResourcesReadRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: fmt.Sprintf("invalid parameters: %v", err),
		}
	}
	
	// For now, return placeholder - will be implemented when indexer provides file content
	return map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      req.URI,
				"mimeType": "text/plain",
				"text":     "Resource content not yet implemented",
			},
		},
	}, nil
}
