package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/internal/logging"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const (
	// GraphURI exposes the topology loaded in the calling session.
	GraphURI = "sopnav://graph"
	// AgentsURI lists the agents the engine can load by name.
	AgentsURI = "sopnav://agents"

	shutdownTimeout = 5 * time.Second
)

const instructions = `sopnav keeps you on a standard operating procedure.
Call load_graph first, then goto_node for every step you take, in order.
A rejected move lists the nodes you may go to instead. Use todo_tasks to
track goals; you will be reminded of open tasks when you reach their
completion node.`

// Server exposes an Engine as MCP tools.
type Server struct {
	engine    *sopnav.Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger

	// fallback identifies the conversation when the transport carries no
	// client session.
	fallback string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFallbackSession fixes the id used when no client session is known.
func WithFallbackSession(id string) Option {
	return func(s *Server) {
		s.fallback = id
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *sopnav.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		logger:   logging.NewNop(),
		fallback: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("sopnav", strings.TrimSpace(sopnav.Version),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sse.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sse.MessageHandler()))
	return s.listen(ctx, addr, "sse", mux)
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", corsMiddleware(server.NewStreamableHTTPServer(s.mcpServer)))
	return s.listen(ctx, addr, "http", mux)
}

func (s *Server) listen(ctx context.Context, addr, transport string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening", "transport", transport, "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionID maps the calling MCP client to a conversation.
func (s *Server) sessionID(ctx context.Context) string {
	if cs := server.ClientSessionFromContext(ctx); cs != nil && cs.SessionID() != "" {
		return cs.SessionID()
	}
	return s.fallback
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("load_graph",
		mcp.WithDescription("Load an SOP workflow. Pass either sop_file (a path, agent name or URL) or the document itself in source. Returns the system prompt and graph summary; the traversal restarts, tasks are kept."),
		mcp.WithString("sop_file", mcp.Description("Path, agent name or URL of the workflow document")),
		mcp.WithString("source", mcp.Description("Inline workflow document; wins over sop_file")),
	), s.handleLoad)

	s.mcpServer.AddTool(mcp.NewTool("goto_node",
		mcp.WithDescription("Move to a node of the loaded workflow. Moves must follow an edge from the current node; the entry and re-entry nodes are always allowed. Returns the node's instructions, or the legal next nodes when rejected."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the node to move to")),
	), s.handleGoto)

	s.mcpServer.AddTool(mcp.NewTool("todo_tasks",
		mcp.WithDescription("Replace the task list. Each task may name a completion node; reaching it while the task is open triggers a reminder."),
		mcp.WithArray("todos",
			mcp.Required(),
			mcp.Description("The complete task list"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"desc":                 map[string]any{"type": "string"},
					"status":               map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
					"note":                 map[string]any{"type": "string"},
					"task_completion_node": map[string]any{"type": "string"},
				},
				"required": []string{"desc"},
			}),
		),
	), s.handleTasks)
}

func (s *Server) handleLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := sopnav.LoadRequest{
		Ref:    request.GetString("sop_file", ""),
		Source: request.GetString("source", ""),
	}
	id := s.sessionID(ctx)

	res, err := s.engine.Load(ctx, id, req)
	if err != nil {
		s.logger.WarnContext(ctx, "load_graph failed", "session_id", id, "ref", req.Ref, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	return jsonResult(res, false)
}

func (s *Server) handleGoto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := s.sessionID(ctx)

	res, err := s.engine.Goto(ctx, id, nodeID)
	if err != nil {
		if res == nil || !recoverable(err) {
			s.logger.ErrorContext(ctx, "goto_node failed", "session_id", id, "err", err)
			return mcp.NewToolResultError(fmt.Sprintf("goto failed: %v", err)), nil
		}
		return jsonResult(res, true)
	}
	return jsonResult(res, false)
}

func (s *Server) handleTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.GetArguments()["todos"]
	if !ok {
		return mcp.NewToolResultError("todos is required"), nil
	}
	tasks, err := decodeTasks(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.engine.SetTasks(ctx, s.sessionID(ctx), tasks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("todo update failed: %v", err)), nil
	}
	return jsonResult(res, false)
}

func decodeTasks(raw any) ([]domain.Task, error) {
	tasks := []domain.Task{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &tasks,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid todos: %w", err)
	}
	return tasks, nil
}

// recoverable reports whether the caller can fix the move on its own.
func recoverable(err error) bool {
	return errors.Is(err, domain.ErrInvalidMove) || errors.Is(err, domain.ErrGraphNotLoaded)
}

func jsonResult(v any, isError bool) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	res := mcp.NewToolResultText(string(data))
	res.IsError = isError
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Loaded workflow topology",
		mcp.WithResourceDescription("Flowchart of the workflow loaded in this conversation"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		topology, err := s.engine.Topology(ctx, s.sessionID(ctx))
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "text/vnd.mermaid", Text: topology},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(AgentsURI, "Available agents",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		agents, err := s.engine.Agents(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list agents: %w", err)
		}
		return jsonResource(AgentsURI, agents)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}
