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

	"github.com/aretw0/statelab"
	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/ports"
	"github.com/aretw0/statelab/pkg/runner"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	stateURI   = "statelab://state"
	diagramURI = "statelab://diagram"
)

// StateResponse provides a unified structure across tools.
type StateResponse struct {
	Result   *domain.SendResult  `json:"result,omitempty" jsonschema_description:"Outcome of the sent event"`
	Results  []domain.SendResult `json:"results,omitempty" jsonschema_description:"Outcome of every replayed event"`
	ReplayID string              `json:"replayId,omitempty" jsonschema_description:"Id of the replay, present in logs"`
	State    domain.Snapshot     `json:"state" jsonschema_description:"The current snapshot of the machine"`
}

// Server wraps a statelab engine and exposes it as an MCP Server.
type Server struct {
	engine      ports.Engine
	logger      *slog.Logger
	replayDelay time.Duration
	maxInput    int
	mcpServer   *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. It must not write to stdout when serving stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithReplayDelay sets the delay used when the replay tool does not name one.
func WithReplayDelay(d time.Duration) Option {
	return func(s *Server) {
		s.replayDelay = d
	}
}

// WithMaxInputSize bounds the input argument of send_event.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine:      engine,
		logger:      logging.NewNop(),
		replayDelay: statelab.DefaultReplayDelay,
		maxInput:    runner.DefaultMaxInputSize,
		mcpServer:   server.NewMCPServer("statelab-mcp", strings.TrimSpace(statelab.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
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

// ServeSSE serves the SSE transport on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr string, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: get_state
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state, context, available events and history of the machine."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	// TOOL: send_event
	s.mcpServer.AddTool(mcp.NewTool("send_event",
		mcp.WithDescription("Send an event to the machine. The result tells whether a transition was applied, missing or failed in its action."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event id, one of the available events of the current state")),
		mcp.WithString("input", mcp.Description("Event input as JSON, plain text is sent as a string (optional)")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendEvent))

	// TOOL: undo
	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Revert the most recent transition."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	// TOOL: reset
	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Reload the configuration, discarding context and history."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	// TOOL: replay
	s.mcpServer.AddTool(mcp.NewTool("replay",
		mcp.WithDescription("Reset the machine and send a list of events in order."),
		mcp.WithString("steps", mcp.Required(), mcp.Description(`JSON array of steps, e.g. [{"event": "toggle", "input": {}}]`)),
		mcp.WithString("delay", mcp.Description("Pause before each event as a duration, e.g. 250ms (optional)")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleReplay))

	// TOOL: get_diagram
	s.mcpServer.AddTool(mcp.NewTool("get_diagram",
		mcp.WithDescription("Get the Mermaid state diagram with the current state highlighted."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		diagram := s.engine.GetState().DiagramSource
		if diagram == "" {
			return mcp.NewToolResultError("no diagram available"), nil
		}
		return mcp.NewToolResultText(diagram), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	return StateResponse{State: s.engine.GetState()}, nil
}

func (s *Server) handleSendEvent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	event, _ := args["event"].(string)
	if event == "" {
		return StateResponse{}, errors.New("event is required")
	}

	raw, _ := args["input"].(string)
	clean, err := runner.SanitizeInput(raw, s.maxInput)
	if err != nil {
		s.logger.Warn("MCP send_event: input rejected", "err", err, "size", len(raw))
		return StateResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.engine.Send(ctx, event, runner.ParseInput(clean))
	if err != nil {
		return StateResponse{}, fmt.Errorf("send failed: %w", err)
	}
	return StateResponse{Result: &res, State: s.engine.GetState()}, nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	if err := s.engine.Undo(ctx); err != nil {
		return StateResponse{}, fmt.Errorf("undo failed: %w", err)
	}
	return StateResponse{State: s.engine.GetState()}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	if err := s.engine.Reset(ctx); err != nil {
		return StateResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return StateResponse{State: s.engine.GetState()}, nil
}

func (s *Server) handleReplay(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	raw, _ := args["steps"].(string)
	steps, err := loader.ParseScript([]byte(raw), loader.FormatJSON)
	if err != nil {
		return StateResponse{}, err
	}

	delay := s.replayDelay
	if d, ok := args["delay"].(string); ok && d != "" {
		delay, err = time.ParseDuration(d)
		if err != nil {
			return StateResponse{}, fmt.Errorf("invalid delay: %w", err)
		}
	}

	id := uuid.NewString()
	results, err := s.engine.Replay(statelab.ContextWithReplayID(ctx, id), steps, delay)
	if err != nil {
		return StateResponse{}, fmt.Errorf("replay %s failed: %w", id, err)
	}
	return StateResponse{Results: results, ReplayID: id, State: s.engine.GetState()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: statelab://state
	s.mcpServer.AddResource(mcp.NewResource(stateURI, "Current Snapshot",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.GetState())
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      stateURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: statelab://diagram
	s.mcpServer.AddResource(mcp.NewResource(diagramURI, "State Diagram",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      diagramURI,
				MIMEType: "text/vnd.mermaid",
				Text:     s.engine.GetState().DiagramSource,
			},
		}, nil
	})
}
