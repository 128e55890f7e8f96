package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/statelab"
	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/ports"
	"github.com/aretw0/statelab/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ReplayIDHeader carries the replay id in requests and responses.
const ReplayIDHeader = "X-Replay-ID"

// DefaultMaxBodySize bounds request bodies.
const DefaultMaxBodySize = 1 << 20

// Server exposes an engine over HTTP.
type Server struct {
	Engine  ports.Engine
	Streams *StreamManager

	logger      *slog.Logger
	replayDelay time.Duration
	maxBody     int64
	maxInput    int
	metrics     http.Handler
	router      chi.Router

	unsubscribe func()
	mu          sync.Mutex
	last        *domain.Snapshot
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithReplayDelay sets the delay used when a replay request does not name one.
func WithReplayDelay(d time.Duration) Option {
	return func(s *Server) {
		s.replayDelay = d
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// WithMaxInputSize bounds string inputs of POST /send, see runner.SanitizeInput.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server and subscribes it to the engine so that every
// snapshot change is streamed to /events as a diff. Call Close to unsubscribe.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		Engine:      engine,
		logger:      logging.NewNop(),
		replayDelay: statelab.DefaultReplayDelay,
		maxBody:     DefaultMaxBodySize,
		maxInput:    runner.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.Streams = NewStreamManager(s.logger)

	snap := engine.GetState()
	s.last = &snap
	s.unsubscribe = engine.Subscribe(s.onSnapshot)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Get("/diagram", s.GetDiagram)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/load", s.Load)
	r.Post("/send", s.Send)
	r.Post("/undo", s.Undo)
	r.Post("/reset", s.Reset)
	r.Post("/replay", s.Replay)

	s.router = r
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops streaming engine changes.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Server) onSnapshot(snap domain.Snapshot) {
	s.mu.Lock()
	diff := domain.Diff(s.last, &snap)
	s.last = &snap
	s.mu.Unlock()

	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("Failed to encode diff", "err", err)
		return
	}
	s.Streams.Broadcast(string(data))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ReplayIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", ReplayIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SendRequest is the body of POST /send.
type SendRequest struct {
	Event string `json:"event"`
	Input any    `json:"input,omitempty"`
}

// SendResponse is the body returned by POST /send.
type SendResponse struct {
	Result domain.SendResult `json:"result"`
	State  domain.Snapshot   `json:"state"`
}

// ReplayRequest is the body of POST /replay. Delay is a Go duration ("250ms").
type ReplayRequest struct {
	Steps []domain.ReplayStep `json:"steps"`
	Delay *string             `json:"delay,omitempty"`
}

// ReplayResponse is the body returned by POST /replay.
type ReplayResponse struct {
	ReplayID string              `json:"replayId"`
	Results  []domain.SendResult `json:"results"`
	State    domain.Snapshot     `json:"state"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "statelab-http",
		"version": strings.TrimSpace(statelab.Version),
	})
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.GetState())
}

// GetDiagram handles the GET /diagram request.
func (s *Server) GetDiagram(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.Engine.GetState().DiagramSource)
}

// Load handles the POST /load request. YAML bodies are accepted when the
// content type says so, JSON otherwise.
func (s *Server) Load(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	format := loader.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = loader.FormatYAML
	}
	cfg, err := loader.ParseConfig(body, format)
	if err != nil {
		s.logger.Warn("Load: invalid configuration", "err", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Engine.Load(r.Context(), cfg); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.GetState())
}

// Send handles the POST /send request.
// Applied returns 200, no transition 409 and a failed action 422.
func (s *Server) Send(w http.ResponseWriter, r *http.Request) {
	var body SendRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Event == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("event is required"))
		return
	}

	// Sanitize Input (Global Policy)
	if str, ok := body.Input.(string); ok && str != "" {
		clean, err := runner.SanitizeInput(str, s.maxInput)
		if err != nil {
			s.logger.Warn("Send: input rejected", "err", err, "size", len(str))
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid input: %w", err))
			return
		}
		body.Input = clean
	}

	res, err := s.Engine.Send(r.Context(), body.Event, body.Input)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	status := http.StatusOK
	switch res.Kind {
	case domain.ResultNoTransition:
		status = http.StatusConflict
	case domain.ResultActionFailed:
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, SendResponse{Result: res, State: s.Engine.GetState()})
}

// Undo handles the POST /undo request.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Undo(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.GetState())
}

// Reset handles the POST /reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reset(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.GetState())
}

// Replay handles the POST /replay request. The request blocks until the
// replay completes. The replay id is taken from the X-Replay-ID header when
// present and is echoed back.
func (s *Server) Replay(w http.ResponseWriter, r *http.Request) {
	var body ReplayRequest
	if !s.decode(w, r, &body) {
		return
	}
	for i, step := range body.Steps {
		if step.Event == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("replay step %d has no event", i))
			return
		}
	}

	delay := s.replayDelay
	if body.Delay != nil {
		d, err := time.ParseDuration(*body.Delay)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid delay: %w", err))
			return
		}
		delay = d
	}

	id := r.Header.Get(ReplayIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(ReplayIDHeader, id)

	results, err := s.Engine.Replay(statelab.ContextWithReplayID(r.Context(), id), body.Steps, delay)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ReplayResponse{ReplayID: id, Results: results, State: s.Engine.GetState()})
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional "watch" query parameter filters diffs by field: state, context, history.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()
	s.logger.Info("SSE client connected")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "state":
			if diff.StateID != nil {
				return true
			}
		case "context":
			if len(diff.Context) > 0 {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrReplayInProgress):
		status = http.StatusLocked
	case errors.Is(err, domain.ErrNotLoaded):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidConfig):
		status = http.StatusBadRequest
	default:
		s.logger.Error("Engine operation failed", "err", err)
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
