package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/statelab"
	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toggleJSON = `{
  "id": "toggle",
  "initialState": "off",
  "context": {"count": 0},
  "states": {
    "off": {"label": "Off", "on": {"toggle": {"to": "on", "action": "context.count = context.count + 1"}}},
    "on": {"on": {
      "toggle": {"to": "off"},
      "break": {"to": "off", "action": "context.count = context.count + \"x\""}
    }}
  }
}`

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func newLoadedServer(t *testing.T, opts ...Option) (*statelab.Engine, *Server) {
	t.Helper()
	eng := statelab.New()
	srv := NewServer(eng, opts...)
	t.Cleanup(srv.Close)

	w := do(t, srv, http.MethodPost, "/load", toggleJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return eng, srv
}

func TestServer_Health(t *testing.T) {
	srv := NewServer(statelab.New())
	defer srv.Close()

	w := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, srv, http.MethodGet, "/info", "")
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "statelab-http", info["app"])
	assert.Equal(t, statelab.Version, info["version"])
}

func TestServer_Load(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		_, srv := newLoadedServer(t)
		w := do(t, srv, http.MethodGet, "/state", "")
		snap := decodeBody[domain.Snapshot](t, w)
		assert.Equal(t, "off", snap.ID)
		assert.Contains(t, snap.AvailableEvents, "toggle")
		assert.Len(t, snap.History, 1)
	})

	t.Run("YAML", func(t *testing.T) {
		srv := NewServer(statelab.New())
		defer srv.Close()
		body := "id: door\ninitialState: closed\nstates:\n  closed:\n    on:\n      open: {to: opened}\n  opened: {}\n"
		w := do(t, srv, http.MethodPost, "/load", body, "Content-Type", "application/yaml")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "closed", decodeBody[domain.Snapshot](t, w).ID)
	})

	t.Run("Invalid", func(t *testing.T) {
		eng, srv := newLoadedServer(t)
		w := do(t, srv, http.MethodPost, "/load", `{"id": "empty"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody[ErrorResponse](t, w).Error, "invalid configuration")
		assert.Equal(t, "off", eng.GetState().ID)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, srv := newLoadedServer(t)
		w := do(t, srv, http.MethodPost, "/load", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_Send(t *testing.T) {
	eng, srv := newLoadedServer(t)

	w := do(t, srv, http.MethodPost, "/send", `{"event": "toggle", "input": {"by": "ada"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[SendResponse](t, w)
	assert.Equal(t, domain.ResultApplied, resp.Result.Kind)
	assert.Equal(t, "on", resp.State.ID)
	assert.Equal(t, map[string]any{"count": float64(1)}, resp.State.Context)

	w = do(t, srv, http.MethodPost, "/send", `{"event": "nope"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ResultNoTransition, decodeBody[SendResponse](t, w).Result.Kind)

	w = do(t, srv, http.MethodPost, "/send", `{"event": "break"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp = decodeBody[SendResponse](t, w)
	assert.Equal(t, domain.ResultActionFailed, resp.Result.Kind)
	assert.NotEmpty(t, resp.Result.Error)
	assert.Equal(t, "on", resp.State.ID)

	w = do(t, srv, http.MethodPost, "/send", `{"input": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/send", `{"event": "toggle", "input": "`+strings.Repeat("x", 5000)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "on", eng.GetState().ID)
}

func TestServer_SendInputLimit(t *testing.T) {
	eng, srv := newLoadedServer(t, WithMaxInputSize(4))

	w := do(t, srv, http.MethodPost, "/send", `{"event": "toggle", "input": "hello"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "off", eng.GetState().ID)

	w = do(t, srv, http.MethodPost, "/send", `{"event": "toggle", "input": "hi\u0007"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[SendResponse](t, w)
	assert.Equal(t, "hi", resp.State.History[1].Input)
}

func TestServer_SendNotLoaded(t *testing.T) {
	srv := NewServer(statelab.New())
	defer srv.Close()

	w := do(t, srv, http.MethodPost, "/send", `{"event": "toggle"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrNotLoaded.Error(), decodeBody[ErrorResponse](t, w).Error)
}

func TestServer_UndoReset(t *testing.T) {
	_, srv := newLoadedServer(t)
	do(t, srv, http.MethodPost, "/send", `{"event": "toggle"}`)
	do(t, srv, http.MethodPost, "/send", `{"event": "toggle"}`)

	w := do(t, srv, http.MethodPost, "/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeBody[domain.Snapshot](t, w)
	assert.Equal(t, "on", snap.ID)
	assert.Len(t, snap.History, 2)

	w = do(t, srv, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeBody[domain.Snapshot](t, w)
	assert.Equal(t, "off", snap.ID)
	assert.Equal(t, map[string]any{"count": float64(0)}, snap.Context)
	assert.Len(t, snap.History, 1)
}

func TestServer_Replay(t *testing.T) {
	t.Run("Results and id", func(t *testing.T) {
		_, srv := newLoadedServer(t)
		body := `{"steps": [{"event": "toggle"}, {"event": "nope"}, {"event": "toggle"}, {"event": "toggle"}], "delay": "0s"}`
		w := do(t, srv, http.MethodPost, "/replay", body, ReplayIDHeader, "replay-42")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "replay-42", w.Header().Get(ReplayIDHeader))

		resp := decodeBody[ReplayResponse](t, w)
		assert.Equal(t, "replay-42", resp.ReplayID)
		require.Len(t, resp.Results, 4)
		assert.Equal(t, domain.ResultNoTransition, resp.Results[1].Kind)
		assert.Equal(t, "on", resp.State.ID)
		assert.Equal(t, map[string]any{"count": float64(2)}, resp.State.Context)
	})

	t.Run("Generated id", func(t *testing.T) {
		_, srv := newLoadedServer(t)
		w := do(t, srv, http.MethodPost, "/replay", `{"steps": [], "delay": "0s"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(ReplayIDHeader))
	})

	t.Run("Bad requests", func(t *testing.T) {
		_, srv := newLoadedServer(t)
		w := do(t, srv, http.MethodPost, "/replay", `{"steps": [{"input": 1}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = do(t, srv, http.MethodPost, "/replay", `{"steps": [], "delay": "soon"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Busy", func(t *testing.T) {
		eng, srv := newLoadedServer(t)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			eng.Replay(ctx, []domain.ReplayStep{{Event: "toggle"}}, time.Hour)
		}()
		require.Eventually(t, eng.Replaying, 5*time.Second, 5*time.Millisecond)

		w := do(t, srv, http.MethodPost, "/send", `{"event": "toggle"}`)
		assert.Equal(t, http.StatusLocked, w.Code)
		w = do(t, srv, http.MethodPost, "/replay", `{"steps": []}`)
		assert.Equal(t, http.StatusLocked, w.Code)

		cancel()
		<-done
	})
}

func TestServer_Diagram(t *testing.T) {
	_, srv := newLoadedServer(t)
	w := do(t, srv, http.MethodGet, "/diagram", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "stateDiagram-v2"))
	assert.Contains(t, w.Body.String(), "class off current")
}

func TestServer_Metrics(t *testing.T) {
	metrics := observability.NewMetrics()
	eng := statelab.New(statelab.WithLifecycleHooks(metrics.Hooks()))
	srv := NewServer(eng, WithMetrics(metrics.Handler()))
	defer srv.Close()

	do(t, srv, http.MethodPost, "/load", toggleJSON)
	do(t, srv, http.MethodPost, "/send", `{"event": "toggle"}`)

	w := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "statelab_transitions_total")
}

func TestServer_CORS(t *testing.T) {
	srv := NewServer(statelab.New())
	defer srv.Close()

	w := do(t, srv, http.MethodOptions, "/send", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Events(t *testing.T) {
	eng, srv := newLoadedServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?watch=state", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool { return srv.Streams.Len() == 1 }, 5*time.Second, 5*time.Millisecond)

	_, err = eng.Send(ctx, "toggle", nil)
	require.NoError(t, err)

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	require.NotNil(t, diff.StateID)
	assert.Equal(t, "on", *diff.StateID)
	assert.Equal(t, map[string]any{"count": float64(1)}, diff.Context)
	require.NotNil(t, diff.History)
	assert.Len(t, diff.History.Appended, 1)
}

func TestMatchesWatch(t *testing.T) {
	stateOnly, _ := json.Marshal(domain.SnapshotDiff{StateID: &[]string{"on"}[0]})
	contextOnly, _ := json.Marshal(domain.SnapshotDiff{Context: map[string]any{"a": 1}})

	assert.True(t, matchesWatch(string(stateOnly), nil))
	assert.True(t, matchesWatch(string(stateOnly), []string{"state"}))
	assert.False(t, matchesWatch(string(stateOnly), []string{"context", "history"}))
	assert.True(t, matchesWatch(string(contextOnly), []string{" context"}))
	assert.True(t, matchesWatch("not json", []string{"state"}))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe()
	assert.Equal(t, 1, sm.Len())

	sm.Broadcast("hello")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("flood")
	}
	assert.Len(t, ch, cap(ch))

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Len())

	_, open := <-ch
	for open {
		_, open = <-ch
	}
	assert.False(t, open)
}
