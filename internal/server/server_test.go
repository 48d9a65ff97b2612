package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/swipereader/internal/infrastructure/config"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/logging"
)

const page = `<!doctype html><html><head><title>front</title></head>
<body><div id="siteTable"></div></body></html>`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(origin.Close)

	cfg := config.Default()
	cfg.Surface.Origin = origin.URL
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(context.Background(), cfg, &logging.Logger{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 0, body["sessions"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSessionRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/sessions", `{"path":"/r/golang"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view struct {
		ID  string `json:"id"`
		Top struct {
			Path string `json:"path"`
		} `json:"top"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, "/r/golang", view.Top.Path)
	assert.Equal(t, 1, srv.Sessions().Len())

	w = do(t, h, http.MethodPost, "/sessions/"+view.ID+"/push", `{"path":"/r/golang/comments/abc"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/sessions/"+view.ID+"/backward", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodDelete, "/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, srv.Sessions().Len())
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/sessions", `{"path":"no-slash"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# HELP")
}

func TestGestureConfig(t *testing.T) {
	g := GestureConfig(config.Default().Gesture)
	assert.Equal(t, 24.0, g.EdgeWidth)
	assert.Equal(t, 390.0, g.ScreenWidth)
	assert.Positive(t, g.SampleWindow)
}

func TestStreamDeliversNavigation(t *testing.T) {
	srv := newTestServer(t)
	api := httptest.NewServer(srv.Handler())
	defer api.Close()

	w := do(t, srv.Handler(), http.MethodPost, "/sessions", `{"path":"/"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	header := http.Header{}
	header.Set("Accept-Encoding", "gzip")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(api.URL, "http")+"/sessions/"+created.ID+"/stream", header)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	next := func(want string) map[string]any {
		t.Helper()
		for {
			var msg map[string]any
			require.NoError(t, conn.ReadJSON(&msg))
			if msg["type"] == want {
				return msg
			}
		}
	}

	hello := next("hello")
	assert.Equal(t, created.ID, hello["session"])
	assert.NotEmpty(t, hello["subscriber"])
	next("navigation")

	w = do(t, srv.Handler(), http.MethodPost, "/sessions/"+created.ID+"/push", `{"path":"/r/golang"}`)
	require.Equal(t, http.StatusOK, w.Code)
	nav := next("navigation")
	top := nav["navigation"].(map[string]any)["top"].(map[string]any)
	assert.Equal(t, "/r/golang", top["path"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	next("pong")
}

func TestStreamUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv.Handler(), http.MethodGet, "/sessions/missing/stream", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
