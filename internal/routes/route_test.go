package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/krishna100204/EventApp/internal/config"
	"github.com/krishna100204/EventApp/internal/container"
	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContainer() *container.Container {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment:       "test",
		MongoDBDatabase:   "eventapp_test",
		AllowedOrigins:    []string{"http://localhost:5173"},
		AuthRatePerMinute: 2,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return container.NewContainer(cfg, logger, nil, nil, helpers.NewTokenManager("secret", time.Hour, nil))
}

func TestHealth(t *testing.T) {
	r := SetupRoutes(testContainer())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rooms":0`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := SetupRoutes(testContainer())

	for _, path := range []string{"/api/events", "/api/events/abc/attend"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestGuestAndLoginRateLimit(t *testing.T) {
	r := SetupRoutes(testContainer())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/guest", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var last int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestWebSocketMounted(t *testing.T) {
	c := testContainer()
	srv := httptest.NewServer(SetupRoutes(c))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "joinEvent", "eventId": "e1"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ack map[string]interface{}
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "joined", ack["type"])
	assert.Equal(t, 1, c.Registry.Stats().Rooms)
}
