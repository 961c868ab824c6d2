package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/ikkim/geonseol-backend/config"
	"github.com/ikkim/geonseol-backend/internal/app/controller"
	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/app/repository"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/db"
	"github.com/ikkim/geonseol-backend/internal/middleware"
	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/router"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationSecret = "integration-secret"

type TestServer struct {
	Server *httptest.Server
	Store  *storage.MemoryStore
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	store := storage.NewMemoryStore()
	chain := storage.NewChain(store)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	sessions := session.NewManager(func(sessionID string) *dataset.Workspace {
		ws := dataset.NewWorkspace(chain, dataset.Options{})
		ws.OnPersisted(func(user string, ds namespace.Dataset) {
			hub.Publish(user, websocket.Event{Type: websocket.EventDatasetChanged, Dataset: string(ds), Origin: sessionID})
		})
		return ws
	}, nil, session.NewBackendFlagStore(chain))
	t.Cleanup(sessions.Close)

	authService := service.NewAuthService(repository.NewAccountRepository(testDB), sessions, hub, integrationSecret, time.Hour)
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewDatasetController(service.NewWorkspaceService()),
		controller.NewBillingController(service.NewBillingService()),
		controller.NewBackupController(service.NewBackupService(hub)),
		controller.NewSpreadsheetController(service.NewSpreadsheetService()),
		controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(integrationSecret, sessions),
		cfg,
	)

	srv := httptest.NewServer(r.Setup())
	t.Cleanup(srv.Close)
	return &TestServer{Server: srv, Store: store}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *TestServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := ts.request(t, "POST", "/api/v1/auth/login", "", controller.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Token
}

func TestIntegration_HealthAndAuthRequired(t *testing.T) {
	ts := setupIntegrationTest(t)

	resp := ts.request(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.request(t, "GET", "/api/v1/datasets/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.request(t, "GET", "/api/v1/templates/clients.xlsx", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_WriteReachesOtherSessions(t *testing.T) {
	ts := setupIntegrationTest(t)

	resp := ts.request(t, "POST", "/api/v1/auth/register", "", controller.RegisterRequest{Username: "kim", Password: "pass1234"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	writer := ts.login(t, "kim", "pass1234")
	watcher := ts.login(t, "kim", "pass1234")

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws?token=" + watcher
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 등록이 끝날 때까지 ping/pong 으로 확인
	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Type: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var pong map[string]interface{}
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])

	resp = ts.request(t, "PUT", "/api/v1/datasets/clients", writer, []model.Client{{ID: 1, Name: "김건축"}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var ev websocket.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, websocket.EventDatasetChanged, ev.Type)
	assert.Equal(t, string(namespace.Clients), ev.Dataset)
}
