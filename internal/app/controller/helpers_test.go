package controller

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/repository"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/db"
	"github.com/ikkim/geonseol-backend/internal/middleware"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-controller"

type testServer struct {
	router     *gin.Engine
	manager    *session.Manager
	privateKey ed25519.PrivateKey
}

func setupControllerTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedAdmin(testDB, "admin-pass"))

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	chain := storage.NewChain(storage.NewMemoryStore())
	manager := session.NewManager(func(string) *dataset.Workspace {
		return dataset.NewWorkspace(chain, dataset.Options{})
	}, session.NewKeyVerifier(pub), session.NewBackendFlagStore(chain))
	t.Cleanup(manager.Close)

	authService := service.NewAuthService(repository.NewAccountRepository(testDB), manager, nil, testJWTSecret, time.Hour)
	authCtrl := NewAuthController(authService)
	datasetCtrl := NewDatasetController(service.NewWorkspaceService())
	billingCtrl := NewBillingController(service.NewBillingService())
	backupCtrl := NewBackupController(service.NewBackupService(nil))
	sheetCtrl := NewSpreadsheetController(service.NewSpreadsheetService())
	authMW := middleware.NewAuthMiddleware(testJWTSecret, manager)

	router := gin.New()
	router.POST("/auth/register", authCtrl.Register)
	router.POST("/auth/login", authCtrl.Login)
	router.POST("/auth/security-key/begin", authCtrl.BeginSecurityKey)

	authed := router.Group("", authMW.Authenticate())
	authed.POST("/auth/security-key", authCtrl.SubmitSecurityKey)
	authed.POST("/auth/security-key/stored", authCtrl.UseStoredKey)
	authed.POST("/auth/logout", authCtrl.Logout)
	authed.GET("/auth/session", authCtrl.Session)
	authed.POST("/auth/revalidate", authCtrl.Revalidate)

	data := authed.Group("", authMW.RequireWorkspace())
	data.GET("/datasets/:name", datasetCtrl.Get)
	data.PUT("/datasets/:name", datasetCtrl.Replace)
	data.GET("/clients/summaries", datasetCtrl.ClientSummaries)
	data.GET("/clients/:id/summary", datasetCtrl.ClientSummary)
	data.GET("/clients/:id/completed-work-items", billingCtrl.CompletedWorkItems)
	data.GET("/stats", datasetCtrl.Stats)
	data.GET("/users", authMW.RequireAdmin(), authCtrl.ListUsers)
	data.POST("/invoices", billingCtrl.CreateInvoice)
	data.GET("/invoices/:id/amount-words", billingCtrl.AmountWords)
	data.GET("/invoices/:id/xlsx", sheetCtrl.ExportInvoice)
	data.POST("/estimates", billingCtrl.CreateEstimate)
	data.POST("/estimates/:id/convert", billingCtrl.ConvertEstimate)
	data.GET("/backup", backupCtrl.Export)
	data.POST("/backup/restore", backupCtrl.Restore)
	data.GET("/export/:name", sheetCtrl.Export)
	data.POST("/import/:name", sheetCtrl.Import)
	router.GET("/templates/:name", sheetCtrl.Template)

	return &testServer{router: router, manager: manager, privateKey: priv}
}

func (ts *testServer) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return ts.do(method, path, token, body)
}

// register 가입 후 로그인하여 토큰 반환
func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	w := ts.doJSON(t, "POST", "/auth/register", "", RegisterRequest{Username: username, Password: "pass1234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return ts.login(t, username, "pass1234")
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w := ts.doJSON(t, "POST", "/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func intPtr(v int) *int { return &v }
