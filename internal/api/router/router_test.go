package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/config"
	"github.com/maxfrank76/5s-system/internal/api/handler"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/internal/testutil"
	"github.com/maxfrank76/5s-system/pkg/jwt"
	"github.com/maxfrank76/5s-system/pkg/validation"
)

type apiEnv struct {
	engine http.Handler
	dept   *model.Department
	cl     *model.Checklist
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	validation.Register()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         8080,
			BaseURL:      "http://localhost:8080",
			MaxBodyBytes: 1 << 20,
			CORS:         config.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}},
		},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-at-least-16",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  time.Hour,
			RefreshTokenTTLRemember: 24 * time.Hour,
		},
		Upload:    config.UploadConfig{Dir: t.TempDir(), MaxSizeMB: 1, AllowedExts: []string{".jpg"}},
		RateLimit: config.RateLimitConfig{LoginPerMinute: 10},
		Dashboard: config.DashboardConfig{CacheTTL: time.Minute},
	}

	db := testutil.NewDB(t)
	dept := testutil.CreateDepartment(t, db, "装配车间", model.DepartmentTypeProduction, nil)
	testutil.CreateUser(t, db, "worker1", model.RoleWorker, &dept.DepartmentID)
	cl := testutil.CreateChecklist(t, db, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction, 1, 2)

	logger := zap.NewNop()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repository.NewRepository(db), jwtMgr, nil, logger)
	engine := Setup(cfg, handler.NewHandler(svc), jwtMgr, nil, db, logger)

	return &apiEnv{engine: engine, dept: dept, cl: cl}
}

func (e *apiEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) int {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Code
}

func (e *apiEnv) login(t *testing.T, username string) string {
	t.Helper()
	w := e.do("POST", "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": username + "123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func TestHealthAndMetrics(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = env.do("GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fives_http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do("GET", "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("GET", "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/auth/login", "", map[string]string{"username": "worker1", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkerForbiddenFromAdminRoutes(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "worker1")

	w := env.do("GET", "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("POST", "/api/v1/audits", token, map[string]string{"department_id": env.dept.DepartmentID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSelfCheckFlow(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "worker1")

	var cl struct {
		ID string `json:"id"`
	}
	w := env.do("GET", "/api/v1/self-checks/checklist", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &cl)
	assert.Equal(t, env.cl.ChecklistID, cl.ID)

	var started struct {
		ID string `json:"id"`
	}
	w = env.do("POST", "/api/v1/self-checks/start", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &started)

	// 已有未完成自查时不能再次开始
	w = env.do("POST", "/api/v1/self-checks/start", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ids := testutil.CriterionIDs(env.cl)
	w = env.do("POST", "/api/v1/self-checks/"+started.ID+"/submit", token, map[string]interface{}{
		"answers": []map[string]interface{}{
			{"criterion_id": ids[0], "score": 5},
			{"criterion_id": ids[1], "score": 4},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		TotalScore float64 `json:"total_score"`
		Passed     bool    `json:"passed"`
	}
	decode(t, w, &result)
	assert.Equal(t, 90.0, result.TotalScore)
	assert.True(t, result.Passed)

	w = env.do("GET", "/api/v1/self-checks/active", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"code":0`))
	assert.NotContains(t, w.Body.String(), started.ID)

	w = env.do("GET", "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		CompletedSelfChecks int64 `json:"completed_self_checks"`
	}
	decode(t, w, &stats)
	assert.EqualValues(t, 1, stats.CompletedSelfChecks)
}

func TestLogoutWithoutRedis(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "worker1")

	w := env.do("POST", "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
