package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/ladiom/kajopo-connect/internal/infra/config"
	"github.com/ladiom/kajopo-connect/internal/infra/kafka"
	"github.com/ladiom/kajopo-connect/internal/infra/security"
	"github.com/ladiom/kajopo-connect/internal/repository/memory"
	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	httproutes "github.com/ladiom/kajopo-connect/internal/transport/http/routes"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	cfg := &config.AppConfig{
		App: config.AppSettings{Name: "kajopo-connect", Env: "test"},
		Auth: config.AuthSettings{
			SessionSecret: "routes-test-secret",
			TokenIssuer:   "kajopo-test",
		},
		Session: config.SessionSettings{
			AdminTTL:           8 * time.Hour,
			AdminRememberTTL:   720 * time.Hour,
			RegularTTL:         24 * time.Hour,
			RegularRememberTTL: 720 * time.Hour,
			MonitorInterval:    time.Minute,
			WarningWindow:      5 * time.Minute,
		},
		Lockout: config.LockoutSettings{MaxAttempts: 5, Duration: 15 * time.Minute},
		RateLimit: config.RateLimitSettings{
			WindowDuration:   time.Minute,
			LoginMaxAttempts: 100,
		},
	}

	store := memory.NewStore()
	events := kafka.NewStubPublisher(log)

	codec, err := security.NewSessionTokenCodec(cfg.Auth.SessionSecret, cfg.Auth.TokenIssuer)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	hasher := security.NewPasswordHasher(security.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	validator := security.DefaultPasswordValidator()

	sessions := usecase.NewSessionService(store.Sessions, store.Activity, events, codec, cfg.Session, log)
	lockout := usecase.NewLockoutGuard(store.Lockouts, store.Activity, events, cfg.Lockout, log)
	resolver := usecase.NewPermissionResolver(store.Accounts)
	auth := usecase.NewAuthService(store.Accounts, sessions, lockout, store.Activity, events, hasher, validator, log)
	accounts := usecase.NewAccountService(store.Accounts, resolver, store.Activity, hasher, validator, log)
	opportunities := usecase.NewOpportunityService(store.Opportunities, store.Applications, events, log)
	messaging := usecase.NewMessagingService(store.Conversations, store.Messages, events, log)

	engine, err := httproutes.Register(httproutes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(store.RateLimits, log),
		Services: httproutes.ServiceSet{
			Auth:          auth,
			Sessions:      sessions,
			Accounts:      accounts,
			Opportunities: opportunities,
			Messaging:     messaging,
			Resolver:      resolver,
		},
	})
	if err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestRegisterLoginAndSessionFlow(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "ada@example.com",
		"password":   "Vq7#plateau-mint",
		"first_name": "Ada",
		"last_name":  "Obi",
		"type":       "seeker",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "Ada@Example.COM",
		"password": "Vq7#plateau-mint",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	var login struct {
		Token   string `json:"token"`
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login returned empty token")
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/auth/session", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("session lookup status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/logout", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/auth/session", login.Token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout status = %d, want 401", w.Code)
	}
}

func TestExtendSessionRejectsNonPositiveMinutes(t *testing.T) {
	engine := newTestEngine(t)

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "extender@example.com",
		"password":   "Vq7#plateau-mint",
		"first_name": "Ede",
		"last_name":  "Oba",
		"type":       "seeker",
	})
	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "extender@example.com",
		"password": "Vq7#plateau-mint",
	})
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	for _, minutes := range []int{0, -30} {
		w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/session/extend", login.Token, map[string]any{
			"minutes": minutes,
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("extend with %d minutes: status = %d, want 400", minutes, w.Code)
		}
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/session/extend", login.Token, map[string]any{
		"minutes": 30,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("extend with 30 minutes: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestLoginFailureCarriesAttemptBudget(t *testing.T) {
	engine := newTestEngine(t)

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "budget@example.com",
		"password":   "Vq7#plateau-mint",
		"first_name": "Bee",
		"last_name":  "Ade",
		"type":       "provider",
	})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "budget@example.com",
		"password": "wrong-password1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", w.Code)
	}

	var body struct {
		AttemptsRemaining *int `json:"attempts_remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.AttemptsRemaining == nil || *body.AttemptsRemaining != 4 {
		t.Fatalf("attempts_remaining = %v, want 4", body.AttemptsRemaining)
	}
}

func TestUnauthenticatedRequestsGetRedirectHint(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/conversations", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var body struct {
		Redirect string `json:"redirect"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Redirect == "" {
		t.Fatal("expected redirect hint in 401 body")
	}
}

func TestAdminRoutesRefuseRegularAccounts(t *testing.T) {
	engine := newTestEngine(t)

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "seeker@example.com",
		"password":   "Vq7#plateau-mint",
		"first_name": "Sade",
		"last_name":  "Kola",
		"type":       "seeker",
	})
	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "seeker@example.com",
		"password": "Vq7#plateau-mint",
	})
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/admin/accounts", login.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin list status = %d, want 403", w.Code)
	}

	var body struct {
		Error string `json:"error"`
		Delay int    `json:"delay"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "unauthorized" || body.Delay != 3 {
		t.Fatalf("refusal body = %+v, want unauthorized notice with 3s delay", body)
	}
}

func TestOpportunityLifecycleOverHTTP(t *testing.T) {
	engine := newTestEngine(t)

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "provider@example.com",
		"password":   "Vq7#plateau-mint",
		"first_name": "Pelu",
		"last_name":  "Ade",
		"type":       "provider",
	})
	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "provider@example.com",
		"password": "Vq7#plateau-mint",
	})
	var providerLogin struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &providerLogin); err != nil {
		t.Fatalf("decode provider login: %v", err)
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/opportunities", providerLogin.Token, map[string]any{
		"title":       "Community garden volunteers",
		"description": "Weekend planting and upkeep",
		"category":    "environment",
		"location":    "Ibadan",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create opportunity status = %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode opportunity: %v", err)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/opportunities", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public list status = %d", w.Code)
	}
	var listed struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Total != 1 {
		t.Fatalf("listed total = %d, want 1", listed.Total)
	}

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "volunteer@example.com",
		"password":   "Vq7#plateau-mint",
		"first_name": "Vee",
		"last_name":  "Olu",
		"type":       "seeker",
	})
	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "volunteer@example.com",
		"password": "Vq7#plateau-mint",
	})
	var seekerLogin struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &seekerLogin); err != nil {
		t.Fatalf("decode seeker login: %v", err)
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/opportunities/"+created.ID+"/apply", seekerLogin.Token, map[string]any{
		"message": "Happy to help on weekends",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("apply status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/opportunities/"+created.ID+"/apply", seekerLogin.Token, map[string]any{
		"message": "Second try",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate apply status = %d, want 409", w.Code)
	}
}
