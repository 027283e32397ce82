package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/medeva/pharmapos-backend/pkg/auth"
	"github.com/medeva/pharmapos-backend/pkg/config"
	"github.com/medeva/pharmapos-backend/pkg/enums"
)

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "pharmapos-test",
			ExpirationMinutes: 30,
		},
	}
}

func TestRouterHealthLive(t *testing.T) {
	t.Parallel()

	router := NewRouter(Deps{Config: testRouterConfig()})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Data["status"] != "live" {
		t.Fatalf("unexpected payload: %+v", payload.Data)
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	t.Parallel()

	router := NewRouter(Deps{Config: testRouterConfig()})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	router := NewRouter(Deps{Config: testRouterConfig()})

	paths := []string{
		"/api/v1/products",
		"/api/v1/invoices",
		"/api/v1/products/resolve?code=RX1001",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestRouterCheckoutNeedsBranchBoundToken(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	router := NewRouter(Deps{Config: cfg})

	// Token without a branch claim must not reach the checkout handler.
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     enums.UserRoleCashier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouterRoleGateOnProductCreate(t *testing.T) {
	t.Parallel()

	cfg := testRouterConfig()
	router := NewRouter(Deps{Config: cfg})

	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     enums.UserRoleCashier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}
}
