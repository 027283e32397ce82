package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/medeva/pharmapos-backend/pkg/auth"
	"github.com/medeva/pharmapos-backend/pkg/config"
	"github.com/medeva/pharmapos-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-0123456789",
		Issuer:            "pharmapos-test",
		ExpirationMinutes: 30,
	}
}

func TestAuthSeedsContextFromToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	tenantID := uuid.New()
	branchID := uuid.New()

	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   userID,
		TenantID: tenantID,
		BranchID: &branchID,
		Role:     enums.UserRoleCashier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotUser, gotTenant, gotBranch, gotRole string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotTenant = TenantIDFromContext(r.Context())
		gotBranch = BranchIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != userID.String() || gotTenant != tenantID.String() || gotBranch != branchID.String() {
		t.Fatalf("context not seeded: user=%s tenant=%s branch=%s", gotUser, gotTenant, gotBranch)
	}
	if gotRole != string(enums.UserRoleCashier) {
		t.Fatalf("unexpected role: %s", gotRole)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	t.Parallel()

	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRolesBlocksOtherRoles(t *testing.T) {
	t.Parallel()

	handler := RequireRoles(nil, string(enums.UserRoleOwner), string(enums.UserRolePharmacist))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleCashier)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRolePharmacist)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for pharmacist, got %d", rec.Code)
	}
}

func TestBranchContextRequired(t *testing.T) {
	t.Parallel()

	handler := BranchContext(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without branch, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req = req.WithContext(WithBranchID(req.Context(), uuid.NewString()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with branch, got %d", rec.Code)
	}
}
