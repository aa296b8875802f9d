package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"giraffe/internal/domain/auth"
)

const testSecret = "test-secret"

func tokenFor(t *testing.T, role, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{
		UserID: "user-1",
		Role:   role,
		Email:  email,
	}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestAuthResolvesBearerToken(t *testing.T) {
	var got auth.UserContext
	var ok bool
	handler := Auth(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/branches", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, auth.RoleHQAdmin, "admin@giraffekitchens.co.uk"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("expected user context to be set")
	}
	if got.UserID != "user-1" || got.Role != auth.RoleHQAdmin {
		t.Fatalf("unexpected user context: %+v", got)
	}
	if !got.CanManageReviews {
		t.Fatal("expected hq admin to manage reviews")
	}
}

func TestAuthPassesAnonymousThrough(t *testing.T) {
	handler := Auth(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("expected no user context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected anonymous request to pass, got %d", rec.Code)
	}
}

func TestAuthIgnoresInvalidToken(t *testing.T) {
	handler := Auth(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("expected no user context for invalid token")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/branches", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthAllowListGrantsReviewAdmin(t *testing.T) {
	allowed := []string{"lead.reviewer@giraffekitchens.co.uk"}
	var got auth.UserContext
	handler := Auth(testSecret, allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/manager-reviews", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, auth.RoleBranchManager, "Lead.Reviewer@giraffekitchens.co.uk"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !got.CanManageReviews {
		t.Fatal("expected allow-listed branch manager to manage reviews")
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireReviewAdmin(t *testing.T) {
	handler := RequireReviewAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	manager := httptest.NewRequest(http.MethodPost, "/api/v1/manager-reviews", nil)
	manager = manager.WithContext(WithUser(manager.Context(), auth.UserContext{
		UserID: "mgr-1",
		Role:   auth.RoleBranchManager,
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, manager)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for branch manager, got %d", rec.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/v1/manager-reviews", nil)
	admin = admin.WithContext(WithUser(admin.Context(), auth.UserContext{
		UserID:           "hq-1",
		Role:             auth.RoleHQAdmin,
		CanManageReviews: true,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, admin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected review admin to pass, got %d", rec.Code)
	}
}

func TestRequireHQ(t *testing.T) {
	handler := RequireHQ(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	manager := httptest.NewRequest(http.MethodPost, "/api/v1/branches", nil)
	manager = manager.WithContext(WithUser(manager.Context(), auth.UserContext{
		UserID: "mgr-1",
		Role:   auth.RoleBranchManager,
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, manager)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for branch manager, got %d", rec.Code)
	}

	staff := httptest.NewRequest(http.MethodPost, "/api/v1/branches", nil)
	staff = staff.WithContext(WithUser(staff.Context(), auth.UserContext{
		UserID: "hq-2",
		Role:   auth.RoleHQStaff,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, staff)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected hq staff to pass, got %d", rec.Code)
	}
}
