package middleware

import (
	"context"
	"net/http"
	"strings"

	"giraffe/internal/domain/auth"
	"giraffe/internal/transport/http/api"
)

// Auth resolves a bearer token into a UserContext. Requests without a valid
// token pass through anonymously; route guards decide what requires identity.
func Auth(secret string, reviewAdminEmails []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:           claims.UserID,
				Role:             claims.Role,
				BranchID:         claims.BranchID,
				Email:            claims.Email,
				CanManageReviews: auth.CanManageReviews(claims.Role, claims.Email, reviewAdminEmails),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser is for tests that need an authenticated context without a token.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireReviewAdmin guards the endpoints that author and administer manager
// reviews.
func RequireReviewAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		if !user.CanManageReviews {
			api.Fail(w, http.StatusForbidden, "forbidden", "review administration required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireHQ guards catalog administration to HQ roles.
func RequireHQ(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		if user.Role != auth.RoleHQAdmin && user.Role != auth.RoleHQStaff {
			api.Fail(w, http.StatusForbidden, "forbidden", "hq role required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
