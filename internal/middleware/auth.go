package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dan9191/auth-service/internal/models"
	"github.com/Dan9191/auth-service/internal/service"
	"github.com/Dan9191/auth-service/internal/utils/httpresp"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the authenticated user in the request context
func AuthMiddleware(authn Authenticator, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if service.HasCode(err, service.CodeUnauthorized) {
					log.WithField("path", r.URL.Path).Debugf("Unauthorized request: %v", err)
					httpresp.Error(w, http.StatusUnauthorized, err.Error())
					return
				}
				log.WithError(err).Error("Failed to authenticate request")
				httpresp.Error(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns "" when the header is missing or uses another scheme.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by AuthMiddleware
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
