package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/shared/auth"
)

// SessionCookieName is the fallback cookie carrying the session token.
const SessionCookieName = "jwt"

type userContextKey struct{}

// UserFromContext returns the authenticated user attached by Protect.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*model.User)
	return user, ok
}

// Guard authenticates requests and enforces role allow-lists.
type Guard struct {
	issuer   *auth.TokenIssuer
	userRepo repository.UserRepository
}

// NewGuard creates a Guard.
func NewGuard(issuer *auth.TokenIssuer, userRepo repository.UserRepository) *Guard {
	return &Guard{issuer: issuer, userRepo: userRepo}
}

// Protect rejects requests without a valid session token and attaches the
// resolved user to the request context. The token is read from the
// Authorization header, the jwt cookie, or the token query parameter, in
// that order.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			unauthorized(w, "Authentication required. Please log in.")
			return
		}

		userID, err := g.issuer.Verify(token)
		if err != nil {
			unauthorized(w, "Invalid token. Please log in again.")
			return
		}

		user, err := g.userRepo.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				unauthorized(w, "The user belonging to this token no longer exists.")
				return
			}

			writeJSONError(w, http.StatusInternalServerError, "something went wrong")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RestrictTo allows only the given roles through. It must run after Protect;
// the role always comes from the resolved session user, never from the
// request body.
func (g *Guard) RestrictTo(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				unauthorized(w, "Authentication required. Please log in.")
				return
			}

			if !allowed[user.Role] {
				writeJSONError(w, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) (string, bool) {
	const bearer = "Bearer "

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearer) {
		if token := header[len(bearer):]; token != "" {
			return token, true
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}

	return "", false
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, message)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
