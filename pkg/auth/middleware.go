package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

type ContextKey string

const PrincipalKey ContextKey = "principal"

// Principal is the authenticated caller. SubjectID is the id of the caller's
// row in the role table (workers.id, homeowners.id or admins.id).
type Principal struct {
	UserID    uuid.UUID   `json:"user_id"`
	Role      domain.Role `json:"role"`
	SubjectID uuid.UUID   `json:"subject_id"`
	Email     string      `json:"email"`
	Token     string      `json:"-"`
}

func (p *Principal) Is(roles ...domain.Role) bool {
	return p != nil && slices.Contains(roles, p.Role)
}

func (p *Principal) IsAdmin() bool {
	return p.Is(domain.RoleAdmin)
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok && p != nil
}

// Authenticator turns a bearer token into a principal. It returns
// domain.ErrUnauthorized for bad tokens and domain.ErrForbidden when the
// token is valid but no profile exists.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type Middleware struct {
	authenticator Authenticator
}

func NewMiddleware(a Authenticator) *Middleware {
	return &Middleware{authenticator: a}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		principal, err := m.authenticator.Authenticate(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnauthorized):
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		case errors.Is(err, domain.ErrForbidden):
			utils.RespondWithError(w, http.StatusForbidden, "User profile not found")
			return
		default:
			utils.RespondWithServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !p.Is(roles...) {
				utils.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}
