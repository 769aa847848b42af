package middleware

import (
	"context"
	"net/http"
	"strings"

	"roombook/pkg/auth"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// Authenticator guards individual routes. It wraps httprouter handles
// rather than the whole server so public routes stay open.
type Authenticator struct {
	verifier TokenVerifier
	resolver IdentityResolver
	log      *logger.Logger
}

// IdentityResolver reloads a verified identity from the account store so
// deleted accounts and role changes take effect before the token expires.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id auth.Identity) (auth.Identity, error)
}

func NewAuthenticator(verifier TokenVerifier, log *logger.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, log: log}
}

func (a *Authenticator) WithResolver(resolver IdentityResolver) *Authenticator {
	a.resolver = resolver
	return a
}

func (a *Authenticator) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeAppError(w, apperrors.Unauthorized("missing bearer token"))
			return
		}

		id, err := a.verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			a.log.Debug("Rejected access token",
				"request_id", RequestIDFrom(r.Context()),
				"error", err,
			)
			writeAppError(w, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		if a.resolver != nil {
			id, err = a.resolver.ResolveIdentity(r.Context(), id)
			if err != nil {
				a.log.Debug("Rejected token identity",
					"request_id", RequestIDFrom(r.Context()),
					"error", err,
				)
				writeAppError(w, apperrors.AsAppError(err))
				return
			}
		}

		next(w, r.WithContext(auth.WithIdentity(r.Context(), id)), ps)
	}
}

// RequireRole authenticates and then checks the caller's role.
func (a *Authenticator) RequireRole(next httprouter.Handle, roles ...model.Role) httprouter.Handle {
	return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, _ := auth.IdentityFrom(r.Context())
		if !id.Has(roles...) {
			a.log.Warn("Insufficient role",
				"request_id", RequestIDFrom(r.Context()),
				"user_id", id.UserID,
				"role", id.Role,
				"path", r.URL.Path,
			)
			writeAppError(w, apperrors.Forbidden("insufficient permissions"))
			return
		}
		next(w, r, ps)
	})
}
