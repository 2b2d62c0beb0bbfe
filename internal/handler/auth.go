package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/mkuznetsov/storefront/internal/domain/identity"
	"github.com/mkuznetsov/storefront/internal/repository"
)

type identityKey struct{}

// withIdentity resolves the caller from the X-User-ID header set by the
// authenticating proxy. The role always comes from the database, never from
// the request, so a client cannot claim a tier it does not have. Requests
// without the header pass through anonymously; handlers that need a caller
// use requireIdentity.
func (h *Handler) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := parseInt64(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid X-User-ID header")
			return
		}
		u, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				respondError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			writeDomainError(w, r, err)
			return
		}

		id := identity.Identity{UserID: u.ID, Role: u.Role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

// requireIdentity returns the resolved caller or writes 401 and reports
// ok == false.
func requireIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := r.Context().Value(identityKey{}).(identity.Identity)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return identity.Identity{}, false
	}
	return id, true
}
