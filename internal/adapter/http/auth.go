package httpadapter

import (
	"context"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/bcrypt"

	"sentinelnet/internal/core/port"
)

type contextKey string

const orgIDKey contextKey = "org_id"

const authCacheSize = 256

// authenticator resolves a bearer API key to an organization id. Keys are
// stored bcrypt-hashed, so a cold lookup compares against every org; hits
// are cached in an LRU so steady-state requests skip the bcrypt scan.
type authenticator struct {
	orgs  port.OrganizationRepository
	cache *lru.Cache[string, string]
}

func newAuthenticator(orgs port.OrganizationRepository) *authenticator {
	cache, _ := lru.New[string, string](authCacheSize)
	return &authenticator{orgs: orgs, cache: cache}
}

// resolve returns the org id for an API key, or "" when the key is unknown.
func (a *authenticator) resolve(ctx context.Context, apiKey string) (string, error) {
	if id, ok := a.cache.Get(apiKey); ok {
		return id, nil
	}
	orgs, err := a.orgs.List(ctx)
	if err != nil {
		return "", err
	}
	for _, org := range orgs {
		if bcrypt.CompareHashAndPassword([]byte(org.APIKeyHash), []byte(apiKey)) == nil {
			a.cache.Add(apiKey, org.ID)
			return org.ID, nil
		}
	}
	return "", nil
}

// authenticate is the middleware guarding /api/v1. It requires an
// "Authorization: Bearer <key>" header and stores the resolved org id in
// the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		apiKey, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || apiKey == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "missing API key", http.StatusUnauthorized)
			return
		}
		orgID, err := h.auth.resolve(r.Context(), apiKey)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if orgID == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), orgIDKey, orgID)))
	})
}

// callerOrg returns the org id stored by the authenticate middleware.
func callerOrg(r *http.Request) string {
	id, _ := r.Context().Value(orgIDKey).(string)
	return id
}
