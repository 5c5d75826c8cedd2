package httpapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Actor headers set by the platform integration for member-initiated calls.
const (
	headerActorID    = "X-Actor-Id"
	headerActorRoles = "X-Actor-Roles"
)

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := extractToken(r)
		if token == "" || bcrypt.CompareHashAndPassword([]byte(s.tokenHash), []byte(token)) != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withActor resolves the acting member and whether their roles grant
// administrative privilege.
func (s *Server) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := &Actor{}
		if raw := strings.TrimSpace(r.Header.Get(headerActorID)); raw != "" {
			id, err := ledger.ParseID(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
				return
			}
			actor.ID = id
		}
		roles, err := parseIDList(r.Header.Get(headerActorRoles))
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return
		}
		actor.Roles = roles
		actor.IsAdmin = s.settingsSvc.Config().IsAdmin(roles)
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFromContext(r.Context()).IsAdmin {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "administrative role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

func parseIDList(raw string) ([]ledger.ID, error) {
	var out []ledger.ID
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ledger.ParseID(part)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
