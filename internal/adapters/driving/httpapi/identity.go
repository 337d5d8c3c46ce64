package httpapi

import (
	"net/http"
	"strings"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// Identity headers set by the trusted gateway in front of the server.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// capsHandler is a handler that receives the evaluated caller capabilities.
type capsHandler func(w http.ResponseWriter, r *http.Request, caps domain.Capabilities)

// identify evaluates the caller's capabilities once and passes them down.
func (s *Server) identify(next capsHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r)
		if !ok {
			if !s.cfg.AllowAnonymous {
				writeError(w, domain.ErrUnauthenticated)
				return
			}
			principal = domain.Anonymous()
		}
		next(w, r, domain.EvaluateCapabilities(principal))
	}
}

// principalFrom reads the identity headers. It reports false when none is set.
func principalFrom(r *http.Request) (domain.Principal, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	name := strings.TrimSpace(r.Header.Get(HeaderUserName))
	role := strings.TrimSpace(r.Header.Get(HeaderUserRole))
	if id == "" && name == "" && role == "" {
		return domain.Principal{}, false
	}
	if name == "" {
		name = id
	}
	return domain.Principal{UserID: id, DisplayName: name, Role: domain.Role(role)}, true
}
