package httpapi

import (
	"net/http"

	"github.com/plannio/plannio/internal/domain/rbac"
)

// handleListEvents returns the audit trail of a business. Reports permission
// gates the read since events reveal every mutation.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	businessID := r.PathValue("businessID")
	if err := s.services.Access.Authorize(r.Context(), principal, businessID, rbac.PermViewReports); err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Audit.List(r.Context(), businessID, pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toEventPagePayload(page))
}
