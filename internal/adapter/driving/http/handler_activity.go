package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// ListActivity returns audit trail entries, newest first. It accepts the
// user_id, action, entity_type, entity_id and limit query parameters.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AuditFilter{
		Action:     model.ActionKind(q.Get("action")),
		EntityType: model.EntityType(q.Get("entity_type")),
	}

	for key, dst := range map[string]*int64{
		"user_id":   &filter.ActorID,
		"entity_id": &filter.EntityID,
	} {
		v, ok := queryInt64(r, key)
		if !ok {
			writeError(w, http.StatusBadRequest, categoryValidation, "invalid "+key)
			return
		}
		*dst = v
	}

	limit, ok := queryInt64(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, categoryValidation, "invalid limit")
		return
	}
	filter.Limit = int(limit)

	entries, err := h.auditor.ListAuditEntries(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toActivityResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}
