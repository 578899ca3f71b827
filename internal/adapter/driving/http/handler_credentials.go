package httphandler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// CreateCredential stores a new credential.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	cred, err := h.credentials.Create(r.Context(), originFrom(r), model.NewCredential{
		ClientID:    req.ClientID,
		PlatformID:  req.PlatformID,
		AccountName: req.AccountName,
		Username:    req.Username,
		Password:    req.Password,
		URL:         req.URL,
		Notes:       req.Notes,
		ExpiryDate:  expiry,
		Fields:      toFields(req.AdditionalFields),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

// ListCredentials returns credentials matching the query filters.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	creds, err := h.credentials.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toCredentialResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCredential returns one credential with its secrets revealed.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cred, err := h.credentials.Get(r.Context(), originFrom(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// UpdateCredential applies a partial update to a credential.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	upd := model.CredentialUpdate{
		ClientID:    req.ClientID,
		PlatformID:  req.PlatformID,
		AccountName: req.AccountName,
		Username:    req.Username,
		Password:    req.Password,
		URL:         req.URL,
		Notes:       req.Notes,
		IsActive:    req.IsActive,
		Fields:      toFields(req.AdditionalFields),
	}
	if req.ExpiryDate != nil {
		expiry, err := parseDate(*req.ExpiryDate)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		upd.ExpiryDate = expiry
		upd.ClearExpiryDate = expiry == nil
	}

	cred, err := h.credentials.Update(r.Context(), originFrom(r), id, upd)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// DeleteCredential soft-deletes a credential.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.credentials.Deactivate(r.Context(), originFrom(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseFilter reads credential filters from the query string.
func parseFilter(w http.ResponseWriter, r *http.Request) (model.CredentialFilter, bool) {
	var filter model.CredentialFilter

	for key, dst := range map[string]*int64{
		"client_id":            &filter.ClientID,
		"platform_id":          &filter.PlatformID,
		"platform_category_id": &filter.CategoryID,
	} {
		v, ok := queryInt64(r, key)
		if !ok {
			writeError(w, http.StatusBadRequest, categoryValidation, "invalid "+key)
			return model.CredentialFilter{}, false
		}
		*dst = v
	}

	if raw := r.URL.Query().Get("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, categoryValidation, "invalid include_inactive")
			return model.CredentialFilter{}, false
		}
		filter.IncludeInactive = v
	}
	filter.Search = r.URL.Query().Get("search")

	return filter, true
}

// parseDate parses an optional YYYY-MM-DD date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry_date must be YYYY-MM-DD", model.ErrValidation)
	}
	return &t, nil
}
