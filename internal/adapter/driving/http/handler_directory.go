package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// AddClient creates a client.
func (h *Handler) AddClient(w http.ResponseWriter, r *http.Request) {
	var req ClientPayload
	if !decodeBody(w, r, &req) {
		return
	}

	client, err := h.directory.AddClient(r.Context(), originFrom(r), model.Client{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClientPayload(client))
}

// ListClients returns every client.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.directory.ListClients(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]ClientPayload, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientPayload(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddCategory creates a platform category.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryPayload
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := h.directory.AddCategory(r.Context(), originFrom(r), model.PlatformCategory{Name: req.Name})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CategoryPayload{ID: category.ID, Name: category.Name})
}

// AddPlatform creates a platform.
func (h *Handler) AddPlatform(w http.ResponseWriter, r *http.Request) {
	var req PlatformPayload
	if !decodeBody(w, r, &req) {
		return
	}

	platform, err := h.directory.AddPlatform(r.Context(), originFrom(r), model.Platform{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		URL:        req.URL,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlatformPayload(platform))
}

// ListPlatforms returns every platform.
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.directory.ListPlatforms(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]PlatformPayload, 0, len(platforms))
	for _, p := range platforms {
		resp = append(resp, toPlatformPayload(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetClient returns one client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	client, err := h.directory.GetClient(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientPayload(client))
}

// UpdateClient applies a partial update to a client.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateClientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	client, err := h.directory.UpdateClient(r.Context(), originFrom(r), id, model.ClientUpdate{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		IsActive:      req.IsActive,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientPayload(client))
}

// DeleteClient soft-deletes a client.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.directory.DeactivateClient(r.Context(), originFrom(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPlatform returns one platform.
func (h *Handler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	platform, err := h.directory.GetPlatform(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlatformPayload(platform))
}

// UpdatePlatform applies a partial update to a platform.
func (h *Handler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdatePlatformRequest
	if !decodeBody(w, r, &req) {
		return
	}

	upd := model.PlatformUpdate{Name: req.Name, URL: req.URL}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			upd.ClearCategory = true
		} else {
			upd.CategoryID = req.CategoryID
		}
	}

	platform, err := h.directory.UpdatePlatform(r.Context(), originFrom(r), id, upd)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlatformPayload(platform))
}

// DeletePlatform removes a platform no credential references.
func (h *Handler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.directory.DeletePlatform(r.Context(), originFrom(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns every platform category.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.directory.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]CategoryPayload, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, CategoryPayload{ID: c.ID, Name: c.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCategory returns one platform category.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	category, err := h.directory.GetCategory(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CategoryPayload{ID: category.ID, Name: category.Name})
}
