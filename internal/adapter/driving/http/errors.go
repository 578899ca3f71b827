package httphandler

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/credvault/internal/application"
	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
	"github.com/ericfisherdev/credvault/internal/secret"
)

// Error categories reported to clients.
const (
	categoryValidation  = "validation"
	categoryReference   = "reference"
	categoryNotFound    = "not_found"
	categoryConflict    = "conflict"
	categoryEmptyResult = "empty_result"
	categoryAuth        = "unauthorized"
	categoryRender      = "render"
	categoryPersistence = "persistence"
	categoryDecryption  = "decryption"
	categoryInternal    = "internal"
)

type errorMapping struct {
	target   error
	status   int
	category string
	message  string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{model.ErrValidation, http.StatusBadRequest, categoryValidation, "invalid input"},
	{secret.ErrConfiguration, http.StatusBadRequest, categoryValidation, "invalid password options"},
	{driven.ErrReference, http.StatusUnprocessableEntity, categoryReference, "referenced client, platform or category does not exist"},
	{driven.ErrCredentialNotFound, http.StatusNotFound, categoryNotFound, "credential not found"},
	{driven.ErrClientNotFound, http.StatusNotFound, categoryNotFound, "client not found"},
	{driven.ErrPlatformNotFound, http.StatusNotFound, categoryNotFound, "platform not found"},
	{driven.ErrCategoryNotFound, http.StatusNotFound, categoryNotFound, "platform category not found"},
	{driven.ErrPlatformInUse, http.StatusConflict, categoryConflict, "platform is still referenced by credentials"},
	{driven.ErrArtifactNotFound, http.StatusNotFound, categoryNotFound, "export file not found or already purged"},
	{application.ErrEmptyResult, http.StatusNotFound, categoryEmptyResult, "no credentials found to export"},
	{application.ErrRender, http.StatusInternalServerError, categoryRender, "failed to build export file"},
	{application.ErrPersistence, http.StatusInternalServerError, categoryPersistence, "failed to store export file"},
	{secret.ErrDecryption, http.StatusInternalServerError, categoryDecryption, "stored credential could not be decrypted"},
}

// writeServiceError maps err to a status and category and writes it. The raw
// error text is exposed only in development.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, category, message := http.StatusInternalServerError, categoryInternal, "internal server error"
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, category, message = m.status, m.category, m.message
			break
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"category", category,
			"error", err,
		)
	}

	// Validation messages name fields only and are safe to show.
	if category == categoryValidation {
		message = err.Error()
	}

	resp := errorResponse{Status: "error", Category: category, Message: message}
	if h.development {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}
