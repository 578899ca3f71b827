// Package httphandler is the REST driving adapter of the vault.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/credvault/internal/application"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	credentials *application.CredentialService
	directory   *application.DirectoryService
	exports     *application.ExportService
	auditor     *application.Auditor
	passwords   application.PasswordGenerator
	logger      *slog.Logger
	development bool
}

// NewHandler creates a Handler with all required dependencies. development
// exposes raw error causes in responses.
func NewHandler(
	credentials *application.CredentialService,
	directory *application.DirectoryService,
	exports *application.ExportService,
	auditor *application.Auditor,
	passwords application.PasswordGenerator,
	logger *slog.Logger,
	development bool,
) *Handler {
	return &Handler{
		credentials: credentials,
		directory:   directory,
		exports:     exports,
		auditor:     auditor,
		passwords:   passwords,
		logger:      logger,
		development: development,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Everything under /api/v1 except the
// health check requires a bearer token. gatherer and obs may be nil.
func NewServeMux(h *Handler, auth *Authenticator, gatherer prometheus.Gatherer, obs RequestObserver, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth.requireActor(fn))
	}

	protected("POST /api/v1/credentials", h.CreateCredential)
	protected("GET /api/v1/credentials", h.ListCredentials)
	protected("GET /api/v1/credentials/{id}", h.GetCredential)
	protected("PUT /api/v1/credentials/{id}", h.UpdateCredential)
	protected("DELETE /api/v1/credentials/{id}", h.DeleteCredential)

	protected("POST /api/v1/clients", h.AddClient)
	protected("GET /api/v1/clients", h.ListClients)
	protected("GET /api/v1/clients/{id}", h.GetClient)
	protected("PUT /api/v1/clients/{id}", h.UpdateClient)
	protected("DELETE /api/v1/clients/{id}", h.DeleteClient)

	protected("POST /api/v1/platforms", h.AddPlatform)
	protected("GET /api/v1/platforms", h.ListPlatforms)
	protected("GET /api/v1/platforms/{id}", h.GetPlatform)
	protected("PUT /api/v1/platforms/{id}", h.UpdatePlatform)
	protected("DELETE /api/v1/platforms/{id}", h.DeletePlatform)

	protected("POST /api/v1/platform-categories", h.AddCategory)
	protected("GET /api/v1/platform-categories", h.ListCategories)
	protected("GET /api/v1/platform-categories/{id}", h.GetCategory)

	protected("POST /api/v1/exports", h.CreateExport)
	protected("GET /api/v1/exports/history", h.ExportHistory)
	protected("GET /api/v1/exports/{filename}", h.DownloadExport)

	protected("GET /api/v1/activity", h.ListActivity)

	protected("POST /api/v1/passwords", h.GeneratePassword)

	mux.HandleFunc("GET /api/v1/health", h.Health)
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, obs, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeBody decodes the JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, categoryValidation, "invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} path value, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, categoryValidation, "invalid id")
		return 0, false
	}
	return id, true
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(r *http.Request, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
