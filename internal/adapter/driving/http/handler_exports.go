package httphandler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/secret"
)

const (
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultPasswordLen = 16
	maxPasswordLen     = 128
)

// exportFilenamePattern matches names produced by the export service.
var exportFilenamePattern = regexp.MustCompile(`^[a-z_]+_export_\d{8}_\d{6}_[0-9a-f]{8}\.xlsx$`)

// CreateExport renders matching credentials into a protected workbook. The
// response carries the one-time password; the file itself is fetched from
// download_url so the two travel separately.
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	artifact, err := h.exports.ExportCredentials(r.Context(), originFrom(r), req.CredentialFilter, model.ExportMode(req.ExportType))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, ExportResponse{
		Status:      "success",
		Filename:    artifact.FileName,
		Password:    artifact.Password,
		ExportType:  string(artifact.Mode),
		RecordCount: artifact.RecordCount,
		Sheets:      artifact.Sheets,
		DownloadURL: "/api/v1/exports/" + artifact.FileName,
		CreatedAt:   formatTime(artifact.CreatedAt),
	})
}

// DownloadExport streams a staged export to the actor who created it and
// schedules its purge. Other actors get a 404.
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if !exportFilenamePattern.MatchString(filename) {
		writeError(w, http.StatusBadRequest, categoryValidation, "invalid export file name")
		return
	}

	file, _, err := h.exports.OpenArtifact(r.Context(), originFrom(r).Actor, filename)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, filename, time.Time{}, file)

	h.exports.ArtifactDelivered(filename)
}

// ExportHistory returns one page of export logs.
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	limit, okLimit := queryInt64(r, "limit")
	offset, okOffset := queryInt64(r, "offset")
	if !okLimit || !okOffset {
		writeError(w, http.StatusBadRequest, categoryValidation, "invalid limit or offset")
		return
	}

	logs, total, err := h.exports.History(r.Context(), int(limit), int(offset))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]ExportLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, toExportLogResponse(l))
	}

	writeJSON(w, http.StatusOK, ExportHistoryResponse{
		Items:  items,
		Total:  total,
		Limit:  int(limit),
		Offset: int(offset),
	})
}

// GeneratePassword returns a random password. Unset character classes default
// to enabled.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	req := PasswordRequest{}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	length := req.Length
	if length == 0 {
		length = defaultPasswordLen
	}
	if length < 0 || length > maxPasswordLen {
		writeError(w, http.StatusBadRequest, categoryValidation, "length must be between 1 and "+strconv.Itoa(maxPasswordLen))
		return
	}

	opts := secret.DefaultPasswordOptions()
	for dst, src := range map[*bool]*bool{
		&opts.Lowercase: req.Lowercase,
		&opts.Uppercase: req.Uppercase,
		&opts.Numbers:   req.Numbers,
		&opts.Symbols:   req.Symbols,
	} {
		if src != nil {
			*dst = *src
		}
	}

	password, err := h.passwords.GenerateRandomPassword(length, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, PasswordResponse{Password: password})
}
