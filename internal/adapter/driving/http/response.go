package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

const dateLayout = "2006-01-02"

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","category":"internal","message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code,
// category and message.
func writeError(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Category: category, Message: message})
}

// errorResponse is the standard error response body. Error carries the raw
// cause and is only populated in development.
type errorResponse struct {
	Status   string `json:"status"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// FieldPayload is one additional secret field.
type FieldPayload struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CredentialResponse is the JSON representation of a credential with its
// secrets revealed.
type CredentialResponse struct {
	ID               int64          `json:"id"`
	ClientID         int64          `json:"client_id"`
	ClientName       string         `json:"client_name"`
	PlatformID       int64          `json:"platform_id"`
	PlatformName     string         `json:"platform_name"`
	AccountName      string         `json:"account_name"`
	Username         string         `json:"username"`
	Password         string         `json:"password"`
	URL              string         `json:"url"`
	Notes            string         `json:"notes"`
	ExpiryDate       string         `json:"expiry_date,omitempty"`
	LastUsed         string         `json:"last_used,omitempty"`
	IsActive         bool           `json:"is_active"`
	CreatedBy        int64          `json:"created_by"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
	AdditionalFields []FieldPayload `json:"additional_fields"`
}

// CreateCredentialRequest is the JSON body for the create credential endpoint.
type CreateCredentialRequest struct {
	ClientID         int64          `json:"client_id"`
	PlatformID       int64          `json:"platform_id"`
	AccountName      string         `json:"account_name"`
	Username         string         `json:"username"`
	Password         string         `json:"password"`
	URL              string         `json:"url"`
	Notes            string         `json:"notes"`
	ExpiryDate       string         `json:"expiry_date"`
	AdditionalFields []FieldPayload `json:"additional_fields"`
}

// UpdateCredentialRequest is the JSON body for the update credential endpoint.
// Omitted attributes are left unchanged. An empty expiry_date clears the date.
// A non-empty additional_fields list replaces every existing field.
type UpdateCredentialRequest struct {
	ClientID         *int64         `json:"client_id"`
	PlatformID       *int64         `json:"platform_id"`
	AccountName      *string        `json:"account_name"`
	Username         *string        `json:"username"`
	Password         *string        `json:"password"`
	URL              *string        `json:"url"`
	Notes            *string        `json:"notes"`
	ExpiryDate       *string        `json:"expiry_date"`
	IsActive         *bool          `json:"is_active"`
	AdditionalFields []FieldPayload `json:"additional_fields"`
}

// ClientPayload is the JSON representation of a client, used for both
// requests and responses.
type ClientPayload struct {
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// UpdateClientRequest is the JSON body for the update client endpoint.
// Omitted attributes are left unchanged.
type UpdateClientRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	IsActive      *bool   `json:"is_active"`
}

// PlatformPayload is the JSON representation of a platform.
type PlatformPayload struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id,omitempty"`
	URL        string `json:"url"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// UpdatePlatformRequest is the JSON body for the update platform endpoint.
// Omitted attributes are left unchanged; a category_id of 0 removes the
// category.
type UpdatePlatformRequest struct {
	Name       *string `json:"name"`
	CategoryID *int64  `json:"category_id"`
	URL        *string `json:"url"`
}

// CategoryPayload is the JSON representation of a platform category.
type CategoryPayload struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// ExportRequest is the JSON body for the export endpoint.
type ExportRequest struct {
	ExportType string `json:"export_type"`
	model.CredentialFilter
}

// ExportResponse describes a staged export. The password is shown once.
type ExportResponse struct {
	Status      string   `json:"status"`
	Filename    string   `json:"filename"`
	Password    string   `json:"password"`
	ExportType  string   `json:"export_type"`
	RecordCount int      `json:"record_count"`
	Sheets      []string `json:"sheets"`
	DownloadURL string   `json:"download_url"`
	CreatedAt   string   `json:"created_at"`
}

// ExportLogResponse is one row of export history.
type ExportLogResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	ExportType  string          `json:"export_type"`
	FileName    string          `json:"file_name"`
	RecordCount int             `json:"record_count"`
	Filters     json.RawMessage `json:"filters"`
	IPAddress   string          `json:"ip_address"`
	CreatedAt   string          `json:"created_at"`
}

// ExportHistoryResponse is one page of export history.
type ExportHistoryResponse struct {
	Items  []ExportLogResponse `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// PasswordRequest is the JSON body for the password generator endpoint.
// Omitted class flags default to enabled.
type PasswordRequest struct {
	Length    int   `json:"length"`
	Lowercase *bool `json:"lowercase"`
	Uppercase *bool `json:"uppercase"`
	Numbers   *bool `json:"numbers"`
	Symbols   *bool `json:"symbols"`
}

// PasswordResponse carries a generated password.
type PasswordResponse struct {
	Password string `json:"password"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCredentialResponse converts a domain Credential to its JSON response representation.
func toCredentialResponse(c model.Credential) CredentialResponse {
	fields := make([]FieldPayload, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, FieldPayload{Name: f.Name, Value: f.Value})
	}

	resp := CredentialResponse{
		ID:               c.ID,
		ClientID:         c.ClientID,
		ClientName:       c.ClientName(),
		PlatformID:       c.PlatformID,
		PlatformName:     c.PlatformName(),
		AccountName:      c.AccountName,
		Username:         c.Username,
		Password:         c.Password,
		URL:              c.URL,
		Notes:            c.Notes,
		IsActive:         c.IsActive,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        formatTime(c.CreatedAt),
		UpdatedAt:        formatTime(c.UpdatedAt),
		AdditionalFields: fields,
	}
	if c.ExpiryDate != nil {
		resp.ExpiryDate = c.ExpiryDate.UTC().Format(dateLayout)
	}
	if c.LastUsed != nil {
		resp.LastUsed = formatTime(*c.LastUsed)
	}
	return resp
}

func toFields(payload []FieldPayload) []model.CredentialField {
	if len(payload) == 0 {
		return nil
	}
	fields := make([]model.CredentialField, 0, len(payload))
	for _, f := range payload {
		fields = append(fields, model.CredentialField{Name: f.Name, Value: f.Value})
	}
	return fields
}

func toClientPayload(c model.Client) ClientPayload {
	return ClientPayload{
		ID:            c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		Phone:         c.Phone,
		IsActive:      c.IsActive,
		CreatedAt:     formatTime(c.CreatedAt),
	}
}

func toPlatformPayload(p model.Platform) PlatformPayload {
	return PlatformPayload{
		ID:         p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		URL:        p.URL,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

func toExportLogResponse(l model.ExportLog) ExportLogResponse {
	filters := json.RawMessage(l.Filters)
	if !json.Valid(filters) {
		filters = json.RawMessage("{}")
	}
	return ExportLogResponse{
		ID:          l.ID,
		UserID:      l.ActorID,
		ExportType:  string(l.ExportType),
		FileName:    l.FileName,
		RecordCount: l.RecordCount,
		Filters:     filters,
		IPAddress:   l.IPAddress,
		CreatedAt:   formatTime(l.CreatedAt),
	}
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Action      string `json:"action_type"`
	EntityType  string `json:"entity_type"`
	EntityID    *int64 `json:"entity_id"`
	Description string `json:"description"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
	CreatedAt   string `json:"created_at"`
}

func toActivityResponse(e model.AuditEntry) ActivityResponse {
	return ActivityResponse{
		ID:          e.ID,
		UserID:      e.ActorID,
		Action:      string(e.Action),
		EntityType:  string(e.EntityType),
		EntityID:    e.EntityID,
		Description: e.Description,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		CreatedAt:   formatTime(e.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
