package model

import "time"

// Credential is one account on a platform owned by one client. Username,
// Password and every CredentialField value are plaintext at this boundary;
// the storage adapter seals them before write and reveals them after read.
type Credential struct {
	ID          int64
	ClientID    int64
	PlatformID  int64
	AccountName string
	Username    string
	Password    string
	URL         string
	Notes       string
	ExpiryDate  *time.Time
	CreatedBy   int64
	LastUsed    *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Fields are the additional secret fields, in insertion order.
	Fields []CredentialField

	// Client and Platform are populated on reads from the joined rows.
	Client   *Client
	Platform *Platform
}

// ClientName returns the owning client's name, or "" when not loaded.
func (c Credential) ClientName() string {
	if c.Client == nil {
		return ""
	}
	return c.Client.Name
}

// PlatformName returns the platform's name, or "" when not loaded.
func (c Credential) PlatformName() string {
	if c.Platform == nil {
		return ""
	}
	return c.Platform.Name
}

// CredentialField is an additional named secret attached to a Credential.
// It is owned exclusively by its parent and removed with it.
type CredentialField struct {
	ID           int64
	CredentialID int64
	Name         string `validate:"required,max=50"`
	Value        string
}

// NewCredential is the input for creating a Credential. ClientID, PlatformID,
// AccountName, Username and Password are mandatory.
type NewCredential struct {
	ClientID    int64  `validate:"required,gt=0"`
	PlatformID  int64  `validate:"required,gt=0"`
	AccountName string `validate:"required,max=100"`
	Username    string `validate:"required"`
	Password    string `validate:"required"`
	URL         string `validate:"omitempty,max=255"`
	Notes       string
	ExpiryDate  *time.Time
	CreatedBy   int64             `validate:"required,gt=0"`
	Fields      []CredentialField `validate:"dive"`
}

// CredentialUpdate is a partial update. A nil pointer leaves the attribute
// unchanged; a non-nil pointer to "" is rejected for AccountName, Username
// and Password.
//
// Fields follows a replace-all policy: a non-empty slice deletes every
// existing additional field of the credential and recreates exactly the given
// set. A nil or empty slice leaves the existing fields untouched. Callers that
// send a partial list lose every field they omit.
type CredentialUpdate struct {
	ClientID    *int64  `validate:"omitnil,gt=0"`
	PlatformID  *int64  `validate:"omitnil,gt=0"`
	AccountName *string `validate:"omitnil,min=1,max=100"`
	Username    *string `validate:"omitnil,min=1"`
	Password    *string `validate:"omitnil,min=1"`
	URL         *string `validate:"omitnil,max=255"`
	Notes       *string
	IsActive    *bool

	// A nil ExpiryDate leaves the date unchanged; ClearExpiryDate removes it.
	// Setting both is rejected.
	ExpiryDate      *time.Time
	ClearExpiryDate bool `validate:"excluded_with=ExpiryDate"`

	Fields []CredentialField `validate:"dive"`
}

// CredentialFilter narrows credential listings and exports. Zero IDs mean
// "any"; inactive credentials are excluded unless IncludeInactive is set.
type CredentialFilter struct {
	ClientID        int64  `json:"client_id,omitempty"`
	PlatformID      int64  `json:"platform_id,omitempty"`
	CategoryID      int64  `json:"platform_category_id,omitempty"`
	IncludeInactive bool   `json:"include_inactive,omitempty"`
	Search          string `json:"search,omitempty"`
}
