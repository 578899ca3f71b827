package model

import "time"

// ActionKind is the verb recorded on an AuditEntry.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionRead   ActionKind = "read"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
	ActionExport ActionKind = "export"
	ActionLogin  ActionKind = "login"
	ActionLogout ActionKind = "logout"
)

// EntityType names the kind of object an AuditEntry refers to.
type EntityType string

const (
	EntityUser       EntityType = "user"
	EntityClient     EntityType = "client"
	EntityCredential EntityType = "credential"
	EntityPlatform   EntityType = "platform"
	EntityCategory   EntityType = "platform_category"
	EntityExport     EntityType = "export"
)

// Valid reports whether a is a known action.
func (a ActionKind) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport, ActionLogin, ActionLogout:
		return true
	}
	return false
}

// Valid reports whether e is a known entity type.
func (e EntityType) Valid() bool {
	switch e {
	case EntityUser, EntityClient, EntityCredential, EntityPlatform, EntityCategory, EntityExport:
		return true
	}
	return false
}

// AuditEntry is one append-only who-did-what record.
type AuditEntry struct {
	ID          int64
	ActorID     int64
	Action      ActionKind
	EntityType  EntityType
	EntityID    *int64
	Description string
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

// ExportLog is the provenance record written for every delivered export.
type ExportLog struct {
	ID          int64
	ActorID     int64
	ExportType  ExportMode
	FileName    string
	RecordCount int
	Filters     string // JSON-serialized CredentialFilter
	IPAddress   string
	CreatedAt   time.Time
}

// AuditFilter narrows audit entry listings. Zero values mean "any".
type AuditFilter struct {
	ActorID    int64
	Action     ActionKind
	EntityType EntityType
	EntityID   int64
	Limit      int
}
