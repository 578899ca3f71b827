package model

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID          int64
	DisplayName string
}

// Origin carries who issued a request and from where, for the audit trail.
type Origin struct {
	Actor     Actor
	IPAddress string
	UserAgent string
}
