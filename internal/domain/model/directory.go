package model

import "time"

// Client is a tenant whose platform accounts are stored in the vault.
type Client struct {
	ID            int64
	Name          string `validate:"required,max=100"`
	ContactPerson string `validate:"max=100"`
	Email         string `validate:"omitempty,email,max=100"`
	Phone         string `validate:"max=20"`
	IsActive      bool
	CreatedAt     time.Time
}

// PlatformCategory groups platforms ("social", "hosting", ...).
type PlatformCategory struct {
	ID   int64
	Name string `validate:"required,max=50"`
}

// Platform is a third-party system credentials are held for.
type Platform struct {
	ID         int64
	Name       string `validate:"required,max=100"`
	CategoryID int64  // 0 when uncategorised
	URL        string `validate:"omitempty,max=255"`
	CreatedAt  time.Time
}

// ClientUpdate is a partial update of a Client. A nil pointer leaves the
// attribute unchanged.
type ClientUpdate struct {
	Name          *string `validate:"omitnil,min=1,max=100"`
	ContactPerson *string `validate:"omitnil,max=100"`
	Email         *string `validate:"omitnil,omitempty,email,max=100"`
	Phone         *string `validate:"omitnil,max=20"`
	IsActive      *bool
}

// PlatformUpdate is a partial update of a Platform. ClearCategory removes
// the category and cannot be combined with CategoryID.
type PlatformUpdate struct {
	Name          *string `validate:"omitnil,min=1,max=100"`
	CategoryID    *int64  `validate:"omitnil,gt=0"`
	ClearCategory bool    `validate:"excluded_with=CategoryID"`
	URL           *string `validate:"omitnil,max=255"`
}
