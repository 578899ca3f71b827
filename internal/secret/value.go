package secret

import (
	"database/sql/driver"
	"fmt"
)

// Value is a sealed secret in its persisted form: either the zero Value, which
// stands for "no value" and is stored as SQL NULL, or a cipher token produced
// by Box.Seal. Plaintext never lives inside a Value; Box.Reveal is the only way
// back to it.
type Value struct {
	token string
}

// FromToken wraps a stored cipher token. An empty token yields the zero Value.
func FromToken(token string) Value {
	return Value{token: token}
}

// Token returns the stored cipher token, or "" for the zero Value.
func (v Value) Token() string {
	return v.token
}

// IsZero reports whether v is the "no value" sentinel.
func (v Value) IsZero() bool {
	return v.token == ""
}

// String never prints the token so sealed values are safe to log by accident.
func (v Value) String() string {
	if v.IsZero() {
		return "<empty>"
	}
	return "<sealed>"
}

// Value implements driver.Valuer. The zero Value is written as NULL.
func (v Value) Value() (driver.Value, error) {
	if v.IsZero() {
		return nil, nil
	}
	return v.token, nil
}

// Scan implements sql.Scanner. NULL and empty strings scan to the zero Value.
func (v *Value) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		v.token = ""
	case string:
		v.token = s
	case []byte:
		v.token = string(s)
	default:
		return fmt.Errorf("scan secret value: unsupported type %T", src)
	}
	return nil
}

// Seal encrypts plaintext into a Value. Empty plaintext seals to the zero Value
// without touching the cipher.
func (b *Box) Seal(plaintext string) (Value, error) {
	if plaintext == "" {
		return Value{}, nil
	}

	token, err := b.Encrypt(plaintext)
	if err != nil {
		return Value{}, err
	}
	return Value{token: token}, nil
}

// Reveal decrypts v. The zero Value reveals to "" without decrypting; any
// other failure wraps ErrDecryption.
func (b *Box) Reveal(v Value) (string, error) {
	if v.IsZero() {
		return "", nil
	}
	return b.Decrypt(v.token)
}
