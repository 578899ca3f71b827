package secret

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()_+~`|}{[]:;?><,./-="
)

// PasswordOptions selects the character classes used by GenerateRandomPassword.
type PasswordOptions struct {
	Lowercase bool
	Uppercase bool
	Numbers   bool
	Symbols   bool
}

// DefaultPasswordOptions enables every character class.
func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{Lowercase: true, Uppercase: true, Numbers: true, Symbols: true}
}

func (o PasswordOptions) alphabet() string {
	var chars string
	if o.Lowercase {
		chars += lowercaseChars
	}
	if o.Uppercase {
		chars += uppercaseChars
	}
	if o.Numbers {
		chars += numberChars
	}
	if o.Symbols {
		chars += symbolChars
	}
	return chars
}

// GenerateRandomPassword returns a string of length characters sampled
// uniformly from the union of the enabled classes using crypto/rand.
// It returns ErrConfiguration when length is not positive or no class is enabled.
func (b *Box) GenerateRandomPassword(length int, opts PasswordOptions) (string, error) {
	return GenerateRandomPassword(length, opts)
}

// GenerateRandomPassword is the key-independent form of Box.GenerateRandomPassword.
func GenerateRandomPassword(length int, opts PasswordOptions) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("%w: password length must be positive, got %d", ErrConfiguration, length)
	}

	chars := opts.alphabet()
	if chars == "" {
		return "", fmt.Errorf("%w: at least one character class must be enabled", ErrConfiguration)
	}

	// Rejection sampling keeps the distribution uniform: bytes at or above
	// limit would bias the modulo toward the start of the alphabet.
	limit := 256 - 256%len(chars)
	out := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(out) < length {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, v := range buf {
			if int(v) >= limit {
				continue
			}
			out = append(out, chars[int(v)%len(chars)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
