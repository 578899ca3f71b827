package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomPassword_LowercaseOnly(t *testing.T) {
	box := newTestBox(t)

	pw, err := box.GenerateRandomPassword(16, PasswordOptions{Lowercase: true})
	require.NoError(t, err)
	assert.Len(t, pw, 16)
	assert.Regexp(t, "^[a-z]{16}$", pw)
}

func TestGenerateRandomPassword_ClassRestrictions(t *testing.T) {
	tests := []struct {
		name    string
		opts    PasswordOptions
		allowed string
	}{
		{name: "uppercase", opts: PasswordOptions{Uppercase: true}, allowed: uppercaseChars},
		{name: "numbers", opts: PasswordOptions{Numbers: true}, allowed: numberChars},
		{name: "symbols", opts: PasswordOptions{Symbols: true}, allowed: symbolChars},
		{name: "letters and digits", opts: PasswordOptions{Lowercase: true, Uppercase: true, Numbers: true}, allowed: lowercaseChars + uppercaseChars + numberChars},
		{name: "defaults", opts: DefaultPasswordOptions(), allowed: lowercaseChars + uppercaseChars + numberChars + symbolChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw, err := GenerateRandomPassword(64, tt.opts)
			require.NoError(t, err)
			assert.Len(t, pw, 64)
			for _, r := range pw {
				assert.True(t, strings.ContainsRune(tt.allowed, r), "unexpected character %q", r)
			}
		})
	}
}

func TestGenerateRandomPassword_NoClasses(t *testing.T) {
	_, err := GenerateRandomPassword(16, PasswordOptions{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGenerateRandomPassword_NonPositiveLength(t *testing.T) {
	_, err := GenerateRandomPassword(0, DefaultPasswordOptions())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGenerateRandomPassword_Distinct(t *testing.T) {
	first, err := GenerateRandomPassword(24, DefaultPasswordOptions())
	require.NoError(t, err)
	second, err := GenerateRandomPassword(24, DefaultPasswordOptions())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
