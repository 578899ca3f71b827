// Package secret provides the symmetric encryption used for credential secrets
// at rest and the sealed value type persisted in their place.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors returned by Box operations. Callers match them with errors.Is.
var (
	// ErrEncryption indicates a value could not be encrypted, including the
	// misuse of encrypting an empty string.
	ErrEncryption = errors.New("encryption failed")

	// ErrDecryption indicates a cipher token is malformed, was tampered with,
	// or was produced under a different key.
	ErrDecryption = errors.New("decryption failed")

	// ErrConfiguration indicates invalid crypto configuration, such as an empty
	// key or a password alphabet with every character class disabled.
	ErrConfiguration = errors.New("invalid crypto configuration")
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// IVSize is the CBC initialization vector length in bytes.
	IVSize = aes.BlockSize

	// macSize is the truncated HMAC-SHA256 tag appended to the ciphertext.
	macSize = 16

	tokenSeparator = ":"
	macLabel       = "credvault/token-mac/v1"
)

// Box encrypts and decrypts short strings with AES-256-CBC and a fresh random
// IV per call. Tokens have the form hex(iv) ":" hex(ciphertext || tag), where
// tag is an HMAC-SHA256 over iv and ciphertext so any modification of the
// ciphertext segment is rejected instead of decrypting to garbage.
//
// A Box is immutable after construction and safe for concurrent use.
type Box struct {
	block  cipher.Block
	macKey []byte
}

// NewBox builds a Box from the configured key secret. The key bytes are
// truncated or zero-padded to exactly 32 bytes. An empty key returns
// ErrConfiguration.
func NewBox(key string) (*Box, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: encryption key is empty", ErrConfiguration)
	}

	k := make([]byte, KeySize)
	copy(k, key)

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("%w: aes.NewCipher: %w", ErrConfiguration, err)
	}

	mac := sha256.New()
	mac.Write([]byte(macLabel))
	mac.Write(k)

	return &Box{block: block, macKey: mac.Sum(nil)}, nil
}

// Encrypt returns the cipher token for plaintext. Callers must skip empty
// values rather than encrypt them; an empty plaintext returns ErrEncryption.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: plaintext is empty", ErrEncryption)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("%w: read iv: %w", ErrEncryption, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded), len(padded)+macSize)
	cipher.NewCBCEncrypter(b.block, iv).CryptBlocks(out, padded)
	out = append(out, b.tag(iv, out)...)

	return hex.EncodeToString(iv) + tokenSeparator + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Every failure, whether a malformed token, a wrong
// IV length, a failed integrity check or bad padding, wraps ErrDecryption.
func (b *Box) Decrypt(token string) (string, error) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: token must have exactly two segments", ErrDecryption)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: iv is not hex", ErrDecryption)
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: iv is %d bytes, want %d", ErrDecryption, len(iv), IVSize)
	}

	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not hex", ErrDecryption)
	}
	if len(data) < aes.BlockSize+macSize || (len(data)-macSize)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext has invalid length %d", ErrDecryption, len(data))
	}

	ciphertext, tag := data[:len(data)-macSize], data[len(data)-macSize:]
	if !hmac.Equal(tag, b.tag(iv, ciphertext)) {
		return "", fmt.Errorf("%w: integrity check failed", ErrDecryption)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(b.block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	return string(plain), nil
}

// tag computes the truncated HMAC over iv || ciphertext.
func (b *Box) tag(iv, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, b.macKey)
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)[:macSize]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}

	return data[:len(data)-n], nil
}
