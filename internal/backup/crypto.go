package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Encrypted snapshots are laid out as
// [magic][16-byte salt][12-byte nonce][AES-256-GCM ciphertext].
var magic = []byte("ACBK1")

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

var (
	ErrNotEncrypted = errors.New("not an encrypted backup")
	ErrDecrypt      = errors.New("wrong passphrase or corrupted backup")
)

func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches passphrase into an AES-256 key with Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext under a fresh salt and nonce.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	// The header is authenticated along with the payload.
	return gcm.Seal(out, nonce, plaintext, out[:len(magic)+saltSize]), nil
}

func Decrypt(data []byte, passphrase string) ([]byte, error) {
	header := len(magic) + saltSize
	if len(data) < header+nonceSize || !bytes.Equal(data[:len(magic)], magic) {
		return nil, ErrNotEncrypted
	}
	salt := data[len(magic):header]
	nonce := data[header : header+nonceSize]

	gcm, err := newGCM(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, data[header+nonceSize:], data[:header])
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// IsEncrypted reports whether data starts with the encrypted backup header.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}
