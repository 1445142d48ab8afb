package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const masterKeySize = 32

// ErrNoKey is returned by Load when no key material is configured.
var ErrNoKey = errors.New("no private key configured")

// Source describes where the signing key comes from. Exactly one of PrivateKey or
// EncryptedPrivateKey is expected.
type Source struct {
	PrivateKey          string
	EncryptedPrivateKey string
	// MasterKey is the base64 AES-256 key protecting EncryptedPrivateKey.
	MasterKey string
	// Passphrase derives the master key through HKDF when MasterKey is empty.
	Passphrase string
}

// Load resolves the configured key material into a Key.
func Load(src Source) (*Key, error) {
	if src.PrivateKey != "" {
		return FromHex(src.PrivateKey)
	}
	if src.EncryptedPrivateKey == "" {
		return nil, ErrNoKey
	}

	var (
		masterKey []byte
		err       error
	)
	switch {
	case src.MasterKey != "":
		masterKey, err = MasterKeyFromBase64(src.MasterKey)
	case src.Passphrase != "":
		masterKey, err = MasterKeyFromPassphrase(src.Passphrase)
	default:
		return nil, fmt.Errorf("encrypted private key requires a master key or passphrase")
	}
	if err != nil {
		return nil, err
	}

	raw, err := DecryptPrivateKey(src.EncryptedPrivateKey, masterKey)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw)
}

// EncryptPrivateKey encrypts the private key using AES-256-GCM with the provided master key.
// Returns base64(nonce || ciphertext || tag).
func EncryptPrivateKey(privateKey []byte, masterKey []byte) (string, error) {
	if len(masterKey) != masterKeySize {
		return "", fmt.Errorf("master key must be 32 bytes (AES-256)")
	}
	if len(privateKey) != 32 {
		return "", fmt.Errorf("private key must be 32 bytes (secp256k1)")
	}

	gcm, err := newGCM(masterKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, privateKey, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptPrivateKey reverses EncryptPrivateKey.
func DecryptPrivateKey(encrypted string, masterKey []byte) ([]byte, error) {
	if len(masterKey) != masterKeySize {
		return nil, fmt.Errorf("master key must be 32 bytes (AES-256)")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	if len(plaintext) != 32 {
		return nil, fmt.Errorf("decrypted key has wrong size: got %d, want 32", len(plaintext))
	}
	return plaintext, nil
}

func newGCM(masterKey []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// MasterKeyFromPassphrase derives a 32-byte master key from an operator passphrase
// using HKDF-SHA256.
func MasterKeyFromPassphrase(passphrase string) ([]byte, error) {
	if len(passphrase) < 12 {
		return nil, fmt.Errorf("passphrase must be at least 12 characters")
	}
	r := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("multiasset-wallet-key"))
	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	return key, nil
}

// GenerateMasterKey generates a new random 32-byte master key.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// MasterKeyFromBase64 decodes a base64-encoded master key.
func MasterKeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != masterKeySize {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// MasterKeyToBase64 encodes a master key as base64 for storage.
func MasterKeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
