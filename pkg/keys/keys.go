// Package keys loads the secp256k1 signing key of the operating account.
// Keys are provided either as plain hex or AES-256-GCM encrypted under a master key.
package keys

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainsafe/multiasset/pkg/identity"
)

// Key is a secp256k1 signing key. It implements ledger.Signer.
type Key struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// Generate creates a new random key.
func Generate() (*Key, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return newKey(privateKey), nil
}

// FromHex loads a key from its hex encoding, with or without 0x prefix.
func FromHex(hexKey string) (*Key, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	return newKey(privateKey), nil
}

// FromBytes loads a key from its 32-byte encoding.
func FromBytes(b []byte) (*Key, error) {
	privateKey, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	return newKey(privateKey), nil
}

func newKey(privateKey *ecdsa.PrivateKey) *Key {
	return &Key{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// Address returns the account address left-padded to a fingerprint.
func (k *Key) Address() identity.Fingerprint {
	return identity.BytesToFingerprint(k.address.Bytes())
}

// EVMAddress returns the 20-byte account address.
func (k *Key) EVMAddress() common.Address {
	return k.address
}

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest.
func (k *Key) Sign(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig, err := crypto.Sign(digest, k.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// Bytes returns the 32-byte private key.
func (k *Key) Bytes() []byte {
	return crypto.FromECDSA(k.privateKey)
}
