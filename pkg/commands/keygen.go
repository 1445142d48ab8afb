package commands

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/keys"
)

// KeygenRequest produces an encrypted wallet key. An empty PrivateKey generates a new one.
type KeygenRequest struct {
	PrivateKey string
}

// KeygenResult holds the wallet settings for the key. MasterKey is empty when the key is
// encrypted under the configured passphrase.
type KeygenResult struct {
	Address             common.Address
	Fingerprint         identity.Fingerprint
	EncryptedPrivateKey string
	MasterKey           string
}

// Keygen runs the keygen command. It makes no ledger call and never prints the plain key.
func (r *Runner) Keygen(ctx context.Context, req KeygenRequest) (*KeygenResult, error) {
	return run(ctx, r, "keygen", func(context.Context, *zap.Logger) (*KeygenResult, error) {
		var (
			key *keys.Key
			err error
		)
		if req.PrivateKey == "" {
			if key, err = keys.Generate(); err != nil {
				return nil, localError{err}
			}
		} else if key, err = keys.FromHex(req.PrivateKey); err != nil {
			return nil, fmt.Errorf("%w: private-key: %w", ErrInvalidInputFormat, err)
		}

		res := &KeygenResult{Address: key.EVMAddress(), Fingerprint: key.Address()}
		var masterKey []byte
		if passphrase := r.env.Config.Wallet.Passphrase; passphrase != "" {
			if masterKey, err = keys.MasterKeyFromPassphrase(passphrase); err != nil {
				return nil, fmt.Errorf("%w: wallet.passphrase: %w", ErrInvalidInputFormat, err)
			}
		} else {
			if masterKey, err = keys.GenerateMasterKey(); err != nil {
				return nil, localError{err}
			}
			res.MasterKey = keys.MasterKeyToBase64(masterKey)
		}

		if res.EncryptedPrivateKey, err = keys.EncryptPrivateKey(key.Bytes(), masterKey); err != nil {
			return nil, localError{err}
		}

		r.printf("\nAddress: %s\n", res.Address.Hex())
		r.printf("Fingerprint: %s\n", res.Fingerprint)
		r.printf("wallet:\n  encrypted_private_key: %s\n", res.EncryptedPrivateKey)
		if res.MasterKey != "" {
			r.printf("  master_key: %s\n", res.MasterKey)
		}
		return res, nil
	})
}
