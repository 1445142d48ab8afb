package commands

import (
	"github.com/go-playground/validator/v10"

	"github.com/chainsafe/multiasset/pkg/identity"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseFingerprint checks the textual shape of a fingerprint flag before decoding it.
// No ledger call may happen before every fingerprint of a command is parsed.
func parseFingerprint(field, s string) (identity.Fingerprint, error) {
	if err := validate.Var(s, "required,len=66,startswith=0x,hexadecimal"); err != nil {
		return identity.Fingerprint{}, invalidInput(field, "expected 0x followed by 64 hex digits, got %q", s)
	}
	fp, err := identity.ParseFingerprint(s)
	if err != nil {
		return identity.Fingerprint{}, invalidInput(field, "%v", err)
	}
	return fp, nil
}

func parseIdentity(field, s string, kind identity.Type) (identity.Identity, error) {
	fp, err := parseFingerprint(field, s)
	if err != nil {
		return nil, err
	}
	return identity.New(kind, fp), nil
}

func requireText(field, s string) error {
	if err := validate.Var(s, "required"); err != nil {
		return invalidInput(field, "must not be empty")
	}
	return nil
}
