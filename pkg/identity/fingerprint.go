// Package identity models the addressable entities of the ledger: fixed-width
// fingerprints (asset ids, addresses) and the account/contract identity union.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// FingerprintLength is the size of a fingerprint in bytes.
const FingerprintLength = 32

// FingerprintTextLength is the length of the canonical textual form: "0x" + 64 hex digits.
const FingerprintTextLength = 2 + 2*FingerprintLength

// ErrMalformedFingerprint is returned when a textual fingerprint is not 0x-prefixed,
// 64-hex-digit text.
var ErrMalformedFingerprint = errors.New("malformed fingerprint")

// Fingerprint is a 32-byte content identifier used for asset ids and addresses.
type Fingerprint [FingerprintLength]byte

// ZeroFingerprint is the all-zero fingerprint.
var ZeroFingerprint Fingerprint

// ParseFingerprint parses the canonical 66-character textual form.
func ParseFingerprint(s string) (Fingerprint, error) {
	var fp Fingerprint
	if len(s) != FingerprintTextLength {
		return fp, fmt.Errorf("%w: expected %d characters, got %d", ErrMalformedFingerprint, FingerprintTextLength, len(s))
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fp, fmt.Errorf("%w: missing 0x prefix", ErrMalformedFingerprint)
	}
	if _, err := hex.Decode(fp[:], []byte(s[2:])); err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrMalformedFingerprint, err)
	}
	return fp, nil
}

// MustParseFingerprint is like ParseFingerprint but panics on error.
func MustParseFingerprint(s string) Fingerprint {
	fp, err := ParseFingerprint(s)
	if err != nil {
		panic(err)
	}
	return fp
}

// BytesToFingerprint left-pads b to 32 bytes. Longer input keeps the trailing 32 bytes.
func BytesToFingerprint(b []byte) Fingerprint {
	var fp Fingerprint
	if len(b) > FingerprintLength {
		b = b[len(b)-FingerprintLength:]
	}
	copy(fp[FingerprintLength-len(b):], b)
	return fp
}

// String returns the 0x-prefixed lowercase hex form.
func (f Fingerprint) String() string {
	return "0x" + f.Hex()
}

// Hex returns the hex form without prefix.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// Bytes returns a copy of the fingerprint bytes.
func (f Fingerprint) Bytes() []byte {
	b := make([]byte, FingerprintLength)
	copy(b, f[:])
	return b
}

// IsZero reports whether all bytes are zero.
func (f Fingerprint) IsZero() bool {
	return f == ZeroFingerprint
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	fp, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = fp
	return nil
}
