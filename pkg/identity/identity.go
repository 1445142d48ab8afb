package identity

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Type discriminates the two identity shapes accepted on the command line.
type Type uint8

const (
	// TypeAddress selects an account address.
	TypeAddress Type = iota
	// TypeContract selects a contract address.
	TypeContract
)

// ParseType parses "address" or "contract" (case-insensitive).
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "address":
		return TypeAddress, nil
	case "contract":
		return TypeContract, nil
	default:
		return 0, fmt.Errorf("unknown identity type %q (want address or contract)", s)
	}
}

func (t Type) String() string {
	if t == TypeContract {
		return "contract"
	}
	return "address"
}

var _ pflag.Value = (*Type)(nil)

// Set implements pflag.Value.
func (t *Type) Set(s string) error {
	v, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Type implements pflag.Value.
func (t *Type) Type() string {
	return "address|contract"
}

// Identity is either an AccountAddress or a ContractAddress. The interface is sealed:
// no other implementations exist outside this package.
type Identity interface {
	Kind() Type
	Fingerprint() Fingerprint
	String() string
	isIdentity()
}

// AccountAddress identifies an externally owned account.
type AccountAddress Fingerprint

// ContractAddress identifies a deployed contract.
type ContractAddress Fingerprint

func (AccountAddress) Kind() Type                 { return TypeAddress }
func (a AccountAddress) Fingerprint() Fingerprint { return Fingerprint(a) }
func (a AccountAddress) String() string           { return "Address(" + Fingerprint(a).String() + ")" }
func (AccountAddress) isIdentity()                {}

func (ContractAddress) Kind() Type                 { return TypeContract }
func (c ContractAddress) Fingerprint() Fingerprint { return Fingerprint(c) }
func (c ContractAddress) String() string           { return "ContractId(" + Fingerprint(c).String() + ")" }
func (ContractAddress) isIdentity()                {}

// New builds the identity variant selected by kind. Collisions between the account and
// contract address spaces are not checked here.
func New(kind Type, fp Fingerprint) Identity {
	if kind == TypeContract {
		return ContractAddress(fp)
	}
	return AccountAddress(fp)
}

// Equal reports whether a and b are the same variant over the same fingerprint.
func Equal(a, b Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Fingerprint() == b.Fingerprint()
}
