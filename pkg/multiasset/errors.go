package multiasset

import (
	"errors"
	"fmt"

	"github.com/chainsafe/multiasset/internal/metrics"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

// ContractError is a revert reported by the contract through one of its custom errors.
type ContractError struct {
	// Method is the contract method that reverted. Empty on the sentinels.
	Method string
	// Name is the custom error name, e.g. "NotOwner".
	Name string
}

func (e *ContractError) Error() string {
	if e.Method == "" {
		return e.Name
	}
	return fmt.Sprintf("%s reverted: %s", e.Method, e.Name)
}

// Is matches any ContractError with the same error name, so errors.Is(err, ErrNotOwner)
// holds for a NotOwner revert of any method.
func (e *ContractError) Is(target error) bool {
	t, ok := target.(*ContractError)
	return ok && t.Name == e.Name
}

// Contract-reported errors.
var (
	ErrNotOwner           = &ContractError{Name: bindings.ErrorNotOwner}
	ErrAssetAlreadyExists = &ContractError{Name: bindings.ErrorAssetAlreadyExists}
	ErrZeroStringLength   = &ContractError{Name: bindings.ErrorZeroStringLength}
	ErrZeroValue          = &ContractError{Name: bindings.ErrorZeroValue}
	ErrAssetNotFound      = &ContractError{Name: bindings.ErrorAssetNotFound}
	ErrCannotReinitialize = &ContractError{Name: bindings.ErrorCannotReinitialize}
)

// decodeRevert converts a connector error into a *ContractError when it carries a known
// custom error. Anything else is wrapped unchanged.
func decodeRevert(method string, err error) error {
	var revert *ledger.RevertError
	if errors.As(err, &revert) {
		if name, ok := bindings.DecodeError(revert.Data); ok {
			metrics.ContractErrorsTotal.WithLabelValues(method, name).Inc()
			return &ContractError{Method: method, Name: name}
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}
