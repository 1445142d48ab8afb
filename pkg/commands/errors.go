package commands

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/chainsafe/multiasset/pkg/app/errors"
	"github.com/chainsafe/multiasset/pkg/deployments"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/keys"
	"github.com/chainsafe/multiasset/pkg/multiasset"
)

var (
	// ErrInvalidInputFormat is returned for command input rejected before any ledger call.
	ErrInvalidInputFormat = errors.New("invalid input format")
	// ErrNoEndpoint is returned when neither --rpc nor ledger.rpc_url is set.
	ErrNoEndpoint = errors.New("no ledger endpoint: pass --rpc or set ledger.rpc_url")
	// ErrNotFound is returned by queries whose subject does not exist on the contract.
	ErrNotFound = errors.New("not found")
)

// BatchMintError reports a mint-many run that stopped at its first failure. Mints of the
// first Completed recipients stay committed.
type BatchMintError struct {
	Completed int
	Total     int
	Err       error
}

func (e *BatchMintError) Error() string {
	return fmt.Sprintf("minted to %d of %d recipients before failure: %v", e.Completed, e.Total, e.Err)
}

func (e *BatchMintError) Unwrap() error { return e.Err }

func invalidInput(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInputFormat, field, fmt.Sprintf(format, args...))
}

// classify attaches an error category to err so the process exit code can be derived.
// The message of err is kept verbatim.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	msg := err.Error()
	switch {
	case errors.Is(err, ErrInvalidInputFormat),
		errors.Is(err, ErrNoEndpoint),
		errors.Is(err, identity.ErrMalformedFingerprint),
		errors.Is(err, multiasset.ErrMalformedStorage),
		errors.Is(err, keys.ErrNoKey),
		errors.Is(err, multiasset.ErrZeroValue),
		errors.Is(err, multiasset.ErrZeroStringLength):
		return apperrors.BadRequestError(err, msg)
	case errors.Is(err, multiasset.ErrNotOwner):
		return apperrors.ForbiddenError(err, msg)
	case errors.Is(err, multiasset.ErrAssetAlreadyExists),
		errors.Is(err, multiasset.ErrCannotReinitialize):
		return apperrors.ConflictError(err, msg)
	case errors.Is(err, multiasset.ErrAssetNotFound),
		errors.Is(err, deployments.ErrNotFound),
		errors.Is(err, ErrNotFound):
		return apperrors.ResourceNotFoundError(err, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.TimeoutError(err, msg)
	case errors.As(err, new(localError)):
		return apperrors.GeneralError(err)
	default:
		return apperrors.DependencyError(err, msg)
	}
}

// localError marks failures on this host, such as an unreadable wallet key, so
// they are not reported as ledger failures.
type localError struct{ err error }

func (e localError) Error() string { return e.err.Error() }
func (e localError) Unwrap() error { return e.err }
