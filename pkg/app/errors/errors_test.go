package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"bad request", BadRequestError(nil, "bad fingerprint"), ExitDataError},
		{"forbidden", ForbiddenError(nil, "not owner"), ExitRejected},
		{"conflict", ConflictError(nil, "exists"), ExitRejected},
		{"not found", ResourceNotFoundError(nil, "asset"), ExitRejected},
		{"dependency", DependencyError(nil, "rpc down"), ExitDependency},
		{"timeout", TimeoutError(context.DeadlineExceeded, "receipt"), ExitDependency},
		{"general", GeneralError(nil), ExitFailure},
		{"wrapped", fmt.Errorf("mint: %w", BadRequestError(nil, "x")), ExitDataError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryNoError, CategoryOf(nil))
	assert.Equal(t, CategoryGeneralError, CategoryOf(errors.New("x")))
	assert.Equal(t, CategoryDependencyFailure, CategoryOf(DependencyError(nil, "x")))
	assert.Equal(t, "CategoryConnectionTimeout", CategoryOf(TimeoutError(nil, "x")).String())
}

func TestServiceErrorMessage(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := DependencyError(inner, "ledger unavailable")

	assert.Equal(t, inner.Error(), err.Error())
	assert.ErrorIs(t, err, inner)
}
