package errors_test

import (
	"errors"
	"testing"

	apperrors "github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCode(t *testing.T) {
	original := apperrors.NotFound("blob not found", nil)
	wrapped := apperrors.Wrap(original, "download failed")

	assert.Equal(t, apperrors.CodeNotFound, wrapped.Code)
	assert.Contains(t, wrapped.Error(), "download failed")
}

func TestWrapPlainError(t *testing.T) {
	wrapped := apperrors.Wrap(errors.New("boom"), "failed to connect")
	assert.Equal(t, apperrors.CodeInternal, wrapped.Code)
}

func TestAsUnwrapsAppError(t *testing.T) {
	err := apperrors.Unavailable("broker down", errors.New("dial tcp: refused"))

	var appErr *apperrors.AppError
	assert.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeUnavailable, appErr.Code)
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(errors.New("plain")))
}
