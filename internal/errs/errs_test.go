package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	err := Service("generate", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrService)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrImport)

	wrapped := fmt.Errorf("save design: %w", err)
	assert.ErrorIs(t, wrapped, ErrService)
	assert.Equal(t, ErrService, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "delete: no object selected", Validation("delete", "no object selected").Error())
	assert.Equal(t, "import: unexpected EOF", Import("import", io.ErrUnexpectedEOF).Error())

	var e *Error
	require.True(t, errors.As(Precondition("order", "save the design first"), &e))
	assert.Equal(t, "order", e.Op)
	assert.Nil(t, KindOf(io.EOF))
}
