package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("user")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("dup", "dup"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestIsAndHasCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", InvalidToken(errors.New("sig")))

	assert.True(t, Is(err, KindInvalidToken))
	assert.False(t, Is(err, KindForbidden))
	assert.True(t, HasCode(err, "invalid_token"))
	assert.Equal(t, "user_not_found", NotFound("user").Code)
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "internal server error", err.Message)
}

func TestInvalidColumn_Message(t *testing.T) {
	err := InvalidColumn("serial_number", "users")
	assert.Equal(t, "column 'serial_number' does not belong to entity 'users'", err.Message)
}
