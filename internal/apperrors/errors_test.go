package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayError_WithText(t *testing.T) {
	t.Parallel()

	err := ErrSessionNotFound.WithText("Session abc does not exist")

	assert.Equal(t, "Session abc does not exist", err.Error())
	assert.Equal(t, ErrSessionNotFound.Code, err.Code)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyMember))
}

func TestRelayError_AsThroughWrap(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("join: %w", ErrAlreadyMember.WithText("Player 1 is already in session x"))

	var relayErr *RelayError
	require.True(t, errors.As(wrapped, &relayErr))
	assert.Equal(t, ErrAlreadyMember.Code, relayErr.Code)
	assert.True(t, errors.Is(wrapped, ErrAlreadyMember))
}
