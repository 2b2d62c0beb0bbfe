package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "completed", "cancelled", "shipped"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	for _, s := range []string{"", "delivered", "PENDING", "done"} {
		_, err := ParseStatus(s)
		require.ErrorIs(t, err, ErrInvalidStatus)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, true},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCheckTransition_SpecificErrors(t *testing.T) {
	require.NoError(t, checkTransition(StatusPending, StatusShipped))

	err := checkTransition(StatusCompleted, StatusCancelled)
	require.ErrorIs(t, err, ErrCannotCancelCompleted)

	err = checkTransition(StatusCancelled, StatusCompleted)
	require.ErrorIs(t, err, ErrTerminalState)
}

func TestCheckTransition_SameStatusIsNoOp(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusCompleted, StatusCancelled, StatusShipped} {
		require.NoError(t, checkTransition(s, s), "%s -> %s", s, s)
	}
}
