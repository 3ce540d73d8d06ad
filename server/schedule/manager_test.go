package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	manager, err := NewManager("0 2 * * *;0 3 * * *", newCountingRunnable(), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"0 2 * * *", "0 3 * * *"}, manager.Specs())

	_, err = NewManager("0 2 * * *;nope", newCountingRunnable(), discardLogger())
	assert.ErrorIs(t, err, ErrInvalidCronSpec)
}

func TestManager_NextRun(t *testing.T) {
	manager, err := NewManager("0 5 * * *;0 3 * * *", newCountingRunnable(), discardLogger())
	require.NoError(t, err)

	now := time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC)
	for _, trigger := range manager.triggers {
		trigger.now = func() time.Time { return now }
	}
	assert.Equal(t, time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC), manager.NextRun())

	assert.True(t, (&Manager{}).NextRun().IsZero())
}
