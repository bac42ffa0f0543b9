package idx_test

import (
	"testing"
	"time"

	"github.com/taskgrove/taskadmin/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNew_UniqueAndSortable(t *testing.T) {
	const count = 100

	prev := idx.New()
	for range count {
		id := idx.New()
		require.False(t, id.IsZero())
		require.Len(t, id.String(), 26)
		require.Greater(t, id.String(), prev.String(),
			"ids from the monotonic source must sort in generation order")
		prev = id
	}
}

func TestNewAt_EmbedsTimestamp(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)

	require.Equal(t, at, id.Time())
}

func TestParse(t *testing.T) {
	id := idx.New()

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	parsed, err = idx.Parse("  " + id.String() + "  ")
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for _, bad := range []string{"", "not-a-ulid", "0000000000000000000000000!"} {
		_, err := idx.Parse(bad)
		require.ErrorIs(t, err, idx.ErrInvalid)
	}
}
