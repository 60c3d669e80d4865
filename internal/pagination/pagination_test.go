package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "zero selects default", in: 0, want: DefaultLimit},
		{name: "negative selects default", in: -3, want: DefaultLimit},
		{name: "in range", in: 7, want: 7},
		{name: "upper bound", in: MaxLimit, want: MaxLimit},
		{name: "over the limit", in: 1000, want: MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.in))
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 15, 123456000, time.UTC)

	got, err := DecodeCursor(EncodeCursor(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty means newest", func(t *testing.T) {
		got, err := DecodeCursor("")
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	for _, bad := range []string{"%%%", "bm90LWEtbnVtYmVy", "LTE"} {
		t.Run(bad, func(t *testing.T) {
			_, err := DecodeCursor(bad)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestNewPage(t *testing.T) {
	p, err := NewPage(100, "")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, MaxLimit+1, p.Fetch())
	assert.False(t, p.HasCursor())

	_, err = NewPage(5, "garbage!")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

type row struct {
	id int
	at time.Time
}

func TestSplit(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{id: 3, at: base.Add(3 * time.Second)},
		{id: 2, at: base.Add(2 * time.Second)},
		{id: 1, at: base.Add(1 * time.Second)},
	}
	at := func(r row) time.Time { return r.at }

	items, hasMore, cursor := Split(rows, 2, at)
	assert.Len(t, items, 2)
	assert.True(t, hasMore)
	assert.Equal(t, EncodeCursor(rows[1].at), cursor)

	items, hasMore, cursor = Split(rows[2:], 2, at)
	assert.Len(t, items, 1)
	assert.False(t, hasMore)
	assert.Empty(t, cursor)
}
