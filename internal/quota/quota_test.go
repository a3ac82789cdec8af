package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmatch/internal/repository"
)

func newTestTracker(t *testing.T, ceiling int) *Tracker {
	t.Helper()
	kv, err := repository.OpenKVStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return NewTracker(kv, "quota-test", ceiling, 24*time.Hour)
}

func TestTracker_CeilingEnforced(t *testing.T) {
	tracker := newTestTracker(t, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Check("10.0.0.1"))
		require.NoError(t, tracker.Increment("10.0.0.1"))
	}

	assert.ErrorIs(t, tracker.Check("10.0.0.1"), ErrQuotaExceeded)

	// Other identities are unaffected
	assert.NoError(t, tracker.Check("10.0.0.2"))
}

func TestTracker_Count(t *testing.T) {
	tracker := newTestTracker(t, 10)

	count, err := tracker.Count("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.NoError(t, tracker.Increment("10.0.0.1"))

	count, err = tracker.Count("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRedeem_SameDayTicketResets(t *testing.T) {
	tracker := newTestTracker(t, 2)
	tracker.now = func() time.Time { return time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC) }

	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.ErrorIs(t, tracker.Check("10.0.0.1"), ErrQuotaExceeded)

	ticket := Ticket{ID: "t-1", IssuedAt: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, tracker.Redeem("10.0.0.1", ticket))

	count, err := tracker.Count("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, tracker.Check("10.0.0.1"))
}

func TestRedeem_StaleTicketIgnored(t *testing.T) {
	tracker := newTestTracker(t, 2)
	tracker.now = func() time.Time { return time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC) }

	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.NoError(t, tracker.Increment("10.0.0.1"))

	ticket := Ticket{ID: "t-old", IssuedAt: time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)}
	require.NoError(t, tracker.Redeem("10.0.0.1", ticket))

	count, err := tracker.Count("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "yesterday's ticket must not reset the count")
}

func TestRedeem_TicketIsSingleUse(t *testing.T) {
	tracker := newTestTracker(t, 2)
	tracker.now = func() time.Time { return time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC) }

	ticket := Ticket{ID: "t-1", IssuedAt: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)}

	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.NoError(t, tracker.Redeem("10.0.0.1", ticket))

	count, err := tracker.Count("10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 0, count)

	// Spend again, then replay the same ticket
	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.NoError(t, tracker.Redeem("10.0.0.1", ticket))

	count, err = tracker.Count("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a replayed ticket must be a no-op")
}

func TestIncrement_WindowIsFixed(t *testing.T) {
	tracker := newTestTracker(t, 10)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }

	require.NoError(t, tracker.Increment("10.0.0.1"))

	// Later activity must not move the window anchor
	tracker.now = func() time.Time { return base.Add(6 * time.Hour) }
	require.NoError(t, tracker.Increment("10.0.0.1"))

	rec, err := tracker.load("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Count)
	assert.True(t, rec.WindowStart.Equal(base), "increments must keep the original window start")
}

func TestRedeem_EmptyTicketIgnored(t *testing.T) {
	tracker := newTestTracker(t, 2)

	require.NoError(t, tracker.Increment("10.0.0.1"))
	require.NoError(t, tracker.Redeem("10.0.0.1", Ticket{IssuedAt: time.Now()}))

	count, err := tracker.Count("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
