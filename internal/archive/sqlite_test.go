package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSession(id string, d time.Duration) call.Session {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record := intel.NewRecord()
	record.Add(intel.Names, "Rajesh")
	record.Add(intel.PhoneNumbers, "9876543210")
	return call.Session{
		ID:        id,
		PersonaID: "grandma",
		StartedAt: started,
		EndedAt:   started.Add(d),
		Duration:  d,
		ScamType:  "Bank/UPI Fraud",
		Intel:     record,
		Turns: []call.Turn{
			call.NewTurn(call.RolePersona, "Hello? Who is calling?"),
			call.NewTurn(call.RoleCaller, "This is Rajesh from the bank"),
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := sampleSession("s1", 3*time.Minute)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.PersonaID, got.PersonaID)
	assert.Equal(t, want.Duration, got.Duration)
	assert.Equal(t, want.ScamType, got.ScamType)
	assert.Equal(t, want.Intel.Values(intel.Names), got.Intel.Values(intel.Names))
	require.Len(t, got.Turns, 2)
	assert.Equal(t, call.RoleCaller, got.Turns[1].Role)
}

func TestGetUnknownID(t *testing.T) {
	store := newTestStore(t)
	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := sampleSession("s1", time.Minute)
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Save(ctx, sess))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleSession("old", time.Minute)
	newer := sampleSession("new", time.Minute)
	newer.StartedAt = newer.StartedAt.Add(time.Hour)
	newer.EndedAt = newer.StartedAt.Add(time.Minute)

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("s1", time.Minute)))
	require.NoError(t, store.Delete(ctx, "s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, store.Delete(ctx, "s1"))
}

func TestTotalDuration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	total, err := store.TotalDuration(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, store.Save(ctx, sampleSession("s1", 2*time.Minute)))
	require.NoError(t, store.Save(ctx, sampleSession("s2", 3*time.Minute)))

	total, err = store.TotalDuration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, total)
}
