package streak

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/api"
	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/store"
)

type fakeClient struct {
	getCalls    int
	getRecord   models.StreakRecord
	getErr      error
	updateCalls int
	updateResp  api.StreakUpdate
	updateErr   error
}

func (f *fakeClient) SubmitForm(context.Context, string, map[string]any) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeClient) MarkFormCompleted(context.Context, string) error { return nil }

func (f *fakeClient) GetStreak(context.Context, string) (models.StreakRecord, error) {
	f.getCalls++
	return f.getRecord, f.getErr
}

func (f *fakeClient) UpdateStreak(context.Context, string, time.Time) (api.StreakUpdate, error) {
	f.updateCalls++
	return f.updateResp, f.updateErr
}

func newTestTracker(client api.Client, st store.Store) *Tracker {
	return NewTracker(zap.NewNop(), client, st, DefaultCacheTTL)
}

func persistRecord(t *testing.T, st store.Store, subjectID string, rec models.StreakRecord) {
	t.Helper()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, st.Set(store.StreakKey(subjectID), string(raw)))
}

func TestGetStreakUsesFreshCache(t *testing.T) {
	client := &fakeClient{getRecord: models.StreakRecord{StreakCount: 3, CanUpdate: true}}
	tr := newTestTracker(client, store.NewMemoryStore())

	first := tr.GetStreak(context.Background(), "s1")
	second := tr.GetStreak(context.Background(), "s1")

	assert.Equal(t, 1, client.getCalls, "second call within the TTL must not hit the backend")
	assert.Equal(t, first, second)
}

func TestGetStreakRefetchesAfterTTL(t *testing.T) {
	client := &fakeClient{getRecord: models.StreakRecord{StreakCount: 3, CanUpdate: true}}
	tr := newTestTracker(client, store.NewMemoryStore())

	now := time.Now()
	tr.nowFunc = func() time.Time { return now }
	tr.GetStreak(context.Background(), "s1")

	tr.nowFunc = func() time.Time { return now.Add(6 * time.Minute) }
	tr.GetStreak(context.Background(), "s1")

	assert.Equal(t, 2, client.getCalls)
}

func TestGetStreakRemoteFetchDoesNotWriteStore(t *testing.T) {
	st := store.NewMemoryStore()
	client := &fakeClient{getRecord: models.StreakRecord{StreakCount: 4, CanUpdate: true}}
	tr := newTestTracker(client, st)

	tr.GetStreak(context.Background(), "s1")

	// Only updates write the local fallback copy; reads cache in memory.
	_, ok, err := st.Get(store.StreakKey("s1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetStreakFallsBackToPersistedRecord(t *testing.T) {
	st := store.NewMemoryStore()
	last := time.Now().Add(-2 * time.Hour).UTC()
	next := last.Add(models.StreakWindow)
	persistRecord(t, st, "s1", models.StreakRecord{
		StreakCount:       5,
		LastClick:         &last,
		CanUpdate:         false,
		NextUpdateAllowed: &next,
	})

	client := &fakeClient{getErr: &api.TransportError{Err: errors.New("connection refused")}}
	tr := newTestTracker(client, st)

	rec := tr.GetStreak(context.Background(), "s1")
	assert.Equal(t, 5, rec.StreakCount)
	assert.False(t, rec.CanUpdate)
}

func TestGetStreakDefaultsWhenNothingKnown(t *testing.T) {
	client := &fakeClient{getErr: &api.TransportError{Err: errors.New("timeout")}}
	tr := newTestTracker(client, store.NewMemoryStore())

	rec := tr.GetStreak(context.Background(), "s1")
	assert.Equal(t, 0, rec.StreakCount)
	assert.True(t, rec.CanUpdate)
	assert.Nil(t, rec.LastClick)
	assert.Nil(t, rec.NextUpdateAllowed)
}

func TestUpdateStreakServerRecordIsAuthoritative(t *testing.T) {
	now := time.Now().UTC()
	next := now.Add(models.StreakWindow)
	st := store.NewMemoryStore()
	client := &fakeClient{
		updateResp: api.StreakUpdate{
			StreakRecord: models.StreakRecord{
				// Server-side sequencing, not a client-computed increment.
				StreakCount:       7,
				LastClick:         &now,
				CanUpdate:         false,
				NextUpdateAllowed: &next,
			},
			Success: true,
		},
	}
	tr := newTestTracker(client, st)

	res := tr.UpdateStreak(context.Background(), "s1", now)
	require.True(t, res.Success)
	assert.Equal(t, 7, res.Record.StreakCount)

	// Both caches must hold the server record.
	cached, ok := tr.cached("s1")
	require.True(t, ok)
	assert.Equal(t, 7, cached.StreakCount)
	persisted, ok := tr.persisted("s1")
	require.True(t, ok)
	assert.Equal(t, 7, persisted.StreakCount)
}

func TestUpdateStreakRateLimited(t *testing.T) {
	last := time.Now().Add(-1 * time.Hour).UTC()
	next := last.Add(models.StreakWindow)
	client := &fakeClient{
		updateErr: &api.RateLimitError{Message: "Streak can only be updated once every 24 hours"},
		getRecord: models.StreakRecord{
			StreakCount:       4,
			LastClick:         &last,
			CanUpdate:         false,
			NextUpdateAllowed: &next,
		},
	}
	tr := newTestTracker(client, store.NewMemoryStore())

	res := tr.UpdateStreak(context.Background(), "s1", time.Now())
	assert.False(t, res.Success)
	assert.Equal(t, 4, res.Record.StreakCount, "counter must not move on a too-soon rejection")
	assert.Contains(t, res.Message, "24 hours")
}

func TestUpdateStreakServerError(t *testing.T) {
	client := &fakeClient{
		updateErr: &api.ServerError{Status: 500},
		getRecord: models.StreakRecord{StreakCount: 2, CanUpdate: true},
	}
	tr := newTestTracker(client, store.NewMemoryStore())

	res := tr.UpdateStreak(context.Background(), "s1", time.Now())
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Record.StreakCount)
	assert.NotEmpty(t, res.Message)
}

func TestUpdateStreakOfflineFirstClick(t *testing.T) {
	client := &fakeClient{
		updateErr: &api.TransportError{Err: errors.New("no route to host")},
		getErr:    &api.TransportError{Err: errors.New("no route to host")},
	}
	st := store.NewMemoryStore()
	tr := newTestTracker(client, st)

	now := time.Now().UTC()
	res := tr.UpdateStreak(context.Background(), "s1", now)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Record.StreakCount)
	assert.False(t, res.Record.CanUpdate)
	require.NotNil(t, res.Record.LastClick)
	assert.True(t, res.Record.LastClick.Equal(now))
	require.NotNil(t, res.Record.NextUpdateAllowed)
	assert.True(t, res.Record.NextUpdateAllowed.Equal(now.Add(models.StreakWindow)))

	persisted, ok := tr.persisted("s1")
	require.True(t, ok)
	assert.Equal(t, 1, persisted.StreakCount)
}

func TestUpdateStreakOfflineTooSoon(t *testing.T) {
	client := &fakeClient{updateErr: &api.TransportError{Err: errors.New("timeout")}}
	st := store.NewMemoryStore()
	tr := newTestTracker(client, st)

	t1 := time.Now().UTC()
	first := tr.UpdateStreak(context.Background(), "s1", t1)
	require.True(t, first.Success)

	second := tr.UpdateStreak(context.Background(), "s1", t1.Add(2*time.Hour))
	assert.False(t, second.Success)
	assert.Equal(t, 1, second.Record.StreakCount)
}

func TestUpdateStreakOfflineAfterWindow(t *testing.T) {
	client := &fakeClient{updateErr: &api.TransportError{Err: errors.New("timeout")}}
	st := store.NewMemoryStore()
	tr := newTestTracker(client, st)

	t1 := time.Now().UTC()
	first := tr.UpdateStreak(context.Background(), "s1", t1)
	require.True(t, first.Success)

	second := tr.UpdateStreak(context.Background(), "s1", t1.Add(25*time.Hour))
	require.True(t, second.Success)
	// Exactly +1 on the offline path.
	assert.Equal(t, 2, second.Record.StreakCount)
}

func TestPersistedRecordRoundTrip(t *testing.T) {
	st := store.NewMemoryStore()
	last := time.Now().Add(-3 * time.Hour).UTC()
	next := last.Add(models.StreakWindow)
	persistRecord(t, st, "s1", models.StreakRecord{
		StreakCount:       9,
		LastClick:         &last,
		CanUpdate:         false,
		NextUpdateAllowed: &next,
	})

	client := &fakeClient{getErr: &api.TransportError{Err: errors.New("unreachable")}}
	tr := newTestTracker(client, st)

	rec := tr.GetStreak(context.Background(), "s1")
	assert.Equal(t, 9, rec.StreakCount)
	assert.False(t, rec.CanUpdate)
}
