// Package streak tracks the once-per-24-hours engagement counter for a
// subject, resolving reads through an in-memory cache, then the backend,
// then the locally persisted copy.
package streak

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/api"
	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/store"
)

// DefaultCacheTTL is how long a fetched record is trusted without
// re-contacting the backend.
const DefaultCacheTTL = 5 * time.Minute

const tooSoonMessage = "Streak can only be updated once every 24 hours"

// Result is the outcome of an update attempt. Record is always the best
// known state, whether or not the click counted.
type Result struct {
	Success bool                `json:"success"`
	Record  models.StreakRecord `json:"record"`
	Message string              `json:"message,omitempty"`
}

type cacheEntry struct {
	record    models.StreakRecord
	fetchedAt time.Time
}

// Tracker is the engagement tracker. Construct one per process and inject
// it wherever streak state is needed; each instance owns its cache.
type Tracker struct {
	log    *zap.Logger
	client api.Client
	store  store.Store
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry

	// nowFunc is swapped in tests to control cache freshness.
	nowFunc func() time.Time
}

// NewTracker creates a tracker. A ttl of zero falls back to DefaultCacheTTL.
func NewTracker(log *zap.Logger, client api.Client, st store.Store, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Tracker{
		log:     log,
		client:  client,
		store:   st,
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
		nowFunc: time.Now,
	}
}

// GetStreak resolves the subject's current record: fresh cache entry first,
// then the backend, then the persisted local copy, then a default record.
// It never returns an error; unreachability degrades to the best locally
// known state.
func (t *Tracker) GetStreak(ctx context.Context, subjectID string) models.StreakRecord {
	if rec, ok := t.cached(subjectID); ok {
		return rec
	}

	rec, err := t.client.GetStreak(ctx, subjectID)
	if err == nil {
		t.remember(subjectID, rec)
		return rec
	}
	t.log.Warn("Streak fetch failed, falling back to local store",
		zap.String("subject_id", subjectID),
		zap.Error(err),
	)

	if rec, ok := t.persisted(subjectID); ok {
		return rec
	}
	return models.DefaultStreakRecord()
}

// UpdateStreak registers an engagement click at now. The backend's answer is
// authoritative when reachable; a rate-limited or server-side rejection
// resolves to the current record with Success=false; total unreachability
// falls back to a purely local computation of the 24-hour rule.
func (t *Tracker) UpdateStreak(ctx context.Context, subjectID string, now time.Time) Result {
	upd, err := t.client.UpdateStreak(ctx, subjectID, now)
	if err == nil {
		// The server's count reflects its own sequencing; never assume +1.
		t.remember(subjectID, upd.StreakRecord)
		t.persist(subjectID, upd.StreakRecord)
		return Result{Success: true, Record: upd.StreakRecord, Message: upd.Message}
	}

	var rateLimited *api.RateLimitError
	if errors.As(err, &rateLimited) {
		msg := rateLimited.Message
		if msg == "" {
			msg = tooSoonMessage
		}
		return Result{Success: false, Record: t.GetStreak(ctx, subjectID), Message: msg}
	}

	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		t.log.Error("Backend error while updating streak",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return Result{
			Success: false,
			Record:  t.GetStreak(ctx, subjectID),
			Message: "Server error occurred while updating streak. Please try again later.",
		}
	}

	t.log.Warn("Backend unreachable, applying local streak update",
		zap.String("subject_id", subjectID),
		zap.Error(err),
	)
	return t.updateLocally(subjectID, now)
}

// CanUpdate reports whether a click would count right now.
func (t *Tracker) CanUpdate(ctx context.Context, subjectID string) bool {
	return t.GetStreak(ctx, subjectID).CanUpdate
}

// updateLocally applies the 24-hour rule against the persisted record. A
// first-ever click with no history still produces a synthesized record, so
// callers never see an error from this path.
func (t *Tracker) updateLocally(subjectID string, now time.Time) Result {
	rec, ok := t.persisted(subjectID)
	if !ok {
		rec = models.DefaultStreakRecord()
	}

	if rec.LastClick != nil && now.Sub(*rec.LastClick) < models.StreakWindow {
		return Result{Success: false, Record: rec, Message: tooSoonMessage}
	}

	clicked := now
	next := now.Add(models.StreakWindow)
	rec.StreakCount++
	rec.LastClick = &clicked
	rec.CanUpdate = false
	rec.NextUpdateAllowed = &next

	t.persist(subjectID, rec)
	return Result{Success: true, Record: rec}
}

func (t *Tracker) cached(subjectID string) (models.StreakRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.cache[subjectID]
	if !ok || t.nowFunc().Sub(e.fetchedAt) >= t.ttl {
		return models.StreakRecord{}, false
	}
	return e.record, true
}

func (t *Tracker) remember(subjectID string, rec models.StreakRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[subjectID] = cacheEntry{record: rec, fetchedAt: t.nowFunc()}
}

func (t *Tracker) persist(subjectID string, rec models.StreakRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		t.log.Error("Failed to serialize streak record", zap.Error(err))
		return
	}
	if err := t.store.Set(store.StreakKey(subjectID), string(raw)); err != nil {
		t.log.Error("Failed to persist streak record",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
	}
}

func (t *Tracker) persisted(subjectID string) (models.StreakRecord, bool) {
	raw, ok, err := t.store.Get(store.StreakKey(subjectID))
	if err != nil || !ok {
		if err != nil {
			t.log.Error("Failed to read persisted streak record", zap.Error(err))
		}
		return models.StreakRecord{}, false
	}
	var rec models.StreakRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.log.Error("Failed to parse persisted streak record", zap.Error(err))
		return models.StreakRecord{}, false
	}
	return rec, true
}
