package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/store"
)

func seed(t *testing.T, st store.Store, subjectID string, rec models.StreakRecord) {
	t.Helper()
	require.NoError(t, st.Set(store.SubjectKey(), subjectID))
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, st.Set(store.StreakKey(subjectID), string(raw)))
}

func TestReminderFiresOncePerWindow(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Now()
	last := now.Add(-25 * time.Hour)
	seed(t, st, "stu-1", models.StreakRecord{StreakCount: 4, LastClick: &last})

	s := NewReminderScheduler(zap.NewNop(), st)

	s.runReminderCheck(now)
	first := s.lastNotified
	assert.False(t, first.IsZero(), "reopened window should notify")

	s.runReminderCheck(now.Add(time.Minute))
	assert.Equal(t, first, s.lastNotified, "same window must not notify twice")
}

func TestReminderQuietWhileWindowClosed(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Now()
	last := now.Add(-2 * time.Hour)
	seed(t, st, "stu-1", models.StreakRecord{StreakCount: 4, LastClick: &last})

	s := NewReminderScheduler(zap.NewNop(), st)
	s.runReminderCheck(now)
	assert.True(t, s.lastNotified.IsZero())
}

func TestReminderQuietWithoutSubject(t *testing.T) {
	s := NewReminderScheduler(zap.NewNop(), store.NewMemoryStore())
	s.runReminderCheck(time.Now())
	assert.True(t, s.lastNotified.IsZero())
}
