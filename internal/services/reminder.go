package services

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/store"
	"github.com/shlok2345788/dropout-front/internal/streak"
)

// ReminderScheduler watches the active subject's persisted streak record
// and announces, once per 24-hour window, when the next engagement click
// becomes available.
type ReminderScheduler struct {
	log   *zap.Logger
	store store.Store

	lastNotified time.Time
	stop         chan struct{}
}

func NewReminderScheduler(log *zap.Logger, st store.Store) *ReminderScheduler {
	return &ReminderScheduler{
		log:   log,
		store: st,
		stop:  make(chan struct{}),
	}
}

// Start runs the scheduler in a goroutine.
func (s *ReminderScheduler) Start() {
	s.log.Info("Starting engagement reminder scheduler...")
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.runReminderCheck(time.Now())
			}
		}
	}()
}

// Stop terminates the scheduler loop.
func (s *ReminderScheduler) Stop() {
	close(s.stop)
}

func (s *ReminderScheduler) runReminderCheck(now time.Time) {
	subjectID, ok, err := s.store.Get(store.SubjectKey())
	if err != nil {
		s.log.Error("Failed to read active subject", zap.Error(err))
		return
	}
	if !ok || subjectID == "" {
		return
	}

	raw, ok, err := s.store.Get(store.StreakKey(subjectID))
	if err != nil || !ok {
		if err != nil {
			s.log.Error("Failed to read persisted streak record", zap.Error(err))
		}
		return
	}

	var rec models.StreakRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Error("Failed to parse persisted streak record", zap.Error(err))
		return
	}

	rec.Normalize(now)
	if !rec.CanUpdate || rec.LastClick == nil {
		return
	}
	// One reminder per reopened window.
	if s.lastNotified.After(*rec.LastClick) {
		return
	}

	s.lastNotified = now
	s.log.Info("Streak window reopened",
		zap.String("subject_id", subjectID),
		zap.Int("streak_count", rec.StreakCount),
		zap.String("countdown", streak.FormatCountdown(rec, now)),
	)
}
