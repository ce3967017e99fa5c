// Package scores keeps the per-subject exam score history in the local
// store and derives the progress figures the dashboard shows.
package scores

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/store"
)

// ErrScoreOutOfRange rejects scores outside the 0-100 percentage range.
var ErrScoreOutOfRange = errors.New("score must be between 0 and 100")

// ExamScore is one recorded attempt.
type ExamScore struct {
	ID    int64     `json:"id"`
	Exam  string    `json:"exam"`
	Score float64   `json:"score"`
	Date  time.Time `json:"date"`
}

// Summary is the derived view of a subject's history.
type Summary struct {
	Scores   []ExamScore `json:"scores"`
	Attempts int         `json:"attempts"`
	Latest   float64     `json:"latest"`
	Progress float64     `json:"progress"`
}

// Book records exam scores for subjects. Appends are serialized under a
// mutex since the store only offers whole-value reads and writes.
type Book struct {
	log   *zap.Logger
	store store.Store

	mu sync.Mutex

	// nowFunc is swapped in tests to pin entry IDs and dates.
	nowFunc func() time.Time
}

// NewBook creates a score book over the given store.
func NewBook(log *zap.Logger, st store.Store) *Book {
	return &Book{log: log, store: st, nowFunc: time.Now}
}

// Add validates and appends one score to the subject's history.
func (b *Book) Add(subjectID, exam string, score float64) (ExamScore, error) {
	if score < 0 || score > 100 {
		return ExamScore{}, fmt.Errorf("%w, got %v", ErrScoreOutOfRange, score)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	history, err := b.history(subjectID)
	if err != nil {
		return ExamScore{}, err
	}

	now := b.nowFunc()
	entry := ExamScore{
		ID:    now.UnixMilli(),
		Exam:  exam,
		Score: score,
		Date:  now,
	}
	history = append(history, entry)

	raw, err := json.Marshal(history)
	if err != nil {
		return ExamScore{}, fmt.Errorf("failed to serialize score history: %w", err)
	}
	if err := b.store.Set(store.ExamScoresKey(subjectID), string(raw)); err != nil {
		return ExamScore{}, fmt.Errorf("failed to persist score history: %w", err)
	}

	b.log.Info("Exam score recorded",
		zap.String("subject_id", subjectID),
		zap.String("exam", exam),
		zap.Float64("score", score),
	)
	return entry, nil
}

// History returns the subject's scores in the order they were recorded. An
// unknown subject has an empty history, not an error.
func (b *Book) History(subjectID string) ([]ExamScore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history(subjectID)
}

// Summarize builds the dashboard view: attempt count, latest score and the
// progress figure (latest score, capped at 100).
func (b *Book) Summarize(subjectID string) (Summary, error) {
	history, err := b.History(subjectID)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Scores: history, Attempts: len(history)}
	if len(history) > 0 {
		s.Latest = history[len(history)-1].Score
		s.Progress = s.Latest
		if s.Progress > 100 {
			s.Progress = 100
		}
	}
	return s, nil
}

func (b *Book) history(subjectID string) ([]ExamScore, error) {
	raw, ok, err := b.store.Get(store.ExamScoresKey(subjectID))
	if err != nil {
		return nil, fmt.Errorf("failed to read score history: %w", err)
	}
	if !ok {
		return []ExamScore{}, nil
	}
	var history []ExamScore
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		b.log.Error("Failed to parse persisted score history",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return []ExamScore{}, nil
	}
	return history, nil
}
