// Package schedule builds the weekly study plan from a subject's chosen
// study subjects and their difficulty ratings, hardest first.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/store"
)

// ErrUnknownDifficulty rejects difficulty ratings outside easy/medium/hard.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty rates one study subject.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Days lists the week in planning order; slots are dealt across it
// round-robin.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Subject is one study subject with its rated difficulty. An empty
// difficulty defaults to medium.
type Subject struct {
	Name       string     `json:"name"`
	Difficulty Difficulty `json:"difficulty"`
}

// Slot is one planned study session.
type Slot struct {
	Name       string     `json:"name"`
	Difficulty Difficulty `json:"difficulty"`
}

// Week maps day names to their planned slots. Days without slots are
// absent.
type Week map[string][]Slot

// Planner generates and persists weekly study schedules.
type Planner struct {
	log   *zap.Logger
	store store.Store

	mu sync.Mutex
}

// NewPlanner creates a planner over the given store.
func NewPlanner(log *zap.Logger, st store.Store) *Planner {
	return &Planner{log: log, store: st}
}

// Generate builds the week deterministically: hard subjects keep their
// input order but move to the front, the rest follow in input order, and
// the combined list is dealt one slot per day across the week.
func Generate(subjects []Subject) (Week, error) {
	prioritized := make([]Subject, 0, len(subjects))
	var others []Subject
	for _, s := range subjects {
		switch s.Difficulty {
		case "":
			s.Difficulty = DifficultyMedium
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			return nil, fmt.Errorf("%w %q for subject %q", ErrUnknownDifficulty, s.Difficulty, s.Name)
		}
		if s.Difficulty == DifficultyHard {
			prioritized = append(prioritized, s)
		} else {
			others = append(others, s)
		}
	}
	prioritized = append(prioritized, others...)

	week := Week{}
	for i, s := range prioritized {
		day := Days[i%len(Days)]
		week[day] = append(week[day], Slot{Name: s.Name, Difficulty: s.Difficulty})
	}
	return week, nil
}

// Build generates the subject's week and persists it, replacing any
// earlier plan.
func (p *Planner) Build(subjectID string, subjects []Subject) (Week, error) {
	week, err := Generate(subjects)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(week)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schedule: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Set(store.ScheduleKey(subjectID), string(raw)); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	p.log.Info("Study schedule generated",
		zap.String("subject_id", subjectID),
		zap.Int("subjects", len(subjects)),
	)
	return week, nil
}

// Load returns the subject's persisted week, or ok=false when none was
// ever built.
func (p *Planner) Load(subjectID string) (Week, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, ok, err := p.store.Get(store.ScheduleKey(subjectID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read schedule: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var week Week
	if err := json.Unmarshal([]byte(raw), &week); err != nil {
		p.log.Error("Failed to parse persisted schedule",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return nil, false, nil
	}
	return week, true, nil
}
