package models

import "time"

// StreakWindow is the minimum interval between two counted engagement clicks.
const StreakWindow = 24 * time.Hour

// StreakRecord is the per-subject engagement state as served by the backend.
// CanUpdate and NextUpdateAllowed are derived from LastClick; Normalize keeps
// them consistent after local mutation.
type StreakRecord struct {
	StreakCount       int        `json:"streak_count"`
	LastClick         *time.Time `json:"last_click"`
	CanUpdate         bool       `json:"can_update"`
	NextUpdateAllowed *time.Time `json:"next_update_allowed"`
}

// DefaultStreakRecord is the record for a subject with no history.
func DefaultStreakRecord() StreakRecord {
	return StreakRecord{StreakCount: 0, CanUpdate: true}
}

// Normalize recomputes the derived fields from LastClick as of now.
func (r *StreakRecord) Normalize(now time.Time) {
	if r.LastClick == nil || now.Sub(*r.LastClick) >= StreakWindow {
		r.CanUpdate = true
		r.NextUpdateAllowed = nil
		return
	}
	next := r.LastClick.Add(StreakWindow)
	r.CanUpdate = false
	r.NextUpdateAllowed = &next
}
