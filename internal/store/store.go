// Package store provides the persistent key-value fallback the client
// keeps when the backend is unreachable.
package store

// Store is a small persistent key-value contract. Implementations must be
// safe for concurrent use from HTTP handlers.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

const keyPrefix = "dropout:"

// SubjectKey holds the active subject identifier for this installation.
func SubjectKey() string { return keyPrefix + "subject_id" }

// FormCompletedKey flags that the intake form was submitted successfully.
func FormCompletedKey() string { return keyPrefix + "form_completed" }

// StreakKey holds the serialized engagement record for one subject.
func StreakKey(subjectID string) string { return keyPrefix + "streak:" + subjectID }

// ExamScoresKey holds the serialized exam score history for one subject.
func ExamScoresKey(subjectID string) string { return keyPrefix + "exam_scores:" + subjectID }

// ScheduleKey holds the serialized weekly study schedule for one subject.
func ScheduleKey(subjectID string) string { return keyPrefix + "schedule:" + subjectID }
