// Package wizard drives a linear multi-step intake form: per-step
// validation gates forward navigation, and a single terminal submission
// hands the answers to the prediction backend.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/api"
	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/store"
)

// State of a wizard instance.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

const genericSubmitError = "Error submitting form. Please try again."

var (
	// ErrNotEditing is returned when navigation is attempted after the
	// wizard left the editing states.
	ErrNotEditing = errors.New("wizard is no longer editing")
	// ErrAtFinalStep is returned by Next on the last step; callers should
	// submit instead.
	ErrAtFinalStep = errors.New("already at the final step")
	// ErrAlreadySucceeded is returned by Submit after a successful run.
	ErrAlreadySucceeded = errors.New("form already submitted")
)

// Wizard is one in-flight intake form. Safe for concurrent use; overlapping
// submits are serialized, matching the disable-before-await contract the
// UI follows.
type Wizard struct {
	ID string

	log    *zap.Logger
	client api.Client
	store  store.Store
	schema *models.FormSchema

	mu        sync.Mutex
	answers   map[string]any
	stepIndex int
	state     State
	subjectID string
	lastError string
}

// New starts a wizard at the first step with no answers.
func New(log *zap.Logger, client api.Client, st store.Store, schema *models.FormSchema) *Wizard {
	return &Wizard{
		ID:      uuid.NewString(),
		log:     log,
		client:  client,
		store:   st,
		schema:  schema,
		answers: make(map[string]any),
		state:   StateEditing,
	}
}

func (w *Wizard) Schema() *models.FormSchema { return w.schema }

func (w *Wizard) StepIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepIndex
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SubjectID is the backend-assigned identifier; empty until Succeeded.
func (w *Wizard) SubjectID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subjectID
}

// LastError is the most recent human-readable failure reason.
func (w *Wizard) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastError
}

// Answers returns a copy of the collected answers.
func (w *Wizard) Answers() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]any, len(w.answers))
	for k, v := range w.answers {
		out[k] = v
	}
	return out
}

// SetAnswer records one field edit. Changing a field that other fields
// depend on clears the now-inapplicable dependents.
func (w *Wizard) SetAnswer(name string, value any) error {
	if _, ok := w.schema.LookupField(name); !ok {
		return fmt.Errorf("form %q has no field %q", w.schema.Name, name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditing && w.state != StateFailed {
		return ErrNotEditing
	}
	w.answers[name] = value
	for _, step := range w.schema.Steps {
		for _, f := range step.Fields {
			if f.Requires != nil && f.Requires.Field == name && stringValue(value) != f.Requires.Equals {
				delete(w.answers, f.Name)
			}
		}
	}
	return nil
}

// Next advances to the following step if the current step validates. On a
// validation failure the step index is unchanged and the validator's
// reason is returned.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditing {
		return ErrNotEditing
	}
	if w.stepIndex >= len(w.schema.Steps)-1 {
		return ErrAtFinalStep
	}
	if verr := ValidateStep(w.schema, w.stepIndex, w.answers); verr != nil {
		w.lastError = verr.Reason
		return verr
	}
	w.stepIndex++
	w.lastError = ""
	return nil
}

// Back moves to the previous step. It never validates and is a no-op on
// the first step.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditing {
		return ErrNotEditing
	}
	if w.stepIndex > 0 {
		w.stepIndex--
	}
	return nil
}

// Submit re-validates every step and performs the single terminal
// submission. On success the subject identifier and completed flag are
// durably persisted and the identifier is returned. A failed submission
// may be retried by calling Submit again.
func (w *Wizard) Submit(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateEditing, StateFailed:
	case StateSucceeded:
		return w.subjectID, ErrAlreadySucceeded
	default:
		return "", ErrNotEditing
	}

	// Re-validate everything: earlier forward validation may be stale after
	// the caller navigated back and edited.
	for i := range w.schema.Steps {
		if verr := ValidateStep(w.schema, i, w.answers); verr != nil {
			w.state = StateEditing
			w.stepIndex = i
			w.lastError = verr.Reason
			return "", verr
		}
	}

	w.state = StateSubmitting
	payload := BuildPayload(w.schema, w.answers)

	subjectID, err := w.client.SubmitForm(ctx, w.schema.Name, payload)
	if err != nil {
		w.state = StateFailed
		w.lastError = submissionMessage(err)
		w.log.Warn("Form submission failed",
			zap.String("form", w.schema.Name),
			zap.Error(err),
		)
		return "", err
	}

	w.state = StateSucceeded
	w.subjectID = subjectID
	w.lastError = ""

	if err := w.store.Set(store.SubjectKey(), subjectID); err != nil {
		w.log.Error("Failed to persist subject identifier", zap.Error(err))
	}
	if err := w.store.Set(store.FormCompletedKey(), "true"); err != nil {
		w.log.Error("Failed to persist completed flag", zap.Error(err))
	}
	if err := w.client.MarkFormCompleted(ctx, subjectID); err != nil {
		// Best effort; the local flag already covers the next launch.
		w.log.Warn("Failed to mark form completed on backend", zap.Error(err))
	}

	w.log.Info("Form submitted",
		zap.String("form", w.schema.Name),
		zap.String("subject_id", subjectID),
	)
	return subjectID, nil
}

// submissionMessage derives the one user-visible message for a failed
// submission: structured field errors join into "field: message" pairs,
// everything else collapses to a generic message.
func submissionMessage(err error) string {
	var verr *api.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var rerr *api.RateLimitError
	if errors.As(err, &rerr) {
		return rerr.Error()
	}
	return genericSubmitError
}
