package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shlok2345788/dropout-front/internal/models"
)

// ValidationError is a local, synchronous rejection of a step's answers.
// It never leaves the wizard boundary as anything but a reason string.
type ValidationError struct {
	StepIndex int
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidateStep checks the fields owned by one step against the collected
// answers. Dependent fields may inspect sibling answers collected in
// earlier steps; schema loading guarantees those are already present.
func ValidateStep(schema *models.FormSchema, stepIndex int, answers map[string]any) *ValidationError {
	if stepIndex < 0 || stepIndex >= len(schema.Steps) {
		return nil
	}
	for _, field := range schema.Steps[stepIndex].Fields {
		if !fieldApplies(field, answers) {
			continue
		}
		if reason := validateField(field, answers[field.Name]); reason != "" {
			return &ValidationError{StepIndex: stepIndex, Field: field.Name, Reason: reason}
		}
	}
	return nil
}

// fieldApplies reports whether a conditionally required field is active
// given the sibling answer it depends on.
func fieldApplies(field models.Field, answers map[string]any) bool {
	if field.Requires == nil {
		return true
	}
	return stringValue(answers[field.Requires.Field]) == field.Requires.Equals
}

func validateField(field models.Field, value any) string {
	label := field.Label
	if label == "" {
		label = field.Name
	}

	switch field.Type {
	case models.FieldCheckbox:
		// A checkbox has no missing state.
		return ""

	case models.FieldNumber:
		raw := stringValue(value)
		if raw == "" {
			if field.Required {
				return label + " is required"
			}
			return ""
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return label + " must be a number"
		}
		switch {
		case field.Min != nil && field.Max != nil && (n < *field.Min || n > *field.Max):
			return fmt.Sprintf("%s must be between %s and %s", label, formatBound(*field.Min), formatBound(*field.Max))
		case field.Min != nil && n < *field.Min:
			return fmt.Sprintf("%s must be at least %s", label, formatBound(*field.Min))
		case field.Max != nil && n > *field.Max:
			return fmt.Sprintf("%s must be at most %s", label, formatBound(*field.Max))
		}
		return ""

	default: // text, select
		if field.Required && strings.TrimSpace(stringValue(value)) == "" {
			return label + " is required"
		}
		return ""
	}
}

// stringValue normalizes an answer for validation. Answers arrive as
// strings from form inputs but may be numbers or booleans after a JSON
// round trip.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BuildPayload converts collected answers into the typed JSON body the
// backend expects: numbers as numbers, checkboxes as booleans, everything
// else as strings.
func BuildPayload(schema *models.FormSchema, answers map[string]any) map[string]any {
	payload := make(map[string]any)
	for _, step := range schema.Steps {
		for _, field := range step.Fields {
			raw := stringValue(answers[field.Name])
			switch field.Type {
			case models.FieldCheckbox:
				payload[field.Name] = raw == "true"
			case models.FieldNumber:
				if raw == "" {
					payload[field.Name] = nil
					continue
				}
				n, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					payload[field.Name] = raw
					continue
				}
				if field.Integer {
					payload[field.Name] = int(n)
				} else {
					payload[field.Name] = n
				}
			default:
				payload[field.Name] = raw
			}
		}
	}
	return payload
}
