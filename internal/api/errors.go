package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldError is one structured validation failure from the backend,
// in the shape FastAPI/pydantic produces.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// ValidationError is a 4xx rejection of a submission. Fields is populated
// when the backend returned structured field errors; otherwise Message
// carries the backend's plain-text detail.
type ValidationError struct {
	Fields  []FieldError
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return e.Message
		}
		return "validation error occurred"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		field := strings.Join(f.Loc, " → ")
		if field == "" {
			field = "Field"
		}
		msg := f.Msg
		if msg == "" {
			msg = "Invalid value"
		}
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// RateLimitError signals the once-per-24-hours streak rule rejected an
// update. It is an expected steady-state outcome, not a fault.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "streak can only be updated once every 24 hours"
}

// ServerError is a 5xx response independent of request contents.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// TransportError wraps a network, DNS or timeout failure; the backend was
// never reached (or never answered).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "backend unreachable: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// errorBody covers the response shapes the backend is known to produce:
// a string detail, an array detail, or an errors array.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Errors  []FieldError    `json:"errors"`
	Message string          `json:"message"`
}

// classifyError turns an HTTP error response into one of the tagged
// variants above.
func classifyError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	var detailText string
	var detailFields []FieldError
	if len(eb.Detail) > 0 {
		if err := json.Unmarshal(eb.Detail, &detailText); err != nil {
			_ = json.Unmarshal(eb.Detail, &detailFields)
		}
	}

	if status == 429 || strings.Contains(detailText, "24 hours") {
		return &RateLimitError{Message: detailText}
	}
	if status >= 500 {
		return &ServerError{Status: status}
	}

	if len(detailFields) > 0 {
		return &ValidationError{Fields: detailFields}
	}
	if len(eb.Errors) > 0 {
		// This shape prefixes locations with "body"; strip it the way the
		// reference client renders these.
		fields := make([]FieldError, 0, len(eb.Errors))
		for _, f := range eb.Errors {
			loc := make([]string, 0, len(f.Loc))
			for _, l := range f.Loc {
				if l != "body" {
					loc = append(loc, l)
				}
			}
			fields = append(fields, FieldError{Loc: loc, Msg: f.Msg})
		}
		return &ValidationError{Fields: fields}
	}
	if detailText != "" {
		return &ValidationError{Message: detailText}
	}
	if eb.Message != "" {
		return &ValidationError{Message: eb.Message}
	}
	return &ValidationError{Message: fmt.Sprintf("request rejected with status %d", status)}
}
