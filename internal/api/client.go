package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/models"
)

// Client is the contract with the dropout-risk prediction backend.
type Client interface {
	// SubmitForm sends a completed intake form and returns the
	// backend-assigned subject identifier.
	SubmitForm(ctx context.Context, schema string, payload map[string]any) (string, error)
	// MarkFormCompleted records on the backend that the subject finished
	// their intake form.
	MarkFormCompleted(ctx context.Context, subjectID string) error
	// GetStreak fetches the subject's current engagement record.
	GetStreak(ctx context.Context, subjectID string) (models.StreakRecord, error)
	// UpdateStreak registers an engagement click at ts.
	UpdateStreak(ctx context.Context, subjectID string, ts time.Time) (StreakUpdate, error)
}

// StreakUpdate is the backend's answer to an engagement click.
type StreakUpdate struct {
	models.StreakRecord
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Config holds the HTTP client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPClient talks JSON over HTTP to the prediction backend.
type HTTPClient struct {
	log  *zap.Logger
	cfg  Config
	http *http.Client
}

var _ Client = (*HTTPClient)(nil)

// New creates a backend client. Requests are bounded by cfg.Timeout
// (15s when unset).
func New(log *zap.Logger, cfg Config) (*HTTPClient, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPClient{
		log:  log,
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type submitResponse struct {
	Student struct {
		StudentID string `json:"student_id"`
	} `json:"student"`
	StudentID string `json:"student_id"`
}

func (c *HTTPClient) SubmitForm(ctx context.Context, schema string, payload map[string]any) (string, error) {
	var resp submitResponse
	path := "/api/forms/" + schema + "/submit"
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return "", err
	}
	id := resp.Student.StudentID
	if id == "" {
		id = resp.StudentID
	}
	if id == "" {
		return "", &ServerError{Status: http.StatusOK}
	}
	return id, nil
}

func (c *HTTPClient) MarkFormCompleted(ctx context.Context, subjectID string) error {
	body := map[string]any{"student_id": subjectID}
	return c.do(ctx, http.MethodPost, "/api/auth/complete-form", body, nil)
}

func (c *HTTPClient) GetStreak(ctx context.Context, subjectID string) (models.StreakRecord, error) {
	var rec models.StreakRecord
	err := c.do(ctx, http.MethodGet, "/api/streak/"+subjectID, nil, &rec)
	return rec, err
}

func (c *HTTPClient) UpdateStreak(ctx context.Context, subjectID string, ts time.Time) (StreakUpdate, error) {
	body := map[string]any{"timestamp": ts.UTC().Format(time.RFC3339)}
	var upd StreakUpdate
	err := c.do(ctx, http.MethodPost, "/api/streak/"+subjectID, body, &upd)
	return upd, err
}

// do performs one JSON request. Non-2xx statuses come back as one of the
// tagged error variants from errors.go; anything that never produced a
// response is a *TransportError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classifyError(resp.StatusCode, raw)
		c.log.Debug("Backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(apiErr),
		)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
