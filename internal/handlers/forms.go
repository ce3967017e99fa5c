package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/api"
	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/store"
	"github.com/shlok2345788/dropout-front/internal/wizard"
)

const wizardSessionKey = "wizardID"

// FormsHandler exposes the intake-form wizard over JSON. One wizard
// instance lives per browsing session.
type FormsHandler struct {
	log    *zap.Logger
	client api.Client
	store  store.Store
	forms  *models.FormSet

	mu     sync.Mutex
	active map[string]*wizard.Wizard
}

func NewFormsHandler(log *zap.Logger, client api.Client, st store.Store, forms *models.FormSet) *FormsHandler {
	return &FormsHandler{
		log:    log,
		client: client,
		store:  st,
		forms:  forms,
		active: make(map[string]*wizard.Wizard),
	}
}

// Start creates a fresh wizard for the requested schema and binds it to
// the session, replacing any wizard already in progress.
func (h *FormsHandler) Start(c *gin.Context) {
	schema, ok := h.forms.Get(c.Param("schema"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown form"})
		return
	}

	w := wizard.New(h.log, h.client, h.store, schema)

	session := sessions.Default(c)
	if prev, ok := session.Get(wizardSessionKey).(string); ok {
		h.drop(prev)
	}
	session.Set(wizardSessionKey, w.ID)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start form"})
		return
	}

	h.mu.Lock()
	h.active[w.ID] = w
	h.mu.Unlock()

	c.JSON(http.StatusOK, h.formState(w))
}

// Current reports the wizard's step, state and last error.
func (h *FormsHandler) Current(c *gin.Context) {
	w, ok := h.sessionWizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.formState(w))
}

type answerRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

// Answer records one field edit on the current step.
func (h *FormsHandler) Answer(c *gin.Context) {
	w, ok := h.sessionWizard(c)
	if !ok {
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("Failed to bind answer payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	if err := w.SetAnswer(req.Field, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.formState(w))
}

// Next advances the wizard when the current step validates; otherwise the
// step is unchanged and the validation reason is returned.
func (h *FormsHandler) Next(c *gin.Context) {
	w, ok := h.sessionWizard(c)
	if !ok {
		return
	}

	if err := w.Next(); err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Reason, "state": h.formState(w)})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.formState(w))
}

// Prev steps backwards without validating.
func (h *FormsHandler) Prev(c *gin.Context) {
	w, ok := h.sessionWizard(c)
	if !ok {
		return
	}
	if err := w.Back(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.formState(w))
}

// Submit re-validates the whole form and performs the terminal submission.
func (h *FormsHandler) Submit(c *gin.Context) {
	w, ok := h.sessionWizard(c)
	if !ok {
		return
	}

	subjectID, err := w.Submit(c.Request.Context())
	if err != nil {
		var verr *wizard.ValidationError
		var remoteVerr *api.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Reason, "state": h.formState(w)})
		case errors.As(err, &remoteVerr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": w.LastError(), "state": h.formState(w)})
		case errors.Is(err, wizard.ErrAlreadySucceeded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "subject_id": subjectID})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": w.LastError(), "state": h.formState(w)})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"subject_id": subjectID, "state": h.formState(w)})
}

// sessionWizard resolves the wizard bound to the request's session,
// answering the request itself when there is none.
func (h *FormsHandler) sessionWizard(c *gin.Context) (*wizard.Wizard, bool) {
	session := sessions.Default(c)
	id, ok := session.Get(wizardSessionKey).(string)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No form in progress"})
		return nil, false
	}

	h.mu.Lock()
	w, ok := h.active[id]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No form in progress"})
		return nil, false
	}
	return w, true
}

func (h *FormsHandler) drop(id string) {
	h.mu.Lock()
	delete(h.active, id)
	h.mu.Unlock()
}

func (h *FormsHandler) formState(w *wizard.Wizard) gin.H {
	schema := w.Schema()
	step := w.StepIndex()
	return gin.H{
		"form":       schema.Name,
		"title":      schema.Title,
		"state":      w.State(),
		"step":       step,
		"total":      len(schema.Steps),
		"step_title": schema.Steps[step].Title,
		"fields":     schema.Steps[step].Fields,
		"answers":    w.Answers(),
		"subject_id": w.SubjectID(),
		"error":      w.LastError(),
	}
}
