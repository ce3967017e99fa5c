package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/streak"
)

// ActiveSubjectContextKey is where the router's subject-loader middleware
// places the persisted subject identifier.
const ActiveSubjectContextKey = "activeSubject"

// StreakHandler exposes the engagement tracker over JSON.
type StreakHandler struct {
	log     *zap.Logger
	tracker *streak.Tracker
}

func NewStreakHandler(log *zap.Logger, tracker *streak.Tracker) *StreakHandler {
	return &StreakHandler{log: log, tracker: tracker}
}

// GetStreak returns the subject's current record plus the formatted
// countdown. It never fails; unreachability degrades to local state.
func (h *StreakHandler) GetStreak(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	rec := h.tracker.GetStreak(c.Request.Context(), subjectID)
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"record":     rec,
		"countdown":  streak.FormatCountdown(rec, time.Now()),
	})
}

// Click registers today's engagement click.
func (h *StreakHandler) Click(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	res := h.tracker.UpdateStreak(c.Request.Context(), subjectID, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"success":    res.Success,
		"record":     res.Record,
		"message":    res.Message,
		"countdown":  streak.FormatCountdown(res.Record, time.Now()),
	})
}

// Countdown returns only the human-readable wait string.
func (h *StreakHandler) Countdown(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	rec := h.tracker.GetStreak(c.Request.Context(), subjectID)
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"countdown":  streak.FormatCountdown(rec, time.Now()),
	})
}

// resolveSubject resolves the :id path parameter; "current" means the
// subject loaded from the local store by the router middleware.
func resolveSubject(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id != "" && id != "current" {
		return id, true
	}
	if active, ok := c.Get(ActiveSubjectContextKey); ok {
		return active.(string), true
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "No active subject; submit the intake form first"})
	return "", false
}
