package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/schedule"
)

// ScheduleHandler exposes the weekly study planner over JSON.
type ScheduleHandler struct {
	log     *zap.Logger
	planner *schedule.Planner
}

func NewScheduleHandler(log *zap.Logger, planner *schedule.Planner) *ScheduleHandler {
	return &ScheduleHandler{log: log, planner: planner}
}

// Get returns the subject's persisted weekly plan, empty when none was
// ever built.
func (h *ScheduleHandler) Get(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	week, found, err := h.planner.Load(subjectID)
	if err != nil {
		h.log.Error("Failed to load schedule", zap.String("subject_id", subjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load schedule"})
		return
	}
	if !found {
		week = schedule.Week{}
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"schedule":   week,
	})
}

// Build generates and persists a weekly plan from the requested subjects.
func (h *ScheduleHandler) Build(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	var req struct {
		Subjects []schedule.Subject `json:"subjects"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	week, err := h.planner.Build(subjectID, req.Subjects)
	switch {
	case errors.Is(err, schedule.ErrUnknownDifficulty):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("Failed to build schedule", zap.String("subject_id", subjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save schedule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"schedule":   week,
	})
}
