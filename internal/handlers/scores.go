package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/scores"
)

// ScoresHandler exposes the exam score log over JSON.
type ScoresHandler struct {
	log  *zap.Logger
	book *scores.Book
}

func NewScoresHandler(log *zap.Logger, book *scores.Book) *ScoresHandler {
	return &ScoresHandler{log: log, book: book}
}

// Get returns the subject's score history with the derived figures.
func (h *ScoresHandler) Get(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	summary, err := h.book.Summarize(subjectID)
	if err != nil {
		h.log.Error("Failed to load score history", zap.String("subject_id", subjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load score history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"scores":     summary.Scores,
		"attempts":   summary.Attempts,
		"latest":     summary.Latest,
		"progress":   summary.Progress,
	})
}

// Add records one exam score for the subject.
func (h *ScoresHandler) Add(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	var req struct {
		Exam  string  `json:"exam"`
		Score float64 `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	entry, err := h.book.Add(subjectID, req.Exam, req.Score)
	switch {
	case errors.Is(err, scores.ErrScoreOutOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please enter a valid score between 0-100"})
		return
	case err != nil:
		h.log.Error("Failed to record exam score", zap.String("subject_id", subjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error adding exam score. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"entry":      entry,
	})
}

// Chart returns the score trend as serialized echarts line options.
func (h *ScoresHandler) Chart(c *gin.Context) {
	subjectID, ok := resolveSubject(c)
	if !ok {
		return
	}

	history, err := h.book.History(subjectID)
	if err != nil {
		h.log.Error("Failed to load score history", zap.String("subject_id", subjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load score history"})
		return
	}

	chart := scores.TrendChart(history)
	options, err := json.Marshal(chart.JSON())
	if err != nil {
		h.log.Error("Failed to serialize chart options", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build chart"})
		return
	}
	c.Data(http.StatusOK, "application/json", options)
}
