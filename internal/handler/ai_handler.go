package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/ai-engine/internal/cqrs"
	"github.com/eaglebank/ai-engine/internal/middleware"
	"github.com/eaglebank/ai-engine/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Suggester defines the suggestion operation used by AIHandler.
type Suggester interface {
	Suggest(context.Context, cqrs.SuggestQuery) (*models.Suggestion, error)
}

// FraudChecker defines the fraud-check operation used by AIHandler.
type FraudChecker interface {
	CheckTransaction(context.Context, cqrs.FraudCheckQuery) (*models.FraudAssessment, error)
}

type AIHandler struct {
	suggester    Suggester
	fraudChecker FraudChecker
}

func NewAIHandler(suggester Suggester, fraudChecker FraudChecker) *AIHandler {
	return &AIHandler{suggester: suggester, fraudChecker: fraudChecker}
}

func (h *AIHandler) Suggest(c *gin.Context) {
	var req models.Prompt
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithValidationError(c, middleware.BindingErrors(err))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	suggestion, err := h.suggester.Suggest(c.Request.Context(), cqrs.SuggestQuery{Prompt: *req.Prompt})
	if err != nil {
		log.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error("Suggestion failed")
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to generate suggestion")
		return
	}

	c.JSON(http.StatusOK, suggestion)
}

func (h *AIHandler) FraudCheck(c *gin.Context) {
	var req models.Transaction
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithValidationError(c, middleware.BindingErrors(err))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	assessment, err := h.fraudChecker.CheckTransaction(c.Request.Context(), cqrs.FraudCheckQuery{
		UserID:    *req.UserID,
		Amount:    float64(*req.Amount),
		Type:      *req.Type,
		Timestamp: *req.Timestamp,
	})
	if err != nil {
		log.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error("Fraud check failed")
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to check transaction")
		return
	}

	c.JSON(http.StatusOK, assessment)
}
