package handler

import (
	"net/http"

	"github.com/eaglebank/ai-engine/internal/models"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	service string
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.Health{Status: "ok", Service: h.service})
}
