package server

import (
	"net/http"
	"strings"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	ingestdomain "github.com/Jegx07/namma-madurai-engine/internal/ingest/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) SubmitReading(c *gin.Context) {
	var payload ingestdomain.ReadingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	state, err := s.ingestSvc.SubmitReading(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bin": state})
}

func (s *Server) ListBinAlerts(c *gin.Context) {
	var status binalertdomain.AlertStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		switch binalertdomain.AlertStatus(raw) {
		case binalertdomain.StatusNormal, binalertdomain.StatusWarning, binalertdomain.StatusCritical:
			status = binalertdomain.AlertStatus(raw)
		default:
			AbortWithError(c, newValidationError("status", "invalid_status", "unknown alert status"))
			return
		}
	}

	states, err := s.binSvc.List(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bins": states})
}
