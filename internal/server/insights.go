package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetInsights(c *gin.Context) {
	var weekOf time.Time
	if raw := strings.TrimSpace(c.Query("week_of")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			AbortWithError(c, newValidationError("week_of", "invalid_week_of", "week_of must be YYYY-MM-DD"))
			return
		}
		weekOf = parsed
	}

	highlights, err := s.insightSvc.Highlights(c.Request.Context(), weekOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"highlights": highlights})
}
