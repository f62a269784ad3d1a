package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAreaScore(c *gin.Context) {
	var asOf time.Time
	if raw := strings.TrimSpace(c.Query("period")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse(time.DateOnly, raw)
		}
		if err != nil {
			AbortWithError(c, newValidationError("period", "invalid_period", "period must be RFC 3339 or YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	snapshot, err := s.scoreSvc.Get(c.Request.Context(), c.Param("area"), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"score": snapshot})
}

func (s *Server) ListAreas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"areas": s.resolver.All()})
}
