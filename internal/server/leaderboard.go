package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

func (s *Server) GetLeaderboard(c *gin.Context) {
	limit := defaultLeaderboardLimit
	offset := 0

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	if raw := strings.TrimSpace(c.Query("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("offset", "invalid_offset", "offset must be a non-negative integer"))
			return
		}
		offset = parsed
	}

	ranked, err := s.leaderboardSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": ranked})
}
