package server

import (
	"net/http"
	"strconv"
	"strings"

	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	"github.com/gin-gonic/gin"

	ingestdomain "github.com/Jegx07/namma-madurai-engine/internal/ingest/domain"
)

func (s *Server) SubmitReport(c *gin.Context) {
	var payload ingestdomain.ReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ticket, err := s.ingestSvc.SubmitReport(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

func (s *Server) ListReports(c *gin.Context) {
	req := reportdomain.ListRequest{
		PageToken: strings.TrimSpace(c.Query("page_token")),
	}

	if area := strings.TrimSpace(c.Query("area")); area != "" {
		ward, err := s.resolver.Resolve(area)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Area = ward.Key
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		parsed := reportdomain.Status(status)
		if !parsed.Valid() {
			AbortWithError(c, newValidationError("status", "invalid_status", "unknown ticket status"))
			return
		}
		req.Status = parsed
	}

	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || size <= 0 {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page_size must be a positive integer"))
			return
		}
		req.PageSize = int32(size)
	}

	resp, err := s.reportSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetTicket(c *gin.Context) {
	ticket, err := s.reportSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

type transitionRequest struct {
	Target          string `json:"target"`
	Actor           string `json:"actor"`
	AssignedTo      string `json:"assigned_to"`
	ExpectedVersion int64  `json:"expected_version"`
}

func (s *Server) TransitionTicket(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	target := reportdomain.Status(strings.TrimSpace(req.Target))
	if !target.Valid() {
		AbortWithError(c, newValidationError("target", "invalid_status", "unknown target status"))
		return
	}
	if req.ExpectedVersion <= 0 {
		AbortWithError(c, newValidationError("expected_version", "required", "expected_version is required"))
		return
	}

	ticket, err := s.reportSvc.Transition(c.Request.Context(), reportdomain.TransitionRequest{
		TicketID:        c.Param("id"),
		Target:          target,
		Actor:           strings.TrimSpace(req.Actor),
		AssignedTo:      strings.TrimSpace(req.AssignedTo),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}
