package server

import (
	"errors"
	"net/http"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	ingestdomain "github.com/Jegx07/namma-madurai-engine/internal/ingest/domain"
	insightdomain "github.com/Jegx07/namma-madurai-engine/internal/insight/domain"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

type apiError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

// AbortWithError maps a service error onto an HTTP response. Unrecognized
// errors become opaque 500s so internals never leak to callers.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	var validation *ingestdomain.ValidationError
	if errors.As(err, &validation) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": apiError{
			Code:    validation.Code,
			Message: validation.Message,
			Field:   validation.Field,
		}})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"
	retryable := false

	switch {
	case errors.Is(err, gazetteer.ErrUnknownArea),
		errors.Is(err, scoredomain.ErrUnknownArea):
		status = http.StatusBadRequest
		code = "unknown_area"
		message = "area does not match any known ward"
	case errors.Is(err, reportdomain.ErrInvalidTicketID):
		status = http.StatusBadRequest
		code = "invalid_ticket_id"
		message = "ticket id is not valid"
	case errors.Is(err, reportdomain.ErrInvalidStatus):
		status = http.StatusBadRequest
		code = "invalid_status"
		message = "status filter is not a known ticket status"
	case errors.Is(err, reportdomain.ErrMissingAssignee):
		status = http.StatusBadRequest
		code = "missing_assignee"
		message = "assignment requires an assignee"
	case errors.Is(err, reportdomain.ErrInvalidTransition):
		status = http.StatusConflict
		code = "invalid_transition"
		message = "transition is not allowed from the ticket's current status"
	case errors.Is(err, reportdomain.ErrConcurrentModification):
		status = http.StatusConflict
		code = "concurrent_modification"
		message = "ticket was modified concurrently, re-read and retry"
		retryable = true
	case errors.Is(err, reportdomain.ErrTicketNotFound),
		errors.Is(err, scoredomain.ErrSnapshotNotFound),
		errors.Is(err, insightdomain.ErrWeekNotFound),
		errors.Is(err, binalertdomain.ErrBinNotFound),
		errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
		message = "resource not found"
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
		code = "rate_limited"
		message = "too many requests, slow down"
		retryable = true
	case errors.Is(err, ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
		code = "service_unavailable"
		message = "service is not ready"
		retryable = true
	}

	c.AbortWithStatusJSON(status, gin.H{"error": apiError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}})
}
