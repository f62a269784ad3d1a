// Package domain defines raw ingest payloads and validation failures.
package domain

import (
	"context"
	"fmt"
	"time"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
)

// ReportPayload is an inbound citizen report before validation.
type ReportPayload struct {
	Type       string     `json:"type"`
	Area       string     `json:"area"`
	Severity   string     `json:"severity"`
	ReporterID string     `json:"reporter_id"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Details    string     `json:"details"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// ReadingPayload is an inbound bin telemetry sample before validation.
type ReadingPayload struct {
	BinID       string     `json:"bin_id"`
	Area        string     `json:"area"`
	FillPercent int        `json:"fill_percent"`
	IsSmart     bool       `json:"is_smart"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty"`
}

// Service validates and admits inbound payloads.
type Service interface {
	SubmitReport(ctx context.Context, payload ReportPayload) (*reportdomain.Ticket, error)
	SubmitReading(ctx context.Context, payload ReadingPayload) (*binalertdomain.BinAlertState, error)
}

// ValidationError names the offending field. Validation failures are always
// surfaced to the caller and never retried automatically.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Code)
}

// NewValidationError builds a field-level validation failure.
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}
