package service

import (
	"context"
	"strings"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	ingestdomain "github.com/Jegx07/namma-madurai-engine/internal/ingest/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	sensordomain "github.com/Jegx07/namma-madurai-engine/internal/sensor/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Clock    clock.Clock
	GenID    *snowflake.Node
	Resolver *gazetteer.Resolver
	Reports  reportdomain.Service
	Bins     binalertdomain.Service
	Metrics  *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	bounds   config.Bounds
	clock    clock.Clock
	genID    *snowflake.Node
	resolver *gazetteer.Resolver
	reports  reportdomain.Service
	bins     binalertdomain.Service
	metrics  *metrics.EngineMetrics
}

func NewService(p ServiceParam) ingestdomain.Service {
	return &Service{
		log:      p.Log.Named("ingest.service"),
		bounds:   p.Config.Bounds,
		clock:    p.Clock,
		genID:    p.GenID,
		resolver: p.Resolver,
		reports:  p.Reports,
		bins:     p.Bins,
		metrics:  p.Metrics,
	}
}

// SubmitReport validates and normalizes a citizen report. Caller-supplied
// severity and type are never corrected; invalid values are rejected so the
// ticket history stays a faithful record.
func (s *Service) SubmitReport(ctx context.Context, payload ingestdomain.ReportPayload) (*reportdomain.Ticket, error) {
	reportType, err := s.validateType(payload.Type)
	if err != nil {
		return nil, s.reject(err)
	}
	severity, err := s.validateSeverity(payload.Severity)
	if err != nil {
		return nil, s.reject(err)
	}
	if strings.TrimSpace(payload.ReporterID) == "" {
		return nil, s.reject(ingestdomain.NewValidationError("reporter_id", "required", "reporter id is required"))
	}
	if err := s.validateCoordinates(payload.Latitude, payload.Longitude); err != nil {
		return nil, s.reject(err)
	}

	ward, err := s.resolver.Resolve(payload.Area)
	if err != nil {
		s.metrics.IncValidationFailure("unknown_area")
		s.log.Info("unresolvable area", zap.String("area", payload.Area))
		return nil, gazetteer.ErrUnknownArea
	}

	createdAt := s.clock.Now()
	if payload.CreatedAt != nil && !payload.CreatedAt.IsZero() {
		createdAt = payload.CreatedAt.UTC()
	}

	ticket := &reportdomain.Ticket{
		ID:         s.genID.Generate(),
		Type:       reportType,
		Area:       ward.Key,
		Severity:   severity,
		Status:     reportdomain.StatusPending,
		ReporterID: strings.TrimSpace(payload.ReporterID),
		Latitude:   payload.Latitude,
		Longitude:  payload.Longitude,
		Details:    strings.TrimSpace(payload.Details),
		Version:    1,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := s.reports.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.metrics.IncReportIngested(string(reportType))
	return ticket, nil
}

// SubmitReading validates a telemetry sample and hands it to the bin alert
// monitor. Out-of-range fill levels are rejected at ingest.
func (s *Service) SubmitReading(ctx context.Context, payload ingestdomain.ReadingPayload) (*binalertdomain.BinAlertState, error) {
	if strings.TrimSpace(payload.BinID) == "" {
		return nil, s.reject(ingestdomain.NewValidationError("bin_id", "required", "bin id is required"))
	}
	if payload.FillPercent < 0 || payload.FillPercent > 100 {
		return nil, s.reject(ingestdomain.NewValidationError("fill_percent", "out_of_range", "fill percent must be within [0,100]"))
	}

	ward, err := s.resolver.Resolve(payload.Area)
	if err != nil {
		s.metrics.IncValidationFailure("unknown_area")
		return nil, gazetteer.ErrUnknownArea
	}

	recordedAt := s.clock.Now()
	if payload.RecordedAt != nil && !payload.RecordedAt.IsZero() {
		recordedAt = payload.RecordedAt.UTC()
	}

	reading := &sensordomain.Reading{
		ID:          s.genID.Generate(),
		BinID:       strings.TrimSpace(payload.BinID),
		Area:        ward.Key,
		FillPercent: payload.FillPercent,
		IsSmart:     payload.IsSmart,
		RecordedAt:  recordedAt,
		CreatedAt:   s.clock.Now(),
	}
	state, err := s.bins.Record(ctx, reading)
	if err != nil {
		return nil, err
	}

	s.metrics.IncReadingIngested()
	return state, nil
}

func (s *Service) validateType(value string) (reportdomain.ReportType, error) {
	candidate := reportdomain.ReportType(strings.TrimSpace(value))
	for _, t := range reportdomain.ReportTypes {
		if candidate == t {
			return t, nil
		}
	}
	return "", ingestdomain.NewValidationError("type", "invalid_enum", "unknown report type")
}

func (s *Service) validateSeverity(value string) (reportdomain.Severity, error) {
	candidate := reportdomain.Severity(strings.TrimSpace(value))
	for _, sev := range reportdomain.Severities {
		if candidate == sev {
			return sev, nil
		}
	}
	return "", ingestdomain.NewValidationError("severity", "invalid_enum", "unknown severity")
}

func (s *Service) validateCoordinates(lat, lon float64) error {
	if lat < s.bounds.MinLat || lat > s.bounds.MaxLat {
		return ingestdomain.NewValidationError("latitude", "out_of_bounds", "latitude outside municipal limits")
	}
	if lon < s.bounds.MinLon || lon > s.bounds.MaxLon {
		return ingestdomain.NewValidationError("longitude", "out_of_bounds", "longitude outside municipal limits")
	}
	return nil
}

func (s *Service) reject(err error) error {
	var code string
	if verr, ok := err.(*ingestdomain.ValidationError); ok {
		code = verr.Code
	}
	s.metrics.IncValidationFailure(code)
	return err
}
