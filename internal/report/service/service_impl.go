package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/events"
	leaderboarddomain "github.com/Jegx07/namma-madurai-engine/internal/leaderboard/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Outbox      *events.Outbox
	Leaderboard leaderboarddomain.Service
	Metrics     *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	outbox      *events.Outbox
	leaderboard leaderboarddomain.Service
	metrics     *metrics.EngineMetrics
}

func NewService(p ServiceParam) reportdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("report.service"),
		clock:       p.Clock,
		outbox:      p.Outbox,
		leaderboard: p.Leaderboard,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, ticket *reportdomain.Ticket) error {
	return s.db.WithContext(ctx).Create(ticket).Error
}

func (s *Service) Get(ctx context.Context, id string) (*reportdomain.Ticket, error) {
	ticketID, err := parseID(id)
	if err != nil {
		return nil, reportdomain.ErrInvalidTicketID
	}

	var ticket reportdomain.Ticket
	err = s.db.WithContext(ctx).First(&ticket, "id = ?", ticketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reportdomain.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Service) List(ctx context.Context, req reportdomain.ListRequest) (reportdomain.ListResponse, error) {
	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&reportdomain.Ticket{})
	if area := strings.TrimSpace(req.Area); area != "" {
		query = query.Where("area = ?", area)
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return reportdomain.ListResponse{}, reportdomain.ErrInvalidStatus
		}
		query = query.Where("status = ?", req.Status)
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := parseID(token)
		if err != nil {
			return reportdomain.ListResponse{}, reportdomain.ErrInvalidTicketID
		}
		query = query.Where("id < ?", cursor)
	}

	// Snowflake ids are time-ordered, so id descending is newest first.
	var tickets []reportdomain.Ticket
	if err := query.Order("id DESC").Limit(pageSize + 1).Find(&tickets).Error; err != nil {
		return reportdomain.ListResponse{}, err
	}

	resp := reportdomain.ListResponse{Tickets: tickets}
	if len(tickets) > pageSize {
		resp.Tickets = tickets[:pageSize]
		resp.NextPageToken = tickets[pageSize-1].ID.String()
	}
	return resp, nil
}

// Transition applies one state-machine edge under optimistic concurrency.
// Version mismatches surface as ErrConcurrentModification; the caller
// re-reads and retries.
func (s *Service) Transition(ctx context.Context, req reportdomain.TransitionRequest) (*reportdomain.Ticket, error) {
	ticketID, err := parseID(req.TicketID)
	if err != nil {
		s.metrics.IncTransition(string(req.Target), "rejected")
		return nil, reportdomain.ErrInvalidTicketID
	}
	if !req.Target.Valid() || req.Target == reportdomain.StatusPending {
		s.metrics.IncTransition(string(req.Target), "rejected")
		return nil, reportdomain.ErrInvalidTransition
	}

	var result *reportdomain.Ticket
	outcome := "applied"
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current reportdomain.Ticket
		if err := tx.First(&current, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return reportdomain.ErrTicketNotFound
			}
			return err
		}

		// Idempotent retries: a transition into the state the ticket is
		// already in is a no-op, not an error.
		if current.Status == req.Target {
			if current.Status.Terminal() {
				outcome = "noop"
				result = &current
				return nil
			}
			if req.Target == reportdomain.StatusInProgress &&
				current.AssignedTo != nil && *current.AssignedTo == strings.TrimSpace(req.AssignedTo) {
				outcome = "noop"
				result = &current
				return nil
			}
			return reportdomain.ErrInvalidTransition
		}

		if req.ExpectedVersion != current.Version {
			return reportdomain.ErrConcurrentModification
		}

		updates := map[string]any{
			"status":     req.Target,
			"version":    current.Version + 1,
			"updated_at": s.clock.Now(),
		}

		switch {
		case current.Status == reportdomain.StatusPending && req.Target == reportdomain.StatusInProgress:
			assignee := strings.TrimSpace(req.AssignedTo)
			if assignee == "" {
				return reportdomain.ErrMissingAssignee
			}
			updates["assigned_to"] = assignee

		case current.Status == reportdomain.StatusInProgress && req.Target == reportdomain.StatusResolved:
			resolvedAt := s.clock.Now()
			if resolvedAt.Before(current.CreatedAt) {
				return reportdomain.ErrInvalidResolvedAt
			}
			updates["resolved_at"] = resolvedAt

		case !current.Status.Terminal() && req.Target == reportdomain.StatusRejected:
			// Any actor may reject a pending or in-progress ticket.

		default:
			return reportdomain.ErrInvalidTransition
		}

		cas := tx.Model(&reportdomain.Ticket{}).
			Where("id = ? AND version = ?", ticketID, current.Version).
			Updates(updates)
		if cas.Error != nil {
			return cas.Error
		}
		if cas.RowsAffected == 0 {
			return reportdomain.ErrConcurrentModification
		}

		var updated reportdomain.Ticket
		if err := tx.First(&updated, "id = ?", ticketID).Error; err != nil {
			return err
		}

		if req.Target == reportdomain.StatusResolved {
			points, err := s.leaderboard.AwardOnResolution(ctx, tx, updated)
			if err != nil {
				return err
			}
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventTicketResolved,
				Payload: events.TicketResolvedPayload{
					TicketID:   updated.ID.String(),
					Area:       updated.Area,
					ReporterID: updated.ReporterID,
					Points:     points,
				}.ToMap(),
				DedupeKey: "ticket.resolved:" + updated.ID.String(),
			}); err != nil {
				return err
			}
		}

		result = &updated
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, reportdomain.ErrConcurrentModification):
			s.metrics.IncTransition(string(req.Target), "conflict")
		default:
			s.metrics.IncTransition(string(req.Target), "rejected")
		}
		return nil, err
	}

	s.metrics.IncTransition(string(req.Target), outcome)
	s.log.Info("ticket transition",
		zap.String("ticket_id", req.TicketID),
		zap.String("target", string(req.Target)),
		zap.String("actor", req.Actor),
		zap.String("result", outcome),
	)
	return result, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, reportdomain.ErrInvalidTicketID
	}
	return id, nil
}
