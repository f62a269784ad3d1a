package domain

import (
	"context"
	"errors"
)

// Service governs ticket reads and lifecycle transitions.
type Service interface {
	Create(ctx context.Context, ticket *Ticket) error
	Get(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Transition(ctx context.Context, req TransitionRequest) (*Ticket, error)
}

// TransitionRequest asks for a single state-machine edge.
type TransitionRequest struct {
	TicketID        string
	Target          Status
	Actor           string
	AssignedTo      string
	ExpectedVersion int64
}

// ListRequest filters tickets with cursor pagination.
type ListRequest struct {
	Area      string
	Status    Status
	PageSize  int32
	PageToken string
}

// ListResponse carries one page of tickets.
type ListResponse struct {
	Tickets       []Ticket `json:"tickets"`
	NextPageToken string   `json:"next_page_token,omitempty"`
}

var (
	ErrTicketNotFound         = errors.New("ticket_not_found")
	ErrInvalidTicketID        = errors.New("invalid_ticket_id")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidTransition      = errors.New("invalid_transition")
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrMissingAssignee        = errors.New("missing_assignee")
	ErrInvalidResolvedAt      = errors.New("invalid_resolved_at")
)
