package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"empdesk/internal/domain"
	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TicketInput is a new helpdesk request as entered by the user.
type TicketInput struct {
	Title       string
	Description string
	Attachments []string
}

// TicketService manages helpdesk tickets. Every mutation (creation or
// reply) clears the ticket's synced flag and enqueues a fresh full copy;
// the remote side replaces its copy wholesale on each delivery.
type TicketService struct {
	tickets store.Collection[models.Ticket]
	store   *store.Store
	queue   *outbox.Queue
	remote  domain.RemoteClient
	online  func() bool
	userID  string
	logger  *zerolog.Logger
}

func NewTicketService(s *store.Store, queue *outbox.Queue, registry *outbox.Registry, remote domain.RemoteClient, online func() bool, userID string, logger *zerolog.Logger) *TicketService {
	svc := &TicketService{
		tickets: store.Tickets(s),
		store:   s,
		queue:   queue,
		remote:  remote,
		online:  online,
		userID:  userID,
		logger:  logger,
	}
	registry.Register(models.ActionTicket, svc.deliver)
	return svc
}

func (s *TicketService) deliver(ctx context.Context, payload json.RawMessage) error {
	var ticket models.Ticket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		return fmt.Errorf("decode ticket payload: %w", err)
	}
	if err := s.remote.SubmitTicket(ctx, ticket); err != nil {
		return err
	}

	current, err := s.tickets.Get(ctx, ticket.TicketID)
	if err != nil {
		current = ticket
	}
	// A reply may have landed after this copy was enqueued; the newer
	// copy is already queued behind this one, so marking synced here is
	// only transiently optimistic.
	current.Synced = true
	return s.tickets.Put(ctx, current)
}

// Create stores a new open ticket with synced=false and enqueues it.
func (s *TicketService) Create(ctx context.Context, input TicketInput) (*models.Ticket, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	ticket := models.Ticket{
		TicketID:    uuid.NewString(),
		UserID:      s.userID,
		Title:       input.Title,
		Description: input.Description,
		Attachments: input.Attachments,
		Status:      models.TicketOpen,
		CreatedAt:   time.Now(),
		Messages:    []models.TicketMessage{},
	}

	if err := s.tickets.Put(ctx, ticket); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionTicket, ticket); err != nil {
		return nil, err
	}

	s.logger.Info().Str("ticket_id", ticket.TicketID).Str("title", ticket.Title).Msg("Ticket recorded locally")
	s.drainIfOnline(ctx)

	return &ticket, nil
}

// Reply appends a message to an existing ticket, clears its synced flag
// and enqueues the updated copy.
func (s *TicketService) Reply(ctx context.Context, ticketID, body string) (*models.Ticket, error) {
	if body == "" {
		return nil, ErrMessageRequired
	}

	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	ticket.Messages = append(ticket.Messages, models.TicketMessage{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		SenderID:  s.userID,
		Body:      body,
		CreatedAt: time.Now(),
	})
	ticket.Synced = false

	if err := s.tickets.Put(ctx, ticket); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionTicket, ticket); err != nil {
		return nil, err
	}

	s.logger.Info().Str("ticket_id", ticketID).Int("messages", len(ticket.Messages)).Msg("Ticket reply recorded locally")
	s.drainIfOnline(ctx)

	return &ticket, nil
}

// Get returns one ticket by ID.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// List returns tickets newest first, repairing orphaned unsynced tickets.
func (s *TicketService) List(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := s.tickets.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tickets {
		if !tickets[i].Synced {
			s.repair(ctx, tickets[i])
		}
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func (s *TicketService) repair(ctx context.Context, ticket models.Ticket) {
	queued, err := s.store.HasActionForPayloadID(ctx, models.ActionTicket, "ticket_id", ticket.TicketID)
	if err != nil || queued {
		return
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionTicket, ticket); err != nil {
		s.logger.Warn().Err(err).Str("ticket_id", ticket.TicketID).Msg("Failed to re-enqueue orphaned ticket")
		return
	}
	s.logger.Warn().Str("ticket_id", ticket.TicketID).Msg("Re-enqueued unsynced ticket without pending action")
}

func (s *TicketService) drainIfOnline(ctx context.Context) {
	if s.online != nil && s.online() {
		_ = s.queue.Drain(ctx)
	}
}
