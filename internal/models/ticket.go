package models

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type TicketMessage struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is a helpdesk request. The message list grows on replies; every
// mutation clears Synced and re-enqueues a fresh copy of the whole ticket.
type Ticket struct {
	TicketID    string          `json:"ticket_id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Attachments []string        `json:"attachments,omitempty"`
	Status      TicketStatus    `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Messages    []TicketMessage `json:"messages"`
	Synced      bool            `json:"synced"`
}
