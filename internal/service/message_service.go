package service

import (
	"context"
	"strings"

	"github.com/settlewise/case-service/internal/auth"
	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/model"
	"gorm.io/gorm"
)

// MessageService is the per-ticket client/advisor conversation.
// Messages are append-only; ordering comes from server-assigned
// timestamps, so client clock skew cannot reorder a thread.
type MessageService struct {
	db      *gorm.DB
	tickets *TicketService
}

func NewMessageService(db *gorm.DB, tickets *TicketService) *MessageService {
	return &MessageService{db: db, tickets: tickets}
}

// Send appends a message to the ticket's conversation. The sender role
// is derived from the actor: admins write as ADMIN, the owning client
// as USER, and anyone else is refused.
func (s *MessageService) Send(ctx context.Context, actor auth.Actor, ticketID, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.Validation("message content must not be empty")
	}
	// loadForActor refuses non-owning clients, so a USER role below
	// always means the ticket's own client.
	if _, err := s.tickets.loadForActor(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	role := model.RoleUser
	if actor.IsAdmin() {
		role = model.RoleAdmin
	}
	msg := &model.ChatMessage{
		TicketID:   ticketID,
		SenderID:   actor.ID,
		SenderRole: role,
		Content:    content,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// List returns the conversation oldest first, visible to the ticket
// owner and admins only.
func (s *MessageService) List(ctx context.Context, actor auth.Actor, ticketID string) ([]model.ChatMessage, error) {
	if _, err := s.tickets.loadForActor(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	var msgs []model.ChatMessage
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
