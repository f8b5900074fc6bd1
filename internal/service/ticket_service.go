package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/settlewise/case-service/internal/auth"
	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/lifecycle"
	"github.com/settlewise/case-service/internal/model"
	"gorm.io/gorm"
)

// TicketService owns the case entity: creation, reads and every
// lifecycle mutation. All mutations write the ticket row and its audit
// event in one transaction.
type TicketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

// CreateTicketInput is the client-supplied part of a new case.
type CreateTicketInput struct {
	LenderName string
	LoanType   string
	LoanAmount float64
}

// Create opens a new case for the acting client: stage ASSESSMENT,
// status OPEN, zero progress, plus the initial audit event.
func (s *TicketService) Create(ctx context.Context, actor auth.Actor, in CreateTicketInput) (*model.Ticket, error) {
	if in.LoanType == "" {
		return nil, errs.Validation("loan type is required")
	}
	if in.LoanAmount < 0 {
		return nil, errs.Validation("loan amount must not be negative")
	}
	t := &model.Ticket{
		UserID:     actor.ID,
		LenderName: in.LenderName,
		LoanType:   in.LoanType,
		LoanAmount: in.LoanAmount,
		Stage:      model.StageAssessment,
		Status:     model.StatusOpen,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return tx.Create(&model.TicketEvent{
			TicketID:  t.ID,
			Type:      lifecycle.EventTicketCreated,
			Message:   "Case created",
			CreatedBy: actor.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID loads the full ticket with its events, documents, messages
// and owning-user summary. Clients only see their own tickets.
func (s *TicketService) GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Messages.Sender").
		First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && t.UserID != actor.ID {
		return nil, errs.ErrForbidden
	}
	return &t, nil
}

// List returns tickets newest first. Admins see everything and may
// filter; clients are pinned to their own cases.
func (s *TicketService) List(ctx context.Context, actor auth.Actor, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	if !actor.IsAdmin() {
		tx = tx.Where("user_id = ?", actor.ID)
	} else {
		for k, v := range filter {
			tx = tx.Where(k, v)
		}
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ApplyCommand runs one lifecycle command against a ticket. Admin only.
// When expectedVersion is non-nil the write is rejected as a conflict
// if the row has moved on since the caller last read it. The field
// updates, the version bump and the audit event land in one
// transaction, so a failure leaves no partial state.
func (s *TicketService) ApplyCommand(ctx context.Context, actor auth.Actor, id string, cmd lifecycle.Command, expectedVersion *int64) (*model.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, errs.ErrForbidden
	}
	var t model.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrTicketNotFound
			}
			return err
		}
		if expectedVersion != nil && *expectedVersion != t.Version {
			return fmt.Errorf("%w: have %d, got %d", errs.ErrConflict, t.Version, *expectedVersion)
		}
		change, err := lifecycle.Apply(&t, cmd, time.Now())
		if err != nil {
			return err
		}
		change.Fields["version"] = t.Version + 1
		// Guard the write on the version we read, so a concurrent
		// writer that committed in between turns this into a conflict
		// instead of a silent lost update.
		res := tx.Model(&t).Where("version = ?", t.Version).Updates(change.Fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: ticket changed concurrently", errs.ErrConflict)
		}
		return tx.Create(&model.TicketEvent{
			TicketID:  t.ID,
			Type:      change.EventType,
			Message:   change.EventMessage,
			CreatedBy: actor.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	// Re-read so the caller sees exactly what was persisted.
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListEvents returns the audit trail oldest first.
func (s *TicketService) ListEvents(ctx context.Context, actor auth.Actor, ticketID string) ([]model.TicketEvent, error) {
	if _, err := s.loadForActor(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	var events []model.TicketEvent
	if err := s.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// loadForActor fetches the bare ticket row and checks the actor may
// see it. Shared by the event, document and message services.
func (s *TicketService) loadForActor(ctx context.Context, actor auth.Actor, ticketID string) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && t.UserID != actor.ID {
		return nil, errs.ErrForbidden
	}
	return &t, nil
}
