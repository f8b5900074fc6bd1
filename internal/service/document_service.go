package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/settlewise/case-service/internal/auth"
	"github.com/settlewise/case-service/internal/blobstore"
	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/lifecycle"
	"github.com/settlewise/case-service/internal/model"
	"gorm.io/gorm"
)

// allowedExtensions mirrors what the portal upload widget accepts.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// DocumentService handles client uploads and the admin review decision.
type DocumentService struct {
	db       *gorm.DB
	tickets  *TicketService
	blobs    blobstore.Store
	maxBytes int64
}

func NewDocumentService(db *gorm.DB, tickets *TicketService, blobs blobstore.Store, maxBytes int64) *DocumentService {
	return &DocumentService{db: db, tickets: tickets, blobs: blobs, maxBytes: maxBytes}
}

// Upload stores the file and creates a PENDING document on the ticket.
// The ticket owner uploads; admins may upload on a client's behalf.
func (s *DocumentService) Upload(ctx context.Context, actor auth.Actor, ticketID, name string, size int64, r io.Reader) (*model.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.Validation("document name is required")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, ext)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", errs.ErrPayloadTooLarge, size, s.maxBytes)
	}
	if _, err := s.tickets.loadForActor(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	url, err := s.blobs.Save(name, io.LimitReader(r, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &model.Document{
		TicketID: ticketID,
		Name:     name,
		FileURL:  url,
		Status:   model.DocumentStatusPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return tx.Create(&model.TicketEvent{
			TicketID:  ticketID,
			Type:      lifecycle.EventDocumentUploaded,
			Message:   "Document uploaded: " + name,
			CreatedBy: actor.ID,
		}).Error
	})
	if err != nil {
		// The blob landed before the transaction; don't leave it orphaned.
		if rmErr := s.blobs.Remove(url); rmErr != nil {
			log.Warn().Err(rmErr).Str("url", url).Msg("blobstore: remove after failed upload")
		}
		return nil, err
	}
	return doc, nil
}

// Review applies the admin decision to a PENDING document. A decision
// is final: approved and rejected documents cannot be re-reviewed.
func (s *DocumentService) Review(ctx context.Context, actor auth.Actor, ticketID, documentID string, decision model.DocumentStatus, reason string) (*model.Document, error) {
	if !actor.IsAdmin() {
		return nil, errs.ErrForbidden
	}
	if decision != model.DocumentStatusApproved && decision != model.DocumentStatusRejected {
		return nil, errs.Validation("decision must be APPROVED or REJECTED")
	}
	reason = strings.TrimSpace(reason)
	if decision == model.DocumentStatusRejected && reason == "" {
		return nil, errs.Validation("rejection reason is required")
	}

	var doc model.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doc, "id = ? AND ticket_id = ?", documentID, ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrDocumentNotFound
			}
			return err
		}
		if doc.Status != model.DocumentStatusPending {
			return fmt.Errorf("%w: document already %s", errs.ErrInvalidTransition, doc.Status)
		}

		changes := map[string]interface{}{"status": decision}
		eventType := lifecycle.EventDocumentApproved
		eventMsg := "Document approved: " + doc.Name
		if decision == model.DocumentStatusRejected {
			changes["rejection_reason"] = reason
			eventType = lifecycle.EventDocumentRejected
			eventMsg = fmt.Sprintf("Document rejected: %s (%s)", doc.Name, reason)
		}
		if err := tx.Model(&doc).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Create(&model.TicketEvent{
			TicketID:  doc.TicketID,
			Type:      eventType,
			Message:   eventMsg,
			CreatedBy: actor.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
