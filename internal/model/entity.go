package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the minimal identity row backing actor attribution and the
// owning-user summary on a ticket. Account management lives in the
// identity provider, not here.
type User struct {
	ID    string `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string `gorm:"type:varchar(255)" json:"name"`
	Email string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role  Role   `gorm:"type:varchar(16);not null;default:USER" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Ticket is one debt-resolution case owned by a client.
type Ticket struct {
	ID         string  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string  `gorm:"type:uuid;index;not null" json:"user_id"`
	User       *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LenderName string  `gorm:"type:varchar(255)" json:"lender_name,omitempty"`
	LoanType   string  `gorm:"type:varchar(64);index" json:"loan_type"`
	LoanAmount float64 `json:"loan_amount,omitempty"`

	Stage  Stage  `gorm:"type:varchar(32);index;not null" json:"stage"`
	Status Status `gorm:"type:varchar(32);index;not null" json:"status"`

	StagePercent   int `gorm:"not null;default:0" json:"stage_percent"`
	OverallPercent int `gorm:"not null;default:0" json:"overall_percent"`

	SettledAmount *float64   `json:"settled_amount,omitempty"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`

	// Version is a monotonic write counter for optimistic concurrency.
	// Callers that send the version they last observed get a conflict
	// instead of a silent lost update.
	Version int64 `gorm:"not null;default:0" json:"version"`

	Events    []TicketEvent `gorm:"foreignKey:TicketID" json:"events,omitempty"`
	Documents []Document    `gorm:"foreignKey:TicketID" json:"documents,omitempty"`
	Messages  []ChatMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TicketEvent is one immutable audit-trail entry. Events are only ever
// inserted, never updated or deleted.
type TicketEvent struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID  string    `gorm:"type:uuid;index;not null" json:"ticket_id"`
	Type      string    `gorm:"type:varchar(64);not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedBy string    `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *TicketEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusApproved DocumentStatus = "APPROVED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// Document is a client upload awaiting admin review. FileURL is opaque
// to this service; the blobstore decides what it points at.
type Document struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID        string         `gorm:"type:uuid;index;not null" json:"ticket_id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	FileURL         string         `gorm:"type:varchar(512);not null" json:"file_url"`
	Status          DocumentStatus `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// ChatMessage is one entry in a ticket's client/advisor conversation.
// SenderRole is display metadata frozen at send time; authorization is
// always derived from the session, never from this field.
type ChatMessage struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID   string    `gorm:"type:uuid;index;not null" json:"ticket_id"`
	SenderID   string    `gorm:"type:uuid;not null" json:"sender_id"`
	SenderRole Role      `gorm:"type:varchar(16);not null" json:"sender_role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
