package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/settlewise/case-service/internal/auth"
	"github.com/settlewise/case-service/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory sqlite database per test. A named
// shared-cache DSN keeps all pooled connections on the same database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Ticket{},
		&model.TicketEvent{},
		&model.Document{},
		&model.ChatMessage{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role model.Role) auth.Actor {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, db.Create(u).Error)
	return auth.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

func seedTicket(t *testing.T, db *gorm.DB, svc *TicketService, owner auth.Actor) *model.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), owner, CreateTicketInput{
		LenderName: "Apex Credit",
		LoanType:   "personal",
		LoanAmount: 18000,
	})
	require.NoError(t, err)
	return ticket
}

func countEvents(t *testing.T, db *gorm.DB, ticketID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.TicketEvent{}).Where("ticket_id = ?", ticketID).Count(&n).Error)
	return n
}
