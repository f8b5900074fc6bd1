package cmd

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/settlewise/case-service/internal/config"
	"github.com/settlewise/case-service/internal/database"
	"github.com/settlewise/case-service/internal/lifecycle"
	"github.com/settlewise/case-service/internal/model"
	"github.com/spf13/cobra"
)

var backfillEventsCmd = &cobra.Command{
	Use:   "backfill-events",
	Short: "Insert a synthetic 'Case created' event for tickets that predate the audit trail",
	RunE:  runBackfillEvents,
}

func init() {
	rootCmd.AddCommand(backfillEventsCmd)
}

func runBackfillEvents(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var tickets []model.Ticket
	if err := conn.
		Where("NOT EXISTS (SELECT 1 FROM ticket_events e WHERE e.ticket_id = tickets.id AND e.type = ?)", lifecycle.EventTicketCreated).
		Find(&tickets).Error; err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	log.Printf("backfill-events: %d tickets without a creation event", len(tickets))

	for i := range tickets {
		t := &tickets[i]
		event := &model.TicketEvent{
			TicketID:  t.ID,
			Type:      lifecycle.EventTicketCreated,
			Message:   "Case created",
			CreatedBy: t.UserID,
			CreatedAt: t.CreatedAt,
		}
		if err := conn.Create(event).Error; err != nil {
			return fmt.Errorf("backfill ticket %s: %w", t.ID, err)
		}
		if (i+1)%50 == 0 || i == len(tickets)-1 {
			log.Printf("backfill-events: %d/%d", i+1, len(tickets))
		}
	}
	log.Printf("backfill-events: done")
	return nil
}
