package application

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/settlewise/case-service/internal/auth"
	"github.com/settlewise/case-service/internal/blobstore"
	"github.com/settlewise/case-service/internal/config"
	"github.com/settlewise/case-service/internal/database"
	"github.com/settlewise/case-service/internal/handler"
	"github.com/settlewise/case-service/internal/kafka"
	"github.com/settlewise/case-service/internal/reviews"
	"github.com/settlewise/case-service/internal/router"
	"github.com/settlewise/case-service/internal/service"
)

// NewLogger configures the process-wide zerolog logger from config.
func NewLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.AppEnv == "production" {
		log = zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "case-service").Logger()
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	zlog.Logger = log
	return log
}

// API is the HTTP server mode of the service.
type API struct {
	cfg      *config.Config
	log      zerolog.Logger
	httpSrv  *http.Server
	producer *kafka.Producer
}

// NewAPI wires config, database, services and router into a runnable
// server. Pending migrations are applied on startup.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := NewLogger(cfg)

	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	blobs, err := blobstore.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("blobstore: %w", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicCase)
	reviewsClient := reviews.NewClient(cfg.ReviewsFeedURL)

	ticketSvc := service.NewTicketService(db)
	documentSvc := service.NewDocumentService(db, ticketSvc, blobs, cfg.MaxUploadBytes())
	messageSvc := service.NewMessageService(db, ticketSvc)

	h := router.New(router.Deps{
		JWT:       jwtMgr,
		Tickets:   handler.NewTicketHandler(ticketSvc, producer),
		Documents: handler.NewDocumentHandler(documentSvc),
		Messages:  handler.NewMessageHandler(messageSvc),
		Reviews:   handler.NewReviewsHandler(reviewsClient),
		UploadDir: blobs.Dir(),
		Log:       log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		log:      log,
		httpSrv:  httpSrv,
		producer: producer,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info().Str("addr", a.httpSrv.Addr).Msg("HTTP server listening")
	a.log.Info().Str("swagger", base+"/swagger").Str("health", base+"/healthz").Str("api", base+"/api/v1/").Msg("endpoints")

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Warn().Err(err).Msg("kafka producer close")
	}
	return nil
}
