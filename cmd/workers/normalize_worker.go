package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"apsim-soils/soil-backend/internal/config"
	"apsim-soils/soil-backend/internal/soils"
	"apsim-soils/soil-backend/pkg/notify"
)

// Processor normalizes stored pending profiles.
type Processor interface {
	ProcessPending(ctx context.Context, limit int) (*soils.ProcessSummary, error)
}

// NormalizeWorker drains pending soil profiles on a cron schedule
type NormalizeWorker struct {
	cron      *cron.Cron
	processor Processor
	publisher notify.Publisher
	logger    *zap.Logger
	config    config.WorkerConfig

	mu      sync.Mutex
	running bool
}

// NewNormalizeWorker creates a new normalize worker. publisher may be nil.
func NewNormalizeWorker(processor Processor, publisher notify.Publisher, logger *zap.Logger, cfg config.WorkerConfig) *NormalizeWorker {
	return &NormalizeWorker{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		processor: processor,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Start schedules the drain and runs one pass immediately.
func (w *NormalizeWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("normalize worker already running")
	}

	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.drain(ctx) }); err != nil {
		return fmt.Errorf("invalid worker schedule %q: %w", w.config.Schedule, err)
	}

	w.logger.Info("Starting normalize worker",
		zap.String("schedule", w.config.Schedule),
		zap.Int("batch_size", w.config.BatchSize))

	w.cron.Start()
	w.running = true
	go w.drain(ctx)
	return nil
}

// Stop waits for a running pass to finish
func (w *NormalizeWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	<-w.cron.Stop().Done()
	w.running = false
}

// drain processes batches until no pending profile is left or a pass
// returns less than a full batch, then publishes the totals.
func (w *NormalizeWorker) drain(ctx context.Context) {
	total := soils.ProcessSummary{}
	defer func() { w.publish(ctx, total) }()

	for ctx.Err() == nil {
		summary, err := w.processor.ProcessPending(ctx, w.config.BatchSize)
		if err != nil {
			w.logger.Error("Failed to process pending soil profiles", zap.Error(err))
			return
		}
		total.Processed += summary.Processed
		total.Normalized += summary.Normalized
		total.Failed += summary.Failed
		if summary.Processed == 0 || summary.Processed < w.config.BatchSize {
			return
		}
	}
}

func (w *NormalizeWorker) publish(ctx context.Context, total soils.ProcessSummary) {
	if w.publisher == nil || total.Processed == 0 {
		return
	}
	subject := fmt.Sprintf("Soil profiles processed: %d normalized, %d failed", total.Normalized, total.Failed)
	if err := w.publisher.Publish(ctx, subject, total); err != nil {
		w.logger.Warn("Failed to publish worker summary", zap.Error(err))
	}
}

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database")

	repo := soils.NewPostgresRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	service := soils.NewService(repo, nil, nil, soils.ServiceConfig{
		BatchConcurrency: cfg.Worker.Concurrency,
	}, logger)

	var publisher notify.Publisher
	if cfg.Worker.NotifyTopicARN != "" {
		snsPublisher, err := notify.NewSNSPublisher(context.Background(), cfg.Storage.Region, cfg.Worker.NotifyTopicARN)
		if err != nil {
			logger.Fatal("Failed to create SNS publisher", zap.Error(err))
		}
		publisher = snsPublisher
	}

	worker := NewNormalizeWorker(service, publisher, logger, cfg.Worker)

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		logger.Fatal("Worker error", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	cancel()
	worker.Stop()
	logger.Info("Normalize worker stopped")
}
