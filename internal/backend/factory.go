package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bankgold/internal/amqp"
	"bankgold/internal/log"
	"bankgold/internal/services"
	gsheet "bankgold/internal/sheets/google"
	"bankgold/internal/sheets/memory"
	"bankgold/internal/storage"
)

var (
	_ services.ResultStore   = (*storage.SQLiteRepository)(nil)
	_ services.RunLookup     = (*storage.SQLiteRepository)(nil)
	_ services.RunPublisher  = (*amqp.Client)(nil)
	_ services.RunSubscriber = (*amqp.Client)(nil)
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	base   *slog.Logger
	logger *slog.Logger
}

// NewFactory creates a new backend factory. logger should carry no
// component; the factory tags its own records and those of the clients it
// creates.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		base:   logger,
		logger: log.WithComponent(logger, log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var result BackendResult
	switch config.Type {
	case FileBackend:
		result.Backend = NewFileRouter()
		f.logger.Info("Initialized file backend")
	case SheetsBackend:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		result.Backend = spreadsheetBackend{reader: cli, files: NewFileRouter()}
		f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	case MemoryBackend:
		store := config.Memory
		if store == nil {
			store = memory.New()
		}
		result.Backend = store
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var closers []func() error

	if config.StoreResults {
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Store = repo
		result.Runs = repo
		closers = append(closers, repo.Close)
		f.logger.Info("Initialized SQLite result store", "db_path", config.SQLiteDBPath)
	}

	// AMQP is optional: a broker outage must not block the run itself
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, log.WithComponent(f.base, log.ComponentAMQP))
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			result.Publisher = client
			result.Subscriber = client
			closers = append(closers, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return &result, nil
}
