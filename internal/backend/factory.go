package backend

import (
	"fmt"
	"log/slog"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/config"
	"github.com/smartyoni/inaeFlexbook/internal/memory"
	"github.com/smartyoni/inaeFlexbook/internal/services"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
)

// Factory builds backends from configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the backend named by cfg.DataBackend.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteType:
		return f.createSQLite(cfg, false)
	case SyncedType:
		return f.createSQLite(cfg, true)
	case MemoryType:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
}

func (f *Factory) createSQLite(cfg *config.Config, synced bool) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	var publisher services.MirrorPublisher
	var amqpClient *amqp.Client
	if synced {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The backlog scan mirrors pending records once the broker
			// is reachable again, so start local-only instead of failing.
			f.logger.Warn("Failed to initialize AMQP client, continuing without mirror queue",
				"error", err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	b := wire(repo, publisher)
	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"mirror_enabled", publisher != nil)

	cleanup := func() error {
		var errs []error
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}

	return &Result{Backend: b, Cleanup: cleanup}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	store := memory.NewStore()
	b := wire(store, nil)
	f.logger.Info("Initialized in-memory backend")
	return &Result{Backend: b, Cleanup: nil}, nil
}

func wire(store Store, publisher services.MirrorPublisher) *Backend {
	transactions := services.NewTransactionService(store, publisher)
	return &Backend{
		Store:        store,
		Transactions: transactions,
		Taxonomy:     services.NewTaxonomyService(store, publisher),
		Projects:     services.NewProjectService(store, publisher),
		Recurring:    services.NewRecurringProcessor(store, transactions),
	}
}
