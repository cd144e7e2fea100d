// Package worker consumes mirror messages and pushes records into the
// cloud document store. Messages are hints, not the source of truth: a
// periodic backlog scan re-queues anything whose mirror state is still
// pending, so a lost message only delays a record instead of losing it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
)

// LocalStore is what the worker needs from the local repository.
type LocalStore interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error)
	GetProject(ctx context.Context, id string) (core.Project, error)
	MarkMirrored(ctx context.Context, id string) error
	MarkMirrorError(ctx context.Context, id string) error
	ListPendingMirror(ctx context.Context, limit int) ([]string, error)
}

// CloudMirror is the document-store surface the worker writes to.
type CloudMirror interface {
	UpsertTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	UpsertCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error
	UpsertPaymentMethod(ctx context.Context, pm core.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id string) error
	UpsertProject(ctx context.Context, p core.Project) error
	DeleteProject(ctx context.Context, id string) error
}

// Config holds worker tuning knobs.
type Config struct {
	// BatchSize caps how many pending transactions one backlog scan pushes.
	BatchSize int

	// ScanInterval is how often the backlog scan runs.
	ScanInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		BatchSize:    25,
		ScanInterval: 30 * time.Second,
	}
}

// MirrorWorker applies mirror messages against the cloud store.
type MirrorWorker struct {
	store  LocalStore
	cloud  CloudMirror
	config Config

	mu      sync.Mutex
	running bool
}

func NewMirrorWorker(store LocalStore, cloud CloudMirror, config Config) *MirrorWorker {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultConfig().ScanInterval
	}
	return &MirrorWorker{store: store, cloud: cloud, config: config}
}

// HandleMessage processes one mirror message. Returning an error requeues
// the message; a missing local record on upsert is treated as a
// since-deleted record and acked.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.MirrorMessage) error {
	switch msg.Op {
	case amqp.OpUpsert:
		return w.handleUpsert(ctx, msg.Entity, msg.ID)
	case amqp.OpDelete:
		return w.handleDelete(ctx, msg.Entity, msg.ID)
	default:
		slog.WarnContext(ctx, "Skipping mirror message with unknown op",
			"op", msg.Op,
			"entity", msg.Entity,
			"id", msg.ID)
		return nil
	}
}

func (w *MirrorWorker) handleUpsert(ctx context.Context, entity, id string) error {
	switch entity {
	case amqp.EntityTransaction:
		return w.mirrorTransaction(ctx, id)

	case amqp.EntityCategory:
		c, err := w.store.GetCategory(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return w.cloud.DeleteCategory(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("load category %s: %w", id, err)
		}
		return w.cloud.UpsertCategory(ctx, c)

	case amqp.EntityPaymentMethod:
		methods, err := w.store.ListPaymentMethods(ctx)
		if err != nil {
			return fmt.Errorf("list payment methods: %w", err)
		}
		for _, m := range methods {
			if m.ID == id {
				return w.cloud.UpsertPaymentMethod(ctx, m)
			}
		}
		return w.cloud.DeletePaymentMethod(ctx, id)

	case amqp.EntityProject:
		p, err := w.store.GetProject(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return w.cloud.DeleteProject(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("load project %s: %w", id, err)
		}
		return w.cloud.UpsertProject(ctx, p)

	default:
		slog.WarnContext(ctx, "Skipping mirror message with unknown entity",
			"entity", entity,
			"id", id)
		return nil
	}
}

func (w *MirrorWorker) handleDelete(ctx context.Context, entity, id string) error {
	switch entity {
	case amqp.EntityTransaction:
		return w.cloud.DeleteTransaction(ctx, id)
	case amqp.EntityCategory:
		return w.cloud.DeleteCategory(ctx, id)
	case amqp.EntityPaymentMethod:
		return w.cloud.DeletePaymentMethod(ctx, id)
	case amqp.EntityProject:
		return w.cloud.DeleteProject(ctx, id)
	default:
		slog.WarnContext(ctx, "Skipping delete for unknown entity",
			"entity", entity,
			"id", id)
		return nil
	}
}

// mirrorTransaction pushes one transaction and records the outcome in the
// local mirror state.
func (w *MirrorWorker) mirrorTransaction(ctx context.Context, id string) error {
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted locally between publish and consume.
		return w.cloud.DeleteTransaction(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", id, err)
	}

	if err := w.cloud.UpsertTransaction(ctx, t); err != nil {
		if markErr := w.store.MarkMirrorError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record mirror error",
				"id", id,
				"error", markErr)
		}
		return fmt.Errorf("mirror transaction %s: %w", id, err)
	}

	if err := w.store.MarkMirrored(ctx, id); err != nil {
		return fmt.Errorf("mark mirrored %s: %w", id, err)
	}
	return nil
}

// ScanBacklog pushes up to BatchSize pending transactions directly,
// without going through the queue. It covers messages lost to broker
// restarts and publishes that failed outright.
func (w *MirrorWorker) ScanBacklog(ctx context.Context) (int, error) {
	ids, err := w.store.ListPendingMirror(ctx, w.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending mirror: %w", err)
	}

	pushed := 0
	for _, id := range ids {
		if err := w.mirrorTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Backlog mirror failed",
				"id", id,
				"error", err)
			continue
		}
		pushed++
	}

	if len(ids) > 0 {
		slog.InfoContext(ctx, "Backlog scan complete",
			"pending", len(ids),
			"pushed", pushed)
	}
	return pushed, nil
}

// RunBacklogScanner loops the backlog scan until the context is cancelled.
// An immediate scan on startup recovers anything left over from the
// previous run.
func (w *MirrorWorker) RunBacklogScanner(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("backlog scanner already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if _, err := w.ScanBacklog(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup backlog scan failed", "error", err)
	}

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ScanBacklog(ctx); err != nil {
				slog.ErrorContext(ctx, "Backlog scan failed", "error", err)
			}
		}
	}
}
