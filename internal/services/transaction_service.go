package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// TransactionService orchestrates transaction writes: local store first,
// then a fire-and-forget mirror message. A publish failure never fails
// the request; the worker's backlog scan picks the record up later.
type TransactionService struct {
	store     TransactionStore
	publisher MirrorPublisher
	now       func() time.Time
}

func NewTransactionService(store TransactionStore, publisher MirrorPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateTransaction validates, assigns an id and saves. Returns the new id.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.EntityTransaction, amqp.OpUpsert, t.ID)
	return t.ID, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	t.UpdatedAt = s.now()

	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, amqp.EntityTransaction, amqp.OpUpsert, t.ID)
	return nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, amqp.EntityTransaction, amqp.OpDelete, id)
	return nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) TransactionsInRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return s.store.TransactionsInRange(ctx, start, end)
}

func (s *TransactionService) publish(ctx context.Context, entity, op, id string) {
	publishMirror(ctx, s.publisher, entity, op, id)
}
