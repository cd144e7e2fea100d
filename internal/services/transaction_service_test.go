package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

type fakeTransactionStore struct {
	transactions map[string]core.Transaction
	failCreate   error
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{transactions: make(map[string]core.Transaction)}
}

func (f *fakeTransactionStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.transactions[t.ID] = t
	return nil
}

func (f *fakeTransactionStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if _, ok := f.transactions[t.ID]; !ok {
		return errors.New("not found")
	}
	f.transactions[t.ID] = t
	return nil
}

func (f *fakeTransactionStore) DeleteTransaction(_ context.Context, id string) error {
	delete(f.transactions, id)
	return nil
}

func (f *fakeTransactionStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, errors.New("not found")
	}
	return t, nil
}

func (f *fakeTransactionStore) TransactionsInRange(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.transactions {
		if !t.OccurredAt.Before(start) && !t.OccurredAt.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactionStore) TransactionsByProject(_ context.Context, projectID string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.transactions {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

type publishedMessage struct {
	entity, op, id string
}

type fakePublisher struct {
	published []publishedMessage
	fail      error
}

func (f *fakePublisher) PublishMirror(_ context.Context, entity, op, id string) error {
	if f.fail != nil {
		return f.fail
	}
	f.published = append(f.published, publishedMessage{entity, op, id})
	return nil
}

func validTransaction() core.Transaction {
	return core.Transaction{
		Kind:        core.Expense,
		Amount:      core.Money{Minor: 450000},
		Description: "장보기",
		CategoryID:  "cat-food",
		OccurredAt:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateTransactionAssignsIDAndPublishes(t *testing.T) {
	store := newFakeTransactionStore()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	id, err := svc.CreateTransaction(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateTransaction() returned empty id")
	}
	saved, ok := store.transactions[id]
	if !ok {
		t.Fatal("transaction not saved")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("timestamps not assigned")
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(pub.published))
	}
	got := pub.published[0]
	if got.entity != amqp.EntityTransaction || got.op != amqp.OpUpsert || got.id != id {
		t.Errorf("published %+v, want upsert for %s", got, id)
	}
}

func TestCreateTransactionValidationFailsBeforeSave(t *testing.T) {
	store := newFakeTransactionStore()
	svc := NewTransactionService(store, &fakePublisher{})

	tx := validTransaction()
	tx.Amount.Minor = 0

	if _, err := svc.CreateTransaction(context.Background(), tx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("CreateTransaction() error = %v, want ErrInvalidAmount", err)
	}
	if len(store.transactions) != 0 {
		t.Error("invalid transaction was saved")
	}
}

func TestCreateTransactionSurvivesPublishFailure(t *testing.T) {
	store := newFakeTransactionStore()
	pub := &fakePublisher{fail: errors.New("broker down")}
	svc := NewTransactionService(store, pub)

	id, err := svc.CreateTransaction(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v, want nil despite publish failure", err)
	}
	if _, ok := store.transactions[id]; !ok {
		t.Error("transaction not saved locally")
	}
}

func TestCreateTransactionWithNilPublisher(t *testing.T) {
	store := newFakeTransactionStore()
	svc := NewTransactionService(store, nil)

	if _, err := svc.CreateTransaction(context.Background(), validTransaction()); err != nil {
		t.Fatalf("CreateTransaction() error = %v, want nil with nil publisher", err)
	}
}

func TestDeleteTransactionPublishesDelete(t *testing.T) {
	store := newFakeTransactionStore()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	id, err := svc.CreateTransaction(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if err := svc.DeleteTransaction(context.Background(), id); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	last := pub.published[len(pub.published)-1]
	if last.op != amqp.OpDelete || last.id != id {
		t.Errorf("last published = %+v, want delete for %s", last, id)
	}
}
