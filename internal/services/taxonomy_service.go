package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// TaxonomyService manages categories and payment methods, including the
// drag-and-drop ordering of each list.
type TaxonomyService struct {
	store     TaxonomyStore
	publisher MirrorPublisher

	categoryReorder      *ReorderService
	paymentMethodReorder *ReorderService
}

func NewTaxonomyService(store TaxonomyStore, publisher MirrorPublisher) *TaxonomyService {
	return &TaxonomyService{
		store:                store,
		publisher:            publisher,
		categoryReorder:      NewReorderService(NewCategoryOrderStore(store)),
		paymentMethodReorder: NewReorderService(NewPaymentMethodOrderStore(store)),
	}
}

// CreateCategory appends the category at the end of its kind partition.
func (s *TaxonomyService) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("validate category: %w", err)
	}

	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	c.Order = nextOrder(existing, c.Kind)

	if err := s.store.CreateCategory(ctx, c); err != nil {
		return "", fmt.Errorf("save category: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityCategory, amqp.OpUpsert, c.ID)
	return c.ID, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate category: %w", err)
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityCategory, amqp.OpUpsert, c.ID)
	return nil
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityCategory, amqp.OpDelete, id)
	return nil
}

func (s *TaxonomyService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// ReorderCategories swaps two categories of the same kind and mirrors every
// category whose position changed.
func (s *TaxonomyService) ReorderCategories(ctx context.Context, draggedID, targetID string) ([]core.Category, error) {
	if _, err := s.categoryReorder.Reorder(ctx, draggedID, targetID); err != nil {
		return nil, err
	}
	refreshed, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh categories: %w", err)
	}
	for _, c := range refreshed {
		publishMirror(ctx, s.publisher, amqp.EntityCategory, amqp.OpUpsert, c.ID)
	}
	return refreshed, nil
}

func (s *TaxonomyService) CreatePaymentMethod(ctx context.Context, m core.PaymentMethod) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("validate payment method: %w", err)
	}

	existing, err := s.store.ListPaymentMethods(ctx)
	if err != nil {
		return "", fmt.Errorf("list payment methods: %w", err)
	}
	m.Order = nextOrderMethods(existing, m.Kind)

	if err := s.store.CreatePaymentMethod(ctx, m); err != nil {
		return "", fmt.Errorf("save payment method: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityPaymentMethod, amqp.OpUpsert, m.ID)
	return m.ID, nil
}

func (s *TaxonomyService) UpdatePaymentMethod(ctx context.Context, m core.PaymentMethod) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validate payment method: %w", err)
	}
	if err := s.store.UpdatePaymentMethod(ctx, m); err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityPaymentMethod, amqp.OpUpsert, m.ID)
	return nil
}

func (s *TaxonomyService) DeletePaymentMethod(ctx context.Context, id string) error {
	if err := s.store.DeletePaymentMethod(ctx, id); err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityPaymentMethod, amqp.OpDelete, id)
	return nil
}

func (s *TaxonomyService) ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	return s.store.ListPaymentMethods(ctx)
}

func (s *TaxonomyService) ReorderPaymentMethods(ctx context.Context, draggedID, targetID string) ([]core.PaymentMethod, error) {
	if _, err := s.paymentMethodReorder.Reorder(ctx, draggedID, targetID); err != nil {
		return nil, err
	}
	refreshed, err := s.store.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh payment methods: %w", err)
	}
	for _, m := range refreshed {
		publishMirror(ctx, s.publisher, amqp.EntityPaymentMethod, amqp.OpUpsert, m.ID)
	}
	return refreshed, nil
}

// nextOrder returns one past the highest order inside the kind partition.
func nextOrder(categories []core.Category, kind core.Kind) int {
	next := 0
	for _, c := range categories {
		if c.Kind == kind && c.Order >= next {
			next = c.Order + 1
		}
	}
	return next
}

func nextOrderMethods(methods []core.PaymentMethod, kind core.Kind) int {
	next := 0
	for _, m := range methods {
		if m.Kind == kind && m.Order >= next {
			next = m.Order + 1
		}
	}
	return next
}
