package services

import "context"

// categoryOrderStore projects the category table onto OrderStore.
type categoryOrderStore struct {
	store TaxonomyStore
}

// NewCategoryOrderStore exposes categories to the reorder service.
func NewCategoryOrderStore(store TaxonomyStore) OrderStore {
	return categoryOrderStore{store: store}
}

func (s categoryOrderStore) ListOrderables(ctx context.Context) ([]Orderable, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Orderable, len(categories))
	for i, c := range categories {
		out[i] = Orderable{ID: c.ID, Kind: c.Kind, Order: c.Order}
	}
	return out, nil
}

func (s categoryOrderStore) UpdateOrder(ctx context.Context, id string, order int) error {
	return s.store.UpdateCategoryOrder(ctx, id, order)
}

// paymentMethodOrderStore projects payment methods onto OrderStore.
type paymentMethodOrderStore struct {
	store TaxonomyStore
}

// NewPaymentMethodOrderStore exposes payment methods to the reorder service.
func NewPaymentMethodOrderStore(store TaxonomyStore) OrderStore {
	return paymentMethodOrderStore{store: store}
}

func (s paymentMethodOrderStore) ListOrderables(ctx context.Context) ([]Orderable, error) {
	methods, err := s.store.ListPaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Orderable, len(methods))
	for i, m := range methods {
		out[i] = Orderable{ID: m.ID, Kind: m.Kind, Order: m.Order}
	}
	return out, nil
}

func (s paymentMethodOrderStore) UpdateOrder(ctx context.Context, id string, order int) error {
	return s.store.UpdatePaymentMethodOrder(ctx, id, order)
}
