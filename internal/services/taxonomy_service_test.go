package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

type fakeTaxonomyStore struct {
	categories map[string]core.Category
	methods    map[string]core.PaymentMethod
}

func newFakeTaxonomyStore() *fakeTaxonomyStore {
	return &fakeTaxonomyStore{
		categories: make(map[string]core.Category),
		methods:    make(map[string]core.PaymentMethod),
	}
}

func (f *fakeTaxonomyStore) CreateCategory(_ context.Context, c core.Category) error {
	f.categories[c.ID] = c
	return nil
}

func (f *fakeTaxonomyStore) UpdateCategory(_ context.Context, c core.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return errors.New("not found")
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeTaxonomyStore) DeleteCategory(_ context.Context, id string) error {
	delete(f.categories, id)
	return nil
}

func (f *fakeTaxonomyStore) GetCategory(_ context.Context, id string) (core.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return core.Category{}, errors.New("not found")
	}
	return c, nil
}

func (f *fakeTaxonomyStore) ListCategories(_ context.Context) ([]core.Category, error) {
	out := make([]core.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeTaxonomyStore) UpdateCategoryOrder(_ context.Context, id string, order int) error {
	c, ok := f.categories[id]
	if !ok {
		return errors.New("not found")
	}
	c.Order = order
	f.categories[id] = c
	return nil
}

func (f *fakeTaxonomyStore) CreatePaymentMethod(_ context.Context, m core.PaymentMethod) error {
	f.methods[m.ID] = m
	return nil
}

func (f *fakeTaxonomyStore) UpdatePaymentMethod(_ context.Context, m core.PaymentMethod) error {
	if _, ok := f.methods[m.ID]; !ok {
		return errors.New("not found")
	}
	f.methods[m.ID] = m
	return nil
}

func (f *fakeTaxonomyStore) DeletePaymentMethod(_ context.Context, id string) error {
	delete(f.methods, id)
	return nil
}

func (f *fakeTaxonomyStore) ListPaymentMethods(_ context.Context) ([]core.PaymentMethod, error) {
	out := make([]core.PaymentMethod, 0, len(f.methods))
	for _, m := range f.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeTaxonomyStore) UpdatePaymentMethodOrder(_ context.Context, id string, order int) error {
	m, ok := f.methods[id]
	if !ok {
		return errors.New("not found")
	}
	m.Order = order
	f.methods[id] = m
	return nil
}

func TestCreateCategoryAppendsWithinKind(t *testing.T) {
	store := newFakeTaxonomyStore()
	svc := NewTaxonomyService(store, nil)
	ctx := context.Background()

	for _, name := range []string{"식비", "교통"} {
		if _, err := svc.CreateCategory(ctx, core.Category{Name: name, Kind: core.Expense}); err != nil {
			t.Fatalf("CreateCategory(%s) error = %v", name, err)
		}
	}
	// Income categories order independently of expense ones.
	incomeID, err := svc.CreateCategory(ctx, core.Category{Name: "급여", Kind: core.Income})
	if err != nil {
		t.Fatalf("CreateCategory(급여) error = %v", err)
	}

	if got := store.categories[incomeID].Order; got != 0 {
		t.Errorf("first income category Order = %d, want 0", got)
	}

	expenseID, err := svc.CreateCategory(ctx, core.Category{Name: "주거", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory(주거) error = %v", err)
	}
	if got := store.categories[expenseID].Order; got != 2 {
		t.Errorf("third expense category Order = %d, want 2", got)
	}
}

func TestReorderCategoriesMirrorsChangedList(t *testing.T) {
	store := newFakeTaxonomyStore()
	pub := &fakePublisher{}
	svc := NewTaxonomyService(store, pub)
	ctx := context.Background()

	ids := make([]string, 3)
	for i, name := range []string{"식비", "교통", "주거"} {
		id, err := svc.CreateCategory(ctx, core.Category{Name: name, Kind: core.Expense})
		if err != nil {
			t.Fatalf("CreateCategory(%s) error = %v", name, err)
		}
		ids[i] = id
	}
	pub.published = nil

	refreshed, err := svc.ReorderCategories(ctx, ids[0], ids[2])
	if err != nil {
		t.Fatalf("ReorderCategories() error = %v", err)
	}
	wantNames := []string{"주거", "교통", "식비"}
	for i, c := range refreshed {
		if c.Name != wantNames[i] {
			t.Errorf("position %d = %q, want %q", i, c.Name, wantNames[i])
		}
	}

	upserts := 0
	for _, m := range pub.published {
		if m.entity == amqp.EntityCategory && m.op == amqp.OpUpsert {
			upserts++
		}
	}
	if upserts != len(refreshed) {
		t.Errorf("category upserts = %d, want %d", upserts, len(refreshed))
	}
}

func TestDeletePaymentMethodPublishes(t *testing.T) {
	store := newFakeTaxonomyStore()
	pub := &fakePublisher{}
	svc := NewTaxonomyService(store, pub)
	ctx := context.Background()

	id, err := svc.CreatePaymentMethod(ctx, core.PaymentMethod{Name: "체크카드", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreatePaymentMethod() error = %v", err)
	}
	if err := svc.DeletePaymentMethod(ctx, id); err != nil {
		t.Fatalf("DeletePaymentMethod() error = %v", err)
	}

	last := pub.published[len(pub.published)-1]
	if last.entity != amqp.EntityPaymentMethod || last.op != amqp.OpDelete {
		t.Errorf("last published = %+v, want payment method delete", last)
	}
}
