package cloud

import (
	"context"
	"testing"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	replaced map[string]interface{}
	deleted  []string
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{},
	_ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	id := filter.(bson.M)["_id"].(string)
	if f.replaced == nil {
		f.replaced = make(map[string]interface{})
	}
	f.replaced[id] = replacement
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func (f *fakeCollection) DeleteOne(_ context.Context, filter interface{},
	_ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.deleted = append(f.deleted, filter.(bson.M)["_id"].(string))
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

type fakeProvider struct {
	collections map[string]*fakeCollection
}

func (f *fakeProvider) Collection(name string) DocumentStore {
	if f.collections == nil {
		f.collections = make(map[string]*fakeCollection)
	}
	c, ok := f.collections[name]
	if !ok {
		c = &fakeCollection{}
		f.collections[name] = c
	}
	return c
}

func TestUpsertTransactionDocument(t *testing.T) {
	provider := &fakeProvider{}
	mirror := NewMongoMirror(provider)

	tx := core.Transaction{
		ID:          "tx-1",
		Kind:        core.Expense,
		Amount:      core.Money{Minor: 250000},
		Description: "점심",
		CategoryID:  "cat-food",
		OccurredAt:  time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 15, 12, 1, 0, 0, time.UTC),
	}
	if err := mirror.UpsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("UpsertTransaction() error = %v", err)
	}

	coll := provider.collections[TransactionsCollection]
	doc, ok := coll.replaced["tx-1"].(transactionDoc)
	if !ok {
		t.Fatalf("replaced document has wrong type: %T", coll.replaced["tx-1"])
	}
	if doc.AmountMinor != 250000 {
		t.Errorf("AmountMinor = %d, want 250000", doc.AmountMinor)
	}
	if doc.OccurredAt != "2026-03-15T12:00:00Z" {
		t.Errorf("OccurredAt = %q, want RFC3339 UTC text", doc.OccurredAt)
	}
}

func TestDeleteRoutesToCollection(t *testing.T) {
	provider := &fakeProvider{}
	mirror := NewMongoMirror(provider)
	ctx := context.Background()

	if err := mirror.DeleteCategory(ctx, "cat-1"); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if err := mirror.DeleteProject(ctx, "prj-1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	if got := provider.collections[CategoriesCollection].deleted; len(got) != 1 || got[0] != "cat-1" {
		t.Errorf("categories deletes = %v, want [cat-1]", got)
	}
	if got := provider.collections[ProjectsCollection].deleted; len(got) != 1 || got[0] != "prj-1" {
		t.Errorf("projects deletes = %v, want [prj-1]", got)
	}
}
