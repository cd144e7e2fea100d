// Package cloud mirrors local records into a MongoDB document store. The
// mirror is best effort: local SQLite stays the source of truth and the
// worker retries anything that did not make it across.
package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the mirror database.
const (
	TransactionsCollection   = "transactions"
	CategoriesCollection     = "categories"
	PaymentMethodsCollection = "paymentMethods"
	ProjectsCollection       = "projects"
)

// DocumentStore defines the collection operations the mirror needs.
type DocumentStore interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{},
		opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{},
		opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) DocumentStore
}

// MongoProvider adapts *mongo.Client to CollectionProvider.
type MongoProvider struct {
	client   *mongo.Client
	database string
}

func NewMongoProvider(client *mongo.Client, database string) *MongoProvider {
	return &MongoProvider{client: client, database: database}
}

func (p *MongoProvider) Collection(name string) DocumentStore {
	return p.client.Database(p.database).Collection(name)
}

// Connect establishes and verifies a MongoDB connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// transactionDoc is the wire shape of a mirrored transaction. Amounts stay
// in minor units; occurred_at is RFC3339 text so documents sort lexically.
type transactionDoc struct {
	ID              string `bson:"_id"`
	Kind            string `bson:"kind"`
	AmountMinor     int64  `bson:"amountMinor"`
	Description     string `bson:"description"`
	CategoryID      string `bson:"categoryId"`
	PaymentMethodID string `bson:"paymentMethodId,omitempty"`
	ProjectID       string `bson:"projectId,omitempty"`
	OccurredAt      string `bson:"occurredAt"`
	Memo            string `bson:"memo,omitempty"`
	UpdatedAt       string `bson:"updatedAt"`
}

type taxonomyDoc struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Kind  string `bson:"kind"`
	Color string `bson:"color,omitempty"`
	Order int    `bson:"order"`
}

type projectDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description,omitempty"`
	Color       string `bson:"color,omitempty"`
	Status      string `bson:"status"`
	Locked      bool   `bson:"locked"`
	UpdatedAt   string `bson:"updatedAt"`
}

// MongoMirror pushes upserts and deletes into the mirror collections.
type MongoMirror struct {
	provider CollectionProvider
}

func NewMongoMirror(provider CollectionProvider) *MongoMirror {
	return &MongoMirror{provider: provider}
}

func (m *MongoMirror) upsert(ctx context.Context, collection, id string, doc interface{}) error {
	coll := m.provider.Collection(collection)
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoMirror) delete(ctx context.Context, collection, id string) error {
	coll := m.provider.Collection(collection)
	_, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoMirror) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	doc := transactionDoc{
		ID:              t.ID,
		Kind:            string(t.Kind),
		AmountMinor:     t.Amount.Minor,
		Description:     t.Description,
		CategoryID:      t.CategoryID,
		PaymentMethodID: t.PaymentMethodID,
		ProjectID:       t.ProjectID,
		OccurredAt:      formatDocTime(t.OccurredAt),
		Memo:            t.Memo,
		UpdatedAt:       formatDocTime(t.UpdatedAt),
	}
	return m.upsert(ctx, TransactionsCollection, t.ID, doc)
}

func (m *MongoMirror) DeleteTransaction(ctx context.Context, id string) error {
	return m.delete(ctx, TransactionsCollection, id)
}

func (m *MongoMirror) UpsertCategory(ctx context.Context, c core.Category) error {
	doc := taxonomyDoc{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color, Order: c.Order}
	return m.upsert(ctx, CategoriesCollection, c.ID, doc)
}

func (m *MongoMirror) DeleteCategory(ctx context.Context, id string) error {
	return m.delete(ctx, CategoriesCollection, id)
}

func (m *MongoMirror) UpsertPaymentMethod(ctx context.Context, pm core.PaymentMethod) error {
	doc := taxonomyDoc{ID: pm.ID, Name: pm.Name, Kind: string(pm.Kind), Color: pm.Color, Order: pm.Order}
	return m.upsert(ctx, PaymentMethodsCollection, pm.ID, doc)
}

func (m *MongoMirror) DeletePaymentMethod(ctx context.Context, id string) error {
	return m.delete(ctx, PaymentMethodsCollection, id)
}

func (m *MongoMirror) UpsertProject(ctx context.Context, p core.Project) error {
	doc := projectDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Status:      string(p.Status),
		Locked:      p.Locked,
		UpdatedAt:   formatDocTime(p.UpdatedAt),
	}
	return m.upsert(ctx, ProjectsCollection, p.ID, doc)
}

func (m *MongoMirror) DeleteProject(ctx context.Context, id string) error {
	return m.delete(ctx, ProjectsCollection, id)
}

func formatDocTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
