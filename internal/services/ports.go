package services

import (
	"context"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// TransactionStore is the persistence surface the transaction service
// needs. SQLite and the in-memory backend both implement it.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	TransactionsInRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	TransactionsByProject(ctx context.Context, projectID string) ([]core.Transaction, error)
}

// TaxonomyStore covers categories and payment methods.
type TaxonomyStore interface {
	CreateCategory(ctx context.Context, c core.Category) error
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error
	GetCategory(ctx context.Context, id string) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategoryOrder(ctx context.Context, id string, order int) error

	CreatePaymentMethod(ctx context.Context, m core.PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, m core.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id string) error
	ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error)
	UpdatePaymentMethodOrder(ctx context.Context, id string, order int) error
}

// ProjectStore is the persistence surface for projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p core.Project) error
	UpdateProject(ctx context.Context, p core.Project) error
	DeleteProject(ctx context.Context, id string) error
	GetProject(ctx context.Context, id string) (core.Project, error)
	ListProjects(ctx context.Context) ([]core.Project, error)
	ClearProjectReferences(ctx context.Context, projectID string) ([]string, error)
}

// MirrorPublisher queues a record for the cloud mirror worker. A nil
// publisher is valid: saves stay local only.
type MirrorPublisher interface {
	PublishMirror(ctx context.Context, entity, op, id string) error
}
