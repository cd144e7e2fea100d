package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// RecurringStore is the persistence surface for recurring templates.
type RecurringStore interface {
	CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) error
	UpdateRecurringExpense(ctx context.Context, re core.RecurringExpense) error
	DeleteRecurringExpense(ctx context.Context, id string) error
	GetRecurringExpense(ctx context.Context, id string) (core.RecurringExpense, error)
	ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error)
	ListActiveRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error)
	RecurringLastRun(ctx context.Context, id string) (time.Time, error)
	SetRecurringLastRun(ctx context.Context, id string, at time.Time) error
}

// RecurringProcessor materializes due recurring templates into real
// expense transactions. Templates fire at most once per calendar month.
type RecurringProcessor struct {
	store        RecurringStore
	transactions *TransactionService
}

func NewRecurringProcessor(store RecurringStore, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
	}
}

// CreateTemplate saves a new recurring template.
func (p *RecurringProcessor) CreateTemplate(ctx context.Context, re core.RecurringExpense) (string, error) {
	if re.ID == "" {
		re.ID = uuid.NewString()
	}
	now := time.Now()
	re.CreatedAt = now
	re.UpdatedAt = now
	if err := re.Validate(); err != nil {
		return "", fmt.Errorf("validate recurring template: %w", err)
	}
	if err := p.store.CreateRecurringExpense(ctx, re); err != nil {
		return "", fmt.Errorf("save recurring template: %w", err)
	}
	return re.ID, nil
}

func (p *RecurringProcessor) UpdateTemplate(ctx context.Context, re core.RecurringExpense) error {
	re.UpdatedAt = time.Now()
	if err := re.Validate(); err != nil {
		return fmt.Errorf("validate recurring template: %w", err)
	}
	if err := p.store.UpdateRecurringExpense(ctx, re); err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	return nil
}

func (p *RecurringProcessor) DeleteTemplate(ctx context.Context, id string) error {
	return p.store.DeleteRecurringExpense(ctx, id)
}

func (p *RecurringProcessor) GetTemplate(ctx context.Context, id string) (core.RecurringExpense, error) {
	return p.store.GetRecurringExpense(ctx, id)
}

func (p *RecurringProcessor) ListTemplates(ctx context.Context) ([]core.RecurringExpense, error) {
	return p.store.ListRecurringExpenses(ctx)
}

// ProcessDue runs every active template against now and creates a
// transaction for each one that is due. One failing template never stops
// the rest. Returns the number of transactions created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("recurring processor not initialized")
	}

	templates, err := p.store.ListActiveRecurringExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	created := 0
	for _, re := range templates {
		lastRun, err := p.store.RecurringLastRun(ctx, re.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load last run",
				"template", re.ID,
				"error", err)
			continue
		}

		if !IsDue(re, lastRun, now) {
			continue
		}

		tx := core.Transaction{
			Kind:        core.Expense,
			Amount:      re.Amount,
			Description: re.Name,
			CategoryID:  re.CategoryID,
			OccurredAt:  now,
			Memo:        re.Memo,
		}
		if _, err := p.transactions.CreateTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from template",
				"template", re.ID,
				"name", re.Name,
				"error", err)
			continue
		}

		if err := p.store.SetRecurringLastRun(ctx, re.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to record last run",
				"template", re.ID,
				"error", err)
			// Keep going, the transaction itself was created.
		}

		created++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"template", re.ID,
			"name", re.Name,
			"amount_minor", re.Amount.Minor)
	}

	slog.InfoContext(ctx, "Recurring expense processing complete",
		"created", created,
		"total_checked", len(templates))

	return created, nil
}

// IsDue reports whether the template should fire at now.
//
// A template fires at most once per calendar month, on or after its target
// day. A target day past the end of a short month clamps to the month's
// last day, so a day-31 template still fires in February. A non-empty
// Months list restricts firing to those calendar months.
func IsDue(re core.RecurringExpense, lastRun, now time.Time) bool {
	if !monthAllowed(re.Months, now.Month()) {
		return false
	}

	if !lastRun.IsZero() &&
		lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}

	targetDay := re.DayOfMonth
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return now.Day() >= targetDay
}

func monthAllowed(months []int, m time.Month) bool {
	if len(months) == 0 {
		return true
	}
	for _, allowed := range months {
		if allowed == int(m) {
			return true
		}
	}
	return false
}
