package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

type (
	// Kind discriminates income from expense. It applies to transactions,
	// categories and payment methods alike.
	Kind string

	ProjectStatus string

	// Money is an amount in the smallest currency unit. All arithmetic in
	// the application happens on Minor; floats appear only at display time.
	Money struct {
		Minor int64
	}

	// Transaction is a single income or expense record. The report engine
	// treats transactions as read-only input.
	Transaction struct {
		ID              string
		Kind            Kind
		Amount          Money
		Description     string
		CategoryID      string
		PaymentMethodID string // empty when the user recorded no channel
		ProjectID       string // empty when not tied to a project
		OccurredAt      time.Time
		Memo            string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// Category is a display bucket for transactions. Order is the manual
	// sort position within the category's kind partition.
	Category struct {
		ID    string
		Name  string
		Kind  Kind
		Color string
		Order int
	}

	// PaymentMethod mirrors Category but describes the payment or deposit
	// channel. It forms its own partition per kind.
	PaymentMethod struct {
		ID    string
		Name  string
		Kind  Kind
		Color string
		Order int
	}

	// Project is an optional tag grouping transactions toward a goal.
	Project struct {
		ID          string
		Name        string
		Description string
		Color       string
		Status      ProjectStatus
		Locked      bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// RecurringExpense is a template that the recurring processor turns
	// into real transactions once per due month.
	RecurringExpense struct {
		ID         string
		Name       string
		Amount     Money
		CategoryID string
		DayOfMonth int
		Memo       string
		Active     bool
		Months     []int // empty means every month
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category reference")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidStatus    = errors.New("invalid project status")
	ErrProjectLocked    = errors.New("project is locked")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (s ProjectStatus) Validate() error {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Validate rejects non-positive amounts. The sign of a transaction is
// carried by its kind, so stored amounts are always strictly positive.
func (m Money) Validate() error {
	if m.Minor <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Category) Validate() error {
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Order < 0 {
		return errors.New("negative sort order")
	}
	return nil
}

func (p PaymentMethod) Validate() error {
	if err := p.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Order < 0 {
		return errors.New("negative sort order")
	}
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return p.Status.Validate()
}

func (r RecurringExpense) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDate
	}
	for _, m := range r.Months {
		if m < 1 || m > 12 {
			return errors.New("invalid month in schedule")
		}
	}
	return nil
}
