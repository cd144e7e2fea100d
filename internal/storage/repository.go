package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"

	_ "modernc.org/sqlite"
)

// Mirror states for the pending-backlog scan.
const (
	MirrorPending = "pending"
	MirrorDone    = "mirrored"
	MirrorError   = "error"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// SQLiteRepository is the local store. It is the source of truth; the
// cloud document store is a best-effort mirror fed by the worker.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// parseTimestamp normalizes a stored timestamp. A value that cannot be
// parsed comes back as the zero time instead of an error: the report
// filter drops such records, so one corrupt row never aborts a whole
// report.
func parseTimestamp(ctx context.Context, raw, column, id string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		slog.WarnContext(ctx, "Dropping malformed timestamp",
			"column", column,
			"id", id,
			"value", raw)
		return time.Time{}
	}
	return t
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

const transactionColumns = `id, kind, amount_minor, description, category_id,
	payment_method_id, project_id, occurred_at, memo, created_at, updated_at`

func scanTransaction(ctx context.Context, row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var occurred, created, updated string
	err := row.Scan(&t.ID, &t.Kind, &t.Amount.Minor, &t.Description, &t.CategoryID,
		&t.PaymentMethodID, &t.ProjectID, &occurred, &t.Memo, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	t.OccurredAt = parseTimestamp(ctx, occurred, "occurred_at", t.ID)
	t.CreatedAt = parseTimestamp(ctx, created, "created_at", t.ID)
	t.UpdatedAt = parseTimestamp(ctx, updated, "updated_at", t.ID)
	return t, nil
}

// CreateTransaction inserts a new transaction in the pending mirror state.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, amount_minor, description, category_id,
			payment_method_id, project_id, occurred_at, memo, mirror_state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Kind), t.Amount.Minor, t.Description, t.CategoryID,
		t.PaymentMethodID, t.ProjectID, formatTimestamp(t.OccurredAt), t.Memo,
		MirrorPending, formatTimestamp(t.CreatedAt), formatTimestamp(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction rewrites every mutable field and resets the mirror
// state so the worker pushes the new version.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET kind = ?, amount_minor = ?, description = ?, category_id = ?,
			payment_method_id = ?, project_id = ?, occurred_at = ?, memo = ?,
			mirror_state = ?, updated_at = ?
		WHERE id = ?`,
		string(t.Kind), t.Amount.Minor, t.Description, t.CategoryID,
		t.PaymentMethodID, t.ProjectID, formatTimestamp(t.OccurredAt), t.Memo,
		MirrorPending, formatTimestamp(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// TransactionsInRange returns transactions whose occurred_at falls inside
// [start, end], both inclusive. Rows with an unparseable occurred_at are
// excluded by the text comparison and would be dropped downstream anyway.
func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at DESC`,
		formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("query transactions in range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(ctx, rows)
}

func (r *SQLiteRepository) TransactionsByProject(ctx context.Context, projectID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE project_id = ?
		ORDER BY occurred_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query transactions by project: %w", err)
	}
	defer rows.Close()
	return collectTransactions(ctx, rows)
}

func collectTransactions(ctx context.Context, rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ClearProjectReferences detaches every transaction from the project and
// returns the affected ids so the caller can queue mirror updates. The id
// read and the detaching update share one transaction, so the returned ids
// are exactly the rows detached. Deleting a project never cascades to its
// transactions.
func (r *SQLiteRepository) ClearProjectReferences(ctx context.Context, projectID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin detach tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM transactions WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project transactions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET project_id = '', mirror_state = ?
		WHERE project_id = ?`, MirrorPending, projectID)
	if err != nil {
		return nil, fmt.Errorf("clear project references: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit detach tx: %w", err)
	}
	return ids, nil
}

// MarkMirrored records that the worker pushed the transaction to the cloud.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_state = ? WHERE id = ?`, MirrorDone, id)
	if err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_state = ? WHERE id = ?`, MirrorError, id)
	if err != nil {
		return fmt.Errorf("mark mirror error: %w", err)
	}
	return nil
}

// ListPendingMirror returns transaction ids the worker still has to push,
// oldest first. Used by the backlog scan that recovers lost messages.
func (r *SQLiteRepository) ListPendingMirror(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE mirror_state = ?
		ORDER BY updated_at ASC
		LIMIT ?`, MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, kind, color, sort_order)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Kind), c.Color, c.Order)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, kind = ?, color = ?, sort_order = ?
		WHERE id = ?`,
		c.Name, string(c.Kind), c.Color, c.Order, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind, color, sort_order FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Kind, &c.Color, &c.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories sorted by manual order.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, color, sort_order FROM categories ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Color, &c.Order); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategoryOrder(ctx context.Context, id string, order int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET sort_order = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("update category order: %w", err)
	}
	return nil
}

// --- payment methods ---

func (r *SQLiteRepository) CreatePaymentMethod(ctx context.Context, m core.PaymentMethod) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_methods (id, name, kind, color, sort_order)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, string(m.Kind), m.Color, m.Order)
	if err != nil {
		return fmt.Errorf("insert payment method: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdatePaymentMethod(ctx context.Context, m core.PaymentMethod) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_methods SET name = ?, kind = ?, color = ?, sort_order = ?
		WHERE id = ?`,
		m.Name, string(m.Kind), m.Color, m.Order, m.ID)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeletePaymentMethod(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, color, sort_order FROM payment_methods ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()
	var out []core.PaymentMethod
	for rows.Next() {
		var m core.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Color, &m.Order); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdatePaymentMethodOrder(ctx context.Context, id string, order int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_methods SET sort_order = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("update payment method order: %w", err)
	}
	return nil
}

// --- projects ---

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, color, status, locked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Color, string(p.Status), boolToInt(p.Locked),
		formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, color = ?, status = ?, locked = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Color, string(p.Status), boolToInt(p.Locked),
		formatTimestamp(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	var p core.Project
	var locked int
	var created, updated string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, color, status, locked, created_at, updated_at
		FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.Status, &locked, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project: %w", err)
	}
	p.Locked = locked != 0
	p.CreatedAt = parseTimestamp(ctx, created, "created_at", p.ID)
	p.UpdatedAt = parseTimestamp(ctx, updated, "updated_at", p.ID)
	return p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, color, status, locked, created_at, updated_at
		FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []core.Project
	for rows.Next() {
		var p core.Project
		var locked int
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.Status,
			&locked, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Locked = locked != 0
		p.CreatedAt = parseTimestamp(ctx, created, "created_at", p.ID)
		p.UpdatedAt = parseTimestamp(ctx, updated, "updated_at", p.ID)
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- recurring expenses ---

func (r *SQLiteRepository) CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_expenses (id, name, amount_minor, category_id, day_of_month,
			memo, active, months, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		re.ID, re.Name, re.Amount.Minor, re.CategoryID, re.DayOfMonth,
		re.Memo, boolToInt(re.Active), encodeMonths(re.Months),
		formatTimestamp(re.CreatedAt), formatTimestamp(re.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert recurring expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateRecurringExpense(ctx context.Context, re core.RecurringExpense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_expenses
		SET name = ?, amount_minor = ?, category_id = ?, day_of_month = ?,
			memo = ?, active = ?, months = ?, updated_at = ?
		WHERE id = ?`,
		re.Name, re.Amount.Minor, re.CategoryID, re.DayOfMonth,
		re.Memo, boolToInt(re.Active), encodeMonths(re.Months),
		formatTimestamp(re.UpdatedAt), re.ID)
	if err != nil {
		return fmt.Errorf("update recurring expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurringExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetRecurringExpense(ctx context.Context, id string) (core.RecurringExpense, error) {
	out, err := r.queryRecurring(ctx, `WHERE id = ?`, id)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	if len(out) == 0 {
		return core.RecurringExpense{}, ErrNotFound
	}
	return out[0], nil
}

func (r *SQLiteRepository) ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error) {
	return r.queryRecurring(ctx, `ORDER BY created_at ASC`)
}

func (r *SQLiteRepository) ListActiveRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error) {
	return r.queryRecurring(ctx, `WHERE active = 1`)
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, clause string, args ...any) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_minor, category_id, day_of_month, memo, active, months,
			created_at, updated_at
		FROM recurring_expenses `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer rows.Close()
	var out []core.RecurringExpense
	for rows.Next() {
		var re core.RecurringExpense
		var active int
		var months, created, updated string
		if err := rows.Scan(&re.ID, &re.Name, &re.Amount.Minor, &re.CategoryID,
			&re.DayOfMonth, &re.Memo, &active, &months, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		re.Active = active != 0
		re.Months = decodeMonths(months)
		re.CreatedAt = parseTimestamp(ctx, created, "created_at", re.ID)
		re.UpdatedAt = parseTimestamp(ctx, updated, "updated_at", re.ID)
		out = append(out, re)
	}
	return out, rows.Err()
}

// RecurringLastRun returns the zero time when the template never ran.
func (r *SQLiteRepository) RecurringLastRun(ctx context.Context, id string) (time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT last_run_at FROM recurring_expenses WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get recurring last run: %w", err)
	}
	return parseTimestamp(ctx, raw, "last_run_at", id), nil
}

func (r *SQLiteRepository) SetRecurringLastRun(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses SET last_run_at = ? WHERE id = ?`,
		formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("set recurring last run: %w", err)
	}
	return nil
}

// --- helpers ---

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Months are stored as a comma-separated list; empty means every month.
func encodeMonths(months []int) string {
	if len(months) == 0 {
		return ""
	}
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func decodeMonths(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if m, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, m)
		}
	}
	return out
}
