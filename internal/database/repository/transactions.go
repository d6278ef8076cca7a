package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRepo handles transactions. All range arguments are half-open
// [start, end); callers translate inclusive day ranges before calling.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = "id, amount, type, category, description, date, payment_method, account_id, priority, created_at, updated_at"

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(id, amount, type, category, description, date, payment_method, account_id, priority, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, t.ID, t.Amount, t.Type, t.Category, t.Description, t.Date, nullableStr(t.PaymentMethod), t.AccountID, t.Priority)
	return err
}

// Update rewrites every mutable column. Amend-style callers load the row,
// reverse its old balance effect, then write the merged result through here.
func (r *TransactionRepo) Update(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET amount = ?, type = ?, category = ?, description = ?, date = ?,
	 payment_method = ?, account_id = ?, priority = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		t.Amount, t.Type, t.Category, t.Description, t.Date,
		nullableStr(t.PaymentMethod), t.AccountID, t.Priority, t.ID)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) ListByRange(ctx context.Context, start, end time.Time) ([]Transaction, error) {
	return r.list(ctx, `WHERE date >= ? AND date < ? ORDER BY date DESC, created_at DESC`, start, end)
}

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	return r.list(ctx, `WHERE account_id = ? ORDER BY date DESC, created_at DESC`, accountID)
}

// ListByCategory filters by category name with an optional date range.
func (r *TransactionRepo) ListByCategory(ctx context.Context, name string, start, end *time.Time) ([]Transaction, error) {
	where := []string{"category = ?"}
	args := []interface{}{name}
	if start != nil {
		where = append(where, "date >= ?")
		args = append(args, *start)
	}
	if end != nil {
		where = append(where, "date < ?")
		args = append(args, *end)
	}
	return r.list(ctx, `WHERE `+strings.Join(where, " AND ")+` ORDER BY date DESC, created_at DESC`, args...)
}

func (r *TransactionRepo) Search(ctx context.Context, term string) ([]Transaction, error) {
	like := likeContains(term)
	return r.list(ctx,
		`WHERE description LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\' ORDER BY date DESC, created_at DESC`,
		like, like)
}

func (r *TransactionRepo) ListRecent(ctx context.Context, limit int) ([]Transaction, error) {
	return r.list(ctx, `ORDER BY date DESC, created_at DESC LIMIT ?`, limit)
}

func (r *TransactionRepo) list(ctx context.Context, tail string, args ...interface{}) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) SumByType(ctx context.Context, txType string, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = ? AND date >= ? AND date < ?`,
		txType, start, end)
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *TransactionRepo) Count(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE date >= ? AND date < ?`, start, end)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CategorySpend is one slice of the expense-by-category breakdown.
type CategorySpend struct {
	Category string
	Color    string
	Total    decimal.Decimal
}

// CategorySummary sums expenses per category, joined to the category's
// display color, largest first. Categories are matched by name.
func (r *TransactionRepo) CategorySummary(ctx context.Context, start, end time.Time) ([]CategorySpend, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT t.category, COALESCE(c.color, '#7f849c'), SUM(t.amount) AS total
	FROM transactions t
	LEFT JOIN categories c ON c.name = t.category
	WHERE t.type = 'expense' AND t.date >= ? AND t.date < ?
	GROUP BY t.category
	ORDER BY total DESC;
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategorySpend
	for rows.Next() {
		var cs CategorySpend
		if err := rows.Scan(&cs.Category, &cs.Color, &cs.Total); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// PaymentMethodTotal is one row of the per-method breakdown.
type PaymentMethodTotal struct {
	Method string
	Total  decimal.Decimal
	Count  int
}

func (r *TransactionRepo) SumByPaymentMethod(ctx context.Context, start, end time.Time) ([]PaymentMethodTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT COALESCE(payment_method, ''), SUM(amount), COUNT(*)
	FROM transactions
	WHERE date >= ? AND date < ?
	GROUP BY payment_method;
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PaymentMethodTotal
	for rows.Next() {
		var pt PaymentMethodTotal
		if err := rows.Scan(&pt.Method, &pt.Total, &pt.Count); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

// PriorityTotal is one row of the need/want breakdown. Expense rows with no
// priority set are excluded, not coerced into either bucket.
type PriorityTotal struct {
	Priority string
	Total    decimal.Decimal
	Count    int
}

func (r *TransactionRepo) NeedWantSummary(ctx context.Context, start, end *time.Time) ([]PriorityTotal, error) {
	where, args := priorityWhere(start, end)
	rows, err := r.db.QueryContext(ctx, `
	SELECT priority, SUM(amount), COUNT(*)
	FROM transactions `+where+`
	GROUP BY priority;
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PriorityTotal
	for rows.Next() {
		var pt PriorityTotal
		if err := rows.Scan(&pt.Priority, &pt.Total, &pt.Count); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

// CategoryPriorityTotal is one row of the per-category need/want breakdown.
type CategoryPriorityTotal struct {
	Category string
	Priority string
	Total    decimal.Decimal
	Count    int
}

func (r *TransactionRepo) NeedWantByCategory(ctx context.Context, start, end *time.Time) ([]CategoryPriorityTotal, error) {
	where, args := priorityWhere(start, end)
	rows, err := r.db.QueryContext(ctx, `
	SELECT category, priority, SUM(amount), COUNT(*)
	FROM transactions `+where+`
	GROUP BY category, priority
	ORDER BY category;
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryPriorityTotal
	for rows.Next() {
		var ct CategoryPriorityTotal
		if err := rows.Scan(&ct.Category, &ct.Priority, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func priorityWhere(start, end *time.Time) (string, []interface{}) {
	where := []string{"type = 'expense'", "priority IS NOT NULL"}
	var args []interface{}
	if start != nil {
		where = append(where, "date >= ?")
		args = append(args, *start)
	}
	if end != nil {
		where = append(where, "date < ?")
		args = append(args, *end)
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// SumExpenseByCategory totals expense amounts for one category name within
// [start, end). Feeds budget utilization.
func (r *TransactionRepo) SumExpenseByCategory(ctx context.Context, name string, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'expense' AND category = ? AND date >= ? AND date < ?`,
		name, start, end)
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CountByCategoryName counts rows referencing a category name. Used by the
// category delete guard.
func (r *TransactionRepo) CountByCategoryName(ctx context.Context, name string) (int, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category = ?`, name)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var method sql.NullString
	var account, priority sql.NullString
	if err := row.Scan(&t.ID, &t.Amount, &t.Type, &t.Category, &t.Description, &t.Date,
		&method, &account, &priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	if method.Valid {
		t.PaymentMethod = method.String
	}
	if account.Valid {
		t.AccountID = &account.String
	}
	if priority.Valid {
		t.Priority = &priority.String
	}
	return t, nil
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
