package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPatch carries partial budget updates; nil fields are untouched.
type BudgetPatch struct {
	CategoryID *string
	Amount     *decimal.Decimal
	Period     *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// BudgetRepo handles budgets.
type BudgetRepo struct {
	db DBTX
}

func NewBudgetRepo(db DBTX) *BudgetRepo {
	return &BudgetRepo{db: db}
}

const budgetColumns = "id, category_id, amount, period, start_date, end_date"

func (r *BudgetRepo) Insert(ctx context.Context, b Budget) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO budgets(id, category_id, amount, period, start_date, end_date)
	VALUES (?, ?, ?, ?, ?, ?);
	`, b.ID, b.CategoryID, b.Amount, b.Period, b.StartDate, b.EndDate)
	return err
}

func (r *BudgetRepo) Get(ctx context.Context, id string) (*Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepo) List(ctx context.Context) ([]Budget, error) {
	return r.list(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY start_date`)
}

// ListOverlapping returns budgets whose own range intersects [start, end].
func (r *BudgetRepo) ListOverlapping(ctx context.Context, start, end time.Time) ([]Budget, error) {
	return r.list(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE start_date <= ? AND end_date >= ? ORDER BY start_date`,
		end, start)
}

// ListActive returns budgets whose range contains the given day.
func (r *BudgetRepo) ListActive(ctx context.Context, day time.Time) ([]Budget, error) {
	return r.list(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE start_date <= ? AND end_date >= ? ORDER BY start_date`,
		day, day)
}

func (r *BudgetRepo) list(ctx context.Context, query string, args ...interface{}) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BudgetRepo) Update(ctx context.Context, id string, p BudgetPatch) error {
	var set []string
	var args []interface{}
	if p.CategoryID != nil {
		set = append(set, "category_id = ?")
		args = append(args, *p.CategoryID)
	}
	if p.Amount != nil {
		set = append(set, "amount = ?")
		args = append(args, *p.Amount)
	}
	if p.Period != nil {
		set = append(set, "period = ?")
		args = append(args, *p.Period)
	}
	if p.StartDate != nil {
		set = append(set, "start_date = ?")
		args = append(args, *p.StartDate)
	}
	if p.EndDate != nil {
		set = append(set, "end_date = ?")
		args = append(args, *p.EndDate)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, `UPDATE budgets SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return err
}

func (r *BudgetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return err
}

// CountByCategory counts budgets referencing a category id. Used by the
// category delete guard.
func (r *BudgetRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE category_id = ?`, categoryID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanBudget(row scanner) (Budget, error) {
	var b Budget
	if err := row.Scan(&b.ID, &b.CategoryID, &b.Amount, &b.Period, &b.StartDate, &b.EndDate); err != nil {
		return Budget{}, err
	}
	return b, nil
}
