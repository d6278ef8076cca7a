package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryPatch carries partial category updates; nil fields are untouched.
type CategoryPatch struct {
	Name        *string
	Color       *string
	Icon        *string
	Type        *string
	BudgetLimit *decimal.Decimal
}

// CategoryRepo handles categories.
type CategoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) *CategoryRepo {
	return &CategoryRepo{db: db}
}

const categoryColumns = "id, name, color, icon, type, budget_limit"

func (r *CategoryRepo) Insert(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, name, color, icon, type, budget_limit)
	VALUES (?, ?, ?, ?, ?, ?);
	`, c.ID, c.Name, c.Color, c.Icon, c.Type, nullDecimal(c.BudgetLimit))
	return err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*Category, error) {
	return r.one(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*Category, error) {
	return r.one(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name)
}

func (r *CategoryRepo) one(ctx context.Context, query string, arg interface{}) (*Category, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	c, err := scanCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Update(ctx context.Context, id string, p CategoryPatch) error {
	var set []string
	var args []interface{}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Color != nil {
		set = append(set, "color = ?")
		args = append(args, *p.Color)
	}
	if p.Icon != nil {
		set = append(set, "icon = ?")
		args = append(args, *p.Icon)
	}
	if p.Type != nil {
		set = append(set, "type = ?")
		args = append(args, *p.Type)
	}
	if p.BudgetLimit != nil {
		set = append(set, "budget_limit = ?")
		args = append(args, *p.BudgetLimit)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CategoryStats is a category joined with its transaction usage.
type CategoryStats struct {
	Category
	TxCount  int
	TxTotal  decimal.Decimal
	LastUsed *time.Time
}

// ListWithStats left-joins categories to transactions so zero-usage
// categories still appear, with an optional [start, end) window.
func (r *CategoryRepo) ListWithStats(ctx context.Context, start, end *time.Time) ([]CategoryStats, error) {
	join := `LEFT JOIN transactions t ON t.category = c.name`
	var args []interface{}
	if start != nil && end != nil {
		join += ` AND t.date >= ? AND t.date < ?`
		args = append(args, *start, *end)
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT c.id, c.name, c.color, c.icon, c.type, c.budget_limit,
	 COUNT(t.id), COALESCE(SUM(t.amount), 0), MAX(t.date)
	FROM categories c `+join+`
	GROUP BY c.id
	ORDER BY c.name;
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryStats
	for rows.Next() {
		var cs CategoryStats
		var limit decimal.NullDecimal
		// MAX() strips the column's declared type, so the driver hands the
		// timestamp back as raw text.
		var last sql.NullString
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.Color, &cs.Icon, &cs.Type, &limit,
			&cs.TxCount, &cs.TxTotal, &last); err != nil {
			return nil, err
		}
		if limit.Valid {
			cs.BudgetLimit = &limit.Decimal
		}
		if last.Valid {
			if ts, err := parseSQLiteTime(last.String); err == nil {
				cs.LastUsed = &ts
			}
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func parseSQLiteTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range sqliteTimeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func scanCategory(row scanner) (Category, error) {
	var c Category
	var limit decimal.NullDecimal
	if err := row.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.Type, &limit); err != nil {
		return Category{}, err
	}
	if limit.Valid {
		c.BudgetLimit = &limit.Decimal
	}
	return c, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
