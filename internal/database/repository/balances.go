package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceRepo handles monthly account balance snapshots.
type BalanceRepo struct {
	db DBTX
}

func NewBalanceRepo(db DBTX) *BalanceRepo { return &BalanceRepo{db: db} }

// Upsert writes a snapshot; a second write for the same (account, year,
// month) replaces the prior value.
func (r *BalanceRepo) Upsert(ctx context.Context, b MonthlyBalance) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO account_balance(id, account_id, year, month, closing_balance, last_updated)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(account_id, year, month) DO UPDATE SET
	 closing_balance=excluded.closing_balance,
	 last_updated=CURRENT_TIMESTAMP;
	`, b.ID, b.AccountID, b.Year, b.Month, b.ClosingBalance)
	return err
}

// SumForMonth totals snapshot balances for one period, along with the row
// count so callers can tell "no snapshots" from "snapshots summing to zero".
// Snapshots of inactive accounts are excluded from both.
func (r *BalanceRepo) SumForMonth(ctx context.Context, year, month int) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	row := r.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(ab.closing_balance), 0), COUNT(*)
	FROM account_balance ab
	JOIN accounts a ON a.id = ab.account_id
	WHERE ab.year = ? AND ab.month = ? AND a.is_active = 1;
	`, year, month)
	if err := row.Scan(&total, &count); err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}

// AccountSnapshot is an active account paired with its snapshot for one
// period, falling back to the live balance when no snapshot exists yet.
type AccountSnapshot struct {
	AccountID   string
	AccountName string
	Balance     decimal.Decimal
	Snapshotted bool
	LastUpdated *time.Time
}

func (r *BalanceRepo) ListForMonth(ctx context.Context, year, month int) ([]AccountSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT a.id, a.name, COALESCE(ab.closing_balance, a.balance),
	 ab.id IS NOT NULL, ab.last_updated
	FROM accounts a
	LEFT JOIN account_balance ab
	 ON ab.account_id = a.id AND ab.year = ? AND ab.month = ?
	WHERE a.is_active = 1
	ORDER BY a.name;
	`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountSnapshot
	for rows.Next() {
		var s AccountSnapshot
		var last sql.NullTime
		if err := rows.Scan(&s.AccountID, &s.AccountName, &s.Balance, &s.Snapshotted, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			s.LastUpdated = &last.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
