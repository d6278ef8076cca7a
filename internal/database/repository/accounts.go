package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountPatch carries partial account updates; nil fields are untouched.
type AccountPatch struct {
	Name          *string
	Type          *string
	Balance       *decimal.Decimal
	Currency      *string
	BankName      *string
	AccountNumber *string
}

// AccountRepo handles accounts.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = "id, name, type, balance, currency, bank_name, account_number, is_active, created_at, updated_at"

func (r *AccountRepo) Insert(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, type, balance, currency, bank_name, account_number, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, a.ID, a.Name, a.Type, a.Balance, a.Currency, a.BankName, a.AccountNumber, a.IsActive)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListActive returns active accounts ordered by name.
func (r *AccountRepo) ListActive(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update applies only the fields present in the patch and always refreshes
// updated_at.
func (r *AccountRepo) Update(ctx context.Context, id string, p AccountPatch) error {
	var set []string
	var args []interface{}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Type != nil {
		set = append(set, "type = ?")
		args = append(args, *p.Type)
	}
	if p.Balance != nil {
		set = append(set, "balance = ?")
		args = append(args, *p.Balance)
	}
	if p.Currency != nil {
		set = append(set, "currency = ?")
		args = append(args, *p.Currency)
	}
	if p.BankName != nil {
		set = append(set, "bank_name = ?")
		args = append(args, *p.BankName)
	}
	if p.AccountNumber != nil {
		set = append(set, "account_number = ?")
		args = append(args, *p.AccountNumber)
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return err
}

// SoftDelete clears is_active; history referencing the account stays put.
func (r *AccountRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// ApplyDelta adjusts the balance by a signed amount. The only sanctioned
// balance mutation outside account creation; must run inside the same
// atomic unit as the transaction or loan write that triggers it.
func (r *AccountRepo) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, delta, id)
	return err
}

func (r *AccountRepo) TotalActiveBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE is_active = 1`)
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func scanAccount(row scanner) (Account, error) {
	var a Account
	var bank, number sql.NullString
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Balance, &a.Currency, &bank, &number,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	if bank.Valid {
		a.BankName = &bank.String
	}
	if number.Valid {
		a.AccountNumber = &number.String
	}
	return a, nil
}
