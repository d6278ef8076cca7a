package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// LoanRepo handles loans.
type LoanRepo struct {
	db DBTX
}

func NewLoanRepo(db DBTX) *LoanRepo { return &LoanRepo{db: db} }

const loanColumns = "id, borrower_name, borrower_contact, amount, lent_date, expected_return_date, actual_return_date, returned_amount, status, description, account_id, created_at, updated_at"

func (r *LoanRepo) Insert(ctx context.Context, l Loan) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO loans(id, borrower_name, borrower_contact, amount, lent_date, expected_return_date,
	 actual_return_date, returned_amount, status, description, account_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, l.ID, l.BorrowerName, l.BorrowerContact, l.Amount, l.LentDate, l.ExpectedReturnDate,
		l.ActualReturnDate, l.ReturnedAmount, l.Status, l.Description, l.AccountID)
	return err
}

// Update rewrites every mutable column. Repayment callers load the row,
// adjust returned_amount and status, then write the result through here.
func (r *LoanRepo) Update(ctx context.Context, l Loan) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE loans SET borrower_name = ?, borrower_contact = ?, amount = ?, lent_date = ?,
	 expected_return_date = ?, actual_return_date = ?, returned_amount = ?, status = ?,
	 description = ?, account_id = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		l.BorrowerName, l.BorrowerContact, l.Amount, l.LentDate,
		l.ExpectedReturnDate, l.ActualReturnDate, l.ReturnedAmount, l.Status,
		l.Description, l.AccountID, l.ID)
	return err
}

func (r *LoanRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	return err
}

func (r *LoanRepo) Get(ctx context.Context, id string) (*Loan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	l, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepo) List(ctx context.Context) ([]Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY lent_date DESC`)
}

func (r *LoanRepo) ListByBorrower(ctx context.Context, name string) ([]Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE borrower_name LIKE ? ESCAPE '\' ORDER BY lent_date DESC`,
		likeContains(name))
}

func (r *LoanRepo) ListByAccount(ctx context.Context, accountID string) ([]Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE account_id = ? ORDER BY lent_date DESC`,
		accountID)
}

// ListDueBetween returns open loans expected back within [start, end).
func (r *LoanRepo) ListDueBetween(ctx context.Context, start, end time.Time) ([]Loan, error) {
	return r.list(ctx, `
	SELECT `+loanColumns+` FROM loans
	WHERE status IN ('active', 'partially_paid')
	 AND expected_return_date IS NOT NULL
	 AND expected_return_date >= ? AND expected_return_date < ?
	ORDER BY expected_return_date`,
		start, end)
}

func (r *LoanRepo) list(ctx context.Context, query string, args ...interface{}) ([]Loan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MarkOverdue flips every open loan whose expected return date lies strictly
// before today. Idempotent; returns the number of rows changed.
func (r *LoanRepo) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE loans SET status = 'overdue', updated_at = CURRENT_TIMESTAMP
	WHERE status IN ('active', 'partially_paid')
	 AND expected_return_date IS NOT NULL
	 AND expected_return_date < ?`,
		today)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LoanTotals is the aggregate over all loans.
type LoanTotals struct {
	TotalLoaned   decimal.Decimal
	TotalReturned decimal.Decimal
	OpenCount     int
	OverdueCount  int
}

func (r *LoanRepo) Totals(ctx context.Context) (LoanTotals, error) {
	var t LoanTotals
	row := r.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(returned_amount), 0),
	 COALESCE(SUM(status IN ('active', 'partially_paid')), 0),
	 COALESCE(SUM(status = 'overdue'), 0)
	FROM loans`)
	if err := row.Scan(&t.TotalLoaned, &t.TotalReturned, &t.OpenCount, &t.OverdueCount); err != nil {
		return LoanTotals{}, err
	}
	return t, nil
}

func scanLoan(row scanner) (Loan, error) {
	var l Loan
	var contact, description, account sql.NullString
	var expected, actual sql.NullTime
	if err := row.Scan(&l.ID, &l.BorrowerName, &contact, &l.Amount, &l.LentDate,
		&expected, &actual, &l.ReturnedAmount, &l.Status, &description, &account,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return Loan{}, err
	}
	if contact.Valid {
		l.BorrowerContact = &contact.String
	}
	if expected.Valid {
		l.ExpectedReturnDate = &expected.Time
	}
	if actual.Valid {
		l.ActualReturnDate = &actual.Time
	}
	if description.Valid {
		l.Description = &description.String
	}
	if account.Valid {
		l.AccountID = &account.String
	}
	return l, nil
}
