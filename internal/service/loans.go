package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Nadarsha111/kakeibo/internal/apperrors"
	"github.com/Nadarsha111/kakeibo/internal/database"
	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

// LoanRepaymentCategory is the category name income transactions posted by
// repayments carry. Seeded with the default categories.
const LoanRepaymentCategory = "Loan Repayment"

// LoanInput describes a new loan.
type LoanInput struct {
	BorrowerName       string
	BorrowerContact    *string
	Amount             decimal.Decimal
	LentDate           time.Time
	ExpectedReturnDate *time.Time
	Description        *string
	AccountID          *string
}

// LoanService tracks receivables through their lifecycle:
// active -> partially_paid -> fully_paid, with any open state able to fall
// into overdue once the expected return date passes.
type LoanService struct {
	db  *sql.DB
	log *slog.Logger

	loans *repository.LoanRepo
}

func NewLoanService(db *sql.DB, log *slog.Logger) *LoanService {
	return &LoanService{
		db:    db,
		log:   log,
		loans: repository.NewLoanRepo(db),
	}
}

// Create stores a loan in the active state. When an account is attached,
// the principal is debited from it in the same atomic unit, modeling the
// money leaving the owner's pocket.
func (s *LoanService) Create(ctx context.Context, in LoanInput) (string, error) {
	l := repository.Loan{
		ID:                 uuid.NewString(),
		BorrowerName:       in.BorrowerName,
		BorrowerContact:    in.BorrowerContact,
		Amount:             in.Amount,
		LentDate:           DateOnly(in.LentDate),
		ExpectedReturnDate: in.ExpectedReturnDate,
		ReturnedAmount:     decimal.Zero,
		Status:             repository.LoanActive,
		Description:        in.Description,
		AccountID:          in.AccountID,
	}
	if l.ExpectedReturnDate != nil {
		d := DateOnly(*l.ExpectedReturnDate)
		l.ExpectedReturnDate = &d
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewLoanRepo(tx).Insert(ctx, l); err != nil {
			return err
		}
		if l.AccountID != nil {
			return repository.NewAccountRepo(tx).ApplyDelta(ctx, *l.AccountID, l.Amount.Neg())
		}
		return nil
	})
	if err != nil {
		s.log.Error("create loan failed", "borrower", in.BorrowerName, "error", err)
		return "", err
	}
	return l.ID, nil
}

// RecordPayment applies a repayment. Overpayment is rejected, never
// clamped. On the transition to fully_paid the actual return date is set.
// When the loan has an account, an income transaction in the
// "Loan Repayment" category is posted and the account credited, in the
// same atomic unit as the loan update.
func (s *LoanService) RecordPayment(ctx context.Context, loanID string, payment decimal.Decimal, date time.Time) error {
	if payment.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		loans := repository.NewLoanRepo(tx)
		loan, err := loans.Get(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
		}

		newReturned := loan.ReturnedAmount.Add(payment)
		if newReturned.GreaterThan(loan.Amount) {
			return fmt.Errorf("%w: payment exceeds outstanding balance", apperrors.ErrValidation)
		}

		loan.ReturnedAmount = newReturned
		if newReturned.GreaterThanOrEqual(loan.Amount) {
			loan.Status = repository.LoanFullyPaid
			if loan.ActualReturnDate == nil {
				d := DateOnly(date)
				loan.ActualReturnDate = &d
			}
		} else {
			loan.Status = repository.LoanPartiallyPaid
		}
		if err := loans.Update(ctx, *loan); err != nil {
			return err
		}

		if loan.AccountID != nil {
			t := repository.Transaction{
				ID:            uuid.NewString(),
				Amount:        payment,
				Type:          repository.TypeIncome,
				Category:      LoanRepaymentCategory,
				Description:   "Repayment from " + loan.BorrowerName,
				Date:          DateOnly(date),
				PaymentMethod: repository.PaymentCash,
				AccountID:     loan.AccountID,
			}
			if err := repository.NewTransactionRepo(tx).Insert(ctx, t); err != nil {
				return err
			}
			return repository.NewAccountRepo(tx).ApplyDelta(ctx, *loan.AccountID, payment)
		}
		return nil
	})
	if err != nil {
		s.log.Error("record payment failed", "loan", loanID, "error", err)
	}
	return err
}

// MarkOverdueSweep flips open loans whose expected return date is strictly
// before today into overdue. Idempotent; intended to run on every app
// foreground or refresh.
func (s *LoanService) MarkOverdueSweep(ctx context.Context) (int64, error) {
	n, err := s.loans.MarkOverdue(ctx, DateOnly(database.Now()))
	if err != nil {
		s.log.Error("overdue sweep failed", "error", err)
		return 0, err
	}
	if n > 0 {
		s.log.Info("loans marked overdue", "count", n)
	}
	return n, nil
}

// Remove hard-deletes the loan row. Repayment transactions already posted
// are left in place.
func (s *LoanService) Remove(ctx context.Context, id string) error {
	if err := s.loans.Delete(ctx, id); err != nil {
		s.log.Error("remove loan failed", "id", id, "error", err)
		return err
	}
	return nil
}

func (s *LoanService) Get(ctx context.Context, id string) (*repository.Loan, error) {
	l, err := s.loans.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("loan %s: %w", id, apperrors.ErrNotFound)
	}
	return l, nil
}

func (s *LoanService) List(ctx context.Context) []repository.Loan {
	out, err := s.loans.List(ctx)
	if err != nil {
		s.log.Warn("list loans failed", "error", err)
		return nil
	}
	return out
}

// ByBorrower matches borrower names by substring.
func (s *LoanService) ByBorrower(ctx context.Context, name string) []repository.Loan {
	out, err := s.loans.ListByBorrower(ctx, name)
	if err != nil {
		s.log.Warn("loans by borrower failed", "error", err)
		return nil
	}
	return out
}

func (s *LoanService) ByAccount(ctx context.Context, accountID string) []repository.Loan {
	out, err := s.loans.ListByAccount(ctx, accountID)
	if err != nil {
		s.log.Warn("loans by account failed", "error", err)
		return nil
	}
	return out
}

// LoanSummary is the headline aggregate over all loans.
type LoanSummary struct {
	TotalLoaned      decimal.Decimal
	TotalReturned    decimal.Decimal
	TotalOutstanding decimal.Decimal
	OpenCount        int
	OverdueCount     int
}

func (s *LoanService) Summary(ctx context.Context) LoanSummary {
	t, err := s.loans.Totals(ctx)
	if err != nil {
		s.log.Warn("loan summary failed", "error", err)
		return LoanSummary{
			TotalLoaned:      decimal.Zero,
			TotalReturned:    decimal.Zero,
			TotalOutstanding: decimal.Zero,
		}
	}
	return LoanSummary{
		TotalLoaned:      t.TotalLoaned,
		TotalReturned:    t.TotalReturned,
		TotalOutstanding: t.TotalLoaned.Sub(t.TotalReturned),
		OpenCount:        t.OpenCount,
		OverdueCount:     t.OverdueCount,
	}
}

// UpcomingDue lists open loans expected back within the next withinDays
// days, soonest first.
func (s *LoanService) UpcomingDue(ctx context.Context, withinDays int) []repository.Loan {
	today := DateOnly(database.Now())
	out, err := s.loans.ListDueBetween(ctx, today, today.AddDate(0, 0, withinDays+1))
	if err != nil {
		s.log.Warn("upcoming due failed", "error", err)
		return nil
	}
	return out
}

// Borrower reliability ratings.
const (
	ReliabilityGood    = "good"
	ReliabilityWarning = "warning"
	ReliabilityPoor    = "poor"
)

// BorrowerReliability summarizes one borrower's repayment behaviour.
type BorrowerReliability struct {
	Borrower      string
	LoanCount     int
	TotalLoaned   decimal.Decimal
	TotalReturned decimal.Decimal
	RepaymentRate float64
	OverdueCount  int
	Rating        string
}

// Reliability derives a good/warning/poor rating for a borrower from their
// overall repayment rate. Any overdue loan caps the rating at warning.
func (s *LoanService) Reliability(ctx context.Context, borrower string) BorrowerReliability {
	rel := BorrowerReliability{
		Borrower:      borrower,
		TotalLoaned:   decimal.Zero,
		TotalReturned: decimal.Zero,
		Rating:        ReliabilityGood,
	}
	loans, err := s.loans.ListByBorrower(ctx, borrower)
	if err != nil {
		s.log.Warn("reliability lookup failed", "borrower", borrower, "error", err)
		return rel
	}
	for _, l := range loans {
		rel.LoanCount++
		rel.TotalLoaned = rel.TotalLoaned.Add(l.Amount)
		rel.TotalReturned = rel.TotalReturned.Add(l.ReturnedAmount)
		if l.Status == repository.LoanOverdue {
			rel.OverdueCount++
		}
	}
	if rel.LoanCount == 0 {
		return rel
	}
	if rel.TotalLoaned.IsPositive() {
		rel.RepaymentRate, _ = rel.TotalReturned.Div(rel.TotalLoaned).Float64()
	}
	switch {
	case rel.RepaymentRate < 0.40:
		rel.Rating = ReliabilityPoor
	case rel.RepaymentRate < 0.75 || rel.OverdueCount > 0:
		rel.Rating = ReliabilityWarning
	}
	return rel
}

// SimpleInterest computes principal * rate * days/365 for display purposes.
// Nothing derived here is persisted.
func SimpleInterest(principal decimal.Decimal, annualRatePercent float64, days int) decimal.Decimal {
	rate := decimal.NewFromFloat(annualRatePercent).Div(decimal.NewFromInt(100))
	fraction := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(365))
	return principal.Mul(rate).Mul(fraction).Round(2)
}
