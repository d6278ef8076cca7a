package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Nadarsha111/kakeibo/internal/apperrors"
	"github.com/Nadarsha111/kakeibo/internal/database"
	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

// AccountService owns account lifecycle and balance queries. Balance
// mutation beyond creation goes through ApplyDelta only, and only from
// inside the atomic unit of the transaction or loan write causing it.
type AccountService struct {
	db  *sql.DB
	log *slog.Logger

	accounts *repository.AccountRepo
	balances *repository.BalanceRepo
}

func NewAccountService(db *sql.DB, log *slog.Logger) *AccountService {
	return &AccountService{
		db:       db,
		log:      log,
		accounts: repository.NewAccountRepo(db),
		balances: repository.NewBalanceRepo(db),
	}
}

// ListActive returns active accounts ordered by name. Storage faults are
// logged and produce an empty result; this read must never crash a caller.
func (s *AccountService) ListActive(ctx context.Context) []repository.Account {
	out, err := s.accounts.ListActive(ctx)
	if err != nil {
		s.log.Warn("list accounts failed", "error", err)
		return nil
	}
	return out
}

func (s *AccountService) Get(ctx context.Context, id string) (*repository.Account, error) {
	a, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
	}
	return a, nil
}

// Create stores a new active account. The initial balance is stored as
// given; it is not modeled as a transaction.
func (s *AccountService) Create(ctx context.Context, name, accountType string, balance decimal.Decimal, currency string, bankName, accountNumber *string) (string, error) {
	a := repository.Account{
		ID:            uuid.NewString(),
		Name:          name,
		Type:          accountType,
		Balance:       balance,
		Currency:      currency,
		BankName:      bankName,
		AccountNumber: accountNumber,
		IsActive:      true,
	}
	if err := s.accounts.Insert(ctx, a); err != nil {
		s.log.Error("create account failed", "name", name, "error", err)
		return "", err
	}
	return a.ID, nil
}

// Update applies only the fields present in the patch. Setting Balance here
// is a low-level capability distinct from transaction posting; callers must
// not use both paths for the same logical change.
func (s *AccountService) Update(ctx context.Context, id string, p repository.AccountPatch) error {
	if err := s.accounts.Update(ctx, id, p); err != nil {
		s.log.Error("update account failed", "id", id, "error", err)
		return err
	}
	return nil
}

// SoftDelete deactivates an account. Transactions and loans referencing it
// remain queryable for history.
func (s *AccountService) SoftDelete(ctx context.Context, id string) error {
	if err := s.accounts.SoftDelete(ctx, id); err != nil {
		s.log.Error("soft delete account failed", "id", id, "error", err)
		return err
	}
	return nil
}

// ApplyDelta adjusts an account balance by amount in the given direction
// (income credits, expense debits). Callers mutating other tables in the
// same logical operation must pass their open transaction as dbtx.
func (s *AccountService) ApplyDelta(ctx context.Context, dbtx repository.DBTX, id string, amount decimal.Decimal, direction string) error {
	return repository.NewAccountRepo(dbtx).ApplyDelta(ctx, id, signedAmount(direction, amount))
}

// TotalActiveBalance sums balances over active accounts.
func (s *AccountService) TotalActiveBalance(ctx context.Context) decimal.Decimal {
	total, err := s.accounts.TotalActiveBalance(ctx)
	if err != nil {
		s.log.Warn("total balance failed", "error", err)
		return decimal.Zero
	}
	return total
}

// CurrentPeriodBalance prefers this month's snapshot sum and falls back to
// the live total when no snapshot rows exist yet, so the dashboard has a
// sensible value before any snapshot has ever been written.
func (s *AccountService) CurrentPeriodBalance(ctx context.Context) decimal.Decimal {
	now := database.Now()
	total, count, err := s.balances.SumForMonth(ctx, now.Year(), int(now.Month()))
	if err != nil {
		s.log.Warn("period balance failed", "error", err)
		return decimal.Zero
	}
	if count == 0 {
		return s.TotalActiveBalance(ctx)
	}
	return total
}

// WriteMonthlySnapshot upserts the closing balance for one account and
// calendar month. Snapshots are caller-written, never derived at post time.
func (s *AccountService) WriteMonthlySnapshot(ctx context.Context, accountID string, year, month int, closingBalance decimal.Decimal) error {
	b := repository.MonthlyBalance{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Year:           year,
		Month:          month,
		ClosingBalance: closingBalance,
	}
	if err := s.balances.Upsert(ctx, b); err != nil {
		s.log.Error("write snapshot failed", "account", accountID, "year", year, "month", month, "error", err)
		return err
	}
	return nil
}

// MonthlySnapshots lists active accounts with their snapshot for the period,
// substituting the live balance for accounts not yet snapshotted.
func (s *AccountService) MonthlySnapshots(ctx context.Context, year, month int) []repository.AccountSnapshot {
	out, err := s.balances.ListForMonth(ctx, year, month)
	if err != nil {
		s.log.Warn("list snapshots failed", "year", year, "month", month, "error", err)
		return nil
	}
	return out
}
