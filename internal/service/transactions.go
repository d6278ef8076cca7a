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

// TransactionPatch carries partial transaction amendments; nil fields are
// untouched. ClearAccount and ClearPriority null the respective columns.
type TransactionPatch struct {
	Amount        *decimal.Decimal
	Type          *string
	Category      *string
	Description   *string
	Date          *time.Time
	PaymentMethod *string
	AccountID     *string
	ClearAccount  bool
	Priority      *string
	ClearPriority bool
}

// TransactionService posts, amends and voids transactions while keeping the
// owning account's balance in step. Every write that touches an account runs
// inside one atomic unit with the row write.
type TransactionService struct {
	db  *sql.DB
	log *slog.Logger

	transactions *repository.TransactionRepo
}

func NewTransactionService(db *sql.DB, log *slog.Logger) *TransactionService {
	return &TransactionService{
		db:           db,
		log:          log,
		transactions: repository.NewTransactionRepo(db),
	}
}

// Post inserts a transaction and, when an account is attached, applies its
// signed amount to that account's balance. Either both happen or neither.
func (s *TransactionService) Post(ctx context.Context, t repository.Transaction) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Date = DateOnly(t.Date)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewTransactionRepo(tx).Insert(ctx, t); err != nil {
			return err
		}
		if t.AccountID != nil {
			return repository.NewAccountRepo(tx).ApplyDelta(ctx, *t.AccountID, signedAmount(t.Type, t.Amount))
		}
		return nil
	})
	if err != nil {
		s.log.Error("post transaction failed", "category", t.Category, "error", err)
		return "", err
	}
	return t.ID, nil
}

// Amend reverses the existing row's balance effect, applies the patch, then
// applies the new effect, all inside one atomic unit. Updating the row
// without reversing first would silently corrupt balances.
func (s *TransactionService) Amend(ctx context.Context, id string, p TransactionPatch) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		transactions := repository.NewTransactionRepo(tx)
		accounts := repository.NewAccountRepo(tx)

		existing, err := transactions.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("transaction %s: %w", id, apperrors.ErrNotFound)
		}

		if existing.AccountID != nil {
			if err := accounts.ApplyDelta(ctx, *existing.AccountID, signedAmount(existing.Type, existing.Amount).Neg()); err != nil {
				return err
			}
		}

		updated := applyTransactionPatch(*existing, p)
		if err := transactions.Update(ctx, updated); err != nil {
			return err
		}

		if updated.AccountID != nil {
			if err := accounts.ApplyDelta(ctx, *updated.AccountID, signedAmount(updated.Type, updated.Amount)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("amend transaction failed", "id", id, "error", err)
	}
	return err
}

// Void reverses the row's balance effect and deletes it.
func (s *TransactionService) Void(ctx context.Context, id string) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		transactions := repository.NewTransactionRepo(tx)

		existing, err := transactions.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("transaction %s: %w", id, apperrors.ErrNotFound)
		}
		if existing.AccountID != nil {
			if err := repository.NewAccountRepo(tx).ApplyDelta(ctx, *existing.AccountID, signedAmount(existing.Type, existing.Amount).Neg()); err != nil {
				return err
			}
		}
		return transactions.Delete(ctx, id)
	})
	if err != nil {
		s.log.Error("void transaction failed", "id", id, "error", err)
	}
	return err
}

func applyTransactionPatch(t repository.Transaction, p TransactionPatch) repository.Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = DateOnly(*p.Date)
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	if p.ClearAccount {
		t.AccountID = nil
	} else if p.AccountID != nil {
		t.AccountID = p.AccountID
	}
	if p.ClearPriority {
		t.Priority = nil
	} else if p.Priority != nil {
		t.Priority = p.Priority
	}
	return t
}

// Get returns one transaction or ErrNotFound.
func (s *TransactionService) Get(ctx context.Context, id string) (*repository.Transaction, error) {
	t, err := s.transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("transaction %s: %w", id, apperrors.ErrNotFound)
	}
	return t, nil
}

// Read projections below return empty results on storage faults, with the
// cause logged; they never fail a screen.

func (s *TransactionService) ListByRange(ctx context.Context, start, end time.Time) []repository.Transaction {
	lo, hi := dayRange(start, end)
	out, err := s.transactions.ListByRange(ctx, lo, hi)
	if err != nil {
		s.log.Warn("list transactions failed", "error", err)
		return nil
	}
	return out
}

func (s *TransactionService) ListByAccount(ctx context.Context, accountID string) []repository.Transaction {
	out, err := s.transactions.ListByAccount(ctx, accountID)
	if err != nil {
		s.log.Warn("list by account failed", "account", accountID, "error", err)
		return nil
	}
	return out
}

func (s *TransactionService) ListByCategory(ctx context.Context, name string, start, end *time.Time) []repository.Transaction {
	lo, hi := optionalDayRange(start, end)
	out, err := s.transactions.ListByCategory(ctx, name, lo, hi)
	if err != nil {
		s.log.Warn("list by category failed", "category", name, "error", err)
		return nil
	}
	return out
}

func (s *TransactionService) Search(ctx context.Context, term string) []repository.Transaction {
	out, err := s.transactions.Search(ctx, term)
	if err != nil {
		s.log.Warn("search transactions failed", "error", err)
		return nil
	}
	return out
}

// ListRecent returns the newest transactions for dashboard display.
func (s *TransactionService) ListRecent(ctx context.Context, limit int) []repository.Transaction {
	out, err := s.transactions.ListRecent(ctx, limit)
	if err != nil {
		s.log.Warn("list recent failed", "error", err)
		return nil
	}
	return out
}

// SumByType totals one transaction type over an inclusive day range.
func (s *TransactionService) SumByType(ctx context.Context, txType string, start, end time.Time) decimal.Decimal {
	lo, hi := dayRange(start, end)
	total, err := s.transactions.SumByType(ctx, txType, lo, hi)
	if err != nil {
		s.log.Warn("sum by type failed", "type", txType, "error", err)
		return decimal.Zero
	}
	return total
}

// CategorySummary feeds pie/bar displays: expense totals per category with
// the category's color, largest first.
func (s *TransactionService) CategorySummary(ctx context.Context, start, end time.Time) []repository.CategorySpend {
	lo, hi := dayRange(start, end)
	out, err := s.transactions.CategorySummary(ctx, lo, hi)
	if err != nil {
		s.log.Warn("category summary failed", "error", err)
		return nil
	}
	return out
}

func (s *TransactionService) NeedWantSummary(ctx context.Context, start, end *time.Time) []repository.PriorityTotal {
	lo, hi := optionalDayRange(start, end)
	out, err := s.transactions.NeedWantSummary(ctx, lo, hi)
	if err != nil {
		s.log.Warn("need/want summary failed", "error", err)
		return nil
	}
	return out
}

func (s *TransactionService) NeedWantByCategory(ctx context.Context, start, end *time.Time) []repository.CategoryPriorityTotal {
	lo, hi := optionalDayRange(start, end)
	out, err := s.transactions.NeedWantByCategory(ctx, lo, hi)
	if err != nil {
		s.log.Warn("need/want by category failed", "error", err)
		return nil
	}
	return out
}

// Stats is the composite dashboard aggregate for a period.
type Stats struct {
	Count           int
	Income          decimal.Decimal
	Expense         decimal.Decimal
	Net             decimal.Decimal
	Average         decimal.Decimal
	ByPaymentMethod []repository.PaymentMethodTotal
}

// Stats derives count, totals, net, per-transaction average and the
// per-payment-method breakdown for an inclusive day range.
func (s *TransactionService) Stats(ctx context.Context, start, end time.Time) Stats {
	lo, hi := dayRange(start, end)
	var st Stats
	var err error
	if st.Count, err = s.transactions.Count(ctx, lo, hi); err != nil {
		s.log.Warn("stats count failed", "error", err)
		return Stats{}
	}
	if st.Income, err = s.transactions.SumByType(ctx, repository.TypeIncome, lo, hi); err != nil {
		s.log.Warn("stats income failed", "error", err)
		return Stats{}
	}
	if st.Expense, err = s.transactions.SumByType(ctx, repository.TypeExpense, lo, hi); err != nil {
		s.log.Warn("stats expense failed", "error", err)
		return Stats{}
	}
	st.Net = st.Income.Sub(st.Expense)
	if st.Count > 0 {
		st.Average = st.Income.Add(st.Expense).DivRound(decimal.NewFromInt(int64(st.Count)), 4)
	}
	if st.ByPaymentMethod, err = s.transactions.SumByPaymentMethod(ctx, lo, hi); err != nil {
		s.log.Warn("stats payment methods failed", "error", err)
		return Stats{}
	}
	return st
}
