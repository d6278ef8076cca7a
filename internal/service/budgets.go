package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Nadarsha111/kakeibo/internal/apperrors"
	"github.com/Nadarsha111/kakeibo/internal/database"
	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

// BudgetService owns category and budget lifecycle plus the derived
// utilization aggregates. Utilization is always recomputed on read, never
// stored.
type BudgetService struct {
	db  *sql.DB
	log *slog.Logger

	categories   *repository.CategoryRepo
	budgets      *repository.BudgetRepo
	transactions *repository.TransactionRepo
}

func NewBudgetService(db *sql.DB, log *slog.Logger) *BudgetService {
	return &BudgetService{
		db:           db,
		log:          log,
		categories:   repository.NewCategoryRepo(db),
		budgets:      repository.NewBudgetRepo(db),
		transactions: repository.NewTransactionRepo(db),
	}
}

// CreateCategory stores a category; names are unique.
func (s *BudgetService) CreateCategory(ctx context.Context, c repository.Category) (string, error) {
	existing, err := s.categories.GetByName(ctx, c.Name)
	if err != nil {
		s.log.Error("category lookup failed", "name", c.Name, "error", err)
		return "", err
	}
	if existing != nil {
		return "", fmt.Errorf("category %q: %w", c.Name, apperrors.ErrDuplicate)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.categories.Insert(ctx, c); err != nil {
		s.log.Error("create category failed", "name", c.Name, "error", err)
		return "", err
	}
	return c.ID, nil
}

func (s *BudgetService) UpdateCategory(ctx context.Context, id string, p repository.CategoryPatch) error {
	if err := s.categories.Update(ctx, id, p); err != nil {
		s.log.Error("update category failed", "id", id, "error", err)
		return err
	}
	return nil
}

// DeleteCategory hard-deletes a category unless any transaction references
// its name or any budget references its id. The guard lives in code because
// transactions point at categories by name, not by foreign key.
func (s *BudgetService) DeleteCategory(ctx context.Context, id string) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		categories := repository.NewCategoryRepo(tx)
		cat, err := categories.Get(ctx, id)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %s: %w", id, apperrors.ErrNotFound)
		}
		txCount, err := repository.NewTransactionRepo(tx).CountByCategoryName(ctx, cat.Name)
		if err != nil {
			return err
		}
		budgetCount, err := repository.NewBudgetRepo(tx).CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if txCount > 0 || budgetCount > 0 {
			return fmt.Errorf("%w: category %q is referenced by %d transactions and %d budgets",
				apperrors.ErrValidation, cat.Name, txCount, budgetCount)
		}
		return categories.Delete(ctx, id)
	})
	if err != nil {
		s.log.Error("delete category failed", "id", id, "error", err)
	}
	return err
}

func (s *BudgetService) Categories(ctx context.Context) []repository.Category {
	out, err := s.categories.List(ctx)
	if err != nil {
		s.log.Warn("list categories failed", "error", err)
		return nil
	}
	return out
}

// CategoriesWithStats lists every category with its usage counts and totals
// for an optional inclusive day range; zero-usage categories are included.
func (s *BudgetService) CategoriesWithStats(ctx context.Context, start, end *time.Time) []repository.CategoryStats {
	lo, hi := optionalDayRange(start, end)
	out, err := s.categories.ListWithStats(ctx, lo, hi)
	if err != nil {
		s.log.Warn("category stats failed", "error", err)
		return nil
	}
	return out
}

// CreateBudget stores a spending ceiling for a category over an explicit
// date range.
func (s *BudgetService) CreateBudget(ctx context.Context, b repository.Budget) (string, error) {
	if b.Amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("%w: budget amount must be positive", apperrors.ErrValidation)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.StartDate = DateOnly(b.StartDate)
	b.EndDate = DateOnly(b.EndDate)
	if err := s.budgets.Insert(ctx, b); err != nil {
		s.log.Error("create budget failed", "category", b.CategoryID, "error", err)
		return "", err
	}
	return b.ID, nil
}

func (s *BudgetService) UpdateBudget(ctx context.Context, id string, p repository.BudgetPatch) error {
	if p.Amount != nil && p.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: budget amount must be positive", apperrors.ErrValidation)
	}
	if err := s.budgets.Update(ctx, id, p); err != nil {
		s.log.Error("update budget failed", "id", id, "error", err)
		return err
	}
	return nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, id string) error {
	if err := s.budgets.Delete(ctx, id); err != nil {
		s.log.Error("delete budget failed", "id", id, "error", err)
		return err
	}
	return nil
}

func (s *BudgetService) Budgets(ctx context.Context) []repository.Budget {
	out, err := s.budgets.List(ctx)
	if err != nil {
		s.log.Warn("list budgets failed", "error", err)
		return nil
	}
	return out
}

// BudgetPerformance is one budget's derived utilization for a query window.
type BudgetPerformance struct {
	Budget       repository.Budget
	CategoryName string
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	PercentUsed  float64
	OverBudget   bool
}

// Performance reports utilization for every budget overlapping the
// inclusive [start, end] window. Spend is summed over the intersection of
// the budget's own range with the window; summing over the full window
// would overstate spend for partial-period budgets.
func (s *BudgetService) Performance(ctx context.Context, start, end time.Time) []BudgetPerformance {
	start, end = DateOnly(start), DateOnly(end)
	budgets, err := s.budgets.ListOverlapping(ctx, start, end)
	if err != nil {
		s.log.Warn("budget performance failed", "error", err)
		return nil
	}
	var out []BudgetPerformance
	for _, b := range budgets {
		perf, err := s.performanceFor(ctx, b, start, end)
		if err != nil {
			s.log.Warn("budget performance failed", "budget", b.ID, "error", err)
			return nil
		}
		out = append(out, perf)
	}
	return out
}

func (s *BudgetService) performanceFor(ctx context.Context, b repository.Budget, start, end time.Time) (BudgetPerformance, error) {
	cat, err := s.categories.Get(ctx, b.CategoryID)
	if err != nil {
		return BudgetPerformance{}, err
	}
	name := ""
	if cat != nil {
		name = cat.Name
	}

	// intersection of the budget's own range with the query window
	lo := b.StartDate
	if start.After(lo) {
		lo = start
	}
	hi := b.EndDate
	if end.Before(hi) {
		hi = end
	}

	spent, err := s.transactions.SumExpenseByCategory(ctx, name, lo, hi.AddDate(0, 0, 1))
	if err != nil {
		return BudgetPerformance{}, err
	}
	perf := BudgetPerformance{
		Budget:       b,
		CategoryName: name,
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
		OverBudget:   spent.GreaterThan(b.Amount),
	}
	if b.Amount.IsPositive() {
		perf.PercentUsed, _ = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
	}
	return perf, nil
}

// Alerts returns the active budgets (range containing today) whose spend
// over their own full range exceeds the ceiling, worst overage first.
func (s *BudgetService) Alerts(ctx context.Context) []BudgetPerformance {
	today := DateOnly(database.Now())
	budgets, err := s.budgets.ListActive(ctx, today)
	if err != nil {
		s.log.Warn("budget alerts failed", "error", err)
		return nil
	}
	var out []BudgetPerformance
	for _, b := range budgets {
		perf, err := s.performanceFor(ctx, b, b.StartDate, b.EndDate)
		if err != nil {
			s.log.Warn("budget alerts failed", "budget", b.ID, "error", err)
			return nil
		}
		if perf.OverBudget {
			out = append(out, perf)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Spent.Sub(out[i].Budget.Amount).GreaterThan(out[j].Spent.Sub(out[j].Budget.Amount))
	})
	return out
}
