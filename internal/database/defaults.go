package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

var defaultCategories = []struct {
	name  string
	color string
	icon  string
	ctype string
}{
	{"Food", "#fab387", "🍜", repository.TypeExpense},
	{"Groceries", "#94e2d5", "🛒", repository.TypeExpense},
	{"Transport", "#89b4fa", "🚌", repository.TypeExpense},
	{"Shopping", "#f2cdcd", "🛍", repository.TypeExpense},
	{"Bills & Utilities", "#cba6f7", "💡", repository.TypeExpense},
	{"Entertainment", "#f5c2e7", "🎬", repository.TypeExpense},
	{"Health", "#74c7ec", "🏥", repository.TypeExpense},
	{"Education", "#b4befe", "📚", repository.TypeExpense},
	{"Other Expense", "#7f849c", "📦", repository.TypeExpense},
	{"Salary", "#a6e3a1", "💴", repository.TypeIncome},
	{"Business", "#f9e2af", "💼", repository.TypeIncome},
	{"Loan Repayment", "#a6e3a1", "🤝", repository.TypeIncome},
	{"Other Income", "#a6adc8", "💰", repository.TypeIncome},
}

// SeedDefaults ensures baseline categories exist for new databases.
// It is idempotent: once any category exists, it does nothing, so user
// edits and deletions are never fought.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err == nil && len(existing) > 0 {
		return nil
	}
	for _, dc := range defaultCategories {
		c := repository.Category{
			ID:    uuid.NewString(),
			Name:  dc.name,
			Color: dc.color,
			Icon:  dc.icon,
			Type:  dc.ctype,
		}
		if err := catRepo.Insert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
