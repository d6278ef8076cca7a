package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Nadarsha111/kakeibo/internal/database"
	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func walletBalance(t *testing.T, ctx context.Context, accounts *AccountService, id string) repository.Account {
	t.Helper()
	a, err := accounts.Get(ctx, id)
	require.NoError(t, err)
	return *a
}

func TestPostAmendVoidConservesBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	accounts := NewAccountService(db, testLogger())
	svc := NewTransactionService(db, testLogger())

	walletID, err := accounts.Create(ctx, "Wallet", repository.AccountCash, dec("0"), "USD", nil, nil)
	require.NoError(t, err)

	txID, err := svc.Post(ctx, repository.Transaction{
		Amount:        dec("40"),
		Type:          repository.TypeExpense,
		Category:      "Food",
		Description:   "groceries",
		Date:          day(2026, 3, 10),
		PaymentMethod: repository.PaymentCash,
		AccountID:     &walletID,
	})
	require.NoError(t, err)
	requireAmount(t, "-40", walletBalance(t, ctx, accounts, walletID).Balance)

	amended := dec("25")
	require.NoError(t, svc.Amend(ctx, txID, TransactionPatch{Amount: &amended}))
	requireAmount(t, "-25", walletBalance(t, ctx, accounts, walletID).Balance)

	require.NoError(t, svc.Void(ctx, txID))
	requireAmount(t, "0", walletBalance(t, ctx, accounts, walletID).Balance)

	require.Empty(t, svc.ListByAccount(ctx, walletID))
}

func TestAmendMovesBetweenAccounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	accounts := NewAccountService(db, testLogger())
	svc := NewTransactionService(db, testLogger())

	aID, err := accounts.Create(ctx, "A", repository.AccountCash, dec("100"), "USD", nil, nil)
	require.NoError(t, err)
	bID, err := accounts.Create(ctx, "B", repository.AccountCash, dec("100"), "USD", nil, nil)
	require.NoError(t, err)

	txID, err := svc.Post(ctx, repository.Transaction{
		Amount:    dec("10"),
		Type:      repository.TypeExpense,
		Category:  "Transport",
		Date:      day(2026, 3, 1),
		AccountID: &aID,
	})
	require.NoError(t, err)
	requireAmount(t, "90", walletBalance(t, ctx, accounts, aID).Balance)

	// moving the transaction restores A and charges B
	require.NoError(t, svc.Amend(ctx, txID, TransactionPatch{AccountID: &bID}))
	requireAmount(t, "100", walletBalance(t, ctx, accounts, aID).Balance)
	requireAmount(t, "90", walletBalance(t, ctx, accounts, bID).Balance)

	// flipping expense to income swings the balance both ways
	income := repository.TypeIncome
	require.NoError(t, svc.Amend(ctx, txID, TransactionPatch{Type: &income}))
	requireAmount(t, "110", walletBalance(t, ctx, accounts, bID).Balance)

	// detaching the account reverses the effect and leaves both untouched after
	require.NoError(t, svc.Amend(ctx, txID, TransactionPatch{ClearAccount: true}))
	requireAmount(t, "100", walletBalance(t, ctx, accounts, aID).Balance)
	requireAmount(t, "100", walletBalance(t, ctx, accounts, bID).Balance)
}

func TestReadProjections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))
	svc := NewTransactionService(db, testLogger())

	post := func(amount, txType, category, desc string, d time.Time, method string, priority *string) {
		t.Helper()
		_, err := svc.Post(ctx, repository.Transaction{
			Amount:        dec(amount),
			Type:          txType,
			Category:      category,
			Description:   desc,
			Date:          d,
			PaymentMethod: method,
			Priority:      priority,
		})
		require.NoError(t, err)
	}

	post("1000", repository.TypeIncome, "Salary", "march pay", day(2026, 3, 1), repository.PaymentDebitCard, nil)
	post("40", repository.TypeExpense, "Food", "ramen night", day(2026, 3, 5), repository.PaymentCash, strPtr(repository.PriorityNeed))
	post("60", repository.TypeExpense, "Food", "sushi", day(2026, 3, 15), repository.PaymentCreditCard, strPtr(repository.PriorityWant))
	post("30", repository.TypeExpense, "Transport", "train card", day(2026, 3, 31), repository.PaymentCash, nil)
	post("99", repository.TypeExpense, "Food", "april feast", day(2026, 4, 2), repository.PaymentCash, nil)

	// inclusive day range
	march := svc.ListByRange(ctx, day(2026, 3, 1), day(2026, 3, 31))
	require.Len(t, march, 4)

	food := svc.ListByCategory(ctx, "Food", ptrTime(day(2026, 3, 1)), ptrTime(day(2026, 3, 31)))
	require.Len(t, food, 2)

	require.Len(t, svc.Search(ctx, "ramen"), 1)
	require.Len(t, svc.Search(ctx, "Transp"), 1) // category match

	requireAmount(t, "1000", svc.SumByType(ctx, repository.TypeIncome, day(2026, 3, 1), day(2026, 3, 31)))
	requireAmount(t, "130", svc.SumByType(ctx, repository.TypeExpense, day(2026, 3, 1), day(2026, 3, 31)))

	recent := svc.ListRecent(ctx, 2)
	require.Len(t, recent, 2)
	require.Equal(t, "april feast", recent[0].Description)

	summary := svc.CategorySummary(ctx, day(2026, 3, 1), day(2026, 3, 31))
	require.Len(t, summary, 2)
	require.Equal(t, "Food", summary[0].Category) // largest first
	requireAmount(t, "100", summary[0].Total)
	require.Equal(t, "#fab387", summary[0].Color) // joined from seeded category
	require.Equal(t, "Transport", summary[1].Category)

	stats := svc.Stats(ctx, day(2026, 3, 1), day(2026, 3, 31))
	require.Equal(t, 4, stats.Count)
	requireAmount(t, "1000", stats.Income)
	requireAmount(t, "130", stats.Expense)
	requireAmount(t, "870", stats.Net)
	requireAmount(t, "282.5", stats.Average)
	require.Len(t, stats.ByPaymentMethod, 3)
}

func TestNeedWantExcludesUnprioritized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewTransactionService(db, testLogger())

	post := func(amount string, priority *string) {
		t.Helper()
		_, err := svc.Post(ctx, repository.Transaction{
			Amount:   dec(amount),
			Type:     repository.TypeExpense,
			Category: "Food",
			Date:     day(2026, 3, 10),
			Priority: priority,
		})
		require.NoError(t, err)
	}
	post("10", strPtr(repository.PriorityNeed))
	post("20", strPtr(repository.PriorityWant))
	post("30", nil) // no priority: excluded, not coerced

	// income never enters the need/want breakdown
	_, err := svc.Post(ctx, repository.Transaction{
		Amount: dec("500"), Type: repository.TypeIncome, Category: "Salary", Date: day(2026, 3, 10),
	})
	require.NoError(t, err)

	totals := svc.NeedWantSummary(ctx, nil, nil)
	require.Len(t, totals, 2)
	sum := dec("0")
	for _, pt := range totals {
		sum = sum.Add(pt.Total)
	}
	requireAmount(t, "30", sum)

	byCat := svc.NeedWantByCategory(ctx, nil, nil)
	require.Len(t, byCat, 2)
	for _, row := range byCat {
		require.Equal(t, "Food", row.Category)
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewTransactionService(db, testLogger())

	post := func(desc string) {
		_, err := svc.Post(ctx, repository.Transaction{
			Amount: dec("10"), Type: repository.TypeExpense, Category: "Shopping",
			Description: desc, Date: day(2026, 3, 5), PaymentMethod: repository.PaymentCash,
		})
		require.NoError(t, err)
	}
	post("50% off sale")
	post("500 groceries")
	post("a_b hardware")
	post("axb hardware")

	got := svc.Search(ctx, "50%")
	require.Len(t, got, 1)
	require.Equal(t, "50% off sale", got[0].Description)

	got = svc.Search(ctx, "a_b")
	require.Len(t, got, 1)
	require.Equal(t, "a_b hardware", got[0].Description)
}

func ptrTime(t time.Time) *time.Time { return &t }
