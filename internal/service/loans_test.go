package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Nadarsha111/kakeibo/internal/apperrors"
	"github.com/Nadarsha111/kakeibo/internal/database"
	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

func TestLoanFullRepayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewLoanService(db, testLogger())

	id, err := svc.Create(ctx, LoanInput{
		BorrowerName: "Alex",
		Amount:       dec("500"),
		LentDate:     day(2026, 1, 10),
	})
	require.NoError(t, err)

	require.NoError(t, svc.RecordPayment(ctx, id, dec("500"), day(2026, 2, 1)))

	loan, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, repository.LoanFullyPaid, loan.Status)
	requireAmount(t, "500", loan.ReturnedAmount)
	require.NotNil(t, loan.ActualReturnDate)
	require.True(t, loan.ActualReturnDate.Equal(day(2026, 2, 1)))

	summary := svc.Summary(ctx)
	requireAmount(t, "0", summary.TotalOutstanding)
	require.Equal(t, 0, summary.OpenCount)

	// any further payment is an overpayment
	err = svc.RecordPayment(ctx, id, dec("1"), day(2026, 2, 2))
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoanPartialThenOverpaymentRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewLoanService(db, testLogger())

	id, err := svc.Create(ctx, LoanInput{
		BorrowerName: "Mori",
		Amount:       dec("500"),
		LentDate:     day(2026, 1, 1),
	})
	require.NoError(t, err)

	require.NoError(t, svc.RecordPayment(ctx, id, dec("200"), day(2026, 1, 20)))
	loan, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, repository.LoanPartiallyPaid, loan.Status)
	require.Nil(t, loan.ActualReturnDate)

	// 400 exceeds the 300 outstanding; returnedAmount must not move
	err = svc.RecordPayment(ctx, id, dec("400"), day(2026, 1, 21))
	require.ErrorIs(t, err, apperrors.ErrValidation)
	loan, err = svc.Get(ctx, id)
	require.NoError(t, err)
	requireAmount(t, "200", loan.ReturnedAmount)
	require.Equal(t, repository.LoanPartiallyPaid, loan.Status)

	summary := svc.Summary(ctx)
	requireAmount(t, "500", summary.TotalLoaned)
	requireAmount(t, "200", summary.TotalReturned)
	requireAmount(t, "300", summary.TotalOutstanding)
	require.Equal(t, 1, summary.OpenCount)
}

func TestNonPositivePaymentRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewLoanService(db, testLogger())

	id, err := svc.Create(ctx, LoanInput{BorrowerName: "Kim", Amount: dec("100"), LentDate: day(2026, 1, 1)})
	require.NoError(t, err)

	require.ErrorIs(t, svc.RecordPayment(ctx, id, dec("0"), day(2026, 1, 2)), apperrors.ErrValidation)
	require.ErrorIs(t, svc.RecordPayment(ctx, id, dec("-5"), day(2026, 1, 2)), apperrors.ErrValidation)
}

func TestLoanAccountFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))
	accounts := NewAccountService(db, testLogger())
	transactions := NewTransactionService(db, testLogger())
	svc := NewLoanService(db, testLogger())

	acctID, err := accounts.Create(ctx, "Bank", repository.AccountChecking, dec("1000"), "USD", nil, nil)
	require.NoError(t, err)

	// creation debits the account as the money leaves the owner's pocket
	loanID, err := svc.Create(ctx, LoanInput{
		BorrowerName: "Alex",
		Amount:       dec("300"),
		LentDate:     day(2026, 1, 1),
		AccountID:    &acctID,
	})
	require.NoError(t, err)
	requireAmount(t, "700", walletBalance(t, ctx, accounts, acctID).Balance)

	// repayment credits the account and records an income transaction
	require.NoError(t, svc.RecordPayment(ctx, loanID, dec("100"), day(2026, 2, 1)))
	requireAmount(t, "800", walletBalance(t, ctx, accounts, acctID).Balance)

	posted := transactions.ListByAccount(ctx, acctID)
	require.Len(t, posted, 1)
	require.Equal(t, repository.TypeIncome, posted[0].Type)
	require.Equal(t, LoanRepaymentCategory, posted[0].Category)
	requireAmount(t, "100", posted[0].Amount)

	require.Len(t, svc.ByAccount(ctx, acctID), 1)

	// removing the loan does not reverse the repayment history
	require.NoError(t, svc.Remove(ctx, loanID))
	require.Len(t, transactions.ListByAccount(ctx, acctID), 1)
	requireAmount(t, "800", walletBalance(t, ctx, accounts, acctID).Balance)
}

func TestOverdueSweepIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewLoanService(db, testLogger())

	yesterday := DateOnly(time.Now().UTC()).AddDate(0, 0, -1)
	nextWeek := DateOnly(time.Now().UTC()).AddDate(0, 0, 7)

	lateID, err := svc.Create(ctx, LoanInput{
		BorrowerName:       "Late",
		Amount:             dec("100"),
		LentDate:           yesterday.AddDate(0, -1, 0),
		ExpectedReturnDate: &yesterday,
	})
	require.NoError(t, err)
	onTimeID, err := svc.Create(ctx, LoanInput{
		BorrowerName:       "OnTime",
		Amount:             dec("100"),
		LentDate:           yesterday,
		ExpectedReturnDate: &nextWeek,
	})
	require.NoError(t, err)

	// a fully paid loan with a past due date never becomes overdue
	paidID, err := svc.Create(ctx, LoanInput{
		BorrowerName:       "Paid",
		Amount:             dec("50"),
		LentDate:           yesterday.AddDate(0, -1, 0),
		ExpectedReturnDate: &yesterday,
	})
	require.NoError(t, err)
	require.NoError(t, svc.RecordPayment(ctx, paidID, dec("50"), yesterday))

	n, err := svc.MarkOverdueSweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	late, err := svc.Get(ctx, lateID)
	require.NoError(t, err)
	require.Equal(t, repository.LoanOverdue, late.Status)
	onTime, err := svc.Get(ctx, onTimeID)
	require.NoError(t, err)
	require.Equal(t, repository.LoanActive, onTime.Status)
	paid, err := svc.Get(ctx, paidID)
	require.NoError(t, err)
	require.Equal(t, repository.LoanFullyPaid, paid.Status)

	// second sweep finds nothing new
	n, err = svc.MarkOverdueSweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	summary := svc.Summary(ctx)
	require.Equal(t, 1, summary.OverdueCount)
	require.Equal(t, 1, summary.OpenCount)

	due := svc.UpcomingDue(ctx, 10)
	require.Len(t, due, 1)
	require.Equal(t, onTimeID, due[0].ID)
}

func TestBorrowerReliability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewLoanService(db, testLogger())

	id1, err := svc.Create(ctx, LoanInput{BorrowerName: "Sato", Amount: dec("100"), LentDate: day(2026, 1, 1)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, LoanInput{BorrowerName: "Sato", Amount: dec("100"), LentDate: day(2026, 2, 1)})
	require.NoError(t, err)

	rel := svc.Reliability(ctx, "Sato")
	require.Equal(t, 2, rel.LoanCount)
	require.Equal(t, ReliabilityPoor, rel.Rating)

	require.NoError(t, svc.RecordPayment(ctx, id1, dec("100"), day(2026, 3, 1)))
	rel = svc.Reliability(ctx, "Sato")
	require.InDelta(t, 0.5, rel.RepaymentRate, 0.001)
	require.Equal(t, ReliabilityWarning, rel.Rating)

	// substring match reaches the same borrower
	require.Len(t, svc.ByBorrower(ctx, "Sat"), 2)
}

func TestByBorrowerMatchesLiterally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewLoanService(db, testLogger())

	_, err := svc.Create(ctx, LoanInput{BorrowerName: "Mr_Smith", Amount: dec("10"), LentDate: day(2026, 1, 1)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, LoanInput{BorrowerName: "MrXSmith", Amount: dec("10"), LentDate: day(2026, 1, 1)})
	require.NoError(t, err)

	// underscore in the term is literal, not a single-char wildcard
	got := svc.ByBorrower(ctx, "Mr_")
	require.Len(t, got, 1)
	require.Equal(t, "Mr_Smith", got[0].BorrowerName)
}

func TestSimpleInterest(t *testing.T) {
	t.Parallel()
	// 1000 at 10% for half a year
	got := SimpleInterest(dec("1000"), 10, 365/2)
	requireAmount(t, "50", got.Round(0))
}
