package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountSavings    = "savings"
	AccountChecking   = "checking"
	AccountCreditCard = "credit_card"
	AccountLoan       = "loan"
	AccountInvestment = "investment"
	AccountCash       = "cash"
)

// Transaction types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Payment methods.
const (
	PaymentCash       = "cash"
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
)

// Expense priorities.
const (
	PriorityNeed = "need"
	PriorityWant = "want"
)

// Loan statuses.
const (
	LoanActive        = "active"
	LoanPartiallyPaid = "partially_paid"
	LoanFullyPaid     = "fully_paid"
	LoanOverdue       = "overdue"
)

// Account represents an account row. Balance is mutated only through
// ApplyDelta; rows are soft-deleted by clearing is_active.
type Account struct {
	ID            string
	Name          string
	Type          string
	Balance       decimal.Decimal
	Currency      string
	BankName      *string
	AccountNumber *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction represents a transaction row. Category is stored by name,
// not by id; display color is resolved by joining categories on name.
type Transaction struct {
	ID            string
	Amount        decimal.Decimal
	Type          string
	Category      string
	Description   string
	Date          time.Time
	PaymentMethod string
	AccountID     *string
	Priority      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category represents a category row.
type Category struct {
	ID          string
	Name        string
	Color       string
	Icon        string
	Type        string
	BudgetLimit *decimal.Decimal
}

// Budget represents a budget row: a spending ceiling for one category over
// an explicit date range.
type Budget struct {
	ID         string
	CategoryID string
	Amount     decimal.Decimal
	Period     string
	StartDate  time.Time
	EndDate    time.Time
}

// Loan represents a loan row: money lent to a third party, tracked as a
// receivable.
type Loan struct {
	ID                 string
	BorrowerName       string
	BorrowerContact    *string
	Amount             decimal.Decimal
	LentDate           time.Time
	ExpectedReturnDate *time.Time
	ActualReturnDate   *time.Time
	ReturnedAmount     decimal.Decimal
	Status             string
	Description        *string
	AccountID          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MonthlyBalance represents a per-account closing balance snapshot for one
// calendar month. At most one row exists per (account, year, month).
type MonthlyBalance struct {
	ID             string
	AccountID      string
	Year           int
	Month          int
	ClosingBalance decimal.Decimal
	LastUpdated    time.Time
}

// Setting represents an app_settings row.
type Setting struct {
	ID        string
	Key       string
	Value     string
	UpdatedAt time.Time
}
