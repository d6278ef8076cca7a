package database

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    type           TEXT NOT NULL,
    balance        NUMERIC NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT 'USD',
    bank_name      TEXT,
    account_number TEXT,
    is_active      INTEGER NOT NULL DEFAULT 1,
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transactions (
    id             TEXT PRIMARY KEY,
    amount         NUMERIC NOT NULL,
    type           TEXT NOT NULL,
    category       TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    date           TIMESTAMP NOT NULL,
    payment_method TEXT,
    account_id     TEXT,
    priority       TEXT,
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL UNIQUE,
    color        TEXT NOT NULL,
    icon         TEXT NOT NULL DEFAULT '',
    type         TEXT NOT NULL,
    budget_limit NUMERIC
);

CREATE TABLE IF NOT EXISTS budgets (
    id          TEXT PRIMARY KEY,
    category_id TEXT NOT NULL REFERENCES categories(id),
    amount      NUMERIC NOT NULL,
    period      TEXT NOT NULL,
    start_date  TIMESTAMP NOT NULL,
    end_date    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
    id                   TEXT PRIMARY KEY,
    borrower_name        TEXT NOT NULL,
    borrower_contact     TEXT,
    amount               NUMERIC NOT NULL,
    lent_date            TIMESTAMP NOT NULL,
    expected_return_date TIMESTAMP,
    actual_return_date   TIMESTAMP,
    returned_amount      NUMERIC NOT NULL DEFAULT 0,
    status               TEXT NOT NULL DEFAULT 'active',
    description          TEXT,
    account_id           TEXT,
    created_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS account_balance (
    id              TEXT PRIMARY KEY,
    account_id      TEXT NOT NULL REFERENCES accounts(id),
    year            INTEGER NOT NULL,
    month           INTEGER NOT NULL,
    closing_balance NUMERIC NOT NULL,
    last_updated    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(account_id, year, month)
);

CREATE TABLE IF NOT EXISTS app_settings (
    id         TEXT PRIMARY KEY,
    key        TEXT NOT NULL UNIQUE,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status);
`

// Columns added after the first released schema. Older database files are
// upgraded in place; the columns are nullable so existing rows stay valid.
var transactionColumnMigrations = []struct {
	name string
	ddl  string
}{
	{"payment_method", "ALTER TABLE transactions ADD COLUMN payment_method TEXT"},
	{"account_id", "ALTER TABLE transactions ADD COLUMN account_id TEXT"},
	{"priority", "ALTER TABLE transactions ADD COLUMN priority TEXT"},
}

// InitSchema creates all tables if absent and applies additive column
// migrations. Safe to run on every startup.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return migrateTransactionColumns(db)
}

func migrateTransactionColumns(db *sql.DB) error {
	existing, err := tableColumns(db, "transactions")
	if err != nil {
		return fmt.Errorf("inspect transactions: %w", err)
	}
	for _, m := range transactionColumnMigrations {
		if existing[m.name] {
			continue
		}
		if _, err := db.Exec(m.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", m.name, err)
		}
	}
	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
