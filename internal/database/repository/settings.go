package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// SettingRepo handles the app_settings key/value table.
type SettingRepo struct {
	db DBTX
}

func NewSettingRepo(db DBTX) *SettingRepo { return &SettingRepo{db: db} }

func (r *SettingRepo) Get(ctx context.Context, key string) (*Setting, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, key, value, updated_at FROM app_settings WHERE key = ?`, key)
	var s Setting
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Upsert writes a value; a second write for the same key replaces it.
func (r *SettingRepo) Upsert(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO app_settings(id, key, value, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
	 value=excluded.value,
	 updated_at=CURRENT_TIMESTAMP;
	`, uuid.NewString(), key, value)
	return err
}
