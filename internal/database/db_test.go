package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithTxRollsBackCompletedWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := Open(openTest(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(db))

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO app_settings(id, key, value) VALUES ('s1', 'theme', 'mocha')`)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		require.EqualValues(t, 1, n) // the write happened inside the unit
		return boom
	})
	require.ErrorIs(t, err, boom)

	// the failed unit left nothing behind
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM app_settings`).Scan(&count))
	require.Equal(t, 0, count)

	// the same statement commits when the unit succeeds
	require.NoError(t, WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO app_settings(id, key, value) VALUES ('s1', 'theme', 'mocha')`)
		return err
	}))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM app_settings`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestNowIsUTCSecondPrecision(t *testing.T) {
	t.Parallel()
	n := Now()
	require.Equal(t, "UTC", n.Location().String())
	require.Zero(t, n.Nanosecond())
}
