package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{DB: conn}, mock
}

func TestPremiumFlagRepository_IsPremiumPurchased(t *testing.T) {
	ctx := context.Background()

	t.Run("Stored flag", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPremiumFlagRepository(db, "team086-1")
		mock.ExpectQuery(`SELECT 1\s+FROM premium_purchases\s+WHERE user_id = \$1`).
			WithArgs("team086-1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		purchased, err := repo.IsPremiumPurchased(ctx)

		require.NoError(t, err)
		assert.True(t, purchased)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPremiumFlagRepository(db, "team086-1")
		mock.ExpectQuery(`SELECT 1`).
			WithArgs("team086-1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		purchased, err := repo.IsPremiumPurchased(ctx)

		require.NoError(t, err)
		assert.False(t, purchased)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPremiumFlagRepository(db, "team086-1")
		mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("connection reset"))

		_, err := repo.IsPremiumPurchased(ctx)

		assert.ErrorContains(t, err, "failed to read premium flag")
	})
}

func TestPremiumFlagRepository_MarkPremiumPurchased(t *testing.T) {
	ctx := context.Background()
	insert := `INSERT INTO premium_purchases \(user_id\)\s+VALUES \(\$1\)\s+ON CONFLICT \(user_id\) DO NOTHING`

	t.Run("First purchase inserts the row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPremiumFlagRepository(db, "team086-1")
		mock.ExpectExec(insert).WithArgs("team086-1").WillReturnResult(sqlmock.NewResult(0, 1))

		first, err := repo.MarkPremiumPurchased(ctx)

		require.NoError(t, err)
		assert.True(t, first)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Repeat purchase hits the conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPremiumFlagRepository(db, "team086-1")
		mock.ExpectExec(insert).WithArgs("team086-1").WillReturnResult(sqlmock.NewResult(0, 0))

		first, err := repo.MarkPremiumPurchased(ctx)

		require.NoError(t, err)
		assert.False(t, first)
	})

	t.Run("Exec error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPremiumFlagRepository(db, "team086-1")
		mock.ExpectExec(insert).WillReturnError(errors.New("connection reset"))

		_, err := repo.MarkPremiumPurchased(ctx)

		assert.ErrorContains(t, err, "failed to store premium flag")
	})
}

func TestDB_EnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS premium_purchases`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
