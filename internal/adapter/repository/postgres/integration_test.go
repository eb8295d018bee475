//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *DB

// TestMain connects to the database named by DB_CONN_STR (or the DB_* parts)
func TestMain(m *testing.M) {
	var err error
	db, err = NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to prepare schema: %v", err))
	}

	code := m.Run()
	db.Close()
	os.Exit(code)
}

func getDBConnectionString() string {
	if s := os.Getenv("DB_CONN_STR"); s != "" {
		return s
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "postgres"),
		getenv("DB_PASSWORD", "postgres"),
		getenv("DB_NAME", "multibank"),
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestIntegration_PremiumFlagSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	userID := "it-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM premium_purchases WHERE user_id = $1`, userID)
	})

	repo := NewPremiumFlagRepository(db, userID)

	purchased, err := repo.IsPremiumPurchased(ctx)
	require.NoError(t, err)
	assert.False(t, purchased)

	first, err := repo.MarkPremiumPurchased(ctx)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = repo.MarkPremiumPurchased(ctx)
	require.NoError(t, err)
	assert.False(t, first, "second purchase is a no-op")

	// A fresh repository models a process restart
	purchased, err = NewPremiumFlagRepository(db, userID).IsPremiumPurchased(ctx)
	require.NoError(t, err)
	assert.True(t, purchased)

	other, err := NewPremiumFlagRepository(db, "it-"+uuid.NewString()).IsPremiumPurchased(ctx)
	require.NoError(t, err)
	assert.False(t, other, "flag is scoped per user")
}
