package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// premiumFlagRepository implements domain.PremiumFlagRepository
type premiumFlagRepository struct {
	db     *DB
	userID string
}

// NewPremiumFlagRepository creates a premium flag repository scoped to one user
func NewPremiumFlagRepository(db *DB, userID string) domain.PremiumFlagRepository {
	return &premiumFlagRepository{db: db, userID: userID}
}

// IsPremiumPurchased reports whether the first purchase already happened
func (r *premiumFlagRepository) IsPremiumPurchased(ctx context.Context) (bool, error) {
	query := `
		SELECT 1
		FROM premium_purchases
		WHERE user_id = $1
	`

	var one int
	err := r.db.QueryRowContext(ctx, query, r.userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read premium flag: %w", err)
	}
	return true, nil
}

// MarkPremiumPurchased records the first purchase; repeating it is a no-op.
// It reports true only when this call inserted the row.
func (r *premiumFlagRepository) MarkPremiumPurchased(ctx context.Context) (bool, error) {
	query := `
		INSERT INTO premium_purchases (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, r.userID)
	if err != nil {
		return false, fmt.Errorf("failed to store premium flag: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to store premium flag: %w", err)
	}
	return inserted == 1, nil
}
