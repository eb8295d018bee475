package memory

import (
	"context"
	"sync"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// PremiumFlagRepository keeps the premium flag for the lifetime of the process
type PremiumFlagRepository struct {
	mu        sync.Mutex
	purchased bool
}

var _ domain.PremiumFlagRepository = (*PremiumFlagRepository)(nil)

// NewPremiumFlagRepository creates an unset flag
func NewPremiumFlagRepository() *PremiumFlagRepository {
	return &PremiumFlagRepository{}
}

// IsPremiumPurchased reports whether the first purchase already happened
func (r *PremiumFlagRepository) IsPremiumPurchased(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.purchased, nil
}

// MarkPremiumPurchased records the first purchase and reports whether this call stored it
func (r *PremiumFlagRepository) MarkPremiumPurchased(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.purchased {
		return false, nil
	}
	r.purchased = true
	return true, nil
}
