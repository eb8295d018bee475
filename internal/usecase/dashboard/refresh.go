package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// Replacer receives freshly loaded slices of backend state
type Replacer interface {
	ReplaceAccounts(accounts []domain.Account)
	ReplaceProducts(products []domain.Product)
	ReplaceHistory(entries []domain.HistoryEntry)
}

// RefreshReport holds the outcome of each slice of a refresh. A nil field
// means the slice was replaced; otherwise the previous state was kept.
type RefreshReport struct {
	Accounts error
	Products error
	History  error
	Quests   error
	Profile  error
}

// Err joins the failed slices, nil when everything loaded
func (r RefreshReport) Err() error {
	var errs []error
	for _, e := range []struct {
		slice string
		err   error
	}{
		{"accounts", r.Accounts},
		{"products", r.Products},
		{"history", r.History},
		{"quests", r.Quests},
		{"profile", r.Profile},
	} {
		if e.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.slice, e.err))
		}
	}
	return errors.Join(errs...)
}

// Refresher mirrors the backend into the local store in the API-backed mode.
// It also caches the remote quest standing and satisfies QuestReader.
type Refresher struct {
	Gateway domain.Gateway
	Store   Replacer
	Log     *zap.Logger

	mu        sync.RWMutex
	current   *domain.Quest
	available []domain.Quest
	profile   domain.Profile
}

// NewRefresher creates a new Refresher instance
func NewRefresher(gateway domain.Gateway, store Replacer, log *zap.Logger) *Refresher {
	return &Refresher{
		Gateway: gateway,
		Store:   store,
		Log:     log,
		profile: domain.Profile{Level: domain.LevelBronze},
	}
}

// Refresh loads accounts, products, history, quests and the profile in
// parallel. One failed slice never stops the others.
func (r *Refresher) Refresh(ctx context.Context) RefreshReport {
	var report RefreshReport
	var g errgroup.Group

	g.Go(func() error {
		report.Accounts = r.RefreshAccounts(ctx)
		return report.Accounts
	})
	g.Go(func() error {
		report.Products = r.RefreshProducts(ctx)
		return report.Products
	})
	g.Go(func() error {
		report.History = r.RefreshHistory(ctx)
		return report.History
	})
	g.Go(func() error {
		report.Quests = r.RefreshQuests(ctx)
		return report.Quests
	})
	g.Go(func() error {
		report.Profile = r.RefreshProfile(ctx)
		return report.Profile
	})

	if err := g.Wait(); err != nil {
		r.Log.Warn("refresh incomplete", zap.Error(report.Err()))
	}
	return report
}

// RefreshAccounts replaces the account set with the aggregated backend view
func (r *Refresher) RefreshAccounts(ctx context.Context) error {
	accounts, err := r.Gateway.AggregateAccounts(ctx)
	if err != nil {
		return err
	}
	r.Store.ReplaceAccounts(accounts)
	return nil
}

// RefreshProducts replaces the product set with the backend products and cards
func (r *Refresher) RefreshProducts(ctx context.Context) error {
	products, err := r.Gateway.ListProducts(ctx)
	if err != nil {
		return err
	}
	cards, err := r.Gateway.ListCards(ctx)
	if err != nil {
		return err
	}
	r.Store.ReplaceProducts(append(products, cards...))
	return nil
}

// RefreshHistory replaces the history with the backend transactions
func (r *Refresher) RefreshHistory(ctx context.Context) error {
	entries, err := r.Gateway.ListTransactions(ctx, "")
	if err != nil {
		return err
	}
	r.Store.ReplaceHistory(entries)
	return nil
}

// RefreshQuests reloads the current and available quests. On failure the
// current quest is cleared so the dashboard shows that no quest is available.
func (r *Refresher) RefreshQuests(ctx context.Context) error {
	current, err := r.Gateway.CurrentQuest(ctx)
	if err != nil {
		r.mu.Lock()
		r.current = nil
		r.mu.Unlock()
		return err
	}
	available, err := r.Gateway.AvailableQuests(ctx)
	if err != nil {
		r.mu.Lock()
		r.current = nil
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.current = current
	r.available = available
	r.mu.Unlock()
	return nil
}

// RefreshProfile reloads the quest profile
func (r *Refresher) RefreshProfile(ctx context.Context) error {
	profile, err := r.Gateway.Profile(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.profile = profile
	r.mu.Unlock()
	return nil
}

// CurrentQuest returns a copy of the cached current quest
func (r *Refresher) CurrentQuest() *domain.Quest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return nil
	}
	q := *r.current
	return &q
}

// AvailableQuests returns a copy of the cached quest list
func (r *Refresher) AvailableQuests() []domain.Quest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.Quest(nil), r.available...)
}

// Profile returns a copy of the cached profile
func (r *Refresher) Profile() domain.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := r.profile
	p.LevelHistory = append([]domain.LevelChange(nil), r.profile.LevelHistory...)
	return p
}
