package dashboard

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// DefaultPageSize is the number of history entries per page
const DefaultPageSize = 20

// QuestReader exposes the quest data the dashboard shows
type QuestReader interface {
	CurrentQuest() *domain.Quest
	Profile() domain.Profile
}

// Summary represents the dashboard header
type Summary struct {
	TotalBalance   decimal.Decimal
	Currency       string
	ActiveAccounts int
	Products       int
	CurrentQuest   *domain.Quest
	Progress       *domain.QuestProgress
	Level          domain.LevelInfo
	ActivePoints   int
	IsPremium      bool
}

// HistoryPage is one page of the transaction history
type HistoryPage struct {
	Entries []domain.HistoryEntry
	Total   int
	Page    int
	Pages   int
}

// DashboardService handles dashboard-related queries
type DashboardService struct {
	Ledger   domain.Ledger
	Quests   QuestReader
	Currency string
	PageSize int
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(ledger domain.Ledger, quests QuestReader, currency string, pageSize int) *DashboardService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &DashboardService{
		Ledger:   ledger,
		Quests:   quests,
		Currency: currency,
		PageSize: pageSize,
	}
}

// GetSummary calculates the dashboard header.
// Logic:
//   - TotalBalance: sum of the balances of all active accounts. Product
//     principals are not included.
//   - CurrentQuest: nil when the active queue is exhausted or quests are unavailable
//   - Level: derived from the active points
func (s *DashboardService) GetSummary(ctx context.Context) (*Summary, error) {
	// 1. Sum account balances
	accounts := s.Ledger.ListAccounts()
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}

	summary := &Summary{
		TotalBalance:   total,
		Currency:       s.Currency,
		ActiveAccounts: len(accounts),
		Products:       len(s.Ledger.ListProducts()),
	}

	// 2. Quest standing
	if s.Quests == nil {
		summary.Level = domain.InfoForPoints(0)
		return summary, nil
	}
	if current := s.Quests.CurrentQuest(); current != nil {
		progress := current.Progress()
		summary.CurrentQuest = current
		summary.Progress = &progress
	}
	profile := s.Quests.Profile()
	summary.ActivePoints = profile.ActivePoints
	summary.IsPremium = profile.IsPremium
	summary.Level = domain.InfoForPoints(profile.ActivePoints)

	return summary, nil
}

// GetHistory returns a page of history, newest first. Pages are 1-based and
// accountNumber may be empty to include every account.
func (s *DashboardService) GetHistory(ctx context.Context, accountNumber string, page int) (*HistoryPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", domain.ErrValidation)
	}
	if page > math.MaxInt/s.PageSize {
		return nil, fmt.Errorf("%w: page %d out of range", domain.ErrValidation, page)
	}
	if accountNumber != "" {
		if _, ok := s.Ledger.GetAccountByNumber(accountNumber); !ok {
			return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, accountNumber)
		}
	}

	entries, total := s.Ledger.History(domain.HistoryFilter{
		AccountNumber: accountNumber,
		Limit:         s.PageSize,
		Offset:        (page - 1) * s.PageSize,
	})

	pages := (total + s.PageSize - 1) / s.PageSize
	if page > 1 && page > pages {
		return nil, fmt.Errorf("%w: page %d out of range, history has %d pages", domain.ErrValidation, page, pages)
	}
	return &HistoryPage{
		Entries: entries,
		Total:   total,
		Page:    page,
		Pages:   pages,
	}, nil
}
