package quest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
)

// DefaultPremiumPrice is the monthly premium fee
var DefaultPremiumPrice = decimal.NewFromInt(299)

// Snapshot is a read-only view of the quest program
type Snapshot struct {
	State    domain.QuestState
	Phase    domain.QuestPhase
	Current  *domain.Quest
	Progress *domain.QuestProgress
	Profile  domain.Profile
}

// CheckResult reports whether the current quest's conditions are met
type CheckResult struct {
	Quest    domain.Quest
	Complete bool
	Progress domain.QuestProgress
}

// QuestService is the Quest Engine. It exclusively owns the QuestState;
// every read returns a copy.
type QuestService struct {
	Ledger       domain.Ledger
	Flags        domain.PremiumFlagRepository
	Log          *zap.Logger
	PremiumPrice decimal.Decimal
	// OnUpgradeOffer fires once, when the last free quest is completed
	OnUpgradeOffer func(state domain.QuestState)

	// purchaseMu serializes premium purchases across the flag I/O and the charge
	purchaseMu sync.Mutex

	mu      sync.Mutex
	state   domain.QuestState
	levels  []domain.LevelChange
	offered bool
	now     func() time.Time
}

// NewQuestService creates a new QuestService with the given queues
func NewQuestService(
	ledger domain.Ledger,
	flags domain.PremiumFlagRepository,
	freeQuests, premiumQuests []domain.Quest,
	log *zap.Logger,
) *QuestService {
	s := &QuestService{
		Ledger:       ledger,
		Flags:        flags,
		Log:          log,
		PremiumPrice: DefaultPremiumPrice,
		now:          time.Now,
	}
	s.state = domain.QuestState{
		FreeQuests:    cloneQuests(freeQuests),
		PremiumQuests: cloneQuests(premiumQuests),
	}
	s.levels = []domain.LevelChange{{Level: domain.LevelForPoints(0), Points: 0, AchievedAt: s.now()}}
	return s
}

// Snapshot returns a copy of the full quest state
func (s *QuestService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:   s.state.Clone(),
		Phase:   s.state.Phase(),
		Profile: s.profileLocked(),
	}
	if current := s.state.CurrentQuest(); current != nil {
		q := *current
		p := q.Progress()
		snap.Current = &q
		snap.Progress = &p
	}
	return snap
}

// CurrentQuest returns a copy of the quest being served, or nil when the
// active queue is exhausted
func (s *QuestService) CurrentQuest() *domain.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.state.CurrentQuest()
	if current == nil {
		return nil
	}
	q := *current
	return &q
}

// Profile returns points, tier and tier history
func (s *QuestService) Profile() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileLocked()
}

// CheckCompletion evaluates the completion rule of a quest against the ledger
func (s *QuestService) CheckCompletion(q domain.Quest) bool {
	return q.IsComplete(s.completionContext())
}

// CheckCurrentQuest evaluates the current quest without changing state
func (s *QuestService) CheckCurrentQuest(ctx context.Context) (CheckResult, error) {
	cc := s.completionContext()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.CurrentQuest()
	if current == nil {
		return CheckResult{}, domain.ErrNoCurrentQuest
	}
	return CheckResult{Quest: *current, Complete: current.IsComplete(cc), Progress: current.Progress()}, nil
}

// CompleteQuest completes the current quest: it is marked completed, its
// points are added and, in free mode, the queue advances.
func (s *QuestService) CompleteQuest(ctx context.Context) (domain.Quest, error) {
	s.mu.Lock()
	current := s.state.CurrentQuest()
	if current == nil {
		s.mu.Unlock()
		metrics.RecordOperation("complete_quest", domain.ErrNoCurrentQuest)
		s.Log.Warn("complete quest requested with no current quest")
		return domain.Quest{}, domain.ErrNoCurrentQuest
	}
	done, offer := s.completeLocked(current)
	s.mu.Unlock()

	s.afterComplete(done, offer)
	return done, nil
}

// CompleteQuestByID completes the quest with the given id, which must be the
// current one. A quest that was already completed yields ErrAlreadyCompleted.
func (s *QuestService) CompleteQuestByID(ctx context.Context, id string) (domain.Quest, error) {
	s.mu.Lock()
	current := s.state.CurrentQuest()
	if current == nil || current.ID != id {
		var err error
		switch q := s.state.FindQuest(id); {
		case q != nil && q.Completed:
			err = fmt.Errorf("%w: quest %s", domain.ErrAlreadyCompleted, id)
		case current == nil:
			err = domain.ErrNoCurrentQuest
		default:
			err = fmt.Errorf("%w: quest %s is not the current quest", domain.ErrValidation, id)
		}
		s.mu.Unlock()
		metrics.RecordOperation("complete_quest", err)
		return domain.Quest{}, err
	}
	done, offer := s.completeLocked(current)
	s.mu.Unlock()

	s.afterComplete(done, offer)
	return done, nil
}

// ClaimQuest completes the current quest only when its conditions are met.
// An unmet quest is reported with its progress and no state change.
func (s *QuestService) ClaimQuest(ctx context.Context) (CheckResult, error) {
	cc := s.completionContext()

	s.mu.Lock()
	current := s.state.CurrentQuest()
	if current == nil {
		s.mu.Unlock()
		metrics.RecordOperation("claim_quest", domain.ErrNoCurrentQuest)
		return CheckResult{}, domain.ErrNoCurrentQuest
	}
	if !current.IsComplete(cc) {
		result := CheckResult{Quest: *current, Progress: current.Progress()}
		s.mu.Unlock()
		metrics.RecordOperation("claim_quest", nil)
		return result, nil
	}
	done, offer := s.completeLocked(current)
	s.mu.Unlock()

	s.afterComplete(done, offer)
	metrics.RecordOperation("claim_quest", nil)
	return CheckResult{Quest: done, Complete: true, Progress: done.Progress()}, nil
}

// completeLocked applies the completion transition. When the free queue has
// just become exhausted for the first time it also returns the state to offer
// the upgrade with. Caller must hold s.mu.
func (s *QuestService) completeLocked(q *domain.Quest) (domain.Quest, *domain.QuestState) {
	q.Completed = true
	s.state.ActivePoints += q.Points
	s.recordLevelLocked()
	done := *q

	if s.state.IsPremium {
		return done, nil
	}

	s.state.CurrentFreeQuestIndex++
	if s.state.CurrentFreeQuestIndex >= len(s.state.FreeQuests) && !s.offered {
		s.offered = true
		state := s.state.Clone()
		return done, &state
	}
	return done, nil
}

func (s *QuestService) afterComplete(done domain.Quest, offer *domain.QuestState) {
	metrics.RecordOperation("complete_quest", nil)
	metrics.RecordQuestCompletion(s.isPremium())
	s.Log.Info("quest completed",
		zap.String("quest_id", done.ID),
		zap.Int("points", done.Points),
	)

	if offer != nil {
		s.Log.Info("free quests exhausted, offering premium", zap.Int("active_points", offer.ActivePoints))
		if s.OnUpgradeOffer != nil {
			s.OnUpgradeOffer(*offer)
		}
	}
}

// BuyPremium switches the program to premium quests. The premium queue is
// reset only on the very first purchase, tracked by the persisted flag.
func (s *QuestService) BuyPremium(ctx context.Context) error {
	s.purchaseMu.Lock()
	defer s.purchaseMu.Unlock()
	return s.activatePremium(ctx)
}

// activatePremium persists the flag before touching state, so a failed write
// leaves the program unchanged. Caller must hold s.purchaseMu.
func (s *QuestService) activatePremium(ctx context.Context) error {
	purchased, err := s.Flags.IsPremiumPurchased(ctx)
	if err != nil {
		metrics.RecordOperation("buy_premium", err)
		s.Log.Warn("failed to read premium flag", zap.Error(err))
		return err
	}

	first := false
	if !purchased {
		first, err = s.Flags.MarkPremiumPurchased(ctx)
		if err != nil {
			metrics.RecordOperation("buy_premium", err)
			s.Log.Warn("failed to persist premium flag", zap.Error(err))
			return err
		}
	}

	s.mu.Lock()
	s.state.IsPremium = true
	if first {
		for i := range s.state.PremiumQuests {
			s.state.PremiumQuests[i].Completed = false
			s.state.PremiumQuests[i].CurrentProgress = decimal.Zero
		}
	}
	s.mu.Unlock()

	metrics.RecordOperation("buy_premium", nil)
	s.Log.Info("premium activated", zap.Bool("first_purchase", first))
	return nil
}

// PurchasePremium charges the premium fee to an account and activates
// premium. When activation fails the fee is refunded.
func (s *QuestService) PurchasePremium(ctx context.Context, accountID uuid.UUID) error {
	s.purchaseMu.Lock()
	defer s.purchaseMu.Unlock()

	if s.isPremium() {
		err := fmt.Errorf("%w: premium is already active", domain.ErrValidation)
		metrics.RecordOperation("purchase_premium", err)
		return err
	}

	acc, ok := s.Ledger.GetAccountByID(accountID)
	if !ok {
		err := fmt.Errorf("%w: account %s", domain.ErrNotFound, accountID)
		metrics.RecordOperation("purchase_premium", err)
		return err
	}
	if acc.Balance.LessThan(s.PremiumPrice) {
		err := fmt.Errorf("%w: premium costs %s, balance is %s", domain.ErrInsufficientFunds, s.PremiumPrice, acc.Balance)
		metrics.RecordOperation("purchase_premium", err)
		s.Log.Warn("premium purchase failed", zap.String("account_id", acc.ID.String()), zap.Error(err))
		return err
	}

	err := s.Ledger.Commit(premiumChange(acc, "Premium subscription payment", domain.AccountHolder(acc.ID), domain.ExternalParty, s.PremiumPrice.Neg()))
	if err != nil {
		metrics.RecordOperation("purchase_premium", err)
		s.Log.Warn("premium purchase failed", zap.String("account_id", acc.ID.String()), zap.Error(err))
		return err
	}
	s.Log.Info("premium fee charged",
		zap.String("account_id", acc.ID.String()),
		zap.String("amount", s.PremiumPrice.String()),
	)

	if err := s.activatePremium(ctx); err != nil {
		refund := premiumChange(acc, "Premium subscription refund", domain.ExternalParty, domain.AccountHolder(acc.ID), s.PremiumPrice)
		if rerr := s.Ledger.Commit(refund); rerr != nil {
			s.Log.Error("premium fee refund failed", zap.String("account_id", acc.ID.String()), zap.Error(rerr))
			err = errors.Join(err, rerr)
		}
		metrics.RecordOperation("purchase_premium", err)
		return err
	}

	metrics.RecordOperation("purchase_premium", nil)
	return nil
}

func premiumChange(acc domain.Account, description string, from, to domain.Holder, signed decimal.Decimal) domain.Change {
	entry := domain.HistoryEntry{
		Kind:          domain.HistoryKindPremium,
		Description:   description,
		AccountNumber: acc.AccountNumber,
		Amount:        signed,
		Bank:          acc.Bank,
		Currency:      acc.Currency,
	}
	if signed.IsNegative() {
		entry.FromAccount = acc.AccountNumber
	} else {
		entry.ToAccount = acc.AccountNumber
	}
	return domain.Change{
		Posting: domain.NewPosting(description, from, to, signed.Abs()),
		History: []domain.HistoryEntry{entry},
	}
}

func (s *QuestService) isPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsPremium
}

func (s *QuestService) completionContext() domain.CompletionContext {
	if s.Ledger == nil {
		return domain.CompletionContext{}
	}
	return domain.CompletionContext{AccountCount: len(s.Ledger.ListAccounts())}
}

// recordLevelLocked appends a tier change when the points crossed a boundary.
// Caller must hold s.mu.
func (s *QuestService) recordLevelLocked() {
	level := domain.LevelForPoints(s.state.ActivePoints)
	if last := s.levels[len(s.levels)-1]; last.Level == level {
		return
	}
	s.levels = append(s.levels, domain.LevelChange{
		Level:      level,
		Points:     s.state.ActivePoints,
		AchievedAt: s.now(),
	})
	s.Log.Info("level reached", zap.String("level", string(level)), zap.Int("active_points", s.state.ActivePoints))
}

// profileLocked builds the profile. Caller must hold s.mu.
func (s *QuestService) profileLocked() domain.Profile {
	completed := 0
	for _, q := range s.state.FreeQuests {
		if q.Completed {
			completed++
		}
	}
	for _, q := range s.state.PremiumQuests {
		if q.Completed {
			completed++
		}
	}
	history := make([]domain.LevelChange, len(s.levels))
	copy(history, s.levels)

	return domain.Profile{
		ActivePoints:    s.state.ActivePoints,
		IsPremium:       s.state.IsPremium,
		QuestsCompleted: completed,
		Level:           s.state.Level(),
		LevelHistory:    history,
	}
}

func cloneQuests(in []domain.Quest) []domain.Quest {
	out := make([]domain.Quest, len(in))
	copy(out, in)
	return out
}
