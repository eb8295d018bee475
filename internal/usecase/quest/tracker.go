package quest

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
)

var _ domain.ActivityRecorder = (*QuestService)(nil)

// RecordActivity feeds committed ledger events into the current quest
func (s *QuestService) RecordActivity(a domain.Activity) {
	switch a.Kind {
	case domain.ActivityTransfer:
		s.RecordProgress(domain.TargetTransfers, 1)
		s.RecordAmount(domain.QuestTypeTransferAmount, a.Amount)
	case domain.ActivityPayment:
		s.RecordProgress(domain.TargetPayments, 1)
	case domain.ActivityProductOpened:
		if a.ProductType != domain.ProductTypeCard {
			s.RecordAmount(domain.QuestTypeProductPurchase, a.Amount)
		}
	case domain.ActivityDepositOpened:
		s.RecordAmount(domain.QuestTypeDepositAmount, a.Amount)
	}
	// Account openings need no bookkeeping: new_account checks the ledger directly
}

// RecordProgress adds increment to the current quest when it targets category.
// It reports whether the quest was advanced.
func (s *QuestService) RecordProgress(category domain.TargetCategory, increment int64) bool {
	if increment <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.CurrentQuest()
	if current == nil || current.Completed || current.Target.IsNumeric() || current.Target.Category != category {
		return false
	}
	current.CurrentProgress = current.CurrentProgress.Add(decimal.NewFromInt(increment))
	s.Log.Debug("quest progress",
		zap.String("quest_id", current.ID),
		zap.String("progress", current.CurrentProgress.String()),
	)
	return true
}

// RecordAmount adds amount to the current numeric quest of the given type.
// It reports whether the quest was advanced.
func (s *QuestService) RecordAmount(questType domain.QuestType, amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.CurrentQuest()
	if current == nil || current.Completed || !current.Target.IsNumeric() || current.Type != questType {
		return false
	}
	current.CurrentProgress = current.CurrentProgress.Add(amount)
	s.Log.Debug("quest progress",
		zap.String("quest_id", current.ID),
		zap.String("progress", current.CurrentProgress.String()),
	)
	return true
}

// MarkCompleted is the injection point for targets with no automatic progress
// source (referral, autopayment, credit card and the like). The current quest
// must target category; it goes through the normal completion transition.
func (s *QuestService) MarkCompleted(ctx context.Context, category domain.TargetCategory) (domain.Quest, error) {
	s.mu.Lock()
	current := s.state.CurrentQuest()
	if current == nil {
		s.mu.Unlock()
		return domain.Quest{}, domain.ErrNoCurrentQuest
	}
	if current.Target.IsNumeric() || current.Target.Category != category {
		id := current.ID
		s.mu.Unlock()
		return domain.Quest{}, fmt.Errorf("%w: current quest %s does not target %s", domain.ErrValidation, id, category)
	}
	done, offer := s.completeLocked(current)
	s.mu.Unlock()

	s.afterComplete(done, offer)
	return done, nil
}
