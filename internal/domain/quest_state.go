package domain

// QuestPhase is the overall state of the quest engine
type QuestPhase string

const (
	PhaseFreeActive       QuestPhase = "FREE_ACTIVE"
	PhaseFreeExhausted    QuestPhase = "FREE_EXHAUSTED"
	PhasePremiumActive    QuestPhase = "PREMIUM_ACTIVE"
	PhasePremiumExhausted QuestPhase = "PREMIUM_EXHAUSTED"
)

// QuestState is the full state of the quest program for one user
type QuestState struct {
	ActivePoints          int
	IsPremium             bool
	CurrentFreeQuestIndex int
	FreeQuests            []Quest
	PremiumQuests         []Quest
}

// CurrentQuest returns the quest being served, or nil when the active queue is exhausted.
// Premium users get the first incomplete premium quest; free users get
// FreeQuests[CurrentFreeQuestIndex]. The returned pointer aliases the state.
func (s *QuestState) CurrentQuest() *Quest {
	if s.IsPremium {
		for i := range s.PremiumQuests {
			if !s.PremiumQuests[i].Completed {
				return &s.PremiumQuests[i]
			}
		}
		return nil
	}

	if s.CurrentFreeQuestIndex >= 0 && s.CurrentFreeQuestIndex < len(s.FreeQuests) {
		return &s.FreeQuests[s.CurrentFreeQuestIndex]
	}
	return nil
}

// Phase derives the engine phase from the state
func (s *QuestState) Phase() QuestPhase {
	current := s.CurrentQuest()
	switch {
	case s.IsPremium && current != nil:
		return PhasePremiumActive
	case s.IsPremium:
		return PhasePremiumExhausted
	case current != nil:
		return PhaseFreeActive
	default:
		return PhaseFreeExhausted
	}
}

// FindQuest looks a quest up by ID in both queues
func (s *QuestState) FindQuest(id string) *Quest {
	for i := range s.FreeQuests {
		if s.FreeQuests[i].ID == id {
			return &s.FreeQuests[i]
		}
	}
	for i := range s.PremiumQuests {
		if s.PremiumQuests[i].ID == id {
			return &s.PremiumQuests[i]
		}
	}
	return nil
}

// Level returns the tier for the accumulated points
func (s *QuestState) Level() Level {
	return LevelForPoints(s.ActivePoints)
}

// Clone returns a deep copy that shares no slices with s
func (s *QuestState) Clone() QuestState {
	out := *s
	out.FreeQuests = append([]Quest(nil), s.FreeQuests...)
	out.PremiumQuests = append([]Quest(nil), s.PremiumQuests...)
	return out
}
