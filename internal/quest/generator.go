package quest

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"lexiquest/internal/models"
	"lexiquest/internal/store"
)

// RewardGranter pays out a completed quest's XP. Satisfied by the stats engine.
type RewardGranter interface {
	GrantQuestReward(q models.DailyQuest) error
}

// Generator owns the daily quest set for a profile: it deals a fresh set the
// first time a day is observed and tracks progress against it.
type Generator struct {
	store     *store.Store
	rewards   RewardGranter
	profileID string

	now    func() time.Time
	randFn func(n int) int
}

func NewGenerator(st *store.Store, rewards RewardGranter, profileID string) *Generator {
	return &Generator{
		store:     st,
		rewards:   rewards,
		profileID: profileID,
		now:       time.Now,
		randFn:    rand.Intn,
	}
}

// randomPool is the set one extra quest is drawn from each day
var randomPool = []models.DailyQuest{
	{ID: "daily_matching", Description: "Play a round of Matching", Type: models.QuestPlayMatching, Target: 1, RewardXP: 200},
	{ID: "daily_maze", Description: "Escape the Word Maze", Type: models.QuestPlayMaze, Target: 1, RewardXP: 200},
	{ID: "daily_perfect", Description: "Finish a quiz without mistakes", Type: models.QuestPerfectQuiz, Target: 1, RewardXP: 250},
	{ID: "daily_study_time", Description: "Study for 10 minutes", Type: models.QuestStudyTime, Target: 600, RewardXP: 200},
}

func fixedQuests() []models.DailyQuest {
	return []models.DailyQuest{
		{ID: "daily_views", Description: "Look at 20 word cards", Type: models.QuestViewCards, Target: 20, RewardXP: 100},
		{ID: "daily_quiz", Description: "Finish a quiz", Type: models.QuestFinishQuiz, Target: 1, RewardXP: 100},
		{ID: "daily_xp", Description: "Earn 500 XP", Type: models.QuestEarnXP, Target: 500, RewardXP: 150},
	}
}

// TodayState returns the quest set for the current day, dealing and persisting
// a new one when none exists or the stored set belongs to an earlier day.
func (g *Generator) TodayState() (models.DailyQuestState, error) {
	today := g.now().Format(models.DateFormat)

	state, ok, err := g.store.QuestState(g.profileID)
	if err != nil {
		return models.DailyQuestState{}, err
	}
	if ok && state.Date == today {
		return state, nil
	}

	quests := fixedQuests()
	quests = append(quests, randomPool[g.randFn(len(randomPool))])
	state = models.DailyQuestState{Date: today, Quests: quests}

	if err := g.store.SaveQuestState(g.profileID, state); err != nil {
		return models.DailyQuestState{}, err
	}
	return state, nil
}

// ReportProgress advances every quest of the given type by amount, clamped at
// its target. Quests crossing their target are marked completed, paid out once
// through the reward granter, and returned to the caller.
func (g *Generator) ReportProgress(questType models.QuestType, amount int) ([]models.DailyQuest, error) {
	if amount <= 0 {
		return nil, nil
	}

	state, err := g.TodayState()
	if err != nil {
		return nil, err
	}

	var completed []models.DailyQuest
	changed := false
	for i := range state.Quests {
		q := &state.Quests[i]
		if q.Type != questType || q.Completed {
			continue
		}

		q.Current += amount
		if q.Current > q.Target {
			q.Current = q.Target
		}
		changed = true

		if q.Current >= q.Target {
			q.Completed = true
			if err := g.rewards.GrantQuestReward(*q); err != nil {
				zap.S().Errorw("Failed to grant quest reward", "quest", q.ID, "error", err)
			} else {
				completed = append(completed, *q)
			}
		}
	}

	if !changed {
		return nil, nil
	}
	if err := g.store.SaveQuestState(g.profileID, state); err != nil {
		return nil, err
	}
	return completed, nil
}
