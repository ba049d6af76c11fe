package models

// QuestType tags route progress events to quests. These strings are a stable
// contract shared with the stats engine's event emission.
type QuestType string

const (
	QuestViewCards    QuestType = "view_cards"
	QuestFinishQuiz   QuestType = "finish_quiz"
	QuestEarnXP       QuestType = "earn_xp"
	QuestPlayMatching QuestType = "play_matching"
	QuestPlayMaze     QuestType = "play_maze"
	QuestPerfectQuiz  QuestType = "perfect_quiz"
	QuestStudyTime    QuestType = "study_time"
	QuestPlayDuel     QuestType = "play_duel"
	QuestWinDuel      QuestType = "win_duel"
)

// DailyQuest is one quest in today's set. Progress never decrements and
// completion is permanent for the day.
type DailyQuest struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Type        QuestType `json:"type"`
	Target      int       `json:"target"`
	Current     int       `json:"current"`
	RewardXP    int       `json:"rewardXP"`
	Completed   bool      `json:"isCompleted"`
}

// DailyQuestState is the quest set for one calendar day. It is regenerated
// whenever Date no longer matches today; no history is kept.
type DailyQuestState struct {
	Date   string       `json:"date"`
	Quests []DailyQuest `json:"quests"`
}
