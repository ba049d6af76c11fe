package badges

import "lexiquest/internal/models"

// DefaultCatalog is the built-in badge set, used when the remote catalog is
// unreachable. The remote copy shares the same condition language.
func DefaultCatalog() []models.Badge {
	return []models.Badge{
		{
			ID:          "first_steps",
			Title:       "First Steps",
			Description: "View your first flashcard",
			Icon:        "footprints",
			Condition:   "stats.cardsViewed >= 1",
		},
		{
			ID:          "word_collector",
			Title:       "Word Collector",
			Description: "View 100 flashcards",
			Icon:        "stack",
			Condition:   "stats.cardsViewed >= 100",
		},
		{
			ID:          "bookworm",
			Title:       "Bookworm",
			Description: "View 500 flashcards",
			Icon:        "book",
			Condition:   "stats.cardsViewed >= 500",
		},
		{
			ID:          "quiz_rookie",
			Title:       "Quiz Rookie",
			Description: "Answer 25 quiz questions correctly",
			Icon:        "pencil",
			Condition:   "stats.quizCorrect >= 25",
		},
		{
			ID:          "quiz_master",
			Title:       "Quiz Master",
			Description: "Answer 250 quiz questions correctly",
			Icon:        "trophy",
			Condition:   "stats.quizCorrect >= 250",
		},
		{
			ID:          "perfectionist",
			Title:       "Perfectionist",
			Description: "Finish a quiz with every answer correct",
			Icon:        "star",
			Condition:   "stats.perfectQuizzes >= 1",
		},
		{
			ID:          "memory_bank",
			Title:       "Memory Bank",
			Description: "Memorize 50 words",
			Icon:        "brain",
			Condition:   "stats.memorizedCount >= 50",
		},
		{
			ID:          "week_streak",
			Title:       "On Fire",
			Description: "Study 7 days in a row",
			Icon:        "flame",
			Condition:   "stats.streak >= 7",
		},
		{
			ID:          "month_streak",
			Title:       "Unstoppable",
			Description: "Study 30 days in a row",
			Icon:        "comet",
			Condition:   "stats.streak >= 30",
		},
		{
			ID:          "level_5",
			Title:       "Rising Star",
			Description: "Reach level 5",
			Icon:        "sparkle",
			Condition:   "stats.level >= 5",
		},
		{
			ID:          "level_10",
			Title:       "Word Wizard",
			Description: "Reach level 10",
			Icon:        "wand",
			Condition:   "stats.level >= 10",
		},
		{
			ID:          "quest_hunter",
			Title:       "Quest Hunter",
			Description: "Complete 10 daily quests",
			Icon:        "compass",
			Condition:   "stats.questsCompleted >= 10",
		},
		{
			ID:          "duel_champion",
			Title:       "Duel Champion",
			Description: "Win 5 duels in one week",
			Icon:        "swords",
			Condition:   "stats.weeklyDuelWins >= 5",
		},
	}
}
