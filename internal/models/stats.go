package models

import (
	"fmt"
	"math"
	"time"
)

// DateFormat is the calendar-day format used for streak and daily-counter checks
const DateFormat = "2006-01-02"

// UserStats is the gamification record for a learner. Level is always a pure
// function of XP; it is stored only so the remote copy can render without
// recomputing, and must be refreshed via RecomputeLevel after every XP change.
type UserStats struct {
	XP               int            `json:"xp"`
	Level            int            `json:"level"`
	Streak           int            `json:"streak"`
	LastStudyDate    string         `json:"lastStudyDate"`
	Badges           []string       `json:"badges"`
	CardsViewed      int            `json:"cardsViewed"`
	QuizCorrect      int            `json:"quizCorrect"`
	QuizWrong        int            `json:"quizWrong"`
	PerfectQuizzes   int            `json:"perfectQuizzes"`
	MemorizedCount   int            `json:"memorizedCount"`
	QuestsCompleted  int            `json:"questsCompleted"`
	StudySeconds     int            `json:"studySeconds"`
	ViewedWordsToday int            `json:"viewedWordsToday"`
	DailyGoal        int            `json:"dailyGoal"`
	Weekly           WeeklyStats    `json:"weekly"`
	AllTimeBests     map[string]int `json:"allTimeBests"`
	LastGrade        string         `json:"lastGrade"`
	LastUnit         string         `json:"lastUnit"`
	XPBoostEnd       time.Time      `json:"xpBoostEndTime"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// WeeklyStats mirrors a subset of the counters and resets every ISO week.
// WeekID must equal the current ISO week id at read time; a stale id means
// the whole sub-record is reset before use.
type WeeklyStats struct {
	WeekID          string         `json:"weekId"`
	XP              int            `json:"xp"`
	CardsViewed     int            `json:"cardsViewed"`
	QuizCorrect     int            `json:"quizCorrect"`
	QuestsCompleted int            `json:"questsCompleted"`
	StudySeconds    int            `json:"studySeconds"`
	DuelWins        int            `json:"duelWins"`
	GameBests       map[string]int `json:"gameBests"`
}

// DefaultStats returns the stats record used when none is stored
func DefaultStats(now time.Time) UserStats {
	return UserStats{
		Level:        1,
		DailyGoal:    20,
		Weekly:       NewWeeklyStats(now),
		AllTimeBests: make(map[string]int),
	}
}

// NewWeeklyStats returns a zeroed weekly sub-record for the week containing now
func NewWeeklyStats(now time.Time) WeeklyStats {
	return WeeklyStats{
		WeekID:    ISOWeekID(now),
		GameBests: make(map[string]int),
	}
}

// LevelForXP computes the level for a cumulative XP total
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
}

// RecomputeLevel refreshes the stored level from the current XP total
func (s *UserStats) RecomputeLevel() {
	s.Level = LevelForXP(s.XP)
}

// HasBadge reports whether the badge id has already been unlocked
func (s *UserStats) HasBadge(id string) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// ISOWeekID formats the ISO week containing t as e.g. "2026-W36"
func ISOWeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
