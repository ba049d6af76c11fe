package stats

import (
	"testing"
	"time"

	"lexiquest/internal/models"
)

func TestTickDayTransitions(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastStudy   string
		streak      int
		viewedToday int
		freezes     int
		wantStreak  int
		wantViewed  int
		wantFreezes int
		wantChanged bool
	}{
		{
			name:        "same day leaves everything alone",
			lastStudy:   "2026-08-31",
			streak:      3,
			viewedToday: 12,
			wantStreak:  3,
			wantViewed:  12,
		},
		{
			name:        "consecutive day increments streak and resets daily views",
			lastStudy:   "2026-08-30",
			streak:      3,
			viewedToday: 12,
			wantStreak:  4,
			wantChanged: true,
		},
		{
			name:        "gap resets streak when no freeze is held",
			lastStudy:   "2026-08-27",
			streak:      10,
			viewedToday: 5,
			wantStreak:  1,
			wantChanged: true,
		},
		{
			name:        "gap consumes a freeze and keeps the streak",
			lastStudy:   "2026-08-27",
			streak:      10,
			freezes:     2,
			wantStreak:  10,
			wantFreezes: 1,
			wantChanged: true,
		},
		{
			name:        "first study day starts the streak",
			lastStudy:   "",
			streak:      0,
			wantStreak:  1,
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := models.DefaultStats(now)
			st.LastStudyDate = tt.lastStudy
			st.Streak = tt.streak
			st.ViewedWordsToday = tt.viewedToday
			inv := models.Inventory{StreakFreezes: tt.freezes}

			statsChanged, invChanged := Tick(&st, &inv, now)

			if statsChanged != tt.wantChanged {
				t.Errorf("statsChanged = %v, want %v", statsChanged, tt.wantChanged)
			}
			if st.Streak != tt.wantStreak {
				t.Errorf("streak = %d, want %d", st.Streak, tt.wantStreak)
			}
			if st.ViewedWordsToday != tt.wantViewed {
				t.Errorf("viewedWordsToday = %d, want %d", st.ViewedWordsToday, tt.wantViewed)
			}
			if inv.StreakFreezes != tt.wantFreezes {
				t.Errorf("freezes = %d, want %d", inv.StreakFreezes, tt.wantFreezes)
			}
			if invChanged != (tt.freezes != tt.wantFreezes) {
				t.Errorf("invChanged = %v with freezes %d -> %d", invChanged, tt.freezes, inv.StreakFreezes)
			}
			if tt.wantChanged && st.LastStudyDate != now.Format(models.DateFormat) {
				t.Errorf("lastStudyDate = %s, want %s", st.LastStudyDate, now.Format(models.DateFormat))
			}
		})
	}
}

func TestTickWeekReset(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC) // W36

	st := models.DefaultStats(now)
	st.LastStudyDate = "2026-08-30"
	st.Weekly = models.WeeklyStats{
		WeekID:      "2026-W35",
		XP:          900,
		CardsViewed: 40,
		DuelWins:    3,
		GameBests:   map[string]int{"maze": 80},
	}

	Tick(&st, &models.Inventory{}, now)

	if st.Weekly.WeekID != models.ISOWeekID(now) {
		t.Errorf("weekId = %s, want %s", st.Weekly.WeekID, models.ISOWeekID(now))
	}
	if st.Weekly.XP != 0 || st.Weekly.CardsViewed != 0 || st.Weekly.DuelWins != 0 {
		t.Errorf("weekly counters not zeroed: %+v", st.Weekly)
	}
	if len(st.Weekly.GameBests) != 0 {
		t.Errorf("weekly game bests not cleared: %v", st.Weekly.GameBests)
	}
}

func TestTickBackwardsClock(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	st := models.DefaultStats(now)
	st.LastStudyDate = "2026-09-05"
	st.Streak = 6

	Tick(&st, &models.Inventory{}, now)

	if st.Streak != 6 {
		t.Errorf("streak = %d, want 6 (clock skew must not punish)", st.Streak)
	}
}
