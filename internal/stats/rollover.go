package stats

import (
	"time"

	"lexiquest/internal/models"
)

// Tick applies the lazy daily and weekly rollover to a stats record. It runs
// at the start of every read and mutation instead of on a schedule, so state
// is always current the moment it is observed.
//
// Weekly: a stale weekId resets the whole weekly sub-record. Daily: a date
// change resets the daily view counter and settles the streak from the gap
// since the last study day (1 day: increment; more: reset to 1 unless a
// streak-freeze consumable covers it, which is then consumed).
//
// Returns whether the stats and the inventory were modified.
func Tick(st *models.UserStats, inv *models.Inventory, now time.Time) (statsChanged, invChanged bool) {
	if weekID := models.ISOWeekID(now); st.Weekly.WeekID != weekID {
		st.Weekly = models.NewWeeklyStats(now)
		statsChanged = true
	}

	today := now.Format(models.DateFormat)
	if st.LastStudyDate == today {
		return statsChanged, invChanged
	}

	switch gap := dayGap(st.LastStudyDate, today); {
	case st.LastStudyDate == "":
		st.Streak = 1
	case gap == 1:
		st.Streak++
	case gap > 1:
		if inv.StreakFreezes > 0 {
			inv.StreakFreezes--
			invChanged = true
		} else {
			st.Streak = 1
		}
	default:
		// Clock moved backwards; leave the streak alone.
	}

	st.ViewedWordsToday = 0
	st.LastStudyDate = today
	return true, invChanged
}

// dayGap returns the whole days between two DateFormat dates
func dayGap(from, to string) int {
	if from == "" || to == "" {
		return 0
	}
	a, err := time.Parse(models.DateFormat, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(models.DateFormat, to)
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}
