package stats

import (
	"testing"
	"time"

	"lexiquest/internal/badges"
	"lexiquest/internal/database"
	"lexiquest/internal/models"
	"lexiquest/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()

	db, err := database.Initialize(t.TempDir() + "/stats_test.db")
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	catalog, err := badges.NewCatalog(badges.DefaultCatalog())
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	st := store.New(db)
	engine := NewEngine(st, catalog, "p1")
	return engine, st
}

func fixedTime(engine *Engine, at time.Time) {
	engine.now = func() time.Time { return at }
}

func TestApplyEventXPTable(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		kind   EventKind
		value  int
		wantXP int
	}{
		{name: "card view", kind: EventCardView, value: 1, wantXP: 1},
		{name: "quiz correct scales with count", kind: EventQuizCorrect, value: 5, wantXP: 100},
		{name: "quiz wrong moves no xp", kind: EventQuizWrong, value: 2, wantXP: 0},
		{name: "memorized", kind: EventMemorized, value: 2, wantXP: 20},
		{name: "review remember", kind: EventReviewRemember, value: 1, wantXP: 10},
		{name: "review forgot", kind: EventReviewForgot, value: 1, wantXP: 2},
		{name: "duel win", kind: EventDuelResult, value: DuelWin, wantXP: 100},
		{name: "duel draw", kind: EventDuelResult, value: DuelDraw, wantXP: 25},
		{name: "duel loss", kind: EventDuelResult, value: DuelLoss, wantXP: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, st := newTestEngine(t)
			fixedTime(engine, now)

			// Pre-own every badge so bonuses don't disturb the XP delta
			seed := models.DefaultStats(now)
			for _, b := range badges.DefaultCatalog() {
				seed.Badges = append(seed.Badges, b.ID)
			}
			if err := st.SaveStats("p1", seed); err != nil {
				t.Fatalf("SaveStats() error: %v", err)
			}

			result, err := engine.ApplyEvent(tt.kind, EventContext{}, tt.value)
			if err != nil {
				t.Fatalf("ApplyEvent() error: %v", err)
			}
			if result.XPGained != tt.wantXP {
				t.Errorf("XPGained = %d, want %d", result.XPGained, tt.wantXP)
			}
		})
	}
}

func TestQuizCorrectReachesLevelTwo(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixedTime(engine, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	// 5 correct answers from zero: 100 XP, level floor(sqrt(100/100))+1 = 2
	if _, err := engine.ApplyEvent(EventQuizCorrect, EventContext{}, 5); err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}

	st, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if st.XP < 100 {
		t.Errorf("xp = %d, want >= 100", st.XP)
	}
	if st.Level != models.LevelForXP(st.XP) {
		t.Errorf("level = %d, want %d (pure function of xp)", st.Level, models.LevelForXP(st.XP))
	}
}

func TestXPBoostDoubling(t *testing.T) {
	engine, st := newTestEngine(t)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	fixedTime(engine, now)

	seed := models.DefaultStats(now)
	seed.XPBoostEnd = now.Add(time.Hour)
	for _, b := range badges.DefaultCatalog() {
		seed.Badges = append(seed.Badges, b.ID)
	}
	if err := st.SaveStats("p1", seed); err != nil {
		t.Fatalf("SaveStats() error: %v", err)
	}

	result, err := engine.ApplyEvent(EventQuizCorrect, EventContext{}, 5)
	if err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}
	if result.XPGained != 200 {
		t.Errorf("boosted XPGained = %d, want 200", result.XPGained)
	}

	// Window elapsed: back to the base delta
	fixedTime(engine, now.Add(2*time.Hour))
	result, err = engine.ApplyEvent(EventQuizCorrect, EventContext{}, 5)
	if err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}
	if result.XPGained != 100 {
		t.Errorf("post-boost XPGained = %d, want 100", result.XPGained)
	}
}

func TestBadgeUnlockGrantsBonusOnce(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixedTime(engine, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	result, err := engine.ApplyEvent(EventCardView, EventContext{}, 1)
	if err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}

	found := false
	for _, b := range result.NewBadges {
		if b.ID == "first_steps" {
			found = true
		}
	}
	if !found {
		t.Fatalf("first card view should unlock first_steps, got %v", result.NewBadges)
	}
	// 1 XP for the view plus the flat 500 bonus
	if result.XPGained != 501 {
		t.Errorf("XPGained = %d, want 501", result.XPGained)
	}

	// Badge idempotence: replaying the event unlocks nothing new
	result, err = engine.ApplyEvent(EventCardView, EventContext{}, 1)
	if err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}
	if len(result.NewBadges) != 0 {
		t.Errorf("second event unlocked %v, want none", result.NewBadges)
	}

	st, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	owned := 0
	for _, id := range st.Badges {
		if id == "first_steps" {
			owned++
		}
	}
	if owned != 1 {
		t.Errorf("first_steps owned %d times, want exactly 1", owned)
	}
}

func TestXPMonotonicNonDecrease(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixedTime(engine, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	events := []struct {
		kind  EventKind
		value int
	}{
		{EventCardView, 1},
		{EventQuizWrong, 3},
		{EventQuizCorrect, 2},
		{EventReviewForgot, 1},
		{EventDuelResult, DuelLoss},
		{EventGameScore, 40},
		{EventMemorized, 0},
	}

	prev := 0
	for _, ev := range events {
		if _, err := engine.ApplyEvent(ev.kind, EventContext{Game: "maze"}, ev.value); err != nil {
			t.Fatalf("ApplyEvent(%s) error: %v", ev.kind, err)
		}
		st, err := engine.Stats()
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if st.XP < prev {
			t.Fatalf("xp decreased from %d to %d after %s", prev, st.XP, ev.kind)
		}
		if st.Level != models.LevelForXP(st.XP) {
			t.Fatalf("level %d diverged from xp %d after %s", st.Level, st.XP, ev.kind)
		}
		prev = st.XP
	}
}

func TestStreakTransitions(t *testing.T) {
	today := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastStudy   string
		startStreak int
		freezes     int
		wantStreak  int
		wantFreezes int
	}{
		{name: "studied yesterday increments", lastStudy: "2026-08-30", startStreak: 4, wantStreak: 5},
		{name: "same day is a no-op", lastStudy: "2026-08-31", startStreak: 4, wantStreak: 4},
		{name: "five day gap without freeze resets", lastStudy: "2026-08-26", startStreak: 9, wantStreak: 1},
		{name: "five day gap consumes freeze", lastStudy: "2026-08-26", startStreak: 9, freezes: 1, wantStreak: 9, wantFreezes: 0},
		{name: "first ever study day", lastStudy: "", startStreak: 0, wantStreak: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, st := newTestEngine(t)
			fixedTime(engine, today)

			seed := models.DefaultStats(today)
			seed.LastStudyDate = tt.lastStudy
			seed.Streak = tt.startStreak
			if err := st.SaveStats("p1", seed); err != nil {
				t.Fatalf("SaveStats() error: %v", err)
			}
			if err := st.SaveProfile(models.UserProfile{
				ID:        "p1",
				Inventory: models.Inventory{StreakFreezes: tt.freezes},
			}); err != nil {
				t.Fatalf("SaveProfile() error: %v", err)
			}

			if _, err := engine.ApplyEvent(EventCardView, EventContext{}, 1); err != nil {
				t.Fatalf("ApplyEvent() error: %v", err)
			}

			got, err := engine.Stats()
			if err != nil {
				t.Fatalf("Stats() error: %v", err)
			}
			if got.Streak != tt.wantStreak {
				t.Errorf("streak = %d, want %d", got.Streak, tt.wantStreak)
			}

			profile, err := st.Profile("p1")
			if err != nil {
				t.Fatalf("Profile() error: %v", err)
			}
			if profile.Inventory.StreakFreezes != tt.wantFreezes {
				t.Errorf("freezes = %d, want %d", profile.Inventory.StreakFreezes, tt.wantFreezes)
			}
		})
	}
}

func TestWeeklyRollover(t *testing.T) {
	engine, st := newTestEngine(t)
	inWeek := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)   // W35
	nextWeek := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) // W36
	fixedTime(engine, inWeek)

	if _, err := engine.ApplyEvent(EventQuizCorrect, EventContext{}, 5); err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}

	before, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if before.Weekly.XP == 0 {
		t.Fatal("weekly xp should be populated before the rollover")
	}
	allTimeXP := before.XP

	// Cross the ISO week boundary; a plain read must roll the sub-record
	fixedTime(engine, nextWeek)
	after, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if after.Weekly.WeekID != models.ISOWeekID(nextWeek) {
		t.Errorf("weekId = %s, want %s", after.Weekly.WeekID, models.ISOWeekID(nextWeek))
	}
	if after.Weekly.XP != 0 || after.Weekly.QuizCorrect != 0 {
		t.Errorf("weekly counters = %+v, want zeroed", after.Weekly)
	}
	if after.XP != allTimeXP {
		t.Errorf("all-time xp = %d, want untouched %d", after.XP, allTimeXP)
	}

	// And the persisted copy agrees
	stored, err := st.Stats("p1")
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stored.Weekly.WeekID != models.ISOWeekID(nextWeek) {
		t.Errorf("persisted weekId = %s, want %s", stored.Weekly.WeekID, models.ISOWeekID(nextWeek))
	}
}

func TestRecordGameBest(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixedTime(engine, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	scores := []struct {
		score    int
		wantBest int
	}{
		{score: 40, wantBest: 40},
		{score: 90, wantBest: 90},
		{score: 60, wantBest: 90}, // never decreases
	}

	for _, s := range scores {
		if err := engine.RecordGameBest("matching", s.score); err != nil {
			t.Fatalf("RecordGameBest() error: %v", err)
		}
		st, err := engine.Stats()
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if st.AllTimeBests["matching"] != s.wantBest {
			t.Errorf("all-time best = %d, want %d", st.AllTimeBests["matching"], s.wantBest)
		}
		if st.Weekly.GameBests["matching"] != s.wantBest {
			t.Errorf("weekly best = %d, want %d", st.Weekly.GameBests["matching"], s.wantBest)
		}
	}
}

func TestUnknownEventKindIsNoOp(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixedTime(engine, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	result, err := engine.ApplyEvent(EventKind("mystery"), EventContext{}, 99)
	if err != nil {
		t.Fatalf("ApplyEvent() error: %v", err)
	}
	if result.XPGained != 0 || len(result.NewBadges) != 0 {
		t.Errorf("unknown kind changed state: %+v", result)
	}
}

func TestGrantQuestReward(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixedTime(engine, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	quest := models.DailyQuest{ID: "daily_xp", RewardXP: 150}
	if err := engine.GrantQuestReward(quest); err != nil {
		t.Fatalf("GrantQuestReward() error: %v", err)
	}

	st, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if st.XP != 150 {
		t.Errorf("xp = %d, want 150", st.XP)
	}
	if st.QuestsCompleted != 1 || st.Weekly.QuestsCompleted != 1 {
		t.Errorf("quest counters = %d/%d, want 1/1", st.QuestsCompleted, st.Weekly.QuestsCompleted)
	}
}
