package stats

import (
	"time"

	"go.uber.org/zap"

	"lexiquest/internal/badges"
	"lexiquest/internal/models"
	"lexiquest/internal/store"
)

// EventKind routes a gameplay event to its XP delta and counters
type EventKind string

const (
	EventCardView       EventKind = "card_view"
	EventQuizCorrect    EventKind = "quiz_correct"
	EventQuizWrong      EventKind = "quiz_wrong"
	EventMemorized      EventKind = "memorized"
	EventReviewRemember EventKind = "review_remember"
	EventReviewForgot   EventKind = "review_forgot"
	EventDuelResult     EventKind = "duel_result"
	EventGameScore      EventKind = "game_score"
)

// Duel results arrive as match points: 3 win, 1 draw, 0 loss
const (
	DuelWin  = 3
	DuelDraw = 1
	DuelLoss = 0
)

// badgeBonusXP is granted once per newly unlocked badge
const badgeBonusXP = 500

// EventContext carries the non-numeric context of an event, used for badge
// conditions and the last-activity pointer
type EventContext struct {
	Grade   string
	Unit    string
	Game    string
	Perfect bool
}

// ApplyResult reports what one event changed
type ApplyResult struct {
	XPGained  int
	NewBadges []models.Badge
}

// Engine owns XP, level, streak, counters, and badge evaluation. Every
// mutating operation runs the lazy rollover first, applies its delta, and
// persists synchronously.
type Engine struct {
	store     *store.Store
	catalog   *badges.Catalog
	profileID string
	now       func() time.Time
}

// NewEngine creates a stats engine for a profile
func NewEngine(st *store.Store, catalog *badges.Catalog, profileID string) *Engine {
	return &Engine{
		store:     st,
		catalog:   catalog,
		profileID: profileID,
		now:       time.Now,
	}
}

// Stats returns the current stats with the lazy rollover applied. A rollover
// triggered by the read is persisted so weekly.weekId is always current.
func (e *Engine) Stats() (models.UserStats, error) {
	st, err := e.store.Stats(e.profileID)
	if err != nil {
		return models.UserStats{}, err
	}
	profile, err := e.store.Profile(e.profileID)
	if err != nil {
		return models.UserStats{}, err
	}

	statsChanged, profileChanged := Tick(&st, &profile.Inventory, e.now())
	if statsChanged {
		if err := e.store.SaveStats(e.profileID, st); err != nil {
			return models.UserStats{}, err
		}
	}
	if profileChanged {
		if err := e.store.SaveProfile(profile); err != nil {
			return models.UserStats{}, err
		}
	}
	return st, nil
}

// ApplyEvent applies one gameplay event: rollover, XP delta, counters, then a
// single badge pass. Returns the XP gained and any newly unlocked badges.
// Unknown kinds are ignored.
func (e *Engine) ApplyEvent(kind EventKind, ctx EventContext, value int) (ApplyResult, error) {
	if !knownKind(kind) {
		zap.S().Warnw("ignoring unknown event kind", "kind", kind)
		return ApplyResult{}, nil
	}
	if value < 0 {
		value = 0
	}

	st, err := e.store.Stats(e.profileID)
	if err != nil {
		return ApplyResult{}, err
	}
	profile, err := e.store.Profile(e.profileID)
	if err != nil {
		return ApplyResult{}, err
	}

	now := e.now()
	_, profileChanged := Tick(&st, &profile.Inventory, now)

	delta := baseXP(kind, value)
	if now.Before(st.XPBoostEnd) {
		delta *= 2
	}

	e.applyCounters(&st, kind, ctx, value)
	if ctx.Grade != "" {
		st.LastGrade = ctx.Grade
	}
	if ctx.Unit != "" {
		st.LastUnit = ctx.Unit
	}

	st.XP += delta
	st.Weekly.XP += delta
	st.RecomputeLevel()

	// One badge pass per event, against the post-delta stats. The +500 bonus
	// per badge is applied after the pass so it cannot unlock further badges
	// within the same call.
	statsVars := badges.StatsVars(st)
	eventVars := badges.EventVars(string(kind), value, ctx.Game, ctx.Perfect)
	var unlocked []models.Badge
	for _, b := range e.catalog.Badges() {
		if st.HasBadge(b.ID) {
			continue
		}
		if e.catalog.Satisfied(b.ID, statsVars, eventVars) {
			st.Badges = append(st.Badges, b.ID)
			unlocked = append(unlocked, b)
		}
	}
	if len(unlocked) > 0 {
		bonus := badgeBonusXP * len(unlocked)
		st.XP += bonus
		st.Weekly.XP += bonus
		delta += bonus
		st.RecomputeLevel()
	}

	st.UpdatedAt = now
	if err := e.store.SaveStats(e.profileID, st); err != nil {
		return ApplyResult{}, err
	}
	if profileChanged {
		if err := e.store.SaveProfile(profile); err != nil {
			return ApplyResult{}, err
		}
	}

	return ApplyResult{XPGained: delta, NewBadges: unlocked}, nil
}

// RecordGameBest updates the weekly and all-time bests for a mini-game.
// Both are monotonic maxima and move independently.
func (e *Engine) RecordGameBest(game string, score int) error {
	st, err := e.store.Stats(e.profileID)
	if err != nil {
		return err
	}
	profile, err := e.store.Profile(e.profileID)
	if err != nil {
		return err
	}

	now := e.now()
	_, profileChanged := Tick(&st, &profile.Inventory, now)

	if score > st.Weekly.GameBests[game] {
		st.Weekly.GameBests[game] = score
	}
	if score > st.AllTimeBests[game] {
		st.AllTimeBests[game] = score
	}

	st.UpdatedAt = now
	if err := e.store.SaveStats(e.profileID, st); err != nil {
		return err
	}
	if profileChanged {
		return e.store.SaveProfile(profile)
	}
	return nil
}

// AddStudyTime accumulates study time in seconds
func (e *Engine) AddStudyTime(seconds int) error {
	if seconds <= 0 {
		return nil
	}
	st, err := e.store.Stats(e.profileID)
	if err != nil {
		return err
	}
	profile, err := e.store.Profile(e.profileID)
	if err != nil {
		return err
	}

	now := e.now()
	_, profileChanged := Tick(&st, &profile.Inventory, now)

	st.StudySeconds += seconds
	st.Weekly.StudySeconds += seconds
	st.UpdatedAt = now

	if err := e.store.SaveStats(e.profileID, st); err != nil {
		return err
	}
	if profileChanged {
		return e.store.SaveProfile(profile)
	}
	return nil
}

// GrantQuestReward adds a completed quest's reward XP and bumps the quest
// counters. Reward XP skips boost doubling and the badge pass stays with the
// triggering event, so a reward can never grant itself twice.
func (e *Engine) GrantQuestReward(q models.DailyQuest) error {
	st, err := e.store.Stats(e.profileID)
	if err != nil {
		return err
	}

	st.XP += q.RewardXP
	st.Weekly.XP += q.RewardXP
	st.QuestsCompleted++
	st.Weekly.QuestsCompleted++
	st.RecomputeLevel()
	st.UpdatedAt = e.now()

	return e.store.SaveStats(e.profileID, st)
}

// ActivateXPBoost consumes a boost consumable and opens a doubling window
func (e *Engine) ActivateXPBoost(duration time.Duration) (bool, error) {
	profile, err := e.store.Profile(e.profileID)
	if err != nil {
		return false, err
	}
	if profile.Inventory.XPBoosts <= 0 {
		return false, nil
	}

	st, err := e.store.Stats(e.profileID)
	if err != nil {
		return false, err
	}

	now := e.now()
	profile.Inventory.XPBoosts--
	profile.UpdatedAt = now
	st.XPBoostEnd = now.Add(duration)
	st.UpdatedAt = now

	if err := e.store.SaveStats(e.profileID, st); err != nil {
		return false, err
	}
	return true, e.store.SaveProfile(profile)
}

// applyCounters bumps the counters owned by each event kind
func (e *Engine) applyCounters(st *models.UserStats, kind EventKind, ctx EventContext, value int) {
	switch kind {
	case EventCardView:
		st.CardsViewed++
		st.ViewedWordsToday++
		st.Weekly.CardsViewed++
	case EventQuizCorrect:
		st.QuizCorrect += value
		st.Weekly.QuizCorrect += value
		if ctx.Perfect {
			st.PerfectQuizzes++
		}
	case EventQuizWrong:
		st.QuizWrong += value
	case EventMemorized:
		st.MemorizedCount += value
	case EventDuelResult:
		if value == DuelWin {
			st.Weekly.DuelWins++
		}
	case EventGameScore:
		if ctx.Game != "" {
			if value > st.Weekly.GameBests[ctx.Game] {
				st.Weekly.GameBests[ctx.Game] = value
			}
			if value > st.AllTimeBests[ctx.Game] {
				st.AllTimeBests[ctx.Game] = value
			}
		}
	}
}

// baseXP is the fixed XP table per event kind
func baseXP(kind EventKind, value int) int {
	switch kind {
	case EventCardView:
		return 1
	case EventQuizCorrect:
		return 20 * value
	case EventMemorized, EventReviewRemember:
		return 10 * value
	case EventReviewForgot:
		return 2 * value
	case EventDuelResult:
		switch value {
		case DuelWin:
			return 100
		case DuelDraw:
			return 25
		case DuelLoss:
			return 10
		}
		return 0
	default:
		// quiz_wrong and game_score move counters only
		return 0
	}
}

func knownKind(kind EventKind) bool {
	switch kind {
	case EventCardView, EventQuizCorrect, EventQuizWrong, EventMemorized,
		EventReviewRemember, EventReviewForgot, EventDuelResult, EventGameScore:
		return true
	}
	return false
}
