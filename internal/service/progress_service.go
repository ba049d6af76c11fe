package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"lexiquest/internal/models"
	"lexiquest/internal/quest"
	"lexiquest/internal/srs"
	"lexiquest/internal/stats"
	"lexiquest/internal/store"
	syncer "lexiquest/internal/sync"
)

// ProgressService orchestrates a study session: every learning action flows
// through here and fans out to the review scheduler, the stats engine and the
// daily quests in one step, then nudges a background sync.
type ProgressService struct {
	mu sync.Mutex

	store      *store.Store
	srs        *srs.Engine
	stats      *stats.Engine
	quests     *quest.Generator
	reconciler *syncer.Reconciler
	profileID  string

	syncInFlight atomic.Bool
}

// NewProgressService creates a progress service. reconciler may be nil when
// the app runs offline only.
func NewProgressService(st *store.Store, srsEngine *srs.Engine, statsEngine *stats.Engine, quests *quest.Generator, reconciler *syncer.Reconciler, profileID string) *ProgressService {
	return &ProgressService{
		store:      st,
		srs:        srsEngine,
		stats:      statsEngine,
		quests:     quests,
		reconciler: reconciler,
		profileID:  profileID,
	}
}

// RecordCardView notes that a word card was shown. First sight of a word
// schedules it for review tomorrow.
func (s *ProgressService) RecordCardView(unitID, english string) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.srs.RegisterInteraction(models.WordKey(unitID, english)); err != nil {
		return stats.ApplyResult{}, err
	}

	result, err := s.stats.ApplyEvent(stats.EventCardView, stats.EventContext{Unit: unitID}, 1)
	if err != nil {
		return stats.ApplyResult{}, err
	}

	s.reportQuest(models.QuestViewCards, 1)
	s.reportQuest(models.QuestEarnXP, result.XPGained)
	s.syncSoon()
	return result, nil
}

// SubmitQuizAnswer grades one quiz answer: XP and counters for the answer
// itself, plus a box move for the word.
func (s *ProgressService) SubmitQuizAnswer(unitID, english string, correct bool) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.srs.RecordOutcome(models.WordKey(unitID, english), correct); err != nil {
		return stats.ApplyResult{}, err
	}

	kind := stats.EventQuizCorrect
	if !correct {
		kind = stats.EventQuizWrong
	}
	result, err := s.stats.ApplyEvent(kind, stats.EventContext{Unit: unitID}, 1)
	if err != nil {
		return stats.ApplyResult{}, err
	}

	s.reportQuest(models.QuestEarnXP, result.XPGained)
	return result, nil
}

// FinishQuiz closes out a quiz. A perfect run additionally bumps the
// perfect-quiz counter and its quest.
func (s *ProgressService) FinishQuiz(perfect bool) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result stats.ApplyResult
	if perfect {
		var err error
		result, err = s.stats.ApplyEvent(stats.EventQuizCorrect, stats.EventContext{Perfect: true}, 0)
		if err != nil {
			return stats.ApplyResult{}, err
		}
		s.reportQuest(models.QuestPerfectQuiz, 1)
		s.reportQuest(models.QuestEarnXP, result.XPGained)
	}

	s.reportQuest(models.QuestFinishQuiz, 1)
	s.syncSoon()
	return result, nil
}

// RecordReview settles a flashcard review: remembered words climb a box,
// forgotten ones drop back to daily review.
func (s *ProgressService) RecordReview(unitID, english string, remembered bool) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.srs.RecordOutcome(models.WordKey(unitID, english), remembered); err != nil {
		return stats.ApplyResult{}, err
	}

	kind := stats.EventReviewRemember
	if !remembered {
		kind = stats.EventReviewForgot
	}
	result, err := s.stats.ApplyEvent(kind, stats.EventContext{Unit: unitID}, 1)
	if err != nil {
		return stats.ApplyResult{}, err
	}

	s.reportQuest(models.QuestEarnXP, result.XPGained)
	s.syncSoon()
	return result, nil
}

// MarkMemorized pins a word to the top box.
func (s *ProgressService) MarkMemorized(unitID, english string) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.srs.MarkMemorized(models.WordKey(unitID, english)); err != nil {
		return stats.ApplyResult{}, err
	}

	result, err := s.stats.ApplyEvent(stats.EventMemorized, stats.EventContext{Unit: unitID}, 1)
	if err != nil {
		return stats.ApplyResult{}, err
	}

	s.reportQuest(models.QuestEarnXP, result.XPGained)
	s.syncSoon()
	return result, nil
}

// UnmarkMemorized puts a word back into rotation. No XP moves; the earlier
// grant is not clawed back.
func (s *ProgressService) UnmarkMemorized(unitID, english string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.srs.UnmarkMemorized(models.WordKey(unitID, english)); err != nil {
		return err
	}
	s.syncSoon()
	return nil
}

// SetBookmark adds or removes a word from the bookmark set. Adding twice is a
// no-op; the set stays sorted for stable sync payloads.
func (s *ProgressService) SetBookmark(unitID, english string, bookmarked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.WordKey(unitID, english)
	bookmarks, err := s.store.Bookmarks(s.profileID)
	if err != nil {
		return err
	}

	idx := sort.SearchStrings(bookmarks, key)
	present := idx < len(bookmarks) && bookmarks[idx] == key
	if bookmarked == present {
		return nil
	}
	if bookmarked {
		bookmarks = append(bookmarks, "")
		copy(bookmarks[idx+1:], bookmarks[idx:])
		bookmarks[idx] = key
	} else {
		bookmarks = append(bookmarks[:idx], bookmarks[idx+1:]...)
	}

	if err := s.store.SaveBookmarks(s.profileID, bookmarks); err != nil {
		return err
	}
	s.syncSoon()
	return nil
}

// Bookmarks lists the bookmarked word keys.
func (s *ProgressService) Bookmarks() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Bookmarks(s.profileID)
}

// RecordGameScore stores a minigame result and advances its play quest.
func (s *ProgressService) RecordGameScore(game string, score int) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.stats.ApplyEvent(stats.EventGameScore, stats.EventContext{Game: game}, score)
	if err != nil {
		return stats.ApplyResult{}, err
	}

	switch game {
	case "matching":
		s.reportQuest(models.QuestPlayMatching, 1)
	case "maze":
		s.reportQuest(models.QuestPlayMaze, 1)
	}
	s.reportQuest(models.QuestEarnXP, result.XPGained)
	s.syncSoon()
	return result, nil
}

// RecordDuelResult applies a finished duel: points are 3 for a win, 1 for a
// draw, 0 for a loss.
func (s *ProgressService) RecordDuelResult(points int) (stats.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.stats.ApplyEvent(stats.EventDuelResult, stats.EventContext{}, points)
	if err != nil {
		return stats.ApplyResult{}, err
	}

	s.reportQuest(models.QuestPlayDuel, 1)
	if points == stats.DuelWin {
		s.reportQuest(models.QuestWinDuel, 1)
	}
	s.reportQuest(models.QuestEarnXP, result.XPGained)
	s.syncSoon()
	return result, nil
}

// AddStudyTime accumulates focused study seconds.
func (s *ProgressService) AddStudyTime(seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stats.AddStudyTime(seconds); err != nil {
		return err
	}
	s.reportQuest(models.QuestStudyTime, seconds)
	return nil
}

// ActivateXPBoost consumes a boost consumable for a doubled-XP window.
func (s *ProgressService) ActivateXPBoost(duration time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.ActivateXPBoost(duration)
}

// Stats returns the current, rolled-over stats record.
func (s *ProgressService) Stats() (models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Stats()
}

// DueWords lists reviews that have come due, soonest first.
func (s *ProgressService) DueWords() []srs.DueWord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srs.DueWords(time.Now())
}

// DueCountForGrade counts due reviews scoped to one grade's units.
func (s *ProgressService) DueCountForGrade(grade string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srs.DueCountForGrade(time.Now(), grade)
}

// MemorizedWords lists the word keys parked in the top box.
func (s *ProgressService) MemorizedWords() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srs.MemorizedSet()
}

// TodayQuests returns the quest set for the current day.
func (s *ProgressService) TodayQuests() (models.DailyQuestState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quests.TodayState()
}

// Sync runs one reconcile pass. The network round trip happens without the
// service lock so gameplay calls never wait on the backend; the lock is taken
// only to reload the review scheduler after a pull.
func (s *ProgressService) Sync(ctx context.Context) (syncer.Action, error) {
	if s.reconciler == nil {
		return syncer.ActionNone, nil
	}

	action, err := s.reconciler.Reconcile(ctx, s.profileID)
	if err != nil {
		return action, err
	}
	if action == syncer.ActionPulled {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.srs.Reload(); err != nil {
			return action, err
		}
	}
	return action, nil
}

// reportQuest forwards progress to the quest generator. Quest bookkeeping
// never fails a learning action; problems are only logged.
func (s *ProgressService) reportQuest(questType models.QuestType, amount int) {
	if amount <= 0 {
		return
	}
	if _, err := s.quests.ReportProgress(questType, amount); err != nil {
		zap.S().Errorw("Failed to record quest progress", "type", questType, "error", err)
	}
}

// syncSoon kicks off a background reconcile unless one is already running.
// Sync failures never surface to gameplay.
func (s *ProgressService) syncSoon() {
	if s.reconciler == nil {
		return
	}
	if !s.syncInFlight.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer s.syncInFlight.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		if _, err := s.Sync(ctx); err != nil {
			zap.S().Warnw("Background sync failed", "profile_id", s.profileID, "error", err)
		}
	}()
}
