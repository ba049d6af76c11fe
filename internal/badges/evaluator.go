package badges

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"go.uber.org/zap"

	"lexiquest/internal/models"
)

// Catalog holds the badge definitions with their compiled unlock conditions.
// Conditions are CEL expressions over two map variables, "stats" and "event";
// an entry whose expression fails to compile is kept in the listing but can
// never unlock.
type Catalog struct {
	env      *cel.Env
	badges   []models.Badge
	programs map[string]cel.Program
}

// NewCatalog compiles a badge list into an evaluatable catalog
func NewCatalog(list []models.Badge) (*Catalog, error) {
	env, err := cel.NewEnv(
		cel.Variable("stats", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create badge environment: %w", err)
	}

	c := &Catalog{
		env:      env,
		badges:   list,
		programs: make(map[string]cel.Program, len(list)),
	}

	for _, b := range list {
		ast, iss := env.Compile(b.Condition)
		if iss != nil && iss.Err() != nil {
			zap.S().Warnw("skipping badge with invalid condition", "badge", b.ID, "error", iss.Err())
			continue
		}
		prg, err := env.Program(ast)
		if err != nil {
			zap.S().Warnw("skipping badge with invalid condition", "badge", b.ID, "error", err)
			continue
		}
		c.programs[b.ID] = prg
	}

	return c, nil
}

// Badges returns the catalog entries in definition order
func (c *Catalog) Badges() []models.Badge {
	return c.badges
}

// Satisfied evaluates one badge's condition against the given variables.
// Evaluation errors and non-boolean results count as not satisfied.
func (c *Catalog) Satisfied(badgeID string, stats, event map[string]interface{}) bool {
	prg, ok := c.programs[badgeID]
	if !ok {
		return false
	}
	out, _, err := prg.Eval(map[string]interface{}{
		"stats": stats,
		"event": event,
	})
	if err != nil {
		zap.S().Debugw("badge condition evaluation failed", "badge", badgeID, "error", err)
		return false
	}
	result, ok := out.Value().(bool)
	return ok && result
}

// StatsVars flattens a stats record into the variable map badge conditions see
func StatsVars(st models.UserStats) map[string]interface{} {
	return map[string]interface{}{
		"xp":               st.XP,
		"level":            st.Level,
		"streak":           st.Streak,
		"cardsViewed":      st.CardsViewed,
		"quizCorrect":      st.QuizCorrect,
		"quizWrong":        st.QuizWrong,
		"perfectQuizzes":   st.PerfectQuizzes,
		"memorizedCount":   st.MemorizedCount,
		"questsCompleted":  st.QuestsCompleted,
		"studySeconds":     st.StudySeconds,
		"viewedWordsToday": st.ViewedWordsToday,
		"weeklyXP":         st.Weekly.XP,
		"weeklyDuelWins":   st.Weekly.DuelWins,
	}
}

// EventVars builds the event-context variable map
func EventVars(kind string, value int, game string, perfect bool) map[string]interface{} {
	return map[string]interface{}{
		"kind":    kind,
		"value":   value,
		"game":    game,
		"perfect": perfect,
	}
}
