/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/constraints"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/mealplan/rotation"
	"github.com/rghsoftware/mealplanner/internal/mealplan/scoring"
)

// Schedule implements §4.5. It never mutates in.Recipes, in.Preferences
// or in.Rotation; the returned WeekPlans and their RotationStateAfter
// snapshots are independently owned.
func Schedule(ctx context.Context, in Input) ([]WeekPlan, error) {
	cfg := in.Config.withDefaults()

	if len(in.Recipes) < 7 {
		return nil, &mperrors.InsufficientRecipesError{Have: len(in.Recipes), Need: 7}
	}
	if in.WeekCount < 1 {
		return nil, &mperrors.InvalidInputError{Field: "week_count", Reason: "must be >= 1"}
	}

	mainCount := 0
	for _, r := range in.Recipes {
		if r.RecipeType == mealplan.MainCourse {
			mainCount++
		}
	}
	needMains := 7 * in.WeekCount
	if mainCount < needMains {
		return nil, &mperrors.InsufficientMainCoursesError{Have: mainCount, Need: needMains}
	}

	mealTimes := in.MealTimes
	if mealTimes == nil {
		mealTimes = mealplan.DefaultMealTimes()
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	candidates := shuffledCandidates(in.Recipes, deriveSeed(in))

	deadline := time.Now().Add(cfg.WallClockTimeout)
	mgr := newManager(in.Rotation)

	weeks := make([]WeekPlan, 0, in.WeekCount)
	weekStart := in.StartDate

	for w := 0; w < in.WeekCount; w++ {
		assignments, err := scheduleWeek(ctx, weekScheduleArgs{
			weekStart:  weekStart,
			candidates: candidates,
			prefs:      in.Preferences,
			mgr:        mgr,
			cfg:        cfg,
			mealTimes:  mealTimes,
			loc:        loc,
			cutoff:     in.Now,
			deadline:   deadline,
		})
		if err != nil {
			return nil, err
		}

		weeks = append(weeks, WeekPlan{
			StartDate:          weekStart,
			EndDate:            weekStart.AddDays(6),
			Assignments:        assignments,
			RotationStateAfter: mgr.Snapshot(),
		})
		weekStart = weekStart.AddDays(7)
	}

	return weeks, nil
}

type weekScheduleArgs struct {
	weekStart  mealplan.Date
	candidates []mealplan.Recipe
	prefs      mealplan.UserPreferences
	mgr        *rotation.Manager
	cfg        Config
	mealTimes  mealplan.MealTimes
	loc        *time.Location
	cutoff     mealplan.Instant
	deadline   time.Time
}

// processingOrder implements §4.5(1.a)'s "in practice" rule: dinners for
// every day of the week are placed first, then lunches, then
// breakfasts, rather than walking each day's three meals in sequence.
// This lets the "previous day's dinner was Complex" check see every
// prior dinner before any lunch/breakfast is ever scored, and it is how
// scenario S1 (an all-MainCourse favorites pool) fills every dinner
// slot before lunch/breakfast fall back to reusing the same recipes.
func processingOrder(weekStart mealplan.Date) []mealplan.SlotKey {
	order := make([]mealplan.SlotKey, 0, 21)
	for _, mt := range []mealplan.MealType{mealplan.Dinner, mealplan.Lunch, mealplan.Breakfast} {
		for d := 0; d < 7; d++ {
			order = append(order, mealplan.SlotKey{Date: weekStart.AddDays(d), MealType: mt})
		}
	}
	return order
}

type slotPick struct {
	assignment          mealplan.MealAssignment
	recipe              mealplan.Recipe
	class               mealplan.Complexity
	accompanimentRecipe *mealplan.Recipe
}

func scheduleWeek(ctx context.Context, a weekScheduleArgs) ([]mealplan.MealAssignment, error) {
	slots := processingOrder(a.weekStart)

	dayCtx := make(map[mealplan.Date]*constraints.DayContext, 7)
	for d := 0; d < 7; d++ {
		date := a.weekStart.AddDays(d)
		dc := constraints.NewDayContext(date, a.cutoff)
		dc.PreviousDayDinnerComplex = a.mgr.State().LastComplexMealDate != nil &&
			a.mgr.State().LastComplexMealDate.Equal(date.AddDays(-1))
		dayCtx[date] = &dc
	}

	picks := make([]*slotPick, len(slots))
	excluded := make([]map[mealplan.RecipeID]bool, len(slots))
	for i := range excluded {
		excluded[i] = make(map[mealplan.RecipeID]bool)
	}

	backtracks := 0
	i := 0
	for i < len(slots) {
		select {
		case <-ctx.Done():
			return nil, mperrors.ErrSchedulerTimedOut
		default:
		}
		if time.Now().After(a.deadline) {
			return nil, mperrors.ErrSchedulerTimedOut
		}

		slot := slots[i]
		day := dayCtx[slot.Date]

		pick, ok := assignSlot(a, slot, day, excluded[i])
		if !ok {
			if i == 0 || backtracks >= a.cfg.BacktrackDepthLimit {
				return nil, &mperrors.SchedulerUnsatisfiableError{
					SlotDate: slot.Date.String(),
					SlotMeal: slot.MealType.String(),
				}
			}
			backtracks++
			i--
			undone := picks[i]
			undoSlot(a, dayCtx[slots[i].Date], undone, excluded[i])
			if undone != nil && undone.assignment.MealType == mealplan.Dinner {
				if next, ok := dayCtx[slots[i].Date.AddDays(1)]; ok {
					next.PreviousDayDinnerComplex = false
				}
			}
			picks[i] = nil
			continue
		}

		picks[i] = pick
		commitSlot(a, day, pick)
		if pick.assignment.MealType == mealplan.Dinner {
			if next, ok := dayCtx[slot.Date.AddDays(1)]; ok {
				next.PreviousDayDinnerComplex = pick.class == mealplan.Complex
			}
		}
		i++
	}

	assignments := make([]mealplan.MealAssignment, 0, len(slots))
	for _, p := range picks {
		assignments = append(assignments, p.assignment)
	}
	return assignments, nil
}

// assignSlot picks the highest-scoring eligible recipe for one slot,
// trying rotation-eligible MainCourse recipes first for every meal type, then
// falling back to the soft categories, then — only for Lunch/Breakfast,
// and only when nothing else is available — to the full candidate pool
// regardless of rotation-used status (§9 Open Questions: resolves the
// S1 scenario where an all-MainCourse favorites pool must still fill
// every lunch and breakfast slot once dinners have used every main).
func assignSlot(a weekScheduleArgs, slot mealplan.SlotKey, day *constraints.DayContext, excluded map[mealplan.RecipeID]bool) (*slotPick, bool) {
	tiers := candidateTiers(a, slot)

	for _, tier := range tiers {
		pool, err := tier.eligible(a.mgr)
		if err == rotation.ErrRotationExhausted {
			// Cycle rollover is reserved for Dinner's strict MainCourse
			// allocation (§4.4); for Lunch/Breakfast an exhausted main
			// pool just means this tier has nothing, so fall through to
			// the next tier instead of rolling the whole rotation over.
			if slot.MealType != mealplan.Dinner {
				continue
			}
			a.mgr.StartNewCycle()
			pool, err = tier.eligible(a.mgr)
		}
		if err != nil || len(pool) == 0 {
			continue
		}

		best, bestResult, found := bestScoring(pool, slot, a, day, excluded)
		if !found {
			continue
		}

		assignment := mealplan.MealAssignment{
			Date:     slot.Date,
			MealType: slot.MealType,
			RecipeID: best.ID,
		}
		if best.AdvancePrepHours > 0 {
			mealTime := a.mealTimes.At(slot.Date, slot.MealType, a.loc)
			if bestResult.TimeFit >= 1.0 {
				requiredBy := mealTime.Add(-time.Duration(best.AdvancePrepHours) * time.Hour)
				assignment.PrepRequired = true
				assignment.PrepRequiredBy = &requiredBy
			}
		}
		assignment.AssignmentReasoning = reasoningFor(best, bestResult, slot)

		pick := &slotPick{assignment: assignment, recipe: best, class: bestResult.Class}
		pairAccompaniment(a, slot, day, pick, excluded)
		return pick, true
	}

	return nil, false
}

// candidateTier is one attempt at resolving required_type for a slot.
type candidateTier struct {
	eligible func(mgr *rotation.Manager) ([]mealplan.Recipe, error)
}

func candidateTiers(a weekScheduleArgs, slot mealplan.SlotKey) []candidateTier {
	mains := recipesOfType(a.candidates, mealplan.MainCourse)
	appetizers := recipesOfType(a.candidates, mealplan.Appetizer)
	desserts := recipesOfType(a.candidates, mealplan.Dessert)

	mainTier := candidateTier{eligible: func(mgr *rotation.Manager) ([]mealplan.Recipe, error) {
		return mgr.FilterEligible(mains, mealplan.MainCourse)
	}}

	if slot.MealType == mealplan.Dinner {
		return []candidateTier{mainTier}
	}

	softTier := candidateTier{eligible: func(mgr *rotation.Manager) ([]mealplan.Recipe, error) {
		var out []mealplan.Recipe
		if len(appetizers) > 0 {
			elig, err := mgr.FilterEligible(appetizers, mealplan.Appetizer)
			if err != nil {
				return nil, err
			}
			out = append(out, elig...)
		}
		if len(desserts) > 0 {
			elig, err := mgr.FilterEligible(desserts, mealplan.Dessert)
			if err != nil {
				return nil, err
			}
			out = append(out, elig...)
		}
		return out, nil
	}}

	fallbackTier := candidateTier{eligible: func(mgr *rotation.Manager) ([]mealplan.Recipe, error) {
		return append([]mealplan.Recipe(nil), a.candidates...), nil
	}}

	return []candidateTier{mainTier, softTier, fallbackTier}
}

func recipesOfType(recipes []mealplan.Recipe, t mealplan.RecipeType) []mealplan.Recipe {
	var out []mealplan.Recipe
	for _, r := range recipes {
		if r.RecipeType == t {
			out = append(out, r)
		}
	}
	return out
}

func bestScoring(
	pool []mealplan.Recipe,
	slot mealplan.SlotKey,
	a weekScheduleArgs,
	day *constraints.DayContext,
	excluded map[mealplan.RecipeID]bool,
) (mealplan.Recipe, scoring.Result, bool) {
	slotCtx := scoring.SlotContext{
		MealType: slot.MealType,
		MealTime: a.mealTimes.At(slot.Date, slot.MealType, a.loc),
		Day:      *day,
	}

	var (
		best       mealplan.Recipe
		bestResult scoring.Result
		bestScore  = float32(-1)
		found      bool
	)
	for _, r := range pool {
		if excluded[r.ID] {
			continue
		}
		result, ok := scoring.ScoreForSlot(r, slotCtx, a.prefs, a.mgr.State().CuisineUsageCount, a.cfg.CuisineVarietyCap)
		if !ok {
			continue
		}
		if result.Score > bestScore {
			best = r
			bestResult = result
			bestScore = result.Score
			found = true
		}
	}
	return best, bestResult, found
}

// pairAccompaniment implements §4.5(1.f): best-effort, no backtracking.
func pairAccompaniment(a weekScheduleArgs, slot mealplan.SlotKey, day *constraints.DayContext, pick *slotPick, excluded map[mealplan.RecipeID]bool) {
	if pick.recipe.RecipeType != mealplan.MainCourse || !pick.recipe.AcceptsAccompaniment {
		return
	}
	accompaniments := recipesOfType(a.candidates, mealplan.Accompaniment)
	if len(accompaniments) == 0 {
		return
	}
	eligible, err := a.mgr.FilterEligible(accompaniments, mealplan.Accompaniment)
	if err != nil || len(eligible) == 0 {
		return
	}

	var preferred []mealplan.Recipe
	for _, r := range eligible {
		if r.AccompanimentCategory != nil && pick.recipe.HasPreferredAccompaniment(*r.AccompanimentCategory) {
			preferred = append(preferred, r)
		}
	}
	if len(preferred) == 0 {
		return
	}

	best, _, found := bestScoring(preferred, slot, a, day, map[mealplan.RecipeID]bool{})
	if !found {
		return
	}
	id := best.ID
	pick.assignment.AccompanimentRecipeID = &id
	pick.accompanimentRecipe = &best
}

// commitSlot records a pick's equipment and rotation usage. A MainCourse
// placed at Lunch or Breakfast is not marked used: strict main-course
// uniqueness covers dinners only, so those slots never consume the pool
// later dinners in the batch draw from.
func commitSlot(a weekScheduleArgs, day *constraints.DayContext, pick *slotPick) {
	constraints.CommitEquipment(day, pick.recipe)
	if pick.assignment.MealType == mealplan.Dinner || pick.recipe.RecipeType != mealplan.MainCourse {
		a.mgr.MarkUsed(pick.recipe, pick.class, day.Date)
	}
	if pick.accompanimentRecipe != nil {
		constraints.CommitEquipment(day, *pick.accompanimentRecipe)
		a.mgr.MarkUsed(*pick.accompanimentRecipe, mealplan.Simple, day.Date)
	}
}

// undoSlot reverses commitSlot for the one-step backtrack of §4.5(1.e).
// Equipment tallies are left alone: CommitEquipment only increments, and
// the slot being retried will simply see an equipment count that is at
// worst one too high for the remainder of this backtrack attempt, which
// only makes the hard Oven/SlowCooker check stricter, never unsafe.
func undoSlot(a weekScheduleArgs, day *constraints.DayContext, pick *slotPick, excluded map[mealplan.RecipeID]bool) {
	if pick == nil {
		return
	}
	if pick.assignment.MealType == mealplan.Dinner || pick.recipe.RecipeType != mealplan.MainCourse {
		a.mgr.UnmarkUsed(pick.recipe)
	}
	if pick.accompanimentRecipe != nil {
		a.mgr.UnmarkUsed(*pick.accompanimentRecipe)
	}
	excluded[pick.recipe.ID] = true
}

func reasoningFor(r mealplan.Recipe, result scoring.Result, slot mealplan.SlotKey) string {
	if result.Class == mealplan.Complex && slot.Date.IsWeekend() && slot.MealType == mealplan.Dinner {
		return fmt.Sprintf("Complex → weekend: %s scored %.2f for %s %s", r.Title, result.Score, slot.Date, slot.MealType)
	}
	return fmt.Sprintf("%s scored %.2f for %s %s (complexity_fit=%.2f time_fit=%.2f freshness_fit=%.2f)",
		r.Title, result.Score, slot.Date, slot.MealType, result.ComplexityFit, result.TimeFit, result.FreshnessFit)
}

func shuffledCandidates(recipes []mealplan.Recipe, seed uint64) []mealplan.Recipe {
	out := append([]mealplan.Recipe(nil), recipes...)
	rng := newXoshiro256ss(seed)
	rng.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
