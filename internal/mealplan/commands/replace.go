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

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/aggregate"
	"github.com/rghsoftware/mealplanner/internal/mealplan/complexity"
	"github.com/rghsoftware/mealplanner/internal/mealplan/constraints"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/mealplan/rotation"
	"github.com/rghsoftware/mealplanner/internal/mealplan/scoring"
)

// ReplaceMeal implements §4.7's single-slot replacement: load the plan,
// verify it is unlocked, score the slot's eligible pool excluding the
// current recipe, and either take the caller's explicit choice
// (validated) or the top-scoring alternative.
func (s *Service) ReplaceMeal(ctx context.Context, reqCtx RequestContext, planID mealplan.MealPlanID, date mealplan.Date, mealType mealplan.MealType, newRecipeID *mealplan.RecipeID) (ReplacementResult, error) {
	plan, err := s.Plans.LoadPlan(ctx, planID)
	if err != nil {
		return ReplacementResult{}, err
	}
	if err := aggregate.Authorize(plan, reqCtx.UserID); err != nil {
		return ReplacementResult{}, err
	}
	if err := aggregate.CheckUnlocked(plan, mealplan.Today(nil)); err != nil {
		return ReplacementResult{}, err
	}

	key := mealplan.SlotKey{Date: date, MealType: mealType}
	current, ok := plan.Assignments[key]
	if !ok {
		return ReplacementResult{}, &mperrors.InvalidInputError{Field: "date/meal_type", Reason: "no assignment at that slot"}
	}

	recipes, prefs, _, _, err := s.loadGenerationInputs(ctx, reqCtx.UserID)
	if err != nil {
		return ReplacementResult{}, err
	}
	byID := recipeIndex(recipes)

	day := dayContextFor(plan, date, byID, s.now())
	mgr := rotation.New(plan.RotationStateSnapshot.Clone())

	mainPool, err := mgr.FilterEligible(recipesOfType(recipes, mealplan.MainCourse), mealplan.MainCourse)
	if err != nil {
		mgr.StartNewCycle()
		mainPool, err = mgr.FilterEligible(recipesOfType(recipes, mealplan.MainCourse), mealplan.MainCourse)
		if err != nil {
			return ReplacementResult{}, err
		}
	}
	pool := excludeRecipe(mainPool, current.RecipeID)

	var chosen mealplan.Recipe
	var chosenResult scoring.Result

	if newRecipeID != nil {
		candidate, ok := byID[*newRecipeID]
		if !ok {
			return ReplacementResult{}, &mperrors.InvalidInputError{Field: "new_recipe_id", Reason: "not found among eligible favorites"}
		}
		if !containsRecipeID(pool, candidate.ID) {
			return ReplacementResult{}, &mperrors.InvalidInputError{Field: "new_recipe_id", Reason: "not in the slot's eligible pool"}
		}
		slotCtx := scoring.SlotContext{MealType: mealType, MealTime: mealplan.DefaultMealTimes().At(date, mealType, mealplan.ResolveLocation(prefs.Timezone)), Day: day}
		result, ok := scoring.ScoreForSlot(candidate, slotCtx, prefs, mgr.State().CuisineUsageCount, 5)
		if !ok {
			return ReplacementResult{}, &mperrors.InvalidInputError{Field: "new_recipe_id", Reason: "fails a hard constraint for this slot"}
		}
		chosen, chosenResult = candidate, result
	} else {
		best, result, found := bestForSlot(pool, date, mealType, prefs, day, mgr)
		if !found {
			return ReplacementResult{}, &mperrors.SchedulerUnsatisfiableError{SlotDate: date.String(), SlotMeal: mealType.String()}
		}
		chosen, chosenResult = best, result
	}

	if oldRecipe, ok := byID[current.RecipeID]; ok {
		mgr.UnmarkUsed(oldRecipe)
	}
	_, class := complexityOf(chosen)
	mgr.MarkUsed(chosen, class, date)

	newAssignment := mealplan.MealAssignment{
		Date:                  date,
		MealType:              mealType,
		RecipeID:              chosen.ID,
		AccompanimentRecipeID: current.AccompanimentRecipeID,
		AssignmentReasoning:   reasoningForReplace(chosen, chosenResult),
	}

	occurredAt := s.now()
	event := mealplan.MealReplaced{
		PlanID:                planID,
		Date:                  date,
		MealType:              mealType,
		OldRecipeID:           current.RecipeID,
		NewRecipeID:           chosen.ID,
		AccompanimentRecipeID: current.AccompanimentRecipeID,
		Reasoning:             newAssignment.AssignmentReasoning,
	}

	for attempt := 0; attempt < s.maxConcurrencyRetries; attempt++ {
		nextSeq := plan.Sequence() + 1
		err := s.Events.Append(ctx, planID, plan.Sequence(), []mealplan.EventEnvelope{newEnvelope(planID, nextSeq, occurredAt, reqCtx, event)})
		if err == nil {
			return ReplacementResult{Assignment: assignmentDTO(newAssignment), OldRecipeID: current.RecipeID}, nil
		}
		if !errors.Is(err, mperrors.ErrConcurrencyConflict) {
			return ReplacementResult{}, err
		}
		plan, err = s.Plans.LoadPlan(ctx, planID)
		if err != nil {
			return ReplacementResult{}, err
		}
	}

	return ReplacementResult{}, fmt.Errorf("replace meal %s: %w after %d attempts", planID, mperrors.ErrConcurrencyConflict, s.maxConcurrencyRetries)
}

func dayContextFor(plan *mealplan.MealPlan, date mealplan.Date, byID map[mealplan.RecipeID]mealplan.Recipe, now mealplan.Instant) constraints.DayContext {
	day := constraints.NewDayContext(date, now)
	for _, mt := range mealplan.AllMealTypes {
		a, ok := plan.Assignments[mealplan.SlotKey{Date: date, MealType: mt}]
		if !ok {
			continue
		}
		if r, ok := byID[a.RecipeID]; ok {
			constraints.CommitEquipment(&day, r)
		}
	}
	if prevDinner, ok := plan.Assignments[mealplan.SlotKey{Date: date.AddDays(-1), MealType: mealplan.Dinner}]; ok {
		if r, ok := byID[prevDinner.RecipeID]; ok {
			_, class := complexityOf(r)
			day.PreviousDayDinnerComplex = class == mealplan.Complex
		}
	}
	return day
}

func bestForSlot(pool []mealplan.Recipe, date mealplan.Date, mealType mealplan.MealType, prefs mealplan.UserPreferences, day constraints.DayContext, mgr *rotation.Manager) (mealplan.Recipe, scoring.Result, bool) {
	slotCtx := scoring.SlotContext{MealType: mealType, MealTime: mealplan.DefaultMealTimes().At(date, mealType, mealplan.ResolveLocation(prefs.Timezone)), Day: day}
	var best mealplan.Recipe
	var bestResult scoring.Result
	bestScore := float32(-1)
	found := false
	for _, r := range pool {
		result, ok := scoring.ScoreForSlot(r, slotCtx, prefs, mgr.State().CuisineUsageCount, 5)
		if !ok {
			continue
		}
		if result.Score > bestScore {
			best, bestResult, bestScore, found = r, result, result.Score, true
		}
	}
	return best, bestResult, found
}

func complexityOf(r mealplan.Recipe) (float32, mealplan.Complexity) {
	return complexity.Score(r)
}

func reasoningForReplace(r mealplan.Recipe, result scoring.Result) string {
	return fmt.Sprintf("replacement: %s scored %.2f", r.Title, result.Score)
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

func excludeRecipe(recipes []mealplan.Recipe, id mealplan.RecipeID) []mealplan.Recipe {
	out := make([]mealplan.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func containsRecipeID(recipes []mealplan.Recipe, id mealplan.RecipeID) bool {
	for _, r := range recipes {
		if r.ID == id {
			return true
		}
	}
	return false
}
