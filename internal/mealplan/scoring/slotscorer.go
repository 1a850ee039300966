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

// Package scoring implements the C3 slot scorer, composing the C2
// constraint evaluators into one weighted [0,1] score per (recipe, slot).
package scoring

import (
	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/complexity"
	"github.com/rghsoftware/mealplanner/internal/mealplan/constraints"
)

// DefaultCuisineVarietyCap is the saturation point of the cuisine-usage
// penalty (§6.5 scheduler.cuisine_variety_cap, default 5).
const DefaultCuisineVarietyCap = 5

// SlotContext carries everything about the target slot that isn't part
// of the recipe or user preferences: the resolved meal time, the
// generation cutoff, and the same-day/previous-day state.
type SlotContext struct {
	MealType mealplan.MealType
	MealTime mealplan.Instant
	Day      constraints.DayContext
}

// Result is a scored, non-rejected outcome together with the reasoning
// fragments that produced it, so callers can build assignment_reasoning.
type Result struct {
	Score      float32
	Class      mealplan.Complexity
	RawScore   float32
	ComplexityFit float32
	TimeFit       float32
	FreshnessFit  float32
}

// ScoreForSlot implements §4.3. Hard constraints first (dietary,
// equipment); rotation eligibility is enforced by the caller via
// internal/mealplan/rotation.Manager.FilterEligible before this is ever
// called, per §4.2's "Rotation (hard, from C4)".
func ScoreForSlot(
	recipe mealplan.Recipe,
	slot SlotContext,
	prefs mealplan.UserPreferences,
	cuisineUsage map[string]uint32,
	cuisineVarietyCap int,
) (Result, bool) {
	if constraints.Dietary(recipe, prefs.DietaryRestrictions).Rejected() {
		return Result{}, false
	}
	if constraints.EquipmentConflict(recipe, slot.Day).Rejected() {
		return Result{}, false
	}

	_, class := complexity.Score(recipe)

	availability := constraints.Availability(recipe, slot.Day.Date, prefs).Score()
	complexityFit := constraints.ComplexityFit(class, slot.Day.Date, slot.MealType, prefs, slot.Day).Score()
	timeFit := constraints.AdvancePrepFit(recipe, slot.MealTime, slot.Day.PlanCutoff).Score()
	freshnessFit := constraints.Freshness(recipe, slot.Day.Date).Score()

	combinedComplexityFit := (availability + complexityFit) / 2.0
	combined := 0.4*combinedComplexityFit + 0.4*timeFit + 0.2*freshnessFit

	if cuisineVarietyCap <= 0 {
		cuisineVarietyCap = DefaultCuisineVarietyCap
	}
	if recipe.Cuisine != "" {
		u := cuisineUsage[recipe.Cuisine]
		if int(u) > cuisineVarietyCap {
			u = uint32(cuisineVarietyCap)
		}
		penalty := prefs.CuisineVarietyWeight * float32(u) / float32(cuisineVarietyCap)
		combined *= 1.0 - penalty
	}

	if combined < 0 {
		combined = 0
	}
	if combined > 1 {
		combined = 1
	}

	return Result{
		Score:         combined,
		Class:         class,
		ComplexityFit: combinedComplexityFit,
		TimeFit:       timeFit,
		FreshnessFit:  freshnessFit,
	}, true
}
