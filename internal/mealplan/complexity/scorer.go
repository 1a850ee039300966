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

// Package complexity implements the C1 complexity scorer: a pure,
// total, deterministic recipe -> (score, class) function.
package complexity

import "github.com/rghsoftware/mealplanner/internal/mealplan"

// Score computes the complexity score and class for a recipe per §4.1.
// Ties at the class boundaries resolve to the lower class (<=, not <).
func Score(r mealplan.Recipe) (float32, mealplan.Complexity) {
	score := 0.3*float32(r.IngredientCount) +
		0.4*float32(r.InstructionStepCount) +
		0.3*advancePrepMultiplier(r.AdvancePrepHours)

	return score, classify(score)
}

func advancePrepMultiplier(hours uint32) float32 {
	switch {
	case hours == 0:
		return 0
	case hours < 4:
		return 50
	default:
		return 100
	}
}

func classify(score float32) mealplan.Complexity {
	switch {
	case score < 30:
		return mealplan.Simple
	case score <= 60:
		return mealplan.Moderate
	default:
		return mealplan.Complex
	}
}
