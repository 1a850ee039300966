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

package constraints

import "github.com/rghsoftware/mealplanner/internal/mealplan"

// ComplexityFit is the soft evaluator from §4.2, keyed off the recipe's
// complexity class and the day category, with an additional penalty
// when avoid_consecutive_complex fires on a Complex dinner following a
// Complex dinner the day before.
func ComplexityFit(class mealplan.Complexity, date mealplan.Date, mealType mealplan.MealType, prefs mealplan.UserPreferences, day DayContext) Outcome {
	var score float32
	weekend := date.IsWeekend()

	switch class {
	case mealplan.Complex:
		if weekend {
			score = 1.0
		} else {
			score = 0.3
		}
	case mealplan.Simple:
		if weekend {
			score = 0.6
		} else {
			score = 1.0
		}
	default: // Moderate
		score = 0.8
	}

	if prefs.AvoidConsecutiveComplex &&
		mealType == mealplan.Dinner &&
		class == mealplan.Complex &&
		day.PreviousDayDinnerComplex {
		score *= 0.3
	}

	return Scored(score)
}
