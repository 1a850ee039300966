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

// Dietary is the hard evaluator from §4.2: the recipe passes iff its
// dietary_tags cover every restriction in user_prefs.dietary_restrictions.
// Custom restrictions are opaque strings compared exactly.
func Dietary(r mealplan.Recipe, restrictions []mealplan.DietaryTag) Outcome {
	for _, required := range restrictions {
		if !r.HasDietaryTag(required) {
			return Reject()
		}
	}
	return Scored(1.0)
}

// SatisfiesDietary is a convenience boolean wrapper used outside the
// slot-scoring hot path (e.g. ReplaceMeal's new_recipe_id validation).
func SatisfiesDietary(r mealplan.Recipe, restrictions []mealplan.DietaryTag) bool {
	return !Dietary(r, restrictions).Rejected()
}
