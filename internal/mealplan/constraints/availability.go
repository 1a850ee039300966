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

// Availability is the soft evaluator from §4.2. Weekends always score
// 1.0; weeknights compare total active time against the household's
// budget. Never Rejects: a Complex recipe may still land on a weeknight
// if nothing else fits, scoring simply drives it away naturally.
func Availability(r mealplan.Recipe, date mealplan.Date, prefs mealplan.UserPreferences) Outcome {
	if date.IsWeekend() {
		return Scored(1.0)
	}
	total := r.PrepTimeMin + r.CookTimeMin
	budget := prefs.MaxPrepTimeWeeknightMin
	switch {
	case total <= budget:
		return Scored(1.0)
	case float64(total) <= 1.25*float64(budget):
		return Scored(0.6)
	default:
		return Scored(0.2)
	}
}
