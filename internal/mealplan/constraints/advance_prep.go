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

import (
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// AdvancePrepFit is the soft evaluator from §4.2. A recipe with
// advance_prep_hours > 0 is scorable for any slot, but scoring prefers
// slots where the lead time from the plan's generation cutoff to the
// meal is actually achievable.
func AdvancePrepFit(r mealplan.Recipe, mealTime mealplan.Instant, cutoff mealplan.Instant) Outcome {
	if r.AdvancePrepHours == 0 {
		return Scored(1.0)
	}
	lead := mealTime.Sub(cutoff)
	required := time.Duration(r.AdvancePrepHours) * time.Hour
	if lead >= required {
		return Scored(1.0)
	}
	return Scored(0.4)
}
