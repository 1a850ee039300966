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
	"strings"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// equipmentKeywords implements the §4.2 instruction-text keyword index.
// Checked in this order; a recipe can only infer one Oven/SlowCooker use
// but Stovetop/Grill are unlimited so only Oven/SlowCooker feed the
// conflict check.
var equipmentKeywords = []struct {
	equipment mealplan.Equipment
	keywords  []string
}{
	{mealplan.Oven, []string{"bake", "roast"}},
	{mealplan.SlowCooker, []string{"slow cook", "crockpot"}},
	{mealplan.Stovetop, []string{"simmer", "sauté", "saute", "skillet"}},
	{mealplan.Grill, []string{"grill", "bbq"}},
}

// InferEquipment returns every Equipment whose keyword appears in the
// recipe's instruction text.
func InferEquipment(instructionText string) []mealplan.Equipment {
	lower := strings.ToLower(instructionText)
	var used []mealplan.Equipment
	for _, e := range equipmentKeywords {
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				used = append(used, e.equipment)
				break
			}
		}
	}
	return used
}

// EquipmentConflict is the hard, same-day-only evaluator (§4.2): at most
// one Oven recipe and at most one SlowCooker recipe per day across the
// three meals. Stovetop and Grill are unlimited.
func EquipmentConflict(recipe mealplan.Recipe, day DayContext) Outcome {
	for _, eq := range InferEquipment(recipe.InstructionText) {
		if eq != mealplan.Oven && eq != mealplan.SlowCooker {
			continue
		}
		if day.EquipmentUsedToday[eq] >= 1 {
			return Reject()
		}
	}
	return Scored(1.0)
}

// CommitEquipment records the equipment a chosen recipe uses so later
// slots on the same day see the updated tally. Called by the scheduler
// after a pick is committed, not by EquipmentConflict itself (which must
// stay a pure read).
func CommitEquipment(day *DayContext, recipe mealplan.Recipe) {
	for _, eq := range InferEquipment(recipe.InstructionText) {
		day.EquipmentUsedToday[eq]++
	}
}
