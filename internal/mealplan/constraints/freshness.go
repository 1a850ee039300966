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
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// Perishability is the highest-perishability ingredient class a recipe
// is classified by (§4.2 Freshness).
type Perishability int

const (
	PerishLow Perishability = iota
	PerishMedium
	PerishHigh
)

var highPerishKeywords = []string{
	"shrimp", "fish", "salmon", "tuna", "cod", "scallop", "crab", "lobster", "seafood",
	"spinach", "lettuce", "arugula", "kale", "watercress", "herbs", "basil", "cilantro",
}

var mediumPerishKeywords = []string{
	"tomato", "zucchini", "mushroom", "pepper", "cucumber", "berries", "avocado",
	"milk", "cream", "yogurt", "cheese", "butter", "egg",
}

// classifyIngredient returns the perishability of a single ingredient
// name via keyword match; unmatched names are assumed pantry/frozen (Low).
func classifyIngredient(name string) Perishability {
	lower := strings.ToLower(name)
	for _, kw := range highPerishKeywords {
		if strings.Contains(lower, kw) {
			return PerishHigh
		}
	}
	for _, kw := range mediumPerishKeywords {
		if strings.Contains(lower, kw) {
			return PerishMedium
		}
	}
	return PerishLow
}

// ClassifyRecipe returns the recipe's highest-perishability ingredient
// class across its ingredient list.
func ClassifyRecipe(r mealplan.Recipe) Perishability {
	highest := PerishLow
	for _, ing := range r.IngredientNames {
		if p := classifyIngredient(ing); p > highest {
			highest = p
		}
	}
	return highest
}

// Freshness is the soft evaluator from §4.2.
func Freshness(r mealplan.Recipe, date mealplan.Date) Outcome {
	switch ClassifyRecipe(r) {
	case PerishHigh:
		switch date.Weekday() {
		case time.Monday, time.Tuesday, time.Wednesday:
			return Scored(1.0)
		case time.Thursday:
			return Scored(0.6)
		default:
			return Scored(0.3)
		}
	case PerishMedium:
		switch date.Weekday() {
		case time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday:
			return Scored(1.0)
		default:
			// Spec defines 1.0 for days 1-5 and is silent on the weekend;
			// treated as a mild (not High-style steep) discount. See DESIGN.md.
			return Scored(0.7)
		}
	default:
		return Scored(1.0)
	}
}
