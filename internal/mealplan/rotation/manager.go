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

// Package rotation implements the C4 rotation manager: per-category
// usage tracking across weeks, with strict uniqueness for main courses
// and soft resets for appetizers/desserts/accompaniments.
package rotation

import (
	"errors"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// ErrRotationExhausted is returned by FilterEligible for MainCourse when
// every main course has been used this cycle. The caller (the
// scheduler) responds by incrementing the cycle and retrying.
var ErrRotationExhausted = errors.New("rotation exhausted")

// Manager wraps a RotationState and exposes the §4.4 API. It mutates
// the wrapped state in place; callers that need isolation should pass
// Manager a cloned RotationState.
type Manager struct {
	state mealplan.RotationState
}

func New(state mealplan.RotationState) *Manager {
	return &Manager{state: state}
}

// State returns the manager's current (mutated) rotation state.
func (m *Manager) State() mealplan.RotationState { return m.state }

// Snapshot returns an immutable, independently-owned copy of the
// current rotation state for event payloads and persistence.
func (m *Manager) Snapshot() mealplan.RotationState { return m.state.Clone() }

// FilterEligible implements §4.4's filtering + reset semantics.
func (m *Manager) FilterEligible(recipes []mealplan.Recipe, recipeType mealplan.RecipeType) ([]mealplan.Recipe, error) {
	used := m.usedSet(recipeType)

	eligible := make([]mealplan.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if !containsID(used, r.ID) {
			eligible = append(eligible, r)
		}
	}

	if len(eligible) > 0 {
		return eligible, nil
	}

	if len(recipes) == 0 {
		return eligible, nil
	}

	if recipeType == mealplan.MainCourse {
		// Strict uniqueness: an exhausted pool with at least one main
		// course available is a cycle rollover, signaled to the caller.
		return nil, ErrRotationExhausted
	}

	// Soft category: reset the used set in place and return the full pool.
	m.clearUsedSet(recipeType)
	return append([]mealplan.Recipe(nil), recipes...), nil
}

// StartNewCycle increments cycle_number and clears used_main_course_ids,
// called by the scheduler after FilterEligible signals ErrRotationExhausted.
func (m *Manager) StartNewCycle() {
	m.state.CycleNumber++
	m.state.UsedMainCourseIDs = nil
}

// MarkUsed inserts the recipe into the appropriate used-set, increments
// cuisine usage, and updates last_complex_meal_date for Complex recipes.
func (m *Manager) MarkUsed(r mealplan.Recipe, class mealplan.Complexity, date mealplan.Date) {
	set := m.usedSetPtr(r.RecipeType)
	if !containsID(*set, r.ID) {
		*set = append(*set, r.ID)
	}

	if r.Cuisine != "" {
		if m.state.CuisineUsageCount == nil {
			m.state.CuisineUsageCount = make(map[string]uint32)
		}
		m.state.CuisineUsageCount[r.Cuisine]++
	}

	if class == mealplan.Complex {
		d := date
		m.state.LastComplexMealDate = &d
	}
}

// UnmarkUsed reverses a prior MarkUsed, used by Regenerate (§4.7, §8 S10)
// to subtract the old plan's rotation entries before scoring the new one.
// Cuisine usage counts are decremented but never pushed below zero.
func (m *Manager) UnmarkUsed(r mealplan.Recipe) {
	set := m.usedSetPtr(r.RecipeType)
	*set = removeID(*set, r.ID)

	if r.Cuisine != "" {
		if c, ok := m.state.CuisineUsageCount[r.Cuisine]; ok && c > 0 {
			m.state.CuisineUsageCount[r.Cuisine] = c - 1
		}
	}
}

func (m *Manager) usedSet(t mealplan.RecipeType) []mealplan.RecipeID {
	return *m.usedSetPtr(t)
}

func (m *Manager) usedSetPtr(t mealplan.RecipeType) *[]mealplan.RecipeID {
	switch t {
	case mealplan.MainCourse:
		return &m.state.UsedMainCourseIDs
	case mealplan.Appetizer:
		return &m.state.UsedAppetizerIDs
	case mealplan.Dessert:
		return &m.state.UsedDessertIDs
	case mealplan.Accompaniment:
		return &m.state.UsedAccompanimentIDs
	default:
		return &m.state.UsedMainCourseIDs
	}
}

func (m *Manager) clearUsedSet(t mealplan.RecipeType) {
	*m.usedSetPtr(t) = nil
}

func containsID(ids []mealplan.RecipeID, id mealplan.RecipeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []mealplan.RecipeID, id mealplan.RecipeID) []mealplan.RecipeID {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
