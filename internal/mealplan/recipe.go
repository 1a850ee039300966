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

package mealplan

// Recipe is an immutable value record read from the external recipe
// service. The core never writes recipes; see SPEC_FULL.md §3 for the
// FavoritesGateway that supplies these.
type Recipe struct {
	ID                      RecipeID
	OwnerID                 UserID
	RecipeType              RecipeType
	Title                   string
	IngredientCount         uint32
	InstructionStepCount    uint32
	PrepTimeMin             uint32
	CookTimeMin             uint32
	AdvancePrepHours        uint32
	AdvancePrepText         string
	ServingSize             uint32
	DietaryTags             []DietaryTag
	Cuisine                 string
	AcceptsAccompaniment    bool
	PreferredAccompaniments []AccompanimentCategory
	AccompanimentCategory   *AccompanimentCategory
	// InstructionText feeds the equipment/freshness keyword inference in
	// internal/mealplan/constraints; it is not otherwise part of the DTO
	// surface the scheduler returns to callers.
	InstructionText string
	IngredientNames []string
}

// HasDietaryTag reports whether the recipe carries the given tag.
func (r Recipe) HasDietaryTag(tag DietaryTag) bool {
	for _, t := range r.DietaryTags {
		if t.Equal(tag) {
			return true
		}
	}
	return false
}

// HasPreferredAccompaniment reports whether the category is among the
// recipe's preferred accompaniment categories.
func (r Recipe) HasPreferredAccompaniment(cat AccompanimentCategory) bool {
	for _, c := range r.PreferredAccompaniments {
		if c == cat {
			return true
		}
	}
	return false
}

// UserPreferences is the external, read-only user-preferences record.
type UserPreferences struct {
	DietaryRestrictions       []DietaryTag
	HouseholdSize             uint32
	SkillLevel                SkillLevel
	MaxPrepTimeWeeknightMin   uint32
	MaxPrepTimeWeekendMin     uint32
	AvoidConsecutiveComplex   bool
	CuisineVarietyWeight      float32
	WeeknightAvailabilityMin  uint32
	// Timezone is used to localize §4.8's canonical meal times. Empty
	// means UTC, per §6.5.
	Timezone string
}

// DefaultUserPreferences returns the spec's documented defaults for any
// fields a caller leaves zero-valued, applied by the gateway adapter
// rather than silently inside the scheduler.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		HouseholdSize:            1,
		SkillLevel:               Beginner,
		MaxPrepTimeWeeknightMin:  30,
		MaxPrepTimeWeekendMin:    90,
		AvoidConsecutiveComplex:  true,
		CuisineVarietyWeight:     0.7,
		WeeknightAvailabilityMin: 120,
	}
}
