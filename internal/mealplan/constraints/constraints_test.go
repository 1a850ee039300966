/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package constraints

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

func TestDietary(t *testing.T) {
	vegetarian := mealplan.Recipe{DietaryTags: []mealplan.DietaryTag{mealplan.TagVegetarian}}

	assert.False(t, Dietary(vegetarian, []mealplan.DietaryTag{mealplan.TagVegetarian}).Rejected())
	assert.True(t, Dietary(vegetarian, []mealplan.DietaryTag{mealplan.TagVegan}).Rejected())
	assert.True(t, SatisfiesDietary(vegetarian, []mealplan.DietaryTag{mealplan.TagVegetarian}))
	assert.False(t, SatisfiesDietary(vegetarian, []mealplan.DietaryTag{mealplan.TagGlutenFree}))
}

func TestInferEquipment(t *testing.T) {
	eqs := InferEquipment("Roast the chicken, then simmer the sauce on the stovetop.")
	assert.Contains(t, eqs, mealplan.Oven)
	assert.Contains(t, eqs, mealplan.Stovetop)
	assert.NotContains(t, eqs, mealplan.SlowCooker)
}

func TestEquipmentConflict_RejectsSecondOvenUseSameDay(t *testing.T) {
	day := NewDayContext(mealplan.NewDate(2026, time.August, 3), mealplan.NewInstant(time.Now()))
	roast := mealplan.Recipe{InstructionText: "Roast at 400F for 30 minutes."}

	first := EquipmentConflict(roast, day)
	assert.False(t, first.Rejected())

	CommitEquipment(&day, roast)

	second := EquipmentConflict(roast, day)
	assert.True(t, second.Rejected())
}

func TestEquipmentConflict_StovetopUnlimited(t *testing.T) {
	day := NewDayContext(mealplan.NewDate(2026, time.August, 3), mealplan.NewInstant(time.Now()))
	saute := mealplan.Recipe{InstructionText: "Saute the onions in a skillet."}

	CommitEquipment(&day, saute)

	assert.False(t, EquipmentConflict(saute, day).Rejected())
}

func TestAvailability_WeekendAlwaysScoresFull(t *testing.T) {
	saturday := mealplan.NewDate(2026, time.August, 8)
	recipe := mealplan.Recipe{PrepTimeMin: 60, CookTimeMin: 90}
	prefs := mealplan.DefaultUserPreferences()

	out := Availability(recipe, saturday, prefs)

	assert.False(t, out.Rejected())
	assert.Equal(t, float32(1.0), out.Score())
}

func TestAvailability_WeeknightOverBudgetScoresLower(t *testing.T) {
	monday := mealplan.NewDate(2026, time.August, 3)
	prefs := mealplan.DefaultUserPreferences()
	prefs.MaxPrepTimeWeeknightMin = 30

	withinBudget := Availability(mealplan.Recipe{PrepTimeMin: 10, CookTimeMin: 15}, monday, prefs)
	slightlyOver := Availability(mealplan.Recipe{PrepTimeMin: 20, CookTimeMin: 15}, monday, prefs)
	wayOver := Availability(mealplan.Recipe{PrepTimeMin: 60, CookTimeMin: 60}, monday, prefs)

	assert.Equal(t, float32(1.0), withinBudget.Score())
	assert.Equal(t, float32(0.6), slightlyOver.Score())
	assert.Equal(t, float32(0.2), wayOver.Score())
}

func TestComplexityFit_PenalizesConsecutiveComplexDinners(t *testing.T) {
	monday := mealplan.NewDate(2026, time.August, 3)
	prefs := mealplan.DefaultUserPreferences()
	prefs.AvoidConsecutiveComplex = true

	dayWithPriorComplex := NewDayContext(monday, mealplan.NewInstant(time.Now()))
	dayWithPriorComplex.PreviousDayDinnerComplex = true

	penalized := ComplexityFit(mealplan.Complex, monday, mealplan.Dinner, prefs, dayWithPriorComplex)
	unpenalized := ComplexityFit(mealplan.Complex, monday, mealplan.Dinner, prefs, NewDayContext(monday, mealplan.NewInstant(time.Now())))

	assert.Less(t, penalized.Score(), unpenalized.Score())
}

func TestComplexityFit_ComplexFavorsWeekends(t *testing.T) {
	saturday := mealplan.NewDate(2026, time.August, 8)
	monday := mealplan.NewDate(2026, time.August, 3)
	prefs := mealplan.DefaultUserPreferences()
	day := NewDayContext(monday, mealplan.NewInstant(time.Now()))

	weekend := ComplexityFit(mealplan.Complex, saturday, mealplan.Dinner, prefs, day)
	weeknight := ComplexityFit(mealplan.Complex, monday, mealplan.Dinner, prefs, day)

	assert.Greater(t, weekend.Score(), weeknight.Score())
}

func TestFreshness_HighPerishabilityDecaysAcrossTheWeek(t *testing.T) {
	shrimp := mealplan.Recipe{IngredientNames: []string{"shrimp", "garlic"}}

	monday := Freshness(shrimp, mealplan.NewDate(2026, time.August, 3))
	thursday := Freshness(shrimp, mealplan.NewDate(2026, time.August, 6))
	saturday := Freshness(shrimp, mealplan.NewDate(2026, time.August, 8))

	assert.Equal(t, float32(1.0), monday.Score())
	assert.Equal(t, float32(0.6), thursday.Score())
	assert.Equal(t, float32(0.3), saturday.Score())
}

func TestFreshness_LowPerishabilityAlwaysScoresFull(t *testing.T) {
	pantry := mealplan.Recipe{IngredientNames: []string{"rice", "canned beans"}}

	out := Freshness(pantry, mealplan.NewDate(2026, time.August, 8))

	assert.Equal(t, float32(1.0), out.Score())
}

func TestAdvancePrepFit_NoLeadTimeRequiredAlwaysScoresFull(t *testing.T) {
	now := mealplan.NewInstant(time.Now())
	out := AdvancePrepFit(mealplan.Recipe{AdvancePrepHours: 0}, now, now)
	assert.Equal(t, float32(1.0), out.Score())
}

func TestAdvancePrepFit_InsufficientLeadTimeScoresLower(t *testing.T) {
	cutoff := mealplan.NewInstant(time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC))
	mealSoon := mealplan.NewInstant(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	mealLater := mealplan.NewInstant(time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC))
	recipe := mealplan.Recipe{AdvancePrepHours: 24}

	tooSoon := AdvancePrepFit(recipe, mealSoon, cutoff)
	achievable := AdvancePrepFit(recipe, mealLater, cutoff)

	assert.Equal(t, float32(0.4), tooSoon.Score())
	assert.Equal(t, float32(1.0), achievable.Score())
}
