/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package rotation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

func recipe(id mealplan.RecipeID, t mealplan.RecipeType) mealplan.Recipe {
	return mealplan.Recipe{ID: id, RecipeType: t}
}

func TestFilterEligible_MainCourseStrictUniqueness(t *testing.T) {
	a := mealplan.RecipeID(uuid.New())
	b := mealplan.RecipeID(uuid.New())
	recipes := []mealplan.Recipe{recipe(a, mealplan.MainCourse), recipe(b, mealplan.MainCourse)}

	m := New(mealplan.NewRotationState())
	m.MarkUsed(recipes[0], mealplan.Simple, mealplan.NewDate(2026, time.August, 3))

	eligible, err := m.FilterEligible(recipes, mealplan.MainCourse)

	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, b, eligible[0].ID)
}

func TestFilterEligible_MainCourseExhaustedReturnsError(t *testing.T) {
	a := mealplan.RecipeID(uuid.New())
	recipes := []mealplan.Recipe{recipe(a, mealplan.MainCourse)}

	m := New(mealplan.NewRotationState())
	m.MarkUsed(recipes[0], mealplan.Simple, mealplan.NewDate(2026, time.August, 3))

	_, err := m.FilterEligible(recipes, mealplan.MainCourse)

	assert.ErrorIs(t, err, ErrRotationExhausted)
}

func TestFilterEligible_SoftCategoryResetsInPlace(t *testing.T) {
	a := mealplan.RecipeID(uuid.New())
	recipes := []mealplan.Recipe{recipe(a, mealplan.Appetizer)}

	m := New(mealplan.NewRotationState())
	m.MarkUsed(recipes[0], mealplan.Simple, mealplan.NewDate(2026, time.August, 3))

	eligible, err := m.FilterEligible(recipes, mealplan.Appetizer)

	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, a, eligible[0].ID)
	assert.Empty(t, m.State().UsedAppetizerIDs)
}

func TestStartNewCycle_IncrementsAndClearsMainCourses(t *testing.T) {
	a := mealplan.RecipeID(uuid.New())
	m := New(mealplan.NewRotationState())
	m.MarkUsed(recipe(a, mealplan.MainCourse), mealplan.Simple, mealplan.NewDate(2026, time.August, 3))

	m.StartNewCycle()

	assert.Equal(t, uint32(2), m.State().CycleNumber)
	assert.Empty(t, m.State().UsedMainCourseIDs)
}

func TestMarkUsed_TracksCuisineAndLastComplexDate(t *testing.T) {
	r := recipe(mealplan.RecipeID(uuid.New()), mealplan.MainCourse)
	r.Cuisine = "thai"
	date := mealplan.NewDate(2026, time.August, 3)

	m := New(mealplan.NewRotationState())
	m.MarkUsed(r, mealplan.Complex, date)

	assert.Equal(t, uint32(1), m.State().CuisineUsageCount["thai"])
	require.NotNil(t, m.State().LastComplexMealDate)
	assert.Equal(t, date, *m.State().LastComplexMealDate)
}

func TestUnmarkUsed_ReversesMarkUsedWithoutGoingNegative(t *testing.T) {
	r := recipe(mealplan.RecipeID(uuid.New()), mealplan.MainCourse)
	r.Cuisine = "thai"

	m := New(mealplan.NewRotationState())
	m.MarkUsed(r, mealplan.Simple, mealplan.NewDate(2026, time.August, 3))
	m.UnmarkUsed(r)

	assert.NotContains(t, m.State().UsedMainCourseIDs, r.ID)
	assert.Equal(t, uint32(0), m.State().CuisineUsageCount["thai"])

	m.UnmarkUsed(r)
	assert.Equal(t, uint32(0), m.State().CuisineUsageCount["thai"])
}

func TestSnapshot_IsIndependentOfFurtherMutation(t *testing.T) {
	r := recipe(mealplan.RecipeID(uuid.New()), mealplan.MainCourse)
	m := New(mealplan.NewRotationState())
	m.MarkUsed(r, mealplan.Simple, mealplan.NewDate(2026, time.August, 3))

	snap := m.Snapshot()
	m.MarkUsed(recipe(mealplan.RecipeID(uuid.New()), mealplan.MainCourse), mealplan.Simple, mealplan.NewDate(2026, time.August, 4))

	assert.Len(t, snap.UsedMainCourseIDs, 1)
	assert.Len(t, m.State().UsedMainCourseIDs, 2)
}
