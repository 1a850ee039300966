/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package reminders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

func dinnerAssignment(date mealplan.Date, recipeID mealplan.RecipeID) mealplan.MealAssignment {
	return mealplan.MealAssignment{Date: date, MealType: mealplan.Dinner, RecipeID: recipeID}
}

func TestForAssignment_NoAdvancePrep(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	a := dinnerAssignment(mealplan.NewDate(2026, time.August, 3), mealplan.RecipeID(uuid.New()))
	recipe := mealplan.Recipe{ID: a.RecipeID, Title: "Grilled cheese", AdvancePrepHours: 0}

	_, ok := ForAssignment(planID, a, recipe, userID, mealplan.DefaultMealTimes(), time.UTC, time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC))

	assert.False(t, ok)
}

func TestForAssignment_LongLeadTime_SchedulesDayBeforeAt9AM(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	mealDate := mealplan.NewDate(2026, time.August, 5) // Wednesday
	a := dinnerAssignment(mealDate, mealplan.RecipeID(uuid.New()))
	recipe := mealplan.Recipe{ID: a.RecipeID, Title: "Marinated flank steak", AdvancePrepHours: 24}
	now := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	r, ok := ForAssignment(planID, a, recipe, userID, mealplan.DefaultMealTimes(), time.UTC, now)

	require.True(t, ok)
	assert.Equal(t, mealplan.AdvancePrep, r.ReminderType)
	scheduled := r.ScheduledTime.Time()
	assert.Equal(t, mealDate.AddDays(-1).Time().Day(), scheduled.Day())
	assert.Equal(t, 9, scheduled.Hour())
	assert.Contains(t, r.Body, "Marinated flank steak")
}

func TestForAssignment_MidLeadTime_SchedulesHoursBeforeMeal(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	mealDate := mealplan.NewDate(2026, time.August, 5)
	a := dinnerAssignment(mealDate, mealplan.RecipeID(uuid.New()))
	recipe := mealplan.Recipe{ID: a.RecipeID, Title: "Slow cooker chili", AdvancePrepHours: 6}
	now := time.Date(2026, 8, 4, 8, 0, 0, 0, time.UTC)
	mealTimes := mealplan.DefaultMealTimes()

	r, ok := ForAssignment(planID, a, recipe, userID, mealTimes, time.UTC, now)

	require.True(t, ok)
	assert.Equal(t, mealplan.AdvancePrep, r.ReminderType)
	expected := mealTimes.At(mealDate, mealplan.Dinner, time.UTC).Add(-6 * time.Hour)
	assert.Equal(t, expected.Time(), r.ScheduledTime.Time())
}

func TestForAssignment_ShortLeadTime_SchedulesOneHourBeforeMeal(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	mealDate := mealplan.NewDate(2026, time.August, 5)
	a := dinnerAssignment(mealDate, mealplan.RecipeID(uuid.New()))
	recipe := mealplan.Recipe{ID: a.RecipeID, Title: "Pan-seared salmon", AdvancePrepHours: 1}
	now := time.Date(2026, 8, 4, 8, 0, 0, 0, time.UTC)
	mealTimes := mealplan.DefaultMealTimes()

	r, ok := ForAssignment(planID, a, recipe, userID, mealTimes, time.UTC, now)

	require.True(t, ok)
	assert.Equal(t, mealplan.DayOf, r.ReminderType)
	expected := mealTimes.At(mealDate, mealplan.Dinner, time.UTC).Add(-1 * time.Hour)
	assert.Equal(t, expected.Time(), r.ScheduledTime.Time())
}

func TestForAssignment_PastDueIsClampedToNowPlusOneMinute(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	mealDate := mealplan.NewDate(2026, time.August, 5)
	a := dinnerAssignment(mealDate, mealplan.RecipeID(uuid.New()))
	recipe := mealplan.Recipe{ID: a.RecipeID, Title: "Quick stir fry", AdvancePrepHours: 24}
	// "now" is already past the day-before-9am slot this would have used.
	now := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)

	r, ok := ForAssignment(planID, a, recipe, userID, mealplan.DefaultMealTimes(), time.UTC, now)

	require.True(t, ok)
	assert.Equal(t, now.Add(time.Minute), r.ScheduledTime.Time())
}

func TestForAssignment_IDIsDeterministicOnNaturalKey(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	mealDate := mealplan.NewDate(2026, time.August, 5)
	a := dinnerAssignment(mealDate, mealplan.RecipeID(uuid.New()))
	recipe := mealplan.Recipe{ID: a.RecipeID, Title: "Marinated flank steak", AdvancePrepHours: 24}
	now := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	first, ok := ForAssignment(planID, a, recipe, userID, mealplan.DefaultMealTimes(), time.UTC, now)
	require.True(t, ok)
	second, ok := ForAssignment(planID, a, recipe, userID, mealplan.DefaultMealTimes(), time.UTC, now)
	require.True(t, ok)

	assert.Equal(t, first.ID, second.ID, "redelivering the same event must derive the same reminder id")

	otherPlan := mealplan.MealPlanID(uuid.New())
	third, ok := ForAssignment(otherPlan, a, recipe, userID, mealplan.DefaultMealTimes(), time.UTC, now)
	require.True(t, ok)
	assert.NotEqual(t, first.ID, third.ID, "a different plan must not collide onto the same reminder id")
}

func TestForAssignments_SkipsAssignmentsMissingFromRecipeIndex(t *testing.T) {
	planID := mealplan.MealPlanID(uuid.New())
	userID := mealplan.UserID(uuid.New())
	known := mealplan.RecipeID(uuid.New())
	unknown := mealplan.RecipeID(uuid.New())
	assignments := []mealplan.MealAssignment{
		dinnerAssignment(mealplan.NewDate(2026, time.August, 5), known),
		dinnerAssignment(mealplan.NewDate(2026, time.August, 6), unknown),
	}
	recipesByID := map[mealplan.RecipeID]mealplan.Recipe{
		known: {ID: known, Title: "Known dish", AdvancePrepHours: 24},
	}

	out := ForAssignments(planID, assignments, recipesByID, userID, mealplan.DefaultMealTimes(), time.UTC, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, out, 1)
	assert.Equal(t, known, out[0].RecipeID)
}
