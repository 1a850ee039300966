/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/complexity"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
)

func newRecipeID() mealplan.RecipeID { return mealplan.RecipeID(uuid.New()) }

func simpleMain(title string) mealplan.Recipe {
	return mealplan.Recipe{
		ID:                   newRecipeID(),
		RecipeType:           mealplan.MainCourse,
		Title:                title,
		IngredientCount:      5,
		InstructionStepCount: 5,
		PrepTimeMin:          10,
		CookTimeMin:          15,
		InstructionText:      "Saute the vegetables in a skillet.",
		IngredientNames:      []string{"rice", "canned beans"},
	}
}

// mains returns n simple, dietary-unrestricted main courses, enough to
// fill n/7 weeks of dinners with strict uniqueness.
func mains(n int) []mealplan.Recipe {
	out := make([]mealplan.Recipe, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, simpleMain(uuid.NewString()))
	}
	return out
}

func mondayOf(t *testing.T) mealplan.Date {
	d := mealplan.NewDate(2026, time.August, 3) // a Monday
	require.Equal(t, time.Monday, d.Weekday())
	return d
}

func baseInput(t *testing.T, recipes []mealplan.Recipe, weekCount int) Input {
	seed := uint64(42)
	return Input{
		UserID:      mealplan.UserID(uuid.New()),
		StartDate:   mondayOf(t),
		WeekCount:   weekCount,
		Recipes:     recipes,
		Preferences: mealplan.DefaultUserPreferences(),
		Rotation:    mealplan.NewRotationState(),
		Seed:        &seed,
		Now:         mealplan.NewInstant(time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)),
	}
}

// P2 (Shape): a successful schedule has exactly 21*weekCount unique slots.
func TestSchedule_Shape(t *testing.T) {
	weeks, err := Schedule(context.Background(), baseInput(t, mains(7), 1))
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Len(t, weeks[0].Assignments, 21)

	seen := make(map[mealplan.SlotKey]bool)
	for _, a := range weeks[0].Assignments {
		key := a.Key()
		assert.False(t, seen[key], "duplicate slot %v", key)
		seen[key] = true
	}
	assert.Len(t, seen, 21)
}

// P1 (Determinism): same seed and inputs produce byte-identical output.
func TestSchedule_Determinism(t *testing.T) {
	recipes := mains(14)
	in1 := baseInput(t, recipes, 2)
	in2 := baseInput(t, recipes, 2)

	weeks1, err := Schedule(context.Background(), in1)
	require.NoError(t, err)
	weeks2, err := Schedule(context.Background(), in2)
	require.NoError(t, err)

	require.Equal(t, len(weeks1), len(weeks2))
	for i := range weeks1 {
		assert.Equal(t, weeks1[i].Assignments, weeks2[i].Assignments)
		assert.Equal(t, weeks1[i].RotationStateAfter, weeks2[i].RotationStateAfter)
	}
}

// P3 (Main-course uniqueness): across a multi-week batch with exactly
// enough mains, no MainCourse recipe is assigned to dinner twice within
// the same cycle. Mirrors scenario S6.
func TestSchedule_MainCourseUniquenessAcrossWeeks(t *testing.T) {
	recipes := mains(21)
	weeks, err := Schedule(context.Background(), baseInput(t, recipes, 3))
	require.NoError(t, err)
	require.Len(t, weeks, 3)

	seenDinners := make(map[mealplan.RecipeID]bool)
	for _, w := range weeks {
		for _, a := range w.Assignments {
			if a.MealType != mealplan.Dinner {
				continue
			}
			assert.False(t, seenDinners[a.RecipeID], "main course %v reused across batch", a.RecipeID)
			seenDinners[a.RecipeID] = true
		}
	}
	assert.Len(t, seenDinners, 21)
	assert.EqualValues(t, 1, weeks[len(weeks)-1].RotationStateAfter.CycleNumber)
}

// P5 (Equipment safety): at most one Oven recipe and one SlowCooker
// recipe land on the same day. Mirrors scenario S9.
func TestSchedule_EquipmentConflictAvoided(t *testing.T) {
	recipes := []mealplan.Recipe{
		{ID: newRecipeID(), RecipeType: mealplan.MainCourse, Title: "roast-1", IngredientCount: 5, InstructionStepCount: 5, InstructionText: "Roast at 400F.", IngredientNames: []string{"rice"}},
		{ID: newRecipeID(), RecipeType: mealplan.MainCourse, Title: "roast-2", IngredientCount: 5, InstructionStepCount: 5, InstructionText: "Bake for 30 minutes.", IngredientNames: []string{"rice"}},
		{ID: newRecipeID(), RecipeType: mealplan.MainCourse, Title: "roast-3", IngredientCount: 5, InstructionStepCount: 5, InstructionText: "Roast the chicken.", IngredientNames: []string{"rice"}},
	}
	for i := 0; i < 7; i++ {
		recipes = append(recipes, simpleMain(uuid.NewString()))
	}

	weeks, err := Schedule(context.Background(), baseInput(t, recipes, 1))
	require.NoError(t, err)

	ovenCountByDay := make(map[mealplan.Date]int)
	byID := make(map[mealplan.RecipeID]mealplan.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}
	for _, a := range weeks[0].Assignments {
		r := byID[a.RecipeID]
		if r.InstructionText == "Roast at 400F." || r.InstructionText == "Bake for 30 minutes." || r.InstructionText == "Roast the chicken." {
			ovenCountByDay[a.Date]++
		}
	}
	for date, count := range ovenCountByDay {
		assert.LessOrEqual(t, count, 1, "day %s had %d oven recipes", date, count)
	}
}

// P6 (Advance-prep ordering): any assignment marked prep_required has
// prep_required_by strictly before the slot's meal time.
func TestSchedule_AdvancePrepOrdering(t *testing.T) {
	recipes := mains(6)
	marinated := simpleMain("marinated")
	marinated.AdvancePrepHours = 24
	recipes = append(recipes, marinated)

	weeks, err := Schedule(context.Background(), baseInput(t, recipes, 1))
	require.NoError(t, err)

	mealTimes := mealplan.DefaultMealTimes()
	for _, a := range weeks[0].Assignments {
		if !a.PrepRequired {
			continue
		}
		require.NotNil(t, a.PrepRequiredBy)
		mealTime := mealTimes.At(a.Date, a.MealType, time.UTC)
		assert.True(t, a.PrepRequiredBy.Before(mealTime), "prep_required_by must precede meal_time")
	}
}

// P10 (Budget): for <=50 favorites and <=5 weeks, scheduling completes
// well within the 5s wall-clock contract.
func TestSchedule_PerformanceBudget(t *testing.T) {
	recipes := mains(50)
	start := time.Now()
	_, err := Schedule(context.Background(), baseInput(t, recipes, 5))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 5*time.Second)
}

// S2/InsufficientRecipes: fewer than 7 recipes fails fast with the
// documented remediation counts.
func TestSchedule_InsufficientRecipes(t *testing.T) {
	_, err := Schedule(context.Background(), baseInput(t, mains(6), 1))
	require.Error(t, err)

	var detail *mperrors.InsufficientRecipesError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 6, detail.Have)
	assert.Equal(t, 7, detail.Need)
}

// InsufficientMainCourses: week_count demands more strictly-unique mains
// than the pool has, and cycling across weeks is not permitted.
func TestSchedule_InsufficientMainCourses(t *testing.T) {
	_, err := Schedule(context.Background(), baseInput(t, mains(10), 2))
	require.Error(t, err)

	var detail *mperrors.InsufficientMainCoursesError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 10, detail.Have)
	assert.Equal(t, 14, detail.Need)
}

// S4 — Complex on weekend preferred: with cuisine_variety_weight=0 and a
// single Complex recipe among Simple ones, the Complex recipe lands on a
// weekend dinner and carries the "Complex → weekend" reasoning.
func TestSchedule_ComplexRecipePrefersWeekend(t *testing.T) {
	recipes := mains(13)
	complexRecipe := mealplan.Recipe{
		ID:                   newRecipeID(),
		RecipeType:           mealplan.MainCourse,
		Title:                "complex-roast",
		IngredientCount:      100,
		InstructionStepCount: 100,
		InstructionText:      "Slow simmer overnight.",
		IngredientNames:      []string{"rice"},
	}
	_, class := complexity.Score(complexRecipe)
	require.Equal(t, mealplan.Complex, class) // sanity: 0.3*100+0.4*100 = 70 > 60
	recipes = append(recipes, complexRecipe)

	prefs := mealplan.DefaultUserPreferences()
	prefs.CuisineVarietyWeight = 0

	in := baseInput(t, recipes, 1)
	in.Preferences = prefs

	weeks, err := Schedule(context.Background(), in)
	require.NoError(t, err)

	var found bool
	for _, a := range weeks[0].Assignments {
		if a.RecipeID == complexRecipe.ID && a.MealType == mealplan.Dinner {
			found = true
			assert.True(t, a.Date.IsWeekend(), "complex recipe should land on a weekend dinner, got %s", a.Date)
			assert.Contains(t, a.AssignmentReasoning, "Complex → weekend")
		}
	}
	assert.True(t, found, "complex recipe was not assigned to any dinner")
}

// S7 — Rotation cycle rollover: running the scheduler twice back-to-back
// with exactly 7 mains and the first week's rotation snapshot feeding
// the second call increments the cycle and resets used_main_course_ids.
func TestSchedule_RotationCycleRollover(t *testing.T) {
	recipes := mains(7)

	first := baseInput(t, recipes, 1)
	firstWeeks, err := Schedule(context.Background(), first)
	require.NoError(t, err)
	require.EqualValues(t, 1, firstWeeks[0].RotationStateAfter.CycleNumber)

	second := baseInput(t, recipes, 1)
	second.Rotation = firstWeeks[0].RotationStateAfter
	secondWeeks, err := Schedule(context.Background(), second)
	require.NoError(t, err)

	assert.EqualValues(t, 2, secondWeeks[0].RotationStateAfter.CycleNumber)
	assert.Len(t, secondWeeks[0].Assignments, 21)
}

// SchedulerTimedOut: an already-expired context surfaces the timeout
// error rather than hanging or silently succeeding.
func TestSchedule_TimesOutOnExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Schedule(ctx, baseInput(t, mains(7), 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, mperrors.ErrSchedulerTimedOut)
}
