/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package aggregate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
)

func someUser() mealplan.UserID { return mealplan.UserID(uuid.New()) }

// P7 (Locked immutability): a plan whose start_date is on/before today
// is locked, and CheckUnlocked rejects any mutation attempt.
func TestCheckUnlocked_RejectsLockedPlan(t *testing.T) {
	today := mealplan.NewDate(2026, time.August, 10)
	plan := &mealplan.MealPlan{
		ID:        mealplan.NewMealPlanID(),
		StartDate: today.AddDays(-2),
		EndDate:   today.AddDays(4),
	}

	err := CheckUnlocked(plan, today)

	var detail *mperrors.PlanLockedError
	require.ErrorAs(t, err, &detail)
	assert.ErrorIs(t, err, mperrors.ErrPlanLocked)
}

func TestCheckUnlocked_AllowsFuturePlan(t *testing.T) {
	today := mealplan.NewDate(2026, time.August, 10)
	plan := &mealplan.MealPlan{
		ID:        mealplan.NewMealPlanID(),
		StartDate: today.AddDays(3),
		EndDate:   today.AddDays(9),
	}

	assert.NoError(t, CheckUnlocked(plan, today))
}

// A plan's lock boundary is inclusive of today: start_date == today is
// already locked (the derived invariant is start_date <= today).
func TestIsLocked_InclusiveOfToday(t *testing.T) {
	today := mealplan.NewDate(2026, time.August, 10)
	plan := &mealplan.MealPlan{StartDate: today, EndDate: today.AddDays(6)}

	assert.True(t, plan.IsLocked(today))
}

// P8 (Ownership): a caller whose user id doesn't match the plan's owner
// is rejected regardless of lock state.
func TestAuthorize_RejectsNonOwner(t *testing.T) {
	owner := someUser()
	other := someUser()
	plan := &mealplan.MealPlan{ID: mealplan.NewMealPlanID(), UserID: owner}

	err := Authorize(plan, other)

	var detail *mperrors.UnauthorizedAccessError
	require.ErrorAs(t, err, &detail)
	assert.ErrorIs(t, err, mperrors.ErrUnauthorizedAccess)
}

func TestAuthorize_AllowsOwner(t *testing.T) {
	owner := someUser()
	plan := &mealplan.MealPlan{ID: mealplan.NewMealPlanID(), UserID: owner}

	assert.NoError(t, Authorize(plan, owner))
}

func someRecipeID() mealplan.RecipeID { return mealplan.RecipeID(uuid.New()) }

func sampleAssignments(start mealplan.Date) []mealplan.MealAssignment {
	out := make([]mealplan.MealAssignment, 0, 21)
	for d := 0; d < 7; d++ {
		for _, mt := range mealplan.AllMealTypes {
			out = append(out, mealplan.MealAssignment{
				Date:     start.AddDays(d),
				MealType: mt,
				RecipeID: someRecipeID(),
			})
		}
	}
	return out
}

// Replaying a MealPlanGenerated event builds an aggregate whose
// assignment map has all 21 slots and the right owner/date range.
func TestApply_MealPlanGenerated(t *testing.T) {
	userID := someUser()
	planID := mealplan.NewMealPlanID()
	batchID := mealplan.NewGenerationBatchID()
	start := mealplan.NewDate(2026, time.August, 3)

	event := mealplan.MealPlanGenerated{
		PlanID:            planID,
		UserID:            userID,
		StartDate:         start,
		EndDate:           start.AddDays(6),
		GenerationBatchID: batchID,
		Assignments:       sampleAssignments(start),
		RotationState:     mealplan.NewRotationState(),
	}
	envelope := mealplan.EventEnvelope{
		AggregateID: planID,
		Sequence:    1,
		OccurredAt:  mealplan.NewInstant(time.Now()),
		Payload:     event,
	}

	plan := &mealplan.MealPlan{}
	require.NoError(t, Apply(plan, envelope))

	assert.Equal(t, userID, plan.UserID)
	assert.Equal(t, planID, plan.ID)
	assert.Len(t, plan.Assignments, 21)
	assert.EqualValues(t, 1, plan.Sequence())
}

// A plan created via GenerateMultiWeek replays from its own
// MultiWeekMealPlanGenerated event, picking out the WeekPayload whose
// PlanID matches this aggregate's own stream (§4.6: "one aggregate per
// week; all share batch_id").
func TestApply_MultiWeekMealPlanGenerated(t *testing.T) {
	userID := someUser()
	batchID := mealplan.NewGenerationBatchID()
	week1Start := mealplan.NewDate(2026, time.August, 3)
	week2Start := week1Start.AddDays(7)

	week1ID := mealplan.NewMealPlanID()
	week2ID := mealplan.NewMealPlanID()

	event := mealplan.MultiWeekMealPlanGenerated{
		BatchID: batchID,
		UserID:  userID,
		Weeks: []mealplan.WeekPayload{
			{PlanID: week1ID, StartDate: week1Start, EndDate: week1Start.AddDays(6), Assignments: sampleAssignments(week1Start), RotationStateAfter: mealplan.NewRotationState()},
			{PlanID: week2ID, StartDate: week2Start, EndDate: week2Start.AddDays(6), Assignments: sampleAssignments(week2Start), RotationStateAfter: mealplan.NewRotationState()},
		},
	}

	// Replaying week 2's own stream must build week 2's aggregate, not week 1's.
	envelope := mealplan.EventEnvelope{
		AggregateID: week2ID,
		Sequence:    1,
		OccurredAt:  mealplan.NewInstant(time.Now()),
		Payload:     event,
	}

	plan := &mealplan.MealPlan{}
	require.NoError(t, Apply(plan, envelope))

	assert.Equal(t, week2ID, plan.ID)
	assert.Equal(t, batchID, plan.GenerationBatchID)
	assert.Equal(t, userID, plan.UserID)
	assert.True(t, plan.StartDate.Equal(week2Start))
	assert.Len(t, plan.Assignments, 21)
}

// P9-adjacent: replaying the same MealReplaced event twice against a
// freshly-built aggregate yields the same state both times (idempotent
// fold), matching §4.9's idempotency law as applied to in-memory replay.
func TestApply_MealReplaced_IsIdempotentUnderReplay(t *testing.T) {
	userID := someUser()
	planID := mealplan.NewMealPlanID()
	start := mealplan.NewDate(2026, time.August, 3)
	oldRecipe := someRecipeID()
	newRecipe := someRecipeID()

	generated := mealplan.MealPlanGenerated{
		PlanID: planID, UserID: userID, StartDate: start, EndDate: start.AddDays(6),
		Assignments: []mealplan.MealAssignment{{Date: start, MealType: mealplan.Dinner, RecipeID: oldRecipe}},
	}
	replaced := mealplan.MealReplaced{PlanID: planID, Date: start, MealType: mealplan.Dinner, OldRecipeID: oldRecipe, NewRecipeID: newRecipe, Reasoning: "swap"}

	envelopes := []mealplan.EventEnvelope{
		{AggregateID: planID, Sequence: 1, OccurredAt: mealplan.NewInstant(time.Now()), Payload: generated},
		{AggregateID: planID, Sequence: 2, OccurredAt: mealplan.NewInstant(time.Now()), Payload: replaced},
	}

	replay := func() *mealplan.MealPlan {
		p := &mealplan.MealPlan{}
		for _, e := range envelopes {
			require.NoError(t, Apply(p, e))
		}
		return p
	}

	first := replay()
	second := replay()

	assert.Equal(t, first.Assignments, second.Assignments)
	key := mealplan.SlotKey{Date: start, MealType: mealplan.Dinner}
	assert.Equal(t, newRecipe, first.Assignments[key].RecipeID)
}
