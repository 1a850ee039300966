/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package projections

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// memProjections is an in-memory store.Projections fake, built only to
// exercise P9's idempotency law: replaying a prefix of events against a
// freshly-initialized projection yields the same read-model state as
// the original play, because every write below is an upsert or a
// full-replace keyed on natural keys (plan_id / (plan_id,date,meal_type)
// / (user_id,batch_id)), never an append.
type memProjections struct {
	mu          sync.Mutex
	plans       map[mealplan.MealPlanID]store.PlanView
	assignments map[mealplan.MealPlanID]map[mealplan.SlotKey]mealplan.MealAssignment
	rotation    map[mealplan.UserID]rotationRow
	reminders   map[mealplan.NotificationID]mealplan.Reminder
}

type rotationRow struct {
	batchID mealplan.GenerationBatchID
	state   mealplan.RotationState
}

func newMemProjections() *memProjections {
	return &memProjections{
		plans:       make(map[mealplan.MealPlanID]store.PlanView),
		assignments: make(map[mealplan.MealPlanID]map[mealplan.SlotKey]mealplan.MealAssignment),
		rotation:    make(map[mealplan.UserID]rotationRow),
		reminders:   make(map[mealplan.NotificationID]mealplan.Reminder),
	}
}

func (m *memProjections) UpsertPlan(ctx context.Context, view store.PlanView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[view.ID] = view
	return nil
}

func (m *memProjections) UpsertAssignment(ctx context.Context, planID mealplan.MealPlanID, a mealplan.MealAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignments[planID] == nil {
		m.assignments[planID] = make(map[mealplan.SlotKey]mealplan.MealAssignment)
	}
	m.assignments[planID][a.Key()] = a
	return nil
}

func (m *memProjections) ReplaceAssignments(ctx context.Context, planID mealplan.MealPlanID, assignments []mealplan.MealAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := make(map[mealplan.SlotKey]mealplan.MealAssignment, len(assignments))
	for _, a := range assignments {
		fresh[a.Key()] = a
	}
	m.assignments[planID] = fresh
	return nil
}

func (m *memProjections) UpsertRotationState(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID, state mealplan.RotationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation[userID] = rotationRow{batchID: batchID, state: state}
	return nil
}

func (m *memProjections) LatestRotationState(ctx context.Context, userID mealplan.UserID) (mealplan.RotationState, mealplan.GenerationBatchID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rotation[userID]
	return row.state, row.batchID, ok, nil
}

func (m *memProjections) GetActivePlan(ctx context.Context, userID mealplan.UserID, today mealplan.Date) (store.PlanView, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.plans {
		if v.UserID == userID && !v.StartDate.After(today) && !v.EndDate.Before(today) {
			return v, true, nil
		}
	}
	return store.PlanView{}, false, nil
}

func (m *memProjections) GetPlansByBatch(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID) ([]store.PlanView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.PlanView
	for _, v := range m.plans {
		if v.UserID == userID && v.GenerationBatchID == batchID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memProjections) GetAssignmentsForWeek(ctx context.Context, planID mealplan.MealPlanID) ([]mealplan.MealAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mealplan.MealAssignment, 0, len(m.assignments[planID]))
	for _, a := range m.assignments[planID] {
		out = append(out, a)
	}
	return out, nil
}

func (m *memProjections) InsertReminder(ctx context.Context, r mealplan.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[r.ID] = r
	return nil
}

func (m *memProjections) SupersedePendingReminders(ctx context.Context, userID mealplan.UserID, dates []mealplan.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dateSet := make(map[mealplan.Date]bool, len(dates))
	for _, d := range dates {
		dateSet[d] = true
	}
	for id, r := range m.reminders {
		if r.UserID == userID && dateSet[r.MealDate] && r.Status == mealplan.Pending {
			r.Status = mealplan.Dismissed
			m.reminders[id] = r
		}
	}
	return nil
}

func (m *memProjections) GetReminders(ctx context.Context, userID mealplan.UserID, status mealplan.ReminderStatus) ([]mealplan.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mealplan.Reminder
	for _, r := range m.reminders {
		if r.UserID == userID && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memProjections) ListDueReminders(ctx context.Context, asOf time.Time) ([]mealplan.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mealplan.Reminder
	for _, r := range m.reminders {
		if r.Status == mealplan.Pending && !r.ScheduledTime.Time().After(asOf) {
			out = append(out, r)
		}
	}
	return out, nil
}

// stubResolver returns a Recipe with a non-zero AdvancePrepHours for
// every id, so every assignment in the sample events actually derives a
// reminder (§4.8) and the idempotency test below exercises that path
// rather than vacuously passing on an empty reminders map.
type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, ids []mealplan.RecipeID) (map[mealplan.RecipeID]mealplan.Recipe, error) {
	out := make(map[mealplan.RecipeID]mealplan.Recipe, len(ids))
	for _, id := range ids {
		out[id] = mealplan.Recipe{ID: id, Title: "stub", AdvancePrepHours: 24}
	}
	return out, nil
}

func snapshot(m *memProjections) (map[mealplan.MealPlanID]store.PlanView, map[mealplan.MealPlanID]map[mealplan.SlotKey]mealplan.MealAssignment, map[mealplan.NotificationID]mealplan.Reminder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plans := make(map[mealplan.MealPlanID]store.PlanView, len(m.plans))
	for k, v := range m.plans {
		plans[k] = v
	}
	assignments := make(map[mealplan.MealPlanID]map[mealplan.SlotKey]mealplan.MealAssignment, len(m.assignments))
	for planID, slots := range m.assignments {
		cp := make(map[mealplan.SlotKey]mealplan.MealAssignment, len(slots))
		for k, v := range slots {
			cp[k] = v
		}
		assignments[planID] = cp
	}
	reminders := make(map[mealplan.NotificationID]mealplan.Reminder, len(m.reminders))
	for k, v := range m.reminders {
		reminders[k] = v
	}
	return plans, assignments, reminders
}

func sampleEvents(t *testing.T) []mealplan.EventEnvelope {
	t.Helper()
	userID := mealplan.UserID(uuid.New())
	planID := mealplan.NewMealPlanID()
	batchID := mealplan.NewGenerationBatchID()
	start := mealplan.NewDate(2026, time.August, 3)
	oldRecipe := mealplan.RecipeID(uuid.New())
	newRecipe := mealplan.RecipeID(uuid.New())

	generated := mealplan.MealPlanGenerated{
		PlanID: planID, UserID: userID, StartDate: start, EndDate: start.AddDays(6),
		GenerationBatchID: batchID,
		Assignments: []mealplan.MealAssignment{
			{Date: start, MealType: mealplan.Dinner, RecipeID: oldRecipe},
			{Date: start.AddDays(1), MealType: mealplan.Dinner, RecipeID: mealplan.RecipeID(uuid.New())},
		},
		RotationState: mealplan.NewRotationState(),
	}
	replaced := mealplan.MealReplaced{
		PlanID: planID, Date: start, MealType: mealplan.Dinner,
		OldRecipeID: oldRecipe, NewRecipeID: newRecipe, Reasoning: "swap",
	}

	now := mealplan.NewInstant(time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC))
	return []mealplan.EventEnvelope{
		{EventID: uuid.New(), AggregateID: planID, Sequence: 1, OccurredAt: now, Metadata: mealplan.EventMetadata{UserID: userID}, Payload: generated},
		{EventID: uuid.New(), AggregateID: planID, Sequence: 2, OccurredAt: now, Metadata: mealplan.EventMetadata{UserID: userID}, Payload: replaced},
	}
}

// P9 (Idempotent projection): a fresh projection that plays the event
// log once and a second fresh projection that plays the whole log
// twice end up with identical plans, assignments and reminders.
func TestApply_IdempotentAcrossReplay(t *testing.T) {
	events := sampleEvents(t)
	// Pin the projection clock: derived fields (PlanView.UpdatedAt,
	// Reminder.CreatedAt) must not differ between the two runs below
	// just because real time elapsed between them.
	fixedNow := func() time.Time { return time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC) }

	full := newMemProjections()
	subFull := New(full, stubResolver{}, nil, zerolog.Nop())
	subFull.now = fixedNow
	for _, e := range events {
		require.NoError(t, subFull.Apply(context.Background(), e))
	}

	partial := newMemProjections()
	subPartial := New(partial, stubResolver{}, nil, zerolog.Nop())
	subPartial.now = fixedNow
	// Apply the full log once, "crash", then replay the whole log again
	// from the start against the same store — the read model must land
	// in the same place, never duplicating or double-counting.
	for _, e := range events {
		require.NoError(t, subPartial.Apply(context.Background(), e))
	}
	for _, e := range events {
		require.NoError(t, subPartial.Apply(context.Background(), e))
	}

	fullPlans, fullAssignments, fullReminders := snapshot(full)
	partialPlans, partialAssignments, partialReminders := snapshot(partial)

	assert.Equal(t, fullPlans, partialPlans)
	assert.Equal(t, fullAssignments, partialAssignments)
	require.NotEmpty(t, fullReminders, "sample events must actually derive reminders for this test to mean anything")
	assert.Equal(t, fullReminders, partialReminders, "redelivering the full log must not duplicate reminder rows (§9's natural-key idempotency promise)")
}

// A single re-delivery of the same MealReplaced event does not create
// a second assignment row or flip the natural key.
func TestApplyMealReplaced_RedeliveryIsNoOp(t *testing.T) {
	events := sampleEvents(t)
	generated := events[0].Payload.(mealplan.MealPlanGenerated)

	proj := newMemProjections()
	sub := New(proj, stubResolver{}, nil, zerolog.Nop())

	require.NoError(t, sub.Apply(context.Background(), events[0]))
	require.NoError(t, sub.Apply(context.Background(), events[1]))
	require.NoError(t, sub.Apply(context.Background(), events[1])) // redelivered

	slots := proj.assignments[generated.PlanID]
	require.Len(t, slots, 2)

	key := mealplan.SlotKey{Date: generated.StartDate, MealType: mealplan.Dinner}
	replaced := events[1].Payload.(mealplan.MealReplaced)
	assert.Equal(t, replaced.NewRecipeID, slots[key].RecipeID)
}

// MealPlanRegenerated fully replaces the assignment set rather than
// merging it: a regenerated plan with fewer surviving slots must not
// retain any assignment absent from NewAssignments.
func TestApplyRegenerated_ReplacesRatherThanMerges(t *testing.T) {
	userID := mealplan.UserID(uuid.New())
	planID := mealplan.NewMealPlanID()
	start := mealplan.NewDate(2026, time.August, 3)
	now := mealplan.NewInstant(time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC))

	generated := mealplan.MealPlanGenerated{
		PlanID: planID, UserID: userID, StartDate: start, EndDate: start.AddDays(6),
		Assignments: []mealplan.MealAssignment{
			{Date: start, MealType: mealplan.Dinner, RecipeID: mealplan.RecipeID(uuid.New())},
			{Date: start, MealType: mealplan.Lunch, RecipeID: mealplan.RecipeID(uuid.New())},
		},
		RotationState: mealplan.NewRotationState(),
	}
	regenerated := mealplan.MealPlanRegenerated{
		PlanID:           planID,
		NewAssignments:   []mealplan.MealAssignment{{Date: start, MealType: mealplan.Dinner, RecipeID: mealplan.RecipeID(uuid.New())}},
		NewRotationState: mealplan.NewRotationState(),
		Reason:           "test",
	}

	proj := newMemProjections()
	sub := New(proj, stubResolver{}, nil, zerolog.Nop())

	require.NoError(t, sub.Apply(context.Background(), mealplan.EventEnvelope{
		AggregateID: planID, Sequence: 1, OccurredAt: now, Metadata: mealplan.EventMetadata{UserID: userID}, Payload: generated,
	}))
	require.NoError(t, sub.Apply(context.Background(), mealplan.EventEnvelope{
		AggregateID: planID, Sequence: 2, OccurredAt: now, Metadata: mealplan.EventMetadata{UserID: userID}, Payload: regenerated,
	}))

	slots := proj.assignments[planID]
	assert.Len(t, slots, 1)
	_, stillHasLunch := slots[mealplan.SlotKey{Date: start, MealType: mealplan.Lunch}]
	assert.False(t, stillHasLunch, "regenerate must replace, not merge, the assignment set")
}
