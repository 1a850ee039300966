/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/aggregate"
	"github.com/rghsoftware/mealplanner/internal/mealplan/lock"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
)

// memEvents is an in-memory stand-in for the durable EventStore used by
// the command test suite, mirroring internal/store's optimistic
// concurrency contract without depending on a real backend.
type memEvents struct {
	mu     sync.Mutex
	byPlan map[mealplan.MealPlanID][]mealplan.EventEnvelope
}

func newMemEvents() *memEvents {
	return &memEvents{byPlan: make(map[mealplan.MealPlanID][]mealplan.EventEnvelope)}
}

func (m *memEvents) Append(ctx context.Context, aggregateID mealplan.MealPlanID, expectedSeq uint64, envelopes []mealplan.EventEnvelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.byPlan[aggregateID]
	if uint64(len(current)) != expectedSeq {
		return mperrors.ErrConcurrencyConflict
	}
	m.byPlan[aggregateID] = append(current, envelopes...)
	return nil
}

func (m *memEvents) Load(ctx context.Context, aggregateID mealplan.MealPlanID) ([]mealplan.EventEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mealplan.EventEnvelope(nil), m.byPlan[aggregateID]...), nil
}

func (m *memEvents) LoadPlan(ctx context.Context, planID mealplan.MealPlanID) (*mealplan.MealPlan, error) {
	envelopes, _ := m.Load(ctx, planID)
	if len(envelopes) == 0 {
		return nil, mperrors.ErrPlanNotFound
	}
	plan := &mealplan.MealPlan{}
	for _, e := range envelopes {
		if err := aggregate.Apply(plan, e); err != nil {
			return nil, err
		}
	}
	plan.RefreshStatus(mealplan.Today(nil))
	return plan, nil
}

func (m *memEvents) eventCount(planID mealplan.MealPlanID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPlan[planID])
}

func (m *memEvents) totalEventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.byPlan {
		n += len(v)
	}
	return n
}

// memRotation is a settable fake for RotationReader, standing in for
// C8's rotation_state_view read model. Tests update it explicitly to
// simulate §5's "test harness forces synchronous processing".
type memRotation struct {
	state   mealplan.RotationState
	batchID mealplan.GenerationBatchID
	found   bool
}

func (r *memRotation) LatestRotationState(ctx context.Context, userID mealplan.UserID) (mealplan.RotationState, mealplan.GenerationBatchID, bool, error) {
	return r.state, r.batchID, r.found, nil
}

func (r *memRotation) set(state mealplan.RotationState) {
	r.state = state
	r.found = true
}

// trackingLocker wraps lock.Manager to let tests assert whether
// TryAcquire was ever called (S2: "acquires no lock").
type trackingLocker struct {
	*lock.Manager
	acquireAttempts int
}

func newTrackingLocker() *trackingLocker {
	return &trackingLocker{Manager: lock.NewManager()}
}

func (l *trackingLocker) TryAcquire(userID mealplan.UserID) (func(), bool) {
	l.acquireAttempts++
	return l.Manager.TryAcquire(userID)
}

func testRecipeID() mealplan.RecipeID { return mealplan.RecipeID(uuid.New()) }

func plainMain(title string) mealplan.Recipe {
	return mealplan.Recipe{
		ID: testRecipeID(), RecipeType: mealplan.MainCourse, Title: title,
		IngredientCount: 5, InstructionStepCount: 5, PrepTimeMin: 10, CookTimeMin: 15,
		InstructionText: "Saute everything together.", IngredientNames: []string{"rice"},
	}
}

func manyMains(n int) []mealplan.Recipe {
	out := make([]mealplan.Recipe, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, plainMain(uuid.NewString()))
	}
	return out
}

type testHarness struct {
	svc       *Service
	favorites *fakeFavorites
	prefs     *fakePreferences
	rotation  *memRotation
	events    *memEvents
	locker    *trackingLocker
}

type fakeFavorites struct{ byUser map[mealplan.UserID][]mealplan.Recipe }

func (f *fakeFavorites) ListFavorites(ctx context.Context, userID mealplan.UserID) ([]mealplan.Recipe, error) {
	return f.byUser[userID], nil
}

type fakePreferences struct{ byUser map[mealplan.UserID]mealplan.UserPreferences }

func (p *fakePreferences) GetPreferences(ctx context.Context, userID mealplan.UserID) (mealplan.UserPreferences, error) {
	if prefs, ok := p.byUser[userID]; ok {
		return prefs, nil
	}
	return mealplan.DefaultUserPreferences(), nil
}

func newHarness(fixedNow time.Time) *testHarness {
	events := newMemEvents()
	locker := newTrackingLocker()
	favorites := &fakeFavorites{byUser: make(map[mealplan.UserID][]mealplan.Recipe)}
	prefs := &fakePreferences{byUser: make(map[mealplan.UserID]mealplan.UserPreferences)}
	rotation := &memRotation{}

	svc := NewService(favorites, prefs, rotation, events, events, locker)
	svc.Now = func() time.Time { return fixedNow }

	return &testHarness{svc: svc, favorites: favorites, prefs: prefs, rotation: rotation, events: events, locker: locker}
}

var fixedGenerationTime = time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)

func reqCtx(userID mealplan.UserID) RequestContext {
	return RequestContext{UserID: userID, RequestID: uuid.NewString()}
}

// S2 — Insufficient recipes: 6 favorites fails fast, emits no events,
// acquires no lock.
func TestGenerate_InsufficientRecipes(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())
	h.favorites.byUser[userID] = manyMains(6)

	_, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)

	var detail *mperrors.InsufficientRecipesError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 6, detail.Have)
	assert.Equal(t, 7, detail.Need)
	assert.Equal(t, 0, h.events.totalEventCount())
	assert.Equal(t, 0, h.locker.acquireAttempts)
}

// S3 — Dietary exclusion: 10 recipes, 5 tagged Vegan, user restricted to
// Vegan; only the 5 survive filtering, still below the 7 minimum.
func TestGenerate_DietaryExclusion(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())

	var recipes []mealplan.Recipe
	for i := 0; i < 5; i++ {
		r := plainMain(uuid.NewString())
		r.DietaryTags = []mealplan.DietaryTag{mealplan.TagVegan}
		recipes = append(recipes, r)
	}
	recipes = append(recipes, manyMains(5)...) // non-vegan, filtered out
	h.favorites.byUser[userID] = recipes
	h.prefs.byUser[userID] = mealplan.UserPreferences{
		DietaryRestrictions: []mealplan.DietaryTag{mealplan.TagVegan},
		HouseholdSize:       2, MaxPrepTimeWeeknightMin: 30, MaxPrepTimeWeekendMin: 90,
		CuisineVarietyWeight: 0.7,
	}

	_, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)

	var detail *mperrors.InsufficientRecipesError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 5, detail.Have)
	assert.Equal(t, 7, detail.Need)
}

// S1 — Minimum viable generation: exactly 7 main courses, no dietary
// restrictions, succeeds and uses every main exactly once at dinner.
func TestGenerate_MinimumViable(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())
	h.favorites.byUser[userID] = manyMains(7)

	result, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)
	require.NoError(t, err)
	assert.Len(t, result.Assignments, 21)
	assert.Greater(t, h.events.eventCount(result.PlanID), 0)

	dinners := make(map[mealplan.RecipeID]bool)
	for _, a := range result.Assignments {
		if a.MealType == mealplan.Dinner {
			dinners[a.RecipeID] = true
		}
	}
	assert.Len(t, dinners, 7)
}

// S5 — Locked week: ReplaceMeal against a plan whose start_date is in
// the past returns PlanLocked and leaves the event log untouched.
func TestReplaceMeal_LockedPlanRejected(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())
	planID := mealplan.NewMealPlanID()

	today := mealplan.Today(nil)
	generated := mealplan.MealPlanGenerated{
		PlanID: planID, UserID: userID,
		StartDate: today.AddDays(-9), EndDate: today.AddDays(-3),
		Assignments: []mealplan.MealAssignment{{Date: today.AddDays(-9), MealType: mealplan.Dinner, RecipeID: testRecipeID()}},
	}
	require.NoError(t, h.events.Append(context.Background(), planID, 0, []mealplan.EventEnvelope{
		{AggregateID: planID, Sequence: 1, OccurredAt: mealplan.NewInstant(fixedGenerationTime), Payload: generated},
	}))

	_, err := h.svc.ReplaceMeal(context.Background(), reqCtx(userID), planID, today.AddDays(-9), mealplan.Dinner, nil)

	var detail *mperrors.PlanLockedError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 1, h.events.eventCount(planID)) // no new event appended
}

// P8 at the command layer: a caller who doesn't own the plan is
// rejected and the event log is untouched.
func TestReplaceMeal_UnauthorizedCallerRejected(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	owner := mealplan.UserID(uuid.New())
	intruder := mealplan.UserID(uuid.New())
	planID := mealplan.NewMealPlanID()

	today := mealplan.Today(nil)
	generated := mealplan.MealPlanGenerated{
		PlanID: planID, UserID: owner,
		StartDate: today.AddDays(7), EndDate: today.AddDays(13),
		Assignments: []mealplan.MealAssignment{{Date: today.AddDays(7), MealType: mealplan.Dinner, RecipeID: testRecipeID()}},
	}
	require.NoError(t, h.events.Append(context.Background(), planID, 0, []mealplan.EventEnvelope{
		{AggregateID: planID, Sequence: 1, OccurredAt: mealplan.NewInstant(fixedGenerationTime), Payload: generated},
	}))

	_, err := h.svc.ReplaceMeal(context.Background(), reqCtx(intruder), planID, today.AddDays(7), mealplan.Dinner, nil)

	var detail *mperrors.UnauthorizedAccessError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 1, h.events.eventCount(planID))
}

// S7 at the command layer — Rotation cycle rollover: with exactly 7
// mains, calling Generate twice back-to-back (feeding the first call's
// emitted rotation snapshot into the read model between calls, as the
// synchronous test harness would) rolls over into cycle 2.
func TestGenerate_RotationCycleRollsOver(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())
	h.favorites.byUser[userID] = manyMains(7)

	first, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)
	require.NoError(t, err)

	envelopes, err := h.events.Load(context.Background(), first.PlanID)
	require.NoError(t, err)
	generated := envelopes[0].Payload.(mealplan.MealPlanGenerated)
	h.rotation.set(generated.RotationState)
	require.EqualValues(t, 1, generated.RotationState.CycleNumber)

	second, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)
	require.NoError(t, err)

	envelopes2, err := h.events.Load(context.Background(), second.PlanID)
	require.NoError(t, err)
	generated2 := envelopes2[0].Payload.(mealplan.MealPlanGenerated)
	assert.EqualValues(t, 2, generated2.RotationState.CycleNumber)
}

// S10 — Regenerate preserves rotation: regenerating a plan keeps the
// cycle number unchanged and still produces 7 unique dinner mains.
func TestRegenerate_PreservesRotationCycle(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())
	h.favorites.byUser[userID] = manyMains(14)

	generated, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)
	require.NoError(t, err)

	envelopes, err := h.events.Load(context.Background(), generated.PlanID)
	require.NoError(t, err)
	originalCycle := envelopes[0].Payload.(mealplan.MealPlanGenerated).RotationState.CycleNumber

	regenerated, err := h.svc.Regenerate(context.Background(), reqCtx(userID), generated.PlanID, "user requested a refresh")
	require.NoError(t, err)
	assert.Len(t, regenerated.Assignments, 21)

	all, err := h.events.Load(context.Background(), generated.PlanID)
	require.NoError(t, err)
	var regenEvent mealplan.MealPlanRegenerated
	for _, e := range all {
		if re, ok := e.Payload.(mealplan.MealPlanRegenerated); ok {
			regenEvent = re
		}
	}
	require.NotZero(t, regenEvent.PlanID)
	assert.Equal(t, originalCycle, regenEvent.NewRotationState.CycleNumber)

	dinners := make(map[mealplan.RecipeID]bool)
	for _, a := range regenEvent.NewAssignments {
		if a.MealType == mealplan.Dinner {
			dinners[a.RecipeID] = true
		}
	}
	assert.Len(t, dinners, 7)
}

// GenerationInFlight: a second Generate call for the same user while
// the lock is held fails fast rather than queueing.
func TestGenerate_LockAlreadyHeldFailsFast(t *testing.T) {
	h := newHarness(fixedGenerationTime)
	userID := mealplan.UserID(uuid.New())
	h.favorites.byUser[userID] = manyMains(7)

	release, ok := h.locker.TryAcquire(userID)
	require.True(t, ok)
	defer release()

	_, err := h.svc.Generate(context.Background(), reqCtx(userID), nil)

	var detail *mperrors.GenerationInFlightError
	require.ErrorAs(t, err, &detail)
}
