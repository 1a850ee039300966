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

package store

import (
	"context"
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// EventStore is the append-only, per-aggregate-ordered event log of
// §6.3/§5: "writes to the same aggregate are serialized by optimistic
// concurrency on the aggregate's sequence number."
type EventStore interface {
	// Append writes envelopes atomically. It fails with
	// mperrors.ErrConcurrencyConflict if the aggregate's current
	// sequence number does not match expectedSeq.
	Append(ctx context.Context, aggregateID mealplan.MealPlanID, expectedSeq uint64, envelopes []mealplan.EventEnvelope) error

	// Load returns every envelope recorded for aggregateID in append
	// order, for folding into an aggregate (§4.6).
	Load(ctx context.Context, aggregateID mealplan.MealPlanID) ([]mealplan.EventEnvelope, error)
}

// Projections is the C8 read-model surface: one method group per view,
// all idempotent because every write is keyed on the row's natural key
// (§4.9's idempotency law).
type Projections interface {
	// UpsertPlan maintains meal_plans_view.
	UpsertPlan(ctx context.Context, view PlanView) error

	// UpsertAssignment maintains meal_assignments_view; (plan_id, date,
	// meal_type) is the natural key.
	UpsertAssignment(ctx context.Context, planID mealplan.MealPlanID, a mealplan.MealAssignment) error

	// ReplaceAssignments clears and rewrites every assignment of a plan,
	// used by MealPlanRegenerated (§4.9).
	ReplaceAssignments(ctx context.Context, planID mealplan.MealPlanID, assignments []mealplan.MealAssignment) error

	// UpsertRotationState maintains rotation_state_view, keyed by
	// (user_id, generation_batch_id).
	UpsertRotationState(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID, state mealplan.RotationState) error

	// LatestRotationState implements commands.RotationReader: the most
	// recently written rotation row for a user, across any batch.
	LatestRotationState(ctx context.Context, userID mealplan.UserID) (state mealplan.RotationState, batchID mealplan.GenerationBatchID, found bool, err error)

	// GetActivePlan returns the plan whose date range contains today,
	// per §6.2.
	GetActivePlan(ctx context.Context, userID mealplan.UserID, today mealplan.Date) (PlanView, bool, error)

	// GetPlansByBatch returns every week of a multi-week batch.
	GetPlansByBatch(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID) ([]PlanView, error)

	// GetAssignmentsForWeek returns the 21 assignments of one plan.
	GetAssignmentsForWeek(ctx context.Context, planID mealplan.MealPlanID) ([]mealplan.MealAssignment, error)

	// InsertReminder writes a reminders row (§4.8, C9), overwriting the
	// row that already has the same id.
	InsertReminder(ctx context.Context, r mealplan.Reminder) error

	// SupersedePendingReminders marks every Pending reminder for
	// (userID, one of dates) as Dismissed, per §4.8's "previously
	// scheduled reminders ... are superseded" rule on replace/regenerate.
	SupersedePendingReminders(ctx context.Context, userID mealplan.UserID, dates []mealplan.Date) error

	// GetReminders implements §6.2's GetReminders query.
	GetReminders(ctx context.Context, userID mealplan.UserID, status mealplan.ReminderStatus) ([]mealplan.Reminder, error)

	// ListDueReminders returns every Pending reminder across all users
	// scheduled at or before asOf, for cmd/reminderworker's polling loop.
	ListDueReminders(ctx context.Context, asOf time.Time) ([]mealplan.Reminder, error)
}

// PlanLoader folds a plan's event stream into an in-memory aggregate.
// Implemented generically over any EventStore in loader.go; both
// backends' LoadPlan methods delegate to it.
type PlanLoader interface {
	LoadPlan(ctx context.Context, planID mealplan.MealPlanID) (*mealplan.MealPlan, error)
}

// Store composes the full persistence surface a backend provides.
type Store interface {
	EventStore
	Projections
	PlanLoader

	// Migrate runs the backend's pending schema migrations.
	Migrate(ctx context.Context) error
	// Close releases the backend's connection pool/handle.
	Close() error
}

// PlanView is meal_plans_view's row shape (§6.4), independent of the
// in-memory aggregate so read queries don't need a full event replay.
type PlanView struct {
	ID                mealplan.MealPlanID
	UserID            mealplan.UserID
	StartDate         mealplan.Date
	EndDate           mealplan.Date
	IsLocked          bool
	Status            mealplan.PlanStatus
	GenerationBatchID mealplan.GenerationBatchID
	RotationState     mealplan.RotationState
	CreatedAt         mealplan.Instant
	UpdatedAt         mealplan.Instant
}
