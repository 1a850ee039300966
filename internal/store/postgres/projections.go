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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// UpsertPlan maintains meal_plans per §4.9's idempotency law: an
// INSERT ... ON CONFLICT DO UPDATE so replaying an event twice leaves
// the row unchanged the second time.
func (s *Store) UpsertPlan(ctx context.Context, v store.PlanView) error {
	stateJSON, err := store.EncodeRotationState(v.RotationState)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO meal_plans (id, user_id, start_date, end_date, is_locked, status, generation_batch_id, rotation_state_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			is_locked = EXCLUDED.is_locked,
			status = EXCLUDED.status,
			rotation_state_json = EXCLUDED.rotation_state_json,
			updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(v.ID), uuid.UUID(v.UserID), v.StartDate.Time(), v.EndDate.Time(), v.IsLocked, v.Status.String(),
		uuid.UUID(v.GenerationBatchID), stateJSON, v.CreatedAt.Time(), v.UpdatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert plan %s: %w", v.ID, err)
	}
	return nil
}

// UpsertAssignment maintains meal_assignments, keyed by (plan_id, date,
// meal_type).
func (s *Store) UpsertAssignment(ctx context.Context, planID mealplan.MealPlanID, a mealplan.MealAssignment) error {
	var accompanimentID *uuid.UUID
	if a.AccompanimentRecipeID != nil {
		u := uuid.UUID(*a.AccompanimentRecipeID)
		accompanimentID = &u
	}
	var prepBy *int64
	if a.PrepRequiredBy != nil {
		v := a.PrepRequiredBy.Time().Unix()
		prepBy = &v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO meal_assignments (plan_id, date, meal_type, recipe_id, accompaniment_recipe_id, prep_required, prep_required_by, assignment_reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (plan_id, date, meal_type) DO UPDATE SET
			recipe_id = EXCLUDED.recipe_id,
			accompaniment_recipe_id = EXCLUDED.accompaniment_recipe_id,
			prep_required = EXCLUDED.prep_required,
			prep_required_by = EXCLUDED.prep_required_by,
			assignment_reasoning = EXCLUDED.assignment_reasoning
	`,
		uuid.UUID(planID), a.Date.Time(), a.MealType.String(), uuid.UUID(a.RecipeID), accompanimentID,
		a.PrepRequired, prepBy, a.AssignmentReasoning,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert assignment %s/%s/%s: %w", planID, a.Date, a.MealType, err)
	}
	return nil
}

// ReplaceAssignments implements the Regenerate projection path: every
// one of the plan's 21 rows is rewritten atomically.
func (s *Store) ReplaceAssignments(ctx context.Context, planID mealplan.MealPlanID, assignments []mealplan.MealAssignment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin replace-assignments tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM meal_assignments WHERE plan_id = $1`, uuid.UUID(planID)); err != nil {
		return fmt.Errorf("postgres: clear assignments for %s: %w", planID, err)
	}
	for _, a := range assignments {
		var accompanimentID *uuid.UUID
		if a.AccompanimentRecipeID != nil {
			u := uuid.UUID(*a.AccompanimentRecipeID)
			accompanimentID = &u
		}
		var prepBy *int64
		if a.PrepRequiredBy != nil {
			v := a.PrepRequiredBy.Time().Unix()
			prepBy = &v
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO meal_assignments (plan_id, date, meal_type, recipe_id, accompaniment_recipe_id, prep_required, prep_required_by, assignment_reasoning)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			uuid.UUID(planID), a.Date.Time(), a.MealType.String(), uuid.UUID(a.RecipeID), accompanimentID,
			a.PrepRequired, prepBy, a.AssignmentReasoning,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert assignment %s/%s: %w", planID, a.Date, err)
		}
	}
	return tx.Commit(ctx)
}

// UpsertRotationState maintains rotation_states, keyed by (user_id,
// generation_batch_id).
func (s *Store) UpsertRotationState(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID, state mealplan.RotationState) error {
	raw, err := store.EncodeRotationState(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rotation_states (user_id, generation_batch_id, rotation_state_json, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, generation_batch_id) DO UPDATE SET
			rotation_state_json = EXCLUDED.rotation_state_json,
			updated_at = now()
	`, uuid.UUID(userID), uuid.UUID(batchID), raw)
	if err != nil {
		return fmt.Errorf("postgres: upsert rotation state for %s/%s: %w", userID, batchID, err)
	}
	return nil
}

// LatestRotationState implements commands.RotationReader by picking the
// most recently updated row for the user across any batch.
func (s *Store) LatestRotationState(ctx context.Context, userID mealplan.UserID) (mealplan.RotationState, mealplan.GenerationBatchID, bool, error) {
	var (
		batchID uuid.UUID
		raw     []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT generation_batch_id, rotation_state_json FROM rotation_states
		WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1
	`, uuid.UUID(userID)).Scan(&batchID, &raw)
	if err == pgx.ErrNoRows {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, nil
	}
	if err != nil {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, fmt.Errorf("postgres: latest rotation state for %s: %w", userID, err)
	}
	state, err := store.DecodeRotationState(raw)
	if err != nil {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, err
	}
	return state, mealplan.GenerationBatchID(batchID), true, nil
}

// GetActivePlan implements §6.2: the plan whose date range contains today.
func (s *Store) GetActivePlan(ctx context.Context, userID mealplan.UserID, today mealplan.Date) (store.PlanView, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, start_date, end_date, is_locked, status, generation_batch_id, rotation_state_json, created_at, updated_at
		FROM meal_plans
		WHERE user_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC LIMIT 1
	`, uuid.UUID(userID), today.Time())
	v, err := scanPlanView(row)
	if err == pgx.ErrNoRows {
		return store.PlanView{}, false, nil
	}
	if err != nil {
		return store.PlanView{}, false, fmt.Errorf("postgres: active plan for %s: %w", userID, err)
	}
	return v, true, nil
}

// GetPlansByBatch implements §6.2.
func (s *Store) GetPlansByBatch(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID) ([]store.PlanView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, start_date, end_date, is_locked, status, generation_batch_id, rotation_state_json, created_at, updated_at
		FROM meal_plans WHERE user_id = $1 AND generation_batch_id = $2 ORDER BY start_date ASC
	`, uuid.UUID(userID), uuid.UUID(batchID))
	if err != nil {
		return nil, fmt.Errorf("postgres: plans for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var out []store.PlanView
	for rows.Next() {
		v, err := scanPlanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlanView(row rowScanner) (store.PlanView, error) {
	var (
		id, userID, batchID      uuid.UUID
		startDate, endDate       timeValue
		isLocked                 bool
		status                   string
		rotationJSON             []byte
		createdAt, updatedAt     timeValue
	)
	if err := row.Scan(&id, &userID, &startDate.t, &endDate.t, &isLocked, &status, &batchID, &rotationJSON, &createdAt.t, &updatedAt.t); err != nil {
		return store.PlanView{}, err
	}
	state, err := store.DecodeRotationState(rotationJSON)
	if err != nil {
		return store.PlanView{}, err
	}
	return store.PlanView{
		ID:                mealplan.MealPlanID(id),
		UserID:            mealplan.UserID(userID),
		StartDate:         mealplan.DateFromTime(startDate.t),
		EndDate:           mealplan.DateFromTime(endDate.t),
		IsLocked:          isLocked,
		Status:            parseStatus(status),
		GenerationBatchID: mealplan.GenerationBatchID(batchID),
		RotationState:     state,
		CreatedAt:         mealplan.NewInstant(createdAt.t),
		UpdatedAt:         mealplan.NewInstant(updatedAt.t),
	}, nil
}

func parseStatus(s string) mealplan.PlanStatus {
	switch s {
	case "future":
		return mealplan.Future
	case "current":
		return mealplan.Current
	case "past":
		return mealplan.Past
	case "archived":
		return mealplan.Archived
	default:
		return mealplan.Future
	}
}

// GetAssignmentsForWeek implements §6.2.
func (s *Store) GetAssignmentsForWeek(ctx context.Context, planID mealplan.MealPlanID) ([]mealplan.MealAssignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, meal_type, recipe_id, accompaniment_recipe_id, prep_required, prep_required_by, assignment_reasoning
		FROM meal_assignments WHERE plan_id = $1 ORDER BY date ASC, meal_type ASC
	`, uuid.UUID(planID))
	if err != nil {
		return nil, fmt.Errorf("postgres: assignments for %s: %w", planID, err)
	}
	defer rows.Close()

	var out []mealplan.MealAssignment
	for rows.Next() {
		var (
			date                 timeValue
			mealType             string
			recipeID             uuid.UUID
			accompanimentID      *uuid.UUID
			prepRequired         bool
			prepRequiredByUnix   *int64
			reasoning            string
		)
		if err := rows.Scan(&date.t, &mealType, &recipeID, &accompanimentID, &prepRequired, &prepRequiredByUnix, &reasoning); err != nil {
			return nil, fmt.Errorf("postgres: scan assignment row: %w", err)
		}
		a := mealplan.MealAssignment{
			Date:                mealplan.DateFromTime(date.t),
			MealType:            parseMealType(mealType),
			RecipeID:            mealplan.RecipeID(recipeID),
			PrepRequired:        prepRequired,
			AssignmentReasoning: reasoning,
		}
		if accompanimentID != nil {
			id := mealplan.RecipeID(*accompanimentID)
			a.AccompanimentRecipeID = &id
		}
		if prepRequiredByUnix != nil {
			t := timeFromUnix(*prepRequiredByUnix)
			inst := mealplan.NewInstant(t)
			a.PrepRequiredBy = &inst
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func parseMealType(s string) mealplan.MealType {
	switch s {
	case "breakfast":
		return mealplan.Breakfast
	case "lunch":
		return mealplan.Lunch
	default:
		return mealplan.Dinner
	}
}

// InsertReminder implements C9's persistence side (§4.8). r.ID is derived
// deterministically from (plan_id, date, meal_type, reminder_type) —
// §9's natural key — so redelivering the same event, or replacing a meal
// in the same slot, resolves onto the same row instead of inserting a
// duplicate. The conflict branch upserts rather than no-ops: a meal
// replacement must overwrite the stale recipe/body/schedule left by the
// assignment it superseded, not leave it stuck dismissed.
func (s *Store) InsertReminder(ctx context.Context, r mealplan.Reminder) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reminders (id, user_id, recipe_id, meal_date, meal_type, scheduled_time, reminder_type, prep_hours, status, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			recipe_id = EXCLUDED.recipe_id,
			scheduled_time = EXCLUDED.scheduled_time,
			reminder_type = EXCLUDED.reminder_type,
			prep_hours = EXCLUDED.prep_hours,
			status = EXCLUDED.status,
			body = EXCLUDED.body
	`,
		uuid.UUID(r.ID), uuid.UUID(r.UserID), uuid.UUID(r.RecipeID), r.MealDate.Time(), r.MealType.String(),
		r.ScheduledTime.Time(), r.ReminderType.String(), r.PrepHours, r.Status.String(), r.Body, r.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert reminder %s: %w", r.ID, err)
	}
	return nil
}

// SupersedePendingReminders implements §4.8's replace/regenerate path.
func (s *Store) SupersedePendingReminders(ctx context.Context, userID mealplan.UserID, dates []mealplan.Date) error {
	if len(dates) == 0 {
		return nil
	}
	raw := make([]any, 0, len(dates))
	for _, d := range dates {
		raw = append(raw, d.Time())
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE reminders SET status = 'dismissed'
		WHERE user_id = $1 AND status = 'pending' AND meal_date = ANY($2::timestamptz[])
	`, uuid.UUID(userID), raw)
	if err != nil {
		return fmt.Errorf("postgres: supersede reminders for %s: %w", userID, err)
	}
	return nil
}

// GetReminders implements §6.2's GetReminders query.
func (s *Store) GetReminders(ctx context.Context, userID mealplan.UserID, status mealplan.ReminderStatus) ([]mealplan.Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, recipe_id, meal_date, meal_type, scheduled_time, reminder_type, prep_hours, status, body, created_at
		FROM reminders WHERE user_id = $1 AND status = $2 ORDER BY scheduled_time ASC
	`, uuid.UUID(userID), status.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: reminders for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []mealplan.Reminder
	for rows.Next() {
		var (
			id, uID, recipeID                        uuid.UUID
			mealDate, scheduled, created              timeValue
			mealType, reminderType, statusStr, body    string
			prepHours                                 uint32
		)
		if err := rows.Scan(&id, &uID, &recipeID, &mealDate.t, &mealType, &scheduled.t, &reminderType, &prepHours, &statusStr, &body, &created.t); err != nil {
			return nil, fmt.Errorf("postgres: scan reminder row: %w", err)
		}
		out = append(out, mealplan.Reminder{
			ID:            mealplan.NotificationID(id),
			UserID:        mealplan.UserID(uID),
			RecipeID:      mealplan.RecipeID(recipeID),
			MealDate:      mealplan.DateFromTime(mealDate.t),
			MealType:      parseMealType(mealType),
			ScheduledTime: mealplan.NewInstant(scheduled.t),
			ReminderType:  parseReminderType(reminderType),
			PrepHours:     prepHours,
			Status:        statusStr2status(statusStr),
			Body:          body,
			CreatedAt:     mealplan.NewInstant(created.t),
		})
	}
	return out, rows.Err()
}

// ListDueReminders implements cmd/reminderworker's polling query.
func (s *Store) ListDueReminders(ctx context.Context, asOf time.Time) ([]mealplan.Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, recipe_id, meal_date, meal_type, scheduled_time, reminder_type, prep_hours, status, body, created_at
		FROM reminders WHERE status = 'pending' AND scheduled_time <= $1 ORDER BY scheduled_time ASC
	`, asOf)
	if err != nil {
		return nil, fmt.Errorf("postgres: due reminders: %w", err)
	}
	defer rows.Close()

	var out []mealplan.Reminder
	for rows.Next() {
		var (
			id, uID, recipeID                       uuid.UUID
			mealDate, scheduled, created             timeValue
			mealType, reminderType, statusStr, body  string
			prepHours                                uint32
		)
		if err := rows.Scan(&id, &uID, &recipeID, &mealDate.t, &mealType, &scheduled.t, &reminderType, &prepHours, &statusStr, &body, &created.t); err != nil {
			return nil, fmt.Errorf("postgres: scan reminder row: %w", err)
		}
		out = append(out, mealplan.Reminder{
			ID:            mealplan.NotificationID(id),
			UserID:        mealplan.UserID(uID),
			RecipeID:      mealplan.RecipeID(recipeID),
			MealDate:      mealplan.DateFromTime(mealDate.t),
			MealType:      parseMealType(mealType),
			ScheduledTime: mealplan.NewInstant(scheduled.t),
			ReminderType:  parseReminderType(reminderType),
			PrepHours:     prepHours,
			Status:        statusStr2status(statusStr),
			Body:          body,
			CreatedAt:     mealplan.NewInstant(created.t),
		})
	}
	return out, rows.Err()
}

func parseReminderType(s string) mealplan.ReminderType {
	switch s {
	case "advance_prep":
		return mealplan.AdvancePrep
	case "morning":
		return mealplan.Morning
	case "day_of":
		return mealplan.DayOf
	default:
		return mealplan.DayOf
	}
}

func statusStr2status(s string) mealplan.ReminderStatus {
	switch s {
	case "sent":
		return mealplan.Sent
	case "dismissed":
		return mealplan.Dismissed
	case "snoozed":
		return mealplan.Snoozed
	case "failed":
		return mealplan.Failed
	default:
		return mealplan.Pending
	}
}
