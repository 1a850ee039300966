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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/store"
)

const timeLayout = time.RFC3339Nano
const dateLayout = "2006-01-02"

// UpsertPlan mirrors the postgres backend's upsert but as sqlite's
// INSERT ... ON CONFLICT DO UPDATE form (§4.9's idempotency law).
func (s *Store) UpsertPlan(ctx context.Context, v store.PlanView) error {
	stateJSON, err := store.EncodeRotationState(v.RotationState)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, start_date, end_date, is_locked, status, generation_batch_id, rotation_state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			is_locked = excluded.is_locked,
			status = excluded.status,
			rotation_state_json = excluded.rotation_state_json,
			updated_at = excluded.updated_at
	`,
		v.ID.String(), v.UserID.String(), v.StartDate.String(), v.EndDate.String(), boolToInt(v.IsLocked), v.Status.String(),
		v.GenerationBatchID.String(), string(stateJSON), v.CreatedAt.Time().Format(timeLayout), v.UpdatedAt.Time().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert plan %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) UpsertAssignment(ctx context.Context, planID mealplan.MealPlanID, a mealplan.MealAssignment) error {
	accompanimentID, prepBy := assignmentOptionals(a)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_assignments (plan_id, date, meal_type, recipe_id, accompaniment_recipe_id, prep_required, prep_required_by, assignment_reasoning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id, date, meal_type) DO UPDATE SET
			recipe_id = excluded.recipe_id,
			accompaniment_recipe_id = excluded.accompaniment_recipe_id,
			prep_required = excluded.prep_required,
			prep_required_by = excluded.prep_required_by,
			assignment_reasoning = excluded.assignment_reasoning
	`,
		planID.String(), a.Date.String(), a.MealType.String(), a.RecipeID.String(), accompanimentID,
		boolToInt(a.PrepRequired), prepBy, a.AssignmentReasoning,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert assignment %s/%s/%s: %w", planID, a.Date, a.MealType, err)
	}
	return nil
}

func (s *Store) ReplaceAssignments(ctx context.Context, planID mealplan.MealPlanID, assignments []mealplan.MealAssignment) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin replace-assignments tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meal_assignments WHERE plan_id = ?`, planID.String()); err != nil {
		return fmt.Errorf("sqlite: clear assignments for %s: %w", planID, err)
	}
	for _, a := range assignments {
		accompanimentID, prepBy := assignmentOptionals(a)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meal_assignments (plan_id, date, meal_type, recipe_id, accompaniment_recipe_id, prep_required, prep_required_by, assignment_reasoning)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			planID.String(), a.Date.String(), a.MealType.String(), a.RecipeID.String(), accompanimentID,
			boolToInt(a.PrepRequired), prepBy, a.AssignmentReasoning,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert assignment %s/%s: %w", planID, a.Date, err)
		}
	}
	return tx.Commit()
}

func (s *Store) UpsertRotationState(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID, state mealplan.RotationState) error {
	raw, err := store.EncodeRotationState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rotation_states (user_id, generation_batch_id, rotation_state_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, generation_batch_id) DO UPDATE SET
			rotation_state_json = excluded.rotation_state_json,
			updated_at = excluded.updated_at
	`, userID.String(), batchID.String(), string(raw), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("sqlite: upsert rotation state for %s/%s: %w", userID, batchID, err)
	}
	return nil
}

func (s *Store) LatestRotationState(ctx context.Context, userID mealplan.UserID) (mealplan.RotationState, mealplan.GenerationBatchID, bool, error) {
	var batchStr, raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT generation_batch_id, rotation_state_json FROM rotation_states
		WHERE user_id = ? ORDER BY updated_at DESC LIMIT 1
	`, userID.String()).Scan(&batchStr, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, nil
	}
	if err != nil {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, fmt.Errorf("sqlite: latest rotation state for %s: %w", userID, err)
	}
	batchID, err := mealplan.ParseGenerationBatchID(batchStr)
	if err != nil {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, err
	}
	state, err := store.DecodeRotationState([]byte(raw))
	if err != nil {
		return mealplan.RotationState{}, mealplan.GenerationBatchID{}, false, err
	}
	return state, batchID, true, nil
}

func (s *Store) GetActivePlan(ctx context.Context, userID mealplan.UserID, today mealplan.Date) (store.PlanView, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, start_date, end_date, is_locked, status, generation_batch_id, rotation_state_json, created_at, updated_at
		FROM meal_plans
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC LIMIT 1
	`, userID.String(), today.String(), today.String())
	v, err := scanPlanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PlanView{}, false, nil
	}
	if err != nil {
		return store.PlanView{}, false, fmt.Errorf("sqlite: active plan for %s: %w", userID, err)
	}
	return v, true, nil
}

func (s *Store) GetPlansByBatch(ctx context.Context, userID mealplan.UserID, batchID mealplan.GenerationBatchID) ([]store.PlanView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, is_locked, status, generation_batch_id, rotation_state_json, created_at, updated_at
		FROM meal_plans WHERE user_id = ? AND generation_batch_id = ? ORDER BY start_date ASC
	`, userID.String(), batchID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: plans for batch %s: %w", batchID, err)
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
		idStr, userIDStr, batchIDStr               string
		startDateStr, endDateStr                   string
		isLockedInt                                int
		statusStr                                  string
		rotationJSON                               string
		createdAtStr, updatedAtStr                 string
	)
	if err := row.Scan(&idStr, &userIDStr, &startDateStr, &endDateStr, &isLockedInt, &statusStr, &batchIDStr, &rotationJSON, &createdAtStr, &updatedAtStr); err != nil {
		return store.PlanView{}, err
	}
	state, err := store.DecodeRotationState([]byte(rotationJSON))
	if err != nil {
		return store.PlanView{}, err
	}
	planID, err := mealplan.ParseMealPlanID(idStr)
	if err != nil {
		return store.PlanView{}, err
	}
	userID, err := mealplan.ParseUserID(userIDStr)
	if err != nil {
		return store.PlanView{}, err
	}
	batchID, err := mealplan.ParseGenerationBatchID(batchIDStr)
	if err != nil {
		return store.PlanView{}, err
	}
	startDate, err := parseDate(startDateStr)
	if err != nil {
		return store.PlanView{}, err
	}
	endDate, err := parseDate(endDateStr)
	if err != nil {
		return store.PlanView{}, err
	}
	createdAt, err := time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return store.PlanView{}, err
	}
	updatedAt, err := time.Parse(timeLayout, updatedAtStr)
	if err != nil {
		return store.PlanView{}, err
	}
	return store.PlanView{
		ID:                planID,
		UserID:            userID,
		StartDate:         startDate,
		EndDate:           endDate,
		IsLocked:          isLockedInt != 0,
		Status:            parseStatus(statusStr),
		GenerationBatchID: batchID,
		RotationState:     state,
		CreatedAt:         mealplan.NewInstant(createdAt),
		UpdatedAt:         mealplan.NewInstant(updatedAt),
	}, nil
}

func parseDate(s string) (mealplan.Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return mealplan.Date{}, fmt.Errorf("sqlite: parse date %q: %w", s, err)
	}
	return mealplan.DateFromTime(t), nil
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

func (s *Store) GetAssignmentsForWeek(ctx context.Context, planID mealplan.MealPlanID) ([]mealplan.MealAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, meal_type, recipe_id, accompaniment_recipe_id, prep_required, prep_required_by, assignment_reasoning
		FROM meal_assignments WHERE plan_id = ? ORDER BY date ASC, meal_type ASC
	`, planID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: assignments for %s: %w", planID, err)
	}
	defer rows.Close()

	var out []mealplan.MealAssignment
	for rows.Next() {
		var (
			dateStr, mealTypeStr, recipeIDStr, reasoning string
			accompanimentID, prepRequiredBy              sql.NullString
			prepRequiredInt                               int
		)
		if err := rows.Scan(&dateStr, &mealTypeStr, &recipeIDStr, &accompanimentID, &prepRequiredInt, &prepRequiredBy, &reasoning); err != nil {
			return nil, fmt.Errorf("sqlite: scan assignment row: %w", err)
		}
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		recipeID, err := mealplan.ParseRecipeID(recipeIDStr)
		if err != nil {
			return nil, err
		}
		a := mealplan.MealAssignment{
			Date:                date,
			MealType:            parseMealType(mealTypeStr),
			RecipeID:            recipeID,
			PrepRequired:        prepRequiredInt != 0,
			AssignmentReasoning: reasoning,
		}
		if accompanimentID.Valid && accompanimentID.String != "" {
			id, err := mealplan.ParseRecipeID(accompanimentID.String)
			if err != nil {
				return nil, err
			}
			a.AccompanimentRecipeID = &id
		}
		if prepRequiredBy.Valid && prepRequiredBy.String != "" {
			t, err := time.Parse(timeLayout, prepRequiredBy.String)
			if err != nil {
				return nil, err
			}
			inst := mealplan.NewInstant(t)
			a.PrepRequiredBy = &inst
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertReminder implements C9's persistence side (§4.8). See the
// postgres backend's InsertReminder for why the conflict branch upserts:
// r.ID is derived from the reminder's natural key, so a meal replacement
// in an already-reminded slot must overwrite the stale row rather than
// leave it dismissed and stuck.
func (s *Store) InsertReminder(ctx context.Context, r mealplan.Reminder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, user_id, recipe_id, meal_date, meal_type, scheduled_time, reminder_type, prep_hours, status, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			recipe_id = excluded.recipe_id,
			scheduled_time = excluded.scheduled_time,
			reminder_type = excluded.reminder_type,
			prep_hours = excluded.prep_hours,
			status = excluded.status,
			body = excluded.body
	`,
		r.ID.String(), r.UserID.String(), r.RecipeID.String(), r.MealDate.String(), r.MealType.String(),
		r.ScheduledTime.Time().Format(timeLayout), r.ReminderType.String(), r.PrepHours, r.Status.String(), r.Body,
		r.CreatedAt.Time().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert reminder %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) SupersedePendingReminders(ctx context.Context, userID mealplan.UserID, dates []mealplan.Date) error {
	if len(dates) == 0 {
		return nil
	}
	placeholders := make([]string, len(dates))
	args := make([]any, 0, len(dates)+2)
	args = append(args, userID.String(), mealplan.Pending.String())
	for i, d := range dates {
		placeholders[i] = "?"
		args = append(args, d.String())
	}
	query := fmt.Sprintf(`
		UPDATE reminders SET status = 'dismissed'
		WHERE user_id = ? AND status = ? AND meal_date IN (%s)
	`, strings.Join(placeholders, ","))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: supersede reminders for %s: %w", userID, err)
	}
	return nil
}

func (s *Store) GetReminders(ctx context.Context, userID mealplan.UserID, status mealplan.ReminderStatus) ([]mealplan.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recipe_id, meal_date, meal_type, scheduled_time, reminder_type, prep_hours, status, body, created_at
		FROM reminders WHERE user_id = ? AND status = ? ORDER BY scheduled_time ASC
	`, userID.String(), status.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: reminders for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []mealplan.Reminder
	for rows.Next() {
		var (
			idStr, userIDStr, recipeIDStr                   string
			mealDateStr, mealTypeStr, scheduledStr          string
			reminderTypeStr, statusStr, body, createdAtStr  string
			prepHours                                       uint32
		)
		if err := rows.Scan(&idStr, &userIDStr, &recipeIDStr, &mealDateStr, &mealTypeStr, &scheduledStr, &reminderTypeStr, &prepHours, &statusStr, &body, &createdAtStr); err != nil {
			return nil, fmt.Errorf("sqlite: scan reminder row: %w", err)
		}
		id, err := mealplan.ParseNotificationID(idStr)
		if err != nil {
			return nil, err
		}
		uID, err := mealplan.ParseUserID(userIDStr)
		if err != nil {
			return nil, err
		}
		recipeID, err := mealplan.ParseRecipeID(recipeIDStr)
		if err != nil {
			return nil, err
		}
		mealDate, err := parseDate(mealDateStr)
		if err != nil {
			return nil, err
		}
		scheduled, err := time.Parse(timeLayout, scheduledStr)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(timeLayout, createdAtStr)
		if err != nil {
			return nil, err
		}
		out = append(out, mealplan.Reminder{
			ID:            id,
			UserID:        uID,
			RecipeID:      recipeID,
			MealDate:      mealDate,
			MealType:      parseMealType(mealTypeStr),
			ScheduledTime: mealplan.NewInstant(scheduled),
			ReminderType:  parseReminderType(reminderTypeStr),
			PrepHours:     prepHours,
			Status:        parseReminderStatus(statusStr),
			Body:          body,
			CreatedAt:     mealplan.NewInstant(createdAt),
		})
	}
	return out, rows.Err()
}

func (s *Store) ListDueReminders(ctx context.Context, asOf time.Time) ([]mealplan.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recipe_id, meal_date, meal_type, scheduled_time, reminder_type, prep_hours, status, body, created_at
		FROM reminders WHERE status = ? AND scheduled_time <= ? ORDER BY scheduled_time ASC
	`, mealplan.Pending.String(), asOf.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("sqlite: due reminders: %w", err)
	}
	defer rows.Close()

	var out []mealplan.Reminder
	for rows.Next() {
		var (
			idStr, userIDStr, recipeIDStr                  string
			mealDateStr, mealTypeStr, scheduledStr         string
			reminderTypeStr, statusStr, body, createdAtStr string
			prepHours                                      uint32
		)
		if err := rows.Scan(&idStr, &userIDStr, &recipeIDStr, &mealDateStr, &mealTypeStr, &scheduledStr, &reminderTypeStr, &prepHours, &statusStr, &body, &createdAtStr); err != nil {
			return nil, fmt.Errorf("sqlite: scan reminder row: %w", err)
		}
		id, err := mealplan.ParseNotificationID(idStr)
		if err != nil {
			return nil, err
		}
		uID, err := mealplan.ParseUserID(userIDStr)
		if err != nil {
			return nil, err
		}
		recipeID, err := mealplan.ParseRecipeID(recipeIDStr)
		if err != nil {
			return nil, err
		}
		mealDate, err := parseDate(mealDateStr)
		if err != nil {
			return nil, err
		}
		scheduled, err := time.Parse(timeLayout, scheduledStr)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(timeLayout, createdAtStr)
		if err != nil {
			return nil, err
		}
		out = append(out, mealplan.Reminder{
			ID:            id,
			UserID:        uID,
			RecipeID:      recipeID,
			MealDate:      mealDate,
			MealType:      parseMealType(mealTypeStr),
			ScheduledTime: mealplan.NewInstant(scheduled),
			ReminderType:  parseReminderType(reminderTypeStr),
			PrepHours:     prepHours,
			Status:        parseReminderStatus(statusStr),
			Body:          body,
			CreatedAt:     mealplan.NewInstant(createdAt),
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
	default:
		return mealplan.DayOf
	}
}

func parseReminderStatus(s string) mealplan.ReminderStatus {
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func assignmentOptionals(a mealplan.MealAssignment) (accompanimentID, prepBy any) {
	if a.AccompanimentRecipeID != nil {
		accompanimentID = a.AccompanimentRecipeID.String()
	}
	if a.PrepRequiredBy != nil {
		prepBy = a.PrepRequiredBy.Time().Format(timeLayout)
	}
	return accompanimentID, prepBy
}
