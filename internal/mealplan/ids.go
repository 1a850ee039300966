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

package mealplan

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RecipeID identifies a recipe owned by the (external) recipe service.
type RecipeID uuid.UUID

// UserID identifies the account a meal plan belongs to.
type UserID uuid.UUID

// MealPlanID identifies a single week's MealPlan aggregate.
type MealPlanID uuid.UUID

// GenerationBatchID groups the weeks produced by one multi-week generation.
type GenerationBatchID uuid.UUID

// NotificationID identifies a reminder row.
type NotificationID uuid.UUID

func (id RecipeID) String() string          { return uuid.UUID(id).String() }
func (id UserID) String() string            { return uuid.UUID(id).String() }
func (id MealPlanID) String() string        { return uuid.UUID(id).String() }
func (id GenerationBatchID) String() string { return uuid.UUID(id).String() }
func (id NotificationID) String() string    { return uuid.UUID(id).String() }

func (id RecipeID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id MealPlanID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewRecipeID, NewUserID, ... generate fresh random ids. Production code
// outside of tests should only ever construct UserID/RecipeID from an
// external id string via ParseXxx; the New* helpers exist for ids the
// core itself owns (plans, batches, notifications).
func NewMealPlanID() MealPlanID               { return MealPlanID(uuid.New()) }
func NewGenerationBatchID() GenerationBatchID { return GenerationBatchID(uuid.New()) }

// reminderNamespace roots the deterministic reminder ids derived below.
// It is itself derived (not random) so the value is stable across builds.
var reminderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("github.com/rghsoftware/mealplanner/reminders"))

// DeriveNotificationID computes a stable reminder id from its natural key
// (§9: reminders are "keyed by (plan_id, date, meal_type)"). Replaying the
// same event, or replacing a meal in an already-reminded slot, must
// resolve onto the same row rather than a fresh one — InsertReminder's
// ON CONFLICT (id) upsert depends on it (§4.9's idempotency law, P9).
func DeriveNotificationID(planID MealPlanID, date Date, mealType MealType, reminderType ReminderType) NotificationID {
	name := fmt.Sprintf("%s|%s|%s|%s", planID, date, mealType, reminderType)
	return NotificationID(uuid.NewSHA1(reminderNamespace, []byte(name)))
}

func ParseRecipeID(s string) (RecipeID, error) {
	u, err := uuid.Parse(s)
	return RecipeID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}

func ParseMealPlanID(s string) (MealPlanID, error) {
	u, err := uuid.Parse(s)
	return MealPlanID(u), err
}

func ParseGenerationBatchID(s string) (GenerationBatchID, error) {
	u, err := uuid.Parse(s)
	return GenerationBatchID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := uuid.Parse(s)
	return NotificationID(u), err
}

// MarshalJSON/UnmarshalJSON round-trip every id type through its string
// form rather than the raw [16]byte array a naive derived type would
// otherwise serialize as — the shape event payloads and read-model JSON
// columns (§6.3, §6.4) depend on.

func (id RecipeID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id *RecipeID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRecipeID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id UserID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id *UserID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseUserID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id MealPlanID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id *MealPlanID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMealPlanID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id GenerationBatchID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id *GenerationBatchID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseGenerationBatchID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id NotificationID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id *NotificationID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseNotificationID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
