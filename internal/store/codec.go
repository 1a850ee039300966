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

// Package store holds the backend-agnostic event/read-model contract
// (§6.3, §6.4): the wire codec for event payloads and the interfaces the
// postgres and sqlite backends both satisfy. Command handlers and
// projections depend on these interfaces, never on a specific backend.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// eventTypeOf names the §6.3 payload types for the events table's
// event_type column and for reconstructing the right Go type on load.
func eventTypeOf(payload any) (string, error) {
	switch payload.(type) {
	case mealplan.MealPlanGenerated:
		return "MealPlanGenerated", nil
	case mealplan.MultiWeekMealPlanGenerated:
		return "MultiWeekMealPlanGenerated", nil
	case mealplan.MealReplaced:
		return "MealReplaced", nil
	case mealplan.MealPlanRegenerated:
		return "MealPlanRegenerated", nil
	case mealplan.RecipeUsedInRotation:
		return "RecipeUsedInRotation", nil
	case mealplan.PlanArchived:
		return "PlanArchived", nil
	default:
		return "", fmt.Errorf("store: unrecognized event payload type %T", payload)
	}
}

// EncodePayload serializes an event payload to the JSON form persisted
// in the events table's payload column (§6.3: "Payloads are serialized
// to a binary format (implementer's choice)"; this repo chooses
// schema-versioned JSON, matching the JSON rotation-state snapshots the
// spec already calls for inside those same payloads).
func EncodePayload(payload any) (eventType string, raw []byte, err error) {
	eventType, err = eventTypeOf(payload)
	if err != nil {
		return "", nil, err
	}
	raw, err = json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("store: encode %s: %w", eventType, err)
	}
	return eventType, raw, nil
}

// DecodePayload is EncodePayload's inverse, used when folding a loaded
// event stream back into an aggregate.
func DecodePayload(eventType string, raw []byte) (any, error) {
	switch eventType {
	case "MealPlanGenerated":
		var p mealplan.MealPlanGenerated
		return p, json.Unmarshal(raw, &p)
	case "MultiWeekMealPlanGenerated":
		var p mealplan.MultiWeekMealPlanGenerated
		return p, json.Unmarshal(raw, &p)
	case "MealReplaced":
		var p mealplan.MealReplaced
		return p, json.Unmarshal(raw, &p)
	case "MealPlanRegenerated":
		var p mealplan.MealPlanRegenerated
		return p, json.Unmarshal(raw, &p)
	case "RecipeUsedInRotation":
		var p mealplan.RecipeUsedInRotation
		return p, json.Unmarshal(raw, &p)
	case "PlanArchived":
		var p mealplan.PlanArchived
		return p, json.Unmarshal(raw, &p)
	default:
		return nil, fmt.Errorf("store: unrecognized event_type %q", eventType)
	}
}

// EncodeRotationState renders a RotationState as the JSON text §6.4
// stores it as ("rotation_state_json text" / "used_*_ids_json").
func EncodeRotationState(s mealplan.RotationState) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeRotationState(raw []byte) (mealplan.RotationState, error) {
	var s mealplan.RotationState
	if len(raw) == 0 {
		return mealplan.NewRotationState(), nil
	}
	err := json.Unmarshal(raw, &s)
	return s, err
}
