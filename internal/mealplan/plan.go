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

// SlotKey is the (date, meal_type) coordinate of a single meal slot.
type SlotKey struct {
	Date     Date
	MealType MealType
}

// MealAssignment is a filled slot, owned by its MealPlan.
type MealAssignment struct {
	Date                  Date
	MealType              MealType
	RecipeID              RecipeID
	AccompanimentRecipeID *RecipeID
	PrepRequired          bool
	PrepRequiredBy        *Instant
	AssignmentReasoning   string
}

func (a MealAssignment) Key() SlotKey { return SlotKey{Date: a.Date, MealType: a.MealType} }

// RotationState is the per-(user, batch) rotation bookkeeping described
// in spec.md §3/§4.4.
type RotationState struct {
	CycleNumber          uint32
	UsedMainCourseIDs     []RecipeID
	UsedAppetizerIDs      []RecipeID
	UsedDessertIDs        []RecipeID
	UsedAccompanimentIDs  []RecipeID
	CuisineUsageCount     map[string]uint32
	LastComplexMealDate   *Date
}

// NewRotationState returns an empty rotation state at cycle 1.
func NewRotationState() RotationState {
	return RotationState{
		CycleNumber:       1,
		CuisineUsageCount: make(map[string]uint32),
	}
}

// Clone deep-copies the rotation state so callers (scheduler, command
// handlers) can mutate a working copy without aliasing the snapshot
// that was loaded from the read model or a prior event payload.
func (r RotationState) Clone() RotationState {
	cp := RotationState{
		CycleNumber:          r.CycleNumber,
		UsedMainCourseIDs:    append([]RecipeID(nil), r.UsedMainCourseIDs...),
		UsedAppetizerIDs:     append([]RecipeID(nil), r.UsedAppetizerIDs...),
		UsedDessertIDs:       append([]RecipeID(nil), r.UsedDessertIDs...),
		UsedAccompanimentIDs: append([]RecipeID(nil), r.UsedAccompanimentIDs...),
		CuisineUsageCount:    make(map[string]uint32, len(r.CuisineUsageCount)),
	}
	for k, v := range r.CuisineUsageCount {
		cp.CuisineUsageCount[k] = v
	}
	if r.LastComplexMealDate != nil {
		d := *r.LastComplexMealDate
		cp.LastComplexMealDate = &d
	}
	return cp
}

// MealPlan is the core aggregate: one calendar week's worth of
// assignments for a single user.
type MealPlan struct {
	ID                  MealPlanID
	UserID              UserID
	GenerationBatchID    GenerationBatchID
	StartDate           Date
	EndDate             Date
	Status              PlanStatus
	Archived            bool
	RotationStateSnapshot RotationState
	Assignments         map[SlotKey]MealAssignment
	CreatedAt           Instant
	UpdatedAt           Instant
	sequence            uint64
}

// DateRange returns the plan's inclusive week span.
func (p *MealPlan) DateRange() DateRange { return DateRange{Start: p.StartDate, End: p.EndDate} }

// IsLocked implements the derived invariant is_locked = start_date <= today().
func (p *MealPlan) IsLocked(today Date) bool {
	return !p.StartDate.After(today)
}

// RefreshStatus recomputes Status from today() unless the plan has been
// explicitly archived (a terminal opt-in state outside the derived
// function).
func (p *MealPlan) RefreshStatus(today Date) {
	if p.Archived {
		p.Status = Archived
		return
	}
	p.Status = DeriveStatus(p.DateRange(), today)
}

// Sequence is the aggregate's event-log sequence number, used for
// optimistic concurrency (§5).
func (p *MealPlan) Sequence() uint64 { return p.sequence }

// Advance records the sequence number of the event that was just folded
// into this aggregate. Called by internal/mealplan/aggregate after each
// Apply, never by command handlers directly.
func (p *MealPlan) Advance(seq uint64) { p.sequence = seq }

// Reminder is a derived, core-written record a separate worker polls
// for delivery (§3, §4.8).
type Reminder struct {
	ID            NotificationID
	UserID        UserID
	RecipeID      RecipeID
	MealDate      Date
	MealType      MealType
	ScheduledTime Instant
	ReminderType  ReminderType
	PrepHours     uint32
	Status        ReminderStatus
	Body          string
	CreatedAt     Instant
}
