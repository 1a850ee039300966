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

import "time"

// ClockTime is a time-of-day with no date component, used for the
// configurable canonical meal times of §6.5/§4.8.
type ClockTime struct {
	Hour, Minute int
}

// MealTimes maps each meal type to its canonical local clock time.
type MealTimes map[MealType]ClockTime

// DefaultMealTimes returns §6.5's documented defaults.
func DefaultMealTimes() MealTimes {
	return MealTimes{
		Breakfast: {Hour: 8, Minute: 0},
		Lunch:     {Hour: 12, Minute: 30},
		Dinner:    {Hour: 18, Minute: 0},
	}
}

// At resolves (date, meal_type) to an absolute Instant in the given
// location (UTC if loc is nil, per §6.5 "local timezone taken from
// user's preferences, if absent UTC").
func (mt MealTimes) At(date Date, meal MealType, loc *time.Location) Instant {
	if loc == nil {
		loc = time.UTC
	}
	ct := mt[meal]
	y, m, d := date.Time().Date()
	return NewInstant(time.Date(y, m, d, ct.Hour, ct.Minute, 0, 0, loc))
}

// ResolveLocation parses a UserPreferences.Timezone, falling back to UTC
// on an empty or invalid value (§6.5).
func ResolveLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
