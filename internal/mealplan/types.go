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
	"time"
)

// Date is a calendar day with no time-of-day or timezone component.
// Stored and compared as midnight UTC so two Dates built from the same
// y/m/d are always equal regardless of where they were constructed.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateFromTime(time.Now().In(loc))
}

func (d Date) AddDays(n int) Date { return DateFromTime(d.t.AddDate(0, 0, n)) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) String() string     { return d.t.Format("2006-01-02") }

// MarshalJSON/UnmarshalJSON render a Date as its "2006-01-02" wire form
// for event payloads and read-model JSON columns.
func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return err
	}
	*d = DateFromTime(t)
	return nil
}

// IsWeekend reports whether the day is Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NextMonday returns d itself if d is already a Monday, else the
// following Monday.
func (d Date) NextMonday() Date {
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDays(offset)
}

// Instant is a UTC timestamp.
type Instant struct {
	t time.Time
}

func NewInstant(t time.Time) Instant  { return Instant{t: t.UTC()} }
func InstantNow() Instant             { return Instant{t: time.Now().UTC()} }
func (i Instant) Time() time.Time     { return i.t }
func (i Instant) Before(o Instant) bool { return i.t.Before(o.t) }
func (i Instant) After(o Instant) bool  { return i.t.After(o.t) }
func (i Instant) Add(d time.Duration) Instant { return Instant{t: i.t.Add(d)} }
func (i Instant) Sub(o Instant) time.Duration { return i.t.Sub(o.t) }
func (i Instant) String() string      { return i.t.Format(time.RFC3339Nano) }

// MarshalJSON/UnmarshalJSON render an Instant as RFC3339Nano.
func (i Instant) MarshalJSON() ([]byte, error) { return json.Marshal(i.String()) }
func (i *Instant) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*i = NewInstant(t)
	return nil
}

// DateRange is an inclusive [Start, End] span of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// MealType is one of the three daily meal slots.
type MealType int

const (
	Breakfast MealType = iota
	Lunch
	Dinner
)

func (m MealType) String() string {
	switch m {
	case Breakfast:
		return "breakfast"
	case Lunch:
		return "lunch"
	case Dinner:
		return "dinner"
	default:
		return fmt.Sprintf("MealType(%d)", int(m))
	}
}

var AllMealTypes = [3]MealType{Breakfast, Lunch, Dinner}

// RecipeType classifies a recipe's role in a meal.
type RecipeType int

const (
	Appetizer RecipeType = iota
	MainCourse
	Dessert
	Accompaniment
)

func (r RecipeType) String() string {
	switch r {
	case Appetizer:
		return "appetizer"
	case MainCourse:
		return "main_course"
	case Dessert:
		return "dessert"
	case Accompaniment:
		return "accompaniment"
	default:
		return fmt.Sprintf("RecipeType(%d)", int(r))
	}
}

// Complexity is the class a recipe's complexity score falls into (§4.1).
type Complexity int

const (
	Simple Complexity = iota
	Moderate
	Complex
)

func (c Complexity) String() string {
	switch c {
	case Simple:
		return "simple"
	case Moderate:
		return "moderate"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("Complexity(%d)", int(c))
	}
}

// Equipment is inferred from instruction text (§4.2).
type Equipment int

const (
	Oven Equipment = iota
	SlowCooker
	Stovetop
	Grill
)

func (e Equipment) String() string {
	switch e {
	case Oven:
		return "oven"
	case SlowCooker:
		return "slow_cooker"
	case Stovetop:
		return "stovetop"
	case Grill:
		return "grill"
	default:
		return fmt.Sprintf("Equipment(%d)", int(e))
	}
}

// AccompanimentCategory classifies a side dish.
type AccompanimentCategory int

const (
	Pasta AccompanimentCategory = iota
	Rice
	Fries
	Salad
	Bread
	Vegetable
	OtherAccompaniment
)

func (c AccompanimentCategory) String() string {
	switch c {
	case Pasta:
		return "pasta"
	case Rice:
		return "rice"
	case Fries:
		return "fries"
	case Salad:
		return "salad"
	case Bread:
		return "bread"
	case Vegetable:
		return "vegetable"
	case OtherAccompaniment:
		return "other"
	default:
		return fmt.Sprintf("AccompanimentCategory(%d)", int(c))
	}
}

// DietaryTag is drawn from a finite closed set, plus an opaque Custom escape
// hatch compared exactly.
type DietaryTag struct {
	kind   dietaryKind
	custom string
}

type dietaryKind int

const (
	dietaryVegetarian dietaryKind = iota
	dietaryVegan
	dietaryGlutenFree
	dietaryDairyFree
	dietaryNutFree
	dietaryHalal
	dietaryKosher
	dietaryCustom
)

var (
	TagVegetarian = DietaryTag{kind: dietaryVegetarian}
	TagVegan      = DietaryTag{kind: dietaryVegan}
	TagGlutenFree = DietaryTag{kind: dietaryGlutenFree}
	TagDairyFree  = DietaryTag{kind: dietaryDairyFree}
	TagNutFree    = DietaryTag{kind: dietaryNutFree}
	TagHalal      = DietaryTag{kind: dietaryHalal}
	TagKosher     = DietaryTag{kind: dietaryKosher}
)

func CustomTag(text string) DietaryTag {
	return DietaryTag{kind: dietaryCustom, custom: text}
}

func (t DietaryTag) String() string {
	switch t.kind {
	case dietaryVegetarian:
		return "vegetarian"
	case dietaryVegan:
		return "vegan"
	case dietaryGlutenFree:
		return "gluten_free"
	case dietaryDairyFree:
		return "dairy_free"
	case dietaryNutFree:
		return "nut_free"
	case dietaryHalal:
		return "halal"
	case dietaryKosher:
		return "kosher"
	case dietaryCustom:
		return "custom:" + t.custom
	default:
		return "unknown"
	}
}

func (t DietaryTag) Equal(o DietaryTag) bool {
	if t.kind != o.kind {
		return false
	}
	if t.kind == dietaryCustom {
		return t.custom == o.custom
	}
	return true
}

// MarshalJSON/UnmarshalJSON round-trip a DietaryTag through its String()
// form, including the Custom(text) escape hatch.
func (t DietaryTag) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }
func (t *DietaryTag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseDietaryTag(s)
	return nil
}

// ParseDietaryTag maps a wire string (as produced by String()) back to a tag.
func ParseDietaryTag(s string) DietaryTag {
	switch s {
	case "vegetarian":
		return TagVegetarian
	case "vegan":
		return TagVegan
	case "gluten_free":
		return TagGlutenFree
	case "dairy_free":
		return TagDairyFree
	case "nut_free":
		return TagNutFree
	case "halal":
		return TagHalal
	case "kosher":
		return TagKosher
	default:
		if len(s) > 7 && s[:7] == "custom:" {
			return CustomTag(s[7:])
		}
		return CustomTag(s)
	}
}

// SkillLevel is the household's cooking skill. The source material used
// "Advanced" and "Expert" interchangeably for the top tier; this repo
// standardizes on Advanced per spec.md's Open Questions.
type SkillLevel int

const (
	Beginner SkillLevel = iota
	Intermediate
	Advanced
)

func (s SkillLevel) String() string {
	switch s {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	default:
		return fmt.Sprintf("SkillLevel(%d)", int(s))
	}
}

// PlanStatus is derived from (start_date, end_date, today()).
type PlanStatus int

const (
	Future PlanStatus = iota
	Current
	Past
	Archived
)

func (s PlanStatus) String() string {
	switch s {
	case Future:
		return "future"
	case Current:
		return "current"
	case Past:
		return "past"
	case Archived:
		return "archived"
	default:
		return fmt.Sprintf("PlanStatus(%d)", int(s))
	}
}

// DeriveStatus implements the (start_date, end_date, today) -> status
// function from §3, independent of Archived (an opt-in terminal state
// layered on top by the aggregate).
func DeriveStatus(r DateRange, today Date) PlanStatus {
	switch {
	case today.Before(r.Start):
		return Future
	case today.After(r.End):
		return Past
	default:
		return Current
	}
}

// ReminderType classifies how far ahead of the meal a reminder fires (§4.8).
type ReminderType int

const (
	AdvancePrep ReminderType = iota
	Morning
	DayOf
)

func (r ReminderType) String() string {
	switch r {
	case AdvancePrep:
		return "advance_prep"
	case Morning:
		return "morning"
	case DayOf:
		return "day_of"
	default:
		return fmt.Sprintf("ReminderType(%d)", int(r))
	}
}

// ReminderStatus is the lifecycle of a reminder row.
type ReminderStatus int

const (
	Pending ReminderStatus = iota
	Sent
	Dismissed
	Snoozed
	Failed
)

func (s ReminderStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Sent:
		return "sent"
	case Dismissed:
		return "dismissed"
	case Snoozed:
		return "snoozed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("ReminderStatus(%d)", int(s))
	}
}
