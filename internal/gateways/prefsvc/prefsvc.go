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

// Package prefsvc implements commands.PreferencesGateway against the
// external user-preferences service over HTTP, via go-resty.
package prefsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// Client is a resty-backed PreferencesGateway.
type Client struct {
	http *resty.Client
}

// New builds a Client against baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

// preferencesDTO is the external service's wire shape for §3's
// UserPreferences. Fields absent from the response are left at their
// Go zero value; callers apply mealplan.DefaultUserPreferences() on
// top when the service reports a user has none set.
type preferencesDTO struct {
	DietaryRestrictions      []string `json:"dietary_restrictions"`
	HouseholdSize            uint32   `json:"household_size"`
	SkillLevel               string   `json:"skill_level"`
	MaxPrepTimeWeeknightMin  uint32   `json:"max_prep_time_weeknight_min"`
	MaxPrepTimeWeekendMin    uint32   `json:"max_prep_time_weekend_min"`
	AvoidConsecutiveComplex  bool     `json:"avoid_consecutive_complex"`
	CuisineVarietyWeight     float32  `json:"cuisine_variety_weight"`
	WeeknightAvailabilityMin uint32   `json:"weeknight_availability_min"`
	Timezone                 string   `json:"timezone"`
}

func parseSkillLevel(s string) mealplan.SkillLevel {
	switch s {
	case "intermediate":
		return mealplan.Intermediate
	case "advanced":
		return mealplan.Advanced
	default:
		return mealplan.Beginner
	}
}

// GetPreferences implements commands.PreferencesGateway. A 404 from the
// service (no preferences saved yet) is treated as the documented
// defaults rather than an error.
func (c *Client) GetPreferences(ctx context.Context, userID mealplan.UserID) (mealplan.UserPreferences, error) {
	var body preferencesDTO
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetPathParam("userID", userID.String()).
		Get("/users/{userID}/preferences")
	if err != nil {
		return mealplan.UserPreferences{}, fmt.Errorf("prefsvc: get preferences for %s: %w", userID, err)
	}
	if resp.StatusCode() == 404 {
		return mealplan.DefaultUserPreferences(), nil
	}
	if resp.IsError() {
		return mealplan.UserPreferences{}, fmt.Errorf("prefsvc: get preferences for %s: status %d", userID, resp.StatusCode())
	}

	tags := make([]mealplan.DietaryTag, 0, len(body.DietaryRestrictions))
	for _, t := range body.DietaryRestrictions {
		tags = append(tags, mealplan.ParseDietaryTag(t))
	}

	prefs := mealplan.UserPreferences{
		DietaryRestrictions:      tags,
		HouseholdSize:            body.HouseholdSize,
		SkillLevel:               parseSkillLevel(body.SkillLevel),
		MaxPrepTimeWeeknightMin:  body.MaxPrepTimeWeeknightMin,
		MaxPrepTimeWeekendMin:    body.MaxPrepTimeWeekendMin,
		AvoidConsecutiveComplex:  body.AvoidConsecutiveComplex,
		CuisineVarietyWeight:     body.CuisineVarietyWeight,
		WeeknightAvailabilityMin: body.WeeknightAvailabilityMin,
		Timezone:                 body.Timezone,
	}
	if prefs.HouseholdSize == 0 {
		prefs.HouseholdSize = mealplan.DefaultUserPreferences().HouseholdSize
	}
	return prefs, nil
}
