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

package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/mealplan/scheduler"
)

// Service wires the C7 command handlers to their ports. One Service is
// shared across requests; TryAcquire on Locker is what serializes a
// single user's concurrent Generate*/Regenerate calls, not the Service
// itself.
type Service struct {
	Favorites   FavoritesGateway
	Preferences PreferencesGateway
	Rotation    RotationReader
	Plans       PlanLoader
	Events      EventStore
	Lock        Locker

	SchedulerConfig scheduler.Config

	// Now returns the instant to treat as "generation time"; defaults to
	// time.Now. Overridden in tests for deterministic reminders/status.
	Now func() time.Time

	// maxConcurrencyRetries bounds the §5 "retry on conflict (bounded 3
	// attempts)" loop for Regenerate/ReplaceMeal.
	maxConcurrencyRetries int
}

// NewService constructs a Service with the §6.5 scheduler defaults and
// a 3-attempt optimistic-concurrency retry budget.
func NewService(favorites FavoritesGateway, prefs PreferencesGateway, rotation RotationReader, plans PlanLoader, events EventStore, lock Locker) *Service {
	return &Service{
		Favorites:             favorites,
		Preferences:           prefs,
		Rotation:              rotation,
		Plans:                 plans,
		Events:                events,
		Lock:                  lock,
		SchedulerConfig:       scheduler.DefaultConfig(),
		Now:                   time.Now,
		maxConcurrencyRetries: 3,
	}
}

func (s *Service) now() mealplan.Instant { return mealplan.NewInstant(s.Now()) }

// loadGenerationInputs fetches the three external snapshots a
// Generate*/Regenerate command needs, applying dietary filtering to
// favorites per §4.7 step 1.
func (s *Service) loadGenerationInputs(ctx context.Context, userID mealplan.UserID) ([]mealplan.Recipe, mealplan.UserPreferences, mealplan.RotationState, mealplan.GenerationBatchID, error) {
	favorites, err := s.Favorites.ListFavorites(ctx, userID)
	if err != nil {
		return nil, mealplan.UserPreferences{}, mealplan.RotationState{}, mealplan.GenerationBatchID{}, err
	}
	prefs, err := s.Preferences.GetPreferences(ctx, userID)
	if err != nil {
		return nil, mealplan.UserPreferences{}, mealplan.RotationState{}, mealplan.GenerationBatchID{}, err
	}

	filtered := make([]mealplan.Recipe, 0, len(favorites))
	for _, r := range favorites {
		ok := true
		for _, restriction := range prefs.DietaryRestrictions {
			if !r.HasDietaryTag(restriction) {
				ok = false
				break
			}
		}
		if ok {
			filtered = append(filtered, r)
		}
	}

	rotationState, batchID, found, err := s.Rotation.LatestRotationState(ctx, userID)
	if err != nil {
		return nil, mealplan.UserPreferences{}, mealplan.RotationState{}, mealplan.GenerationBatchID{}, err
	}
	if !found {
		rotationState = mealplan.NewRotationState()
	}

	return filtered, prefs, rotationState, batchID, nil
}

func (s *Service) schedulerInput(userID mealplan.UserID, startDate mealplan.Date, weekCount int, recipes []mealplan.Recipe, prefs mealplan.UserPreferences, rotationState mealplan.RotationState) scheduler.Input {
	return scheduler.Input{
		UserID:      userID,
		StartDate:   startDate,
		WeekCount:   weekCount,
		Recipes:     recipes,
		Preferences: prefs,
		Rotation:    rotationState,
		Now:         s.now(),
		MealTimes:   mealplan.DefaultMealTimes(),
		Location:    mealplan.ResolveLocation(prefs.Timezone),
		Config:      s.SchedulerConfig,
	}
}

// rotationEvents builds the per-assignment RecipeUsedInRotation audit
// trail (§4.6, §2 control flow).
func rotationEvents(planID mealplan.MealPlanID, assignments []mealplan.MealAssignment, recipesByID map[mealplan.RecipeID]mealplan.Recipe) []mealplan.RecipeUsedInRotation {
	out := make([]mealplan.RecipeUsedInRotation, 0, len(assignments)*2)
	for _, a := range assignments {
		if r, ok := recipesByID[a.RecipeID]; ok {
			out = append(out, mealplan.RecipeUsedInRotation{PlanID: planID, RecipeID: a.RecipeID, RecipeType: r.RecipeType, Date: a.Date})
		}
		if a.AccompanimentRecipeID != nil {
			if r, ok := recipesByID[*a.AccompanimentRecipeID]; ok {
				out = append(out, mealplan.RecipeUsedInRotation{PlanID: planID, RecipeID: *a.AccompanimentRecipeID, RecipeType: r.RecipeType, Date: a.Date})
			}
		}
	}
	return out
}

func recipeIndex(recipes []mealplan.Recipe) map[mealplan.RecipeID]mealplan.Recipe {
	out := make(map[mealplan.RecipeID]mealplan.Recipe, len(recipes))
	for _, r := range recipes {
		out[r.ID] = r
	}
	return out
}

func newEnvelope(aggregateID mealplan.MealPlanID, seq uint64, occurredAt mealplan.Instant, reqCtx RequestContext, payload any) mealplan.EventEnvelope {
	return mealplan.EventEnvelope{
		EventID:     uuid.New(),
		AggregateID: aggregateID,
		Sequence:    seq,
		OccurredAt:  occurredAt,
		Metadata:    mealplan.EventMetadata{UserID: reqCtx.UserID, RequestID: reqCtx.RequestID},
		Payload:     payload,
	}
}

// acquireLock implements the §4.7/§5 "acquire the per-user generation
// lock; if held, fail GenerationInFlight" step shared by every command
// that invokes the scheduler.
func (s *Service) acquireLock(userID mealplan.UserID) (func(), error) {
	release, ok := s.Lock.TryAcquire(userID)
	if !ok {
		return nil, &mperrors.GenerationInFlightError{UserID: userID.String()}
	}
	return release, nil
}
