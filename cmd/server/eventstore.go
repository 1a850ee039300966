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

package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/projections"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// projectingEventStore satisfies commands.EventStore by appending to the
// durable store and then, on success, folding the same envelopes into
// the read models out-of-band (§4.9's eventual consistency). A
// projection failure is logged rather than surfaced to the caller: the
// event is already durable, and the read model catches up on the next
// successful Apply.
type projectingEventStore struct {
	events     store.EventStore
	subscriber *projections.Subscriber
	log        zerolog.Logger
}

func newProjectingEventStore(events store.EventStore, subscriber *projections.Subscriber, log zerolog.Logger) *projectingEventStore {
	return &projectingEventStore{events: events, subscriber: subscriber, log: log}
}

func (p *projectingEventStore) Append(ctx context.Context, aggregateID mealplan.MealPlanID, expectedSeq uint64, envelopes []mealplan.EventEnvelope) error {
	if err := p.events.Append(ctx, aggregateID, expectedSeq, envelopes); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		for _, env := range envelopes {
			if err := p.subscriber.Apply(bgCtx, env); err != nil {
				p.log.Warn().Err(err).Str("plan_id", aggregateID.String()).Msg("projection apply failed, read models may lag")
			}
		}
	}()

	return nil
}
