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

// Package postgres is the production Store backend (§6.4): a pgx/v5
// pool backing the events table plus the four read-model tables, one
// per C8 projection.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// Store is the postgres-backed implementation of store.Store.
type Store struct {
	pool *pgxpool.Pool
	dsn  string
}

// New creates a Store bound to dsn. The pool is established lazily on
// first use; call Migrate before serving traffic.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Store{pool: pool, dsn: dsn}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Append implements store.EventStore with optimistic concurrency
// enforced by a row lock on the aggregate's current max sequence (§5).
func (s *Store) Append(ctx context.Context, aggregateID mealplan.MealPlanID, expectedSeq uint64, envelopes []mealplan.EventEnvelope) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin append tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentSeq uint64
	err = tx.QueryRow(ctx,
		`SELECT sequence FROM events WHERE aggregate_id = $1 ORDER BY sequence DESC LIMIT 1 FOR UPDATE`,
		uuid.UUID(aggregateID),
	).Scan(&currentSeq)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("postgres: lock aggregate %s: %w", aggregateID, err)
	}
	if currentSeq != expectedSeq {
		return fmt.Errorf("postgres: append to %s at seq %d, expected %d: %w", aggregateID, currentSeq, expectedSeq, mperrors.ErrConcurrencyConflict)
	}

	for _, e := range envelopes {
		eventType, payload, err := store.EncodePayload(e.Payload)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO events (id, aggregate_id, sequence, event_type, payload, occurred_at, user_id, request_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.EventID, uuid.UUID(aggregateID), e.Sequence, eventType, payload, e.OccurredAt.Time(),
			uuid.UUID(e.Metadata.UserID), e.Metadata.RequestID,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert event %s: %w", e.EventID, err)
		}
	}

	return tx.Commit(ctx)
}

// Load implements store.EventStore.
func (s *Store) Load(ctx context.Context, aggregateID mealplan.MealPlanID) ([]mealplan.EventEnvelope, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sequence, event_type, payload, occurred_at, user_id, request_id
		 FROM events WHERE aggregate_id = $1 ORDER BY sequence ASC`,
		uuid.UUID(aggregateID),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load events for %s: %w", aggregateID, err)
	}
	defer rows.Close()

	var out []mealplan.EventEnvelope
	for rows.Next() {
		var (
			id        uuid.UUID
			seq       uint64
			eventType string
			payload   []byte
			occurred  time.Time
			userID    uuid.UUID
			requestID string
		)
		if err := rows.Scan(&id, &seq, &eventType, &payload, &occurred, &userID, &requestID); err != nil {
			return nil, fmt.Errorf("postgres: scan event row: %w", err)
		}
		decoded, err := store.DecodePayload(eventType, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, mealplan.EventEnvelope{
			EventID:     id,
			AggregateID: aggregateID,
			Sequence:    seq,
			OccurredAt:  mealplan.NewInstant(occurred),
			Metadata:    mealplan.EventMetadata{UserID: mealplan.UserID(userID), RequestID: requestID},
			Payload:     decoded,
		})
	}
	return out, rows.Err()
}

func (s *Store) LoadPlan(ctx context.Context, planID mealplan.MealPlanID) (*mealplan.MealPlan, error) {
	return store.LoadPlanFromEvents(ctx, s, planID)
}
