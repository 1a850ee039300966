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

// Package sqlite is the development/test Store backend (§6.4): a
// database/sql handle over mattn/go-sqlite3, used by cmd/server when
// store.driver is "sqlite" (env MEALPLANNER_STORE_DRIVER), giving a
// store that behaves like the real thing without a postgres server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// Store is the sqlite-backed implementation of store.Store. sqlite
// serializes writers at the file level, so Append additionally takes an
// in-process mutex to keep the expected-sequence check and the insert
// atomic without relying on cross-connection row locking.
type Store struct {
	db       *sql.DB
	writeMu  sync.Mutex
	dataSource string
}

// New opens (and, if needed, creates) the sqlite database at path.
// Call Migrate before serving traffic.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return &Store{db: db, dataSource: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append implements store.EventStore. sqlite has no SELECT ... FOR
// UPDATE; the per-Store mutex held around the whole transaction gives
// the same serialization guarantee for a single-binary deployment.
func (s *Store) Append(ctx context.Context, aggregateID mealplan.MealPlanID, expectedSeq uint64, envelopes []mealplan.EventEnvelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin append tx: %w", err)
	}
	defer tx.Rollback()

	var currentSeq uint64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM events WHERE aggregate_id = ?`, aggregateID.String(),
	).Scan(&currentSeq)
	if err != nil {
		return fmt.Errorf("sqlite: read aggregate %s: %w", aggregateID, err)
	}
	if currentSeq != expectedSeq {
		return fmt.Errorf("sqlite: append to %s at seq %d, expected %d: %w", aggregateID, currentSeq, expectedSeq, mperrors.ErrConcurrencyConflict)
	}

	for _, e := range envelopes {
		eventType, payload, err := store.EncodePayload(e.Payload)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, aggregate_id, sequence, event_type, payload, occurred_at, user_id, request_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.EventID.String(), aggregateID.String(), e.Sequence, eventType, string(payload),
			e.OccurredAt.Time().Format(time.RFC3339Nano), e.Metadata.UserID.String(), e.Metadata.RequestID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert event %s: %w", e.EventID, err)
		}
	}

	return tx.Commit()
}

// Load implements store.EventStore.
func (s *Store) Load(ctx context.Context, aggregateID mealplan.MealPlanID) ([]mealplan.EventEnvelope, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sequence, event_type, payload, occurred_at, user_id, request_id
		 FROM events WHERE aggregate_id = ? ORDER BY sequence ASC`, aggregateID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load events for %s: %w", aggregateID, err)
	}
	defer rows.Close()

	var out []mealplan.EventEnvelope
	for rows.Next() {
		var (
			id, eventType, occurredStr, userID, requestID string
			seq                                           uint64
			payload                                       string
		)
		if err := rows.Scan(&id, &seq, &eventType, &payload, &occurredStr, &userID, &requestID); err != nil {
			return nil, fmt.Errorf("sqlite: scan event row: %w", err)
		}
		decoded, err := store.DecodePayload(eventType, []byte(payload))
		if err != nil {
			return nil, err
		}
		eventID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse event id %q: %w", id, err)
		}
		occurred, err := time.Parse(time.RFC3339Nano, occurredStr)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse occurred_at %q: %w", occurredStr, err)
		}
		uid, err := mealplan.ParseUserID(userID)
		if err != nil {
			return nil, err
		}
		out = append(out, mealplan.EventEnvelope{
			EventID:     eventID,
			AggregateID: aggregateID,
			Sequence:    seq,
			OccurredAt:  mealplan.NewInstant(occurred),
			Metadata:    mealplan.EventMetadata{UserID: uid, RequestID: requestID},
			Payload:     decoded,
		})
	}
	return out, rows.Err()
}

func (s *Store) LoadPlan(ctx context.Context, planID mealplan.MealPlanID) (*mealplan.MealPlan, error) {
	return store.LoadPlanFromEvents(ctx, s, planID)
}
