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

// Command reminderworker is a standalone process that polls the
// reminder read model on an interval. It only proves the read model
// built by internal/projections is consumable on a schedule; it never
// sends a push notification or an email, since delivery is out of
// scope for this application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rghsoftware/mealplanner/internal/config"
	"github.com/rghsoftware/mealplanner/internal/logger"
	"github.com/rghsoftware/mealplanner/internal/store"
	"github.com/rghsoftware/mealplanner/internal/store/postgres"
	"github.com/rghsoftware/mealplanner/internal/store/sqlite"
)

const pollInterval = 1 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()
	log.Info().Msg("Starting reminder worker")

	ctx := context.Background()
	backend, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer backend.Close()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			poll(ctx, backend, log)
		case <-quit:
			log.Info().Msg("Reminder worker stopped")
			return
		}
	}
}

// poll fetches every reminder due by now and logs what it would
// dispatch. Actual delivery (push/SMTP) is out of scope.
func poll(ctx context.Context, backend store.Projections, log zerolog.Logger) {
	due, err := backend.ListDueReminders(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to list due reminders")
		return
	}
	for _, r := range due {
		log.Info().
			Str("reminder_id", r.ID.String()).
			Str("user_id", r.UserID.String()).
			Str("recipe_id", r.RecipeID.String()).
			Str("meal_date", r.MealDate.String()).
			Str("body", r.Body).
			Msg("would dispatch reminder")
	}
	if len(due) > 0 {
		log.Info().Int("count", len(due)).Msg("polled due reminders")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Store.User, cfg.Store.Password, cfg.Store.Host, cfg.Store.Port, cfg.Store.Name, cfg.Store.SSLMode)
		return postgres.New(ctx, dsn)
	default:
		return sqlite.New(ctx, cfg.Store.SQLitePath)
	}
}
