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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rghsoftware/mealplanner/internal/ai"
	"github.com/rghsoftware/mealplanner/internal/api/rest"
	"github.com/rghsoftware/mealplanner/internal/config"
	"github.com/rghsoftware/mealplanner/internal/gateways/prefsvc"
	"github.com/rghsoftware/mealplanner/internal/gateways/recipesvc"
	"github.com/rghsoftware/mealplanner/internal/logger"
	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/commands"
	"github.com/rghsoftware/mealplanner/internal/mealplan/lock"
	"github.com/rghsoftware/mealplanner/internal/mealplan/scheduler"
	"github.com/rghsoftware/mealplanner/internal/narrator"
	"github.com/rghsoftware/mealplanner/internal/projections"
	"github.com/rghsoftware/mealplanner/internal/store"
	"github.com/rghsoftware/mealplanner/internal/store/postgres"
	"github.com/rghsoftware/mealplanner/internal/store/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Msg("Starting meal planner API server")

	ctx := context.Background()

	// Initialize store backend
	backend, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer backend.Close()

	log.Info().Str("driver", cfg.Store.Driver).Msg("Connected to store")

	if err := backend.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Store migrations completed")

	// External read-model gateways (§3)
	favorites := recipesvc.New(cfg.Favorites.BaseURL, time.Duration(cfg.Favorites.Timeout)*time.Second)
	preferences := prefsvc.New(cfg.Preferences.BaseURL, time.Duration(cfg.Preferences.Timeout)*time.Second)

	// Optional reasoning narrator (§4): absent provider is a no-op.
	var aiProvider ai.Provider
	if cfg.AI.DefaultProvider != "" {
		aiProvider, err = ai.NewProvider(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("AI provider not available, narrator disabled")
		} else {
			log.Info().Str("provider", aiProvider.GetName()).Msg("narrator provider initialized")
		}
	}
	narr := narrator.New(aiProvider, log)

	subscriber := projections.New(backend, favorites, mealplan.DefaultMealTimes(), log)
	events := newProjectingEventStore(backend, subscriber, log)

	svc := commands.NewService(favorites, preferences, backend, backend, events, lock.NewManager())
	svc.SchedulerConfig = scheduler.Config{
		WallClockTimeout:    time.Duration(cfg.Scheduler.WallClockTimeoutMS) * time.Millisecond,
		BacktrackDepthLimit: cfg.Scheduler.BacktrackDepthLimit,
		CuisineVarietyCap:   cfg.Scheduler.CuisineVarietyCap,
	}

	router := rest.SetupRouter(svc, backend, narr, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("address", addr).Msg("Starting HTTP server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-quit
	log.Info().Msg("Shutting down server...")

	// Give time for cleanup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info().Msg("Server stopped")
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
