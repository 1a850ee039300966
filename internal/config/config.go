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

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Auth        AuthConfig
	Favorites   GatewayConfig
	Preferences GatewayConfig
	Scheduler   SchedulerConfig
	Reminder    ReminderConfig
	AI          AIConfig
	Logging     LoggingConfig
}

// ServerConfig contains server-related configuration.
type ServerConfig struct {
	Host         string
	Port         int
	Environment  string
	TrustedProxy []string
}

// StoreConfig selects and configures the event-log/read-model backend
// (internal/store/postgres or internal/store/sqlite).
type StoreConfig struct {
	Driver     string // postgres, sqlite
	Host       string
	Port       int
	Name       string
	User       string
	Password   string
	SSLMode    string
	MaxConns   int
	MinConns   int
	SQLitePath string
}

// AuthConfig carries only what the thin HTTP adapter needs to decode a
// caller's bearer JWT into a user_id. Registration, login, and password
// management belong to the external auth service this app sits behind,
// not to the meal-plan core.
type AuthConfig struct {
	JWTSecret string
}

// GatewayConfig configures one of the resty-backed external read-model
// gateways: FavoritesGateway or PreferencesGateway.
type GatewayConfig struct {
	BaseURL string
	Timeout int // seconds
}

// SchedulerConfig carries the scheduler's tunable knobs.
type SchedulerConfig struct {
	WallClockTimeoutMS   int
	BacktrackDepthLimit  int
	CuisineVarietyCap    int
	MaxWeeks             int
	MinFavoritesRequired int
}

// ReminderConfig carries the advance-prep reminder scheduler's options.
type ReminderConfig struct {
	PrepDayOfLeadMinutes int
}

// AIConfig contains AI provider configuration for the optional reasoning
// narrator. An empty DefaultProvider disables the narrator entirely;
// the deterministic assignment_reasoning/reminder text stands on its
// own without it.
type AIConfig struct {
	DefaultProvider string // "", ollama, openai, gemini, claude
	Ollama          OllamaConfig
	OpenAI          OpenAIConfig
	Gemini          GeminiConfig
	Claude          ClaudeConfig
}

// OllamaConfig for Ollama AI provider
type OllamaConfig struct {
	Enabled bool
	Host    string
	Model   string
}

// OpenAIConfig for OpenAI provider
type OpenAIConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// GeminiConfig for Google Gemini provider
type GeminiConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// ClaudeConfig for Anthropic Claude provider
type ClaudeConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/mealplanner")

	// Set defaults
	setDefaults()

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.SetEnvPrefix("MEALPLANNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.environment", "development")

	// Store defaults
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.host", "localhost")
	viper.SetDefault("store.port", 5432)
	viper.SetDefault("store.name", "mealplanner")
	viper.SetDefault("store.user", "postgres")
	viper.SetDefault("store.sslmode", "disable")
	viper.SetDefault("store.maxconns", 25)
	viper.SetDefault("store.minconns", 5)
	viper.SetDefault("store.sqlitepath", "./data/mealplanner.db")

	// Gateway defaults
	viper.SetDefault("favorites.baseurl", "http://localhost:8081")
	viper.SetDefault("favorites.timeout", 5)
	viper.SetDefault("preferences.baseurl", "http://localhost:8082")
	viper.SetDefault("preferences.timeout", 5)

	// Scheduler defaults
	viper.SetDefault("scheduler.wallclocktimeoutms", 5000)
	viper.SetDefault("scheduler.backtrackdepthlimit", 10)
	viper.SetDefault("scheduler.cuisinevarietycap", 5)
	viper.SetDefault("scheduler.maxweeks", 5)
	viper.SetDefault("scheduler.minfavoritesrequired", 7)

	// Reminder defaults
	viper.SetDefault("reminder.prepdayofleadminutes", 60)

	// AI defaults
	viper.SetDefault("ai.defaultprovider", "")
	viper.SetDefault("ai.ollama.enabled", false)
	viper.SetDefault("ai.ollama.host", "http://localhost:11434")
	viper.SetDefault("ai.ollama.model", "llama2")
	viper.SetDefault("ai.openai.enabled", false)
	viper.SetDefault("ai.openai.model", "gpt-3.5-turbo")
	viper.SetDefault("ai.gemini.enabled", false)
	viper.SetDefault("ai.gemini.model", "gemini-pro")
	viper.SetDefault("ai.claude.enabled", false)
	viper.SetDefault("ai.claude.model", "claude-3-sonnet-20240229")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
