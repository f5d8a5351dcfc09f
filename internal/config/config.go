package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string
	Host         string
	Env          string // "development" or "production"
	ClientOrigin string // allowed browser origin, "*" allows any
}

// GameConfig holds game-related configuration
type GameConfig struct {
	MaxPlayers   int
	MaxRounds    int
	RoundTime    time.Duration
	Intermission time.Duration
	TickInterval time.Duration
	SeatGrace    time.Duration // how long a seat survives without a connection
	WordsFile    string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3001"),
			Host:         getEnv("HOST", "0.0.0.0"),
			Env:          getEnv("ENV", "development"),
			ClientOrigin: getEnv("CLIENT_ORIGIN", "*"),
		},
		Game: GameConfig{
			MaxPlayers:   getEnvInt("MAX_PLAYERS", 8),
			MaxRounds:    getEnvInt("MAX_ROUNDS", 3),
			RoundTime:    time.Duration(getEnvInt("ROUND_SECONDS", 80)) * time.Second,
			Intermission: time.Duration(getEnvInt("INTERMISSION_SECONDS", 3)) * time.Second,
			TickInterval: time.Duration(getEnvInt("GAME_TICK_INTERVAL_MS", 1000)) * time.Millisecond,
			SeatGrace:    time.Duration(getEnvInt("SEAT_GRACE_SECONDS", 120)) * time.Second,
			WordsFile:    getEnv("WORDS_FILE", "data/words.json"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns a non-negative integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}
