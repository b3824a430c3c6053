package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Backend  BackendConfig
	Bot      BotConfig
	API      APIConfig
	Verify   VerifyConfig
	Outcome  OutcomeConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Pass         string
	Charset      string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// BackendConfig points at the payment platform REST backend.
type BackendConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BotConfig configures the optional merchant notification bot.
type BotConfig struct {
	Token  string
	ChatID int64
}

type APIConfig struct {
	Key string
}

// VerifyConfig carries the polling schedule. The defaults are the fixed
// production policy: 3s before the first check, 5s between checks, 60
// attempts at most.
type VerifyConfig struct {
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// OutcomeConfig controls how long the per-client checkout record survives.
type OutcomeConfig struct {
	TTL time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 50)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BACKEND_TIMEOUT", "30s")
	viper.SetDefault("VERIFY_INITIAL_DELAY", "3s")
	viper.SetDefault("VERIFY_POLL_INTERVAL", "5s")
	viper.SetDefault("VERIFY_MAX_ATTEMPTS", 60)
	viper.SetDefault("OUTCOME_TTL", "24h")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Pass:         viper.GetString("DB_PASS"),
			Charset:      viper.GetString("DB_CHARSET"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Backend: BackendConfig{
			BaseURL: viper.GetString("BACKEND_BASE_URL"),
			APIKey:  viper.GetString("BACKEND_API_KEY"),
			Timeout: durationOr("BACKEND_TIMEOUT", 30*time.Second),
		},
		Bot: BotConfig{
			Token:  viper.GetString("BOT_TOKEN"),
			ChatID: viper.GetInt64("BOT_CHAT_ID"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Verify: VerifyConfig{
			InitialDelay: durationOr("VERIFY_INITIAL_DELAY", 3*time.Second),
			PollInterval: durationOr("VERIFY_POLL_INTERVAL", 5*time.Second),
			MaxAttempts:  viper.GetInt("VERIFY_MAX_ATTEMPTS"),
		},
		Outcome: OutcomeConfig{
			TTL: durationOr("OUTCOME_TTL", 24*time.Hour),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Backend.BaseURL == "" {
		log.Println("WARNING: BACKEND_BASE_URL is not set")
	}

	return cfg, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
