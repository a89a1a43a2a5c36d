package common

import (
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Viper *viper.Viper
}

type ServerConfig struct {
	Addr         string
	AllowOrigins string
}

type ClientConfig struct {
	BaseURL          string
	PushURL          string
	Token            string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	FailureThreshold int
	MaxBackoff       time.Duration
	MatchSkew        time.Duration
}

func NewViper() *Config {
	config := viper.New()
	config.SetConfigFile(".env")
	config.SetConfigType("env")
	config.AddConfigPath("../")
	config.AutomaticEnv()
	setDefaults(config)

	log.Trace("Checking file .env ....")
	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			panic("failed read config")
		}
		log.Warn("No .env file found, using environment and defaults")
	}
	return &Config{Viper: config}
}

// NewFromViper wraps an already populated viper instance, mostly for tests.
func NewFromViper(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{Viper: v}
}

func setDefaults(config *viper.Viper) {
	config.SetDefault("APP_NAME", "healthcare-chat")
	config.SetDefault("SERVER_ADDR", ":7720")
	config.SetDefault("LOG_LEVEL", "info")
	config.SetDefault("LOG_DIR", "logs")
	config.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	config.SetDefault("DB_DRIVER", "postgres")
	config.SetDefault("DB_PORT", "5432")
	config.SetDefault("DB_SQLITE_DSN", "file:healthcare-chat.db?cache=shared")
	config.SetDefault("JWT_TTL", "24h")
	config.SetDefault("CHAT_BASE_URL", "http://localhost:7720")
	config.SetDefault("CHAT_POLL_INTERVAL", "5s")
	config.SetDefault("CHAT_REQUEST_TIMEOUT", "10s")
	config.SetDefault("CHAT_FAILURE_THRESHOLD", 3)
	config.SetDefault("CHAT_MAX_BACKOFF", "1m")
	config.SetDefault("CHAT_MATCH_SKEW", "2m")
}

// BindFlags lets command line flags override env and .env values. The map
// goes from config key to flag name.
func (c *Config) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := c.Viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) GetAppConfig() (appName string) {
	return c.Viper.GetString("APP_NAME")
}

func (c *Config) GetServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         c.Viper.GetString("SERVER_ADDR"),
		AllowOrigins: c.Viper.GetString("CORS_ORIGINS"),
	}
}

func (c *Config) GetDatabaseDriver() string {
	return c.Viper.GetString("DB_DRIVER")
}

func (c *Config) GetSqliteDSN() string {
	return c.Viper.GetString("DB_SQLITE_DSN")
}

func (c *Config) GetDatabaseConfig() (dbHost, dbUser, dbPassword, dbName, dbPort string) {
	dbHost = c.Viper.GetString("DB_HOSTNAME")
	dbUser = c.Viper.GetString("DB_USER")
	dbPassword = c.Viper.GetString("DB_PASSWORD")
	dbName = c.Viper.GetString("DB_NAME")
	dbPort = c.Viper.GetString("DB_PORT")

	return dbHost, dbUser, dbPassword, dbName, dbPort
}

func (c *Config) GetJwtConfig() []byte {
	jwtSecret := c.Viper.GetString("JWT_SECRET")
	return []byte(jwtSecret)
}

func (c *Config) GetJwtTTL() time.Duration {
	return c.Viper.GetDuration("JWT_TTL")
}

func (c *Config) GetClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:          c.Viper.GetString("CHAT_BASE_URL"),
		PushURL:          c.Viper.GetString("CHAT_PUSH_URL"),
		Token:            c.Viper.GetString("CHAT_TOKEN"),
		PollInterval:     c.Viper.GetDuration("CHAT_POLL_INTERVAL"),
		RequestTimeout:   c.Viper.GetDuration("CHAT_REQUEST_TIMEOUT"),
		FailureThreshold: c.Viper.GetInt("CHAT_FAILURE_THRESHOLD"),
		MaxBackoff:       c.Viper.GetDuration("CHAT_MAX_BACKOFF"),
		MatchSkew:        c.Viper.GetDuration("CHAT_MATCH_SKEW"),
	}
}
