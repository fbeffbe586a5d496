package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Store     StoreConfig
	Receipts  ReceiptsConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DSN returns the pgx connection string
func (c DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Database +
		"?sslmode=disable&search_path=" + c.Schema
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret      string
	ShiftExpiry int // in hours
}

// StoreConfig holds pricing and numbering settings
type StoreConfig struct {
	Name                  string
	FoodMarkup            float64
	NonFoodMarkup         float64
	ExpirationWarningDays int
	NearExpiryDiscount    float64
	ReceiptNumberLimit    int64
	AnalyticsQueueSize    int
}

type ReceiptsConfig struct {
	Backend    string // postgres, sqlite or file
	Dir        string
	SQLitePath string
}

type RateLimitConfig struct {
	Requests int
	Window   int // in seconds
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	// Make .env values visible to anything reading the process environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env into environment: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "pos")
	viper.SetDefault("JWT_SHIFT_EXPIRY", 12)
	viper.SetDefault("STORE_NAME", "Retail Store")
	viper.SetDefault("STORE_FOOD_MARKUP", 0.20)
	viper.SetDefault("STORE_NON_FOOD_MARKUP", 0.15)
	viper.SetDefault("STORE_EXPIRATION_WARNING_DAYS", 7)
	viper.SetDefault("STORE_NEAR_EXPIRY_DISCOUNT", 0.20)
	viper.SetDefault("STORE_RECEIPT_NUMBER_LIMIT", 2147483647)
	viper.SetDefault("STORE_ANALYTICS_QUEUE_SIZE", 1024)
	viper.SetDefault("RECEIPTS_BACKEND", "postgres")
	viper.SetDefault("RECEIPTS_DIR", "receipts")
	viper.SetDefault("RECEIPTS_SQLITE_PATH", "receipts.db")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_WINDOW", 60)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:     viper.GetString("SERVER_PORT"),
			Env:      viper.GetString("SERVER_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:      viper.GetString("REDIS_HOST"),
			Port:      viper.GetString("REDIS_PORT"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			KeyPrefix: viper.GetString("REDIS_KEY_PREFIX"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ShiftExpiry: viper.GetInt("JWT_SHIFT_EXPIRY"),
		},
		Store: StoreConfig{
			Name:                  viper.GetString("STORE_NAME"),
			FoodMarkup:            viper.GetFloat64("STORE_FOOD_MARKUP"),
			NonFoodMarkup:         viper.GetFloat64("STORE_NON_FOOD_MARKUP"),
			ExpirationWarningDays: viper.GetInt("STORE_EXPIRATION_WARNING_DAYS"),
			NearExpiryDiscount:    viper.GetFloat64("STORE_NEAR_EXPIRY_DISCOUNT"),
			ReceiptNumberLimit:    viper.GetInt64("STORE_RECEIPT_NUMBER_LIMIT"),
			AnalyticsQueueSize:    viper.GetInt("STORE_ANALYTICS_QUEUE_SIZE"),
		},
		Receipts: ReceiptsConfig{
			Backend:    strings.ToLower(viper.GetString("RECEIPTS_BACKEND")),
			Dir:        viper.GetString("RECEIPTS_DIR"),
			SQLitePath: viper.GetString("RECEIPTS_SQLITE_PATH"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetInt("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
