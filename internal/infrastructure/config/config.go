package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	OTLP    OTLPConfig
	Store   StoreConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

// StoreConfig selects the product and cart store backends.
type StoreConfig struct {
	ProductBackend string // memory or mongo
	CartBackend    string // memory, mongo or redis
	SeedProducts   bool
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr   string
	Prefix string
}

type LoggingConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory, if present, is loaded first without overriding
// variables that are already set.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		OTLP: OTLPConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", true),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "cart-api"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
		},
		Store: StoreConfig{
			ProductBackend: strings.ToLower(getEnv("PRODUCT_STORE", "memory")),
			CartBackend:    strings.ToLower(getEnv("CART_STORE", "memory")),
			SeedProducts:   getEnvBool("SEED_PRODUCTS", true),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "shop"),
		},
		Redis: RedisConfig{
			Addr:   getEnv("REDIS_ADDR", "localhost:6379"),
			Prefix: getEnv("REDIS_PREFIX", "cart:"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
