package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// LoadDatabaseConfig loads database configuration from environment variables
func LoadDatabaseConfig(prefix string) (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{
		Host:         getEnv(prefix+"DB_HOST", "postgres"),
		User:         getEnv(prefix+"DB_USER", "postgres"),
		Password:     getEnv(prefix+"DB_PASSWORD", "postgres"),
		DBName:       getEnv(prefix+"DB_NAME", "alightgram_db"),
		SSLMode:      getEnv(prefix+"DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvAsInt(prefix+"DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvAsInt(prefix+"DB_MAX_IDLE_CONNS", 5),
		MaxLifetime:  getEnvAsDuration(prefix+"DB_MAX_LIFETIME", 5*time.Minute),
	}

	var err error
	cfg.Port, err = strconv.Atoi(getEnv(prefix+"DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid database port: %w", err)
	}

	if cfg.DBName == "" {
		return nil, fmt.Errorf("database name is required (set %sDB_NAME)", prefix)
	}

	return cfg, nil
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("REDIS_URL", "redis:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
}

type NatsConfig struct {
	URL           string
	ClientID      string
	MaxReconnects int
	ReconnectWait time.Duration
}

func LoadNatsConfig() NatsConfig {
	return NatsConfig{
		URL:           getEnv("NATS_URL", "nats://nats:4222"),
		ClientID:      getEnv("NATS_CLIENT_ID", "alightgram"),
		MaxReconnects: getEnvAsInt("NATS_MAX_RECONNECTS", 10),
		ReconnectWait: getEnvAsDuration("NATS_RECONNECT_WAIT", 2*time.Second),
	}
}

// Backend selectors.
const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreRedis     = "redis"
	StoreMemory    = "memory"

	MediaCloudinary = "cloudinary"
	MediaSupabase   = "supabase"
)

// ServiceConfig is everything the serve command needs beyond the database.
type ServiceConfig struct {
	GRPCPort string
	HTTPPort string

	JWTSecret      string
	AccessTokenTTL time.Duration
	GoogleClientID string

	DocumentStore      string
	FirestoreProjectID string
	RealtimeStore      string

	PresenceHeartbeatTTL  time.Duration
	PresenceSweepInterval time.Duration

	MediaHost              string
	CloudinaryURL          string
	CloudinaryUploadPreset string
	CanonicalMediaHost     string
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseBucket         string

	GeminiAPIKey      string
	GeminiModel       string
	TagsRatePerMinute int

	EventsEnabled bool
	Theme         string

	LogLevel  string
	LogFormat string
}

func LoadServiceConfig() (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		GRPCPort: getEnv("GRPC_PORT", "50070"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key"),
		AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		DocumentStore:      strings.ToLower(getEnv("DOCUMENT_STORE", StorePostgres)),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		RealtimeStore:      strings.ToLower(getEnv("REALTIME_STORE", StoreRedis)),

		PresenceHeartbeatTTL:  getEnvAsDuration("PRESENCE_HEARTBEAT_TTL", 45*time.Second),
		PresenceSweepInterval: getEnvAsDuration("PRESENCE_SWEEP_INTERVAL", 15*time.Second),

		MediaHost:              strings.ToLower(getEnv("MEDIA_HOST", MediaCloudinary)),
		CloudinaryURL:          getEnv("CLOUDINARY_URL", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "My smallest server"),
		CanonicalMediaHost:     getEnv("CANONICAL_MEDIA_HOST", "cloudinary"),
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:         getEnv("SUPABASE_BUCKET", "alightgram"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		TagsRatePerMinute: getEnvAsInt("TAGS_RATE_PER_MINUTE", 30),

		EventsEnabled: getEnvAsBool("EVENTS_ENABLED", true),
		Theme:         getEnv("UI_THEME", "glass"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	switch cfg.DocumentStore {
	case StorePostgres, StoreMemory:
	case StoreFirestore:
		if cfg.FirestoreProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required when DOCUMENT_STORE=firestore")
		}
	default:
		return nil, fmt.Errorf("unknown DOCUMENT_STORE %q", cfg.DocumentStore)
	}

	switch cfg.RealtimeStore {
	case StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown REALTIME_STORE %q", cfg.RealtimeStore)
	}

	switch cfg.MediaHost {
	case MediaCloudinary, MediaSupabase:
	default:
		return nil, fmt.Errorf("unknown MEDIA_HOST %q", cfg.MediaHost)
	}

	if cfg.PresenceHeartbeatTTL <= cfg.PresenceSweepInterval {
		return nil, fmt.Errorf("PRESENCE_HEARTBEAT_TTL must be longer than PRESENCE_SWEEP_INTERVAL")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
