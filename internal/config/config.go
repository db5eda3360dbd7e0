package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all settings for the garden server.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"true"`

	// Storage selects the repository backend: "postgres" or "memory".
	// Memory mode runs the whole service without external dependencies.
	Storage string `envconfig:"STORAGE" default:"postgres"`

	// AI backends. OpenAI settings also cover OpenAI-compatible providers
	// (OpenRouter etc.) via AI_BASE_URL.
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel       string        `envconfig:"AI_MODEL" default:"gpt-4.1-mini"`
	OllamaBaseURL string        `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaModel   string        `envconfig:"OLLAMA_MODEL" default:"llama3"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	// Secret, loaded separately (file or env).
	AIAPIKey string

	// External content providers for the feed. Empty key disables the
	// corresponding feature.
	NewsAPIKey    string `envconfig:"NEWS_API_KEY"`
	PixabayAPIKey string `envconfig:"PIXABAY_API_KEY"`

	// Redis cache for image/news lookups. Empty address disables caching.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"garden_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret, loaded separately (file or env).
	DBPassword string

	// JWT for parent sessions. Secret, loaded separately (file or env).
	JWTSecret string
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// MaskedDSN returns the DSN with the password replaced, for logging.
func (c *Config) MaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

// LoadConfig loads configuration from environment variables and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Secrets come from Docker secret files when present, otherwise from
	// the environment. Only the JWT secret is mandatory: AI and DB secrets
	// may be absent in memory/ollama setups.
	cfg.AIAPIKey = readSecret("ai_api_key", "AI_API_KEY")
	cfg.DBPassword = readSecret("db_password", "DB_PASSWORD")
	cfg.JWTSecret = readSecret("jwt_secret", "JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is not configured (jwt_secret file or JWT_SECRET env)")
	}

	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return nil, fmt.Errorf("unknown STORAGE value: %q", cfg.Storage)
	}

	return &cfg, nil
}

// readSecret reads a Docker secret file, falling back to an env variable.
func readSecret(secretName, envName string) string {
	data, err := os.ReadFile(fmt.Sprintf("/run/secrets/%s", secretName))
	if err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv(envName))
}
