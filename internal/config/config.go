package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string `mapstructure:"url"                validate:"required"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"     validate:"gte=1"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"     validate:"gte=1"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// AuthConfig contains settings for the administrative API's bearer-token
// authentication.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all generation-service integration settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// MaxRetries caps the number of re-attempts for transient upstream
	// failures; the first call is not counted.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryBaseSeconds is the base of the exponential backoff schedule:
	// delay = base * 2^attempt, attempt indices starting at 0.
	RetryBaseSeconds int `mapstructure:"retry_base_seconds" validate:"gte=1"`

	// RequestTimeoutSeconds bounds one generation call end to end.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"gte=1"`
}

// WorkerConfig contains settings for the background worker loops.
type WorkerConfig struct {
	// Count is the number of sequential worker loops this process runs.
	// Mutual exclusion between them is carried entirely by the claim query,
	// same as between separate worker processes.
	Count int `mapstructure:"count" validate:"gte=0"`

	// IdleSleepMS is how long a loop sleeps when the queue is empty.
	IdleSleepMS int `mapstructure:"idle_sleep_ms" validate:"gte=1"`

	// ThrottleMS adds an optional pause after each completed instance to
	// cap aggregate call volume against the generation service. Purely a
	// cost control, not a correctness mechanism. Zero disables it.
	ThrottleMS int `mapstructure:"throttle_ms" validate:"gte=0"`
}
