package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Agent     AgentConfig     `mapstructure:"agent"     validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the settings for verifying caller identity.
// Token issuance happens outside this service; we only validate.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// AgentConfig contains the execution backend settings.
type AgentConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

// SchedulerConfig contains the background scheduler settings.
// RetryDelaysSeconds are the gaps between attempts; an execution is
// tried at most MaxAttempts times in total.
type SchedulerConfig struct {
	WorkerCount        int   `mapstructure:"worker_count"         validate:"required,gt=0"`
	QueueSize          int   `mapstructure:"queue_size"           validate:"required,gt=0"`
	MaxAttempts        int   `mapstructure:"max_attempts"         validate:"required,gt=0"`
	RetryDelaysSeconds []int `mapstructure:"retry_delays_seconds" validate:"required,min=1,dive,gte=0"`
}
