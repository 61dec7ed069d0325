package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
	Categories []CategoryConfig `mapstructure:"categories" validate:"required,min=1,dive"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig describes how the external question database is reached.
// The database itself is hosted elsewhere; by default all statements go
// through an HTTP bridge endpoint, with an optional direct SQL connection
// as fallback.
type DatabaseConfig struct {
	// UseBridge selects the HTTP bridge executor. When false, DirectURL must
	// point at a reachable database.
	UseBridge bool   `mapstructure:"use_bridge"`
	BridgeURL string `mapstructure:"bridge_url" validate:"required_if=UseBridge true,omitempty,url"`
	DirectURL string `mapstructure:"direct_url" validate:"required_if=UseBridge false,omitempty"`
	// QueryTimeoutSeconds bounds a single bridge round trip.
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds" validate:"required,gt=0"`
}

// AuthConfig contains authentication settings for the admin API.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// AdminPasswordHash is the bcrypt hash of the shared admin password
	// exchanged for a JWT at /auth/token.
	AdminPasswordHash    string `mapstructure:"admin_password_hash" validate:"required"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	// ExplanationModel generates board-style explanations.
	ExplanationModel string `mapstructure:"explanation_model" validate:"required"`
	// GenerationModel generates MCQs from source text windows.
	GenerationModel string `mapstructure:"generation_model" validate:"required"`
	// RelevanceModel answers the cheap YES/NO relevance probe.
	RelevanceModel string `mapstructure:"relevance_model" validate:"required"`
	// MaxAttempts bounds generation attempts per text window.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`
	// RetryBackoffSeconds is the fixed wait between generation attempts.
	RetryBackoffSeconds int `mapstructure:"retry_backoff_seconds" validate:"required,gt=0"`
}

// StorageConfig contains object storage settings for exported artifacts.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"   validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Bucket    string `mapstructure:"bucket"     validate:"required"`
	// Folder prefixes uploaded object names (e.g. "mcqs_outputs").
	Folder string `mapstructure:"folder"`
	UseSSL bool   `mapstructure:"use_ssl"`
}

// TaskConfig tunes the background task engine.
type TaskConfig struct {
	// FanoutWorkers is the bounded pool width for bulk explanation tasks.
	FanoutWorkers int `mapstructure:"fanout_workers" validate:"required,gt=0"`
	// RateLimitSeconds is the minimum spacing between LLM calls across all
	// workers combined.
	RateLimitSeconds float64 `mapstructure:"rate_limit_seconds" validate:"required,gt=0"`
	// SnapshotPath is the file the task store snapshots itself to.
	SnapshotPath string `mapstructure:"snapshot_path" validate:"required"`
	// UploadDir holds uploaded PDFs while a pipeline task processes them.
	UploadDir string `mapstructure:"upload_dir" validate:"required"`
	// WindowSize and WindowStep control sliding-window chunking (in words).
	// WindowStep below WindowSize guarantees overlapping windows.
	WindowSize int `mapstructure:"window_size" validate:"required,gt=0"`
	WindowStep int `mapstructure:"window_step" validate:"required,gt=0,ltfield=WindowSize"`
	// MaxWindows caps how many windows one pipeline task sends to the LLM.
	MaxWindows int `mapstructure:"max_windows" validate:"required,gt=0"`
}

// CategoryConfig is one entry of the fixed exam category list served by the
// API. The list is configuration rather than database content.
type CategoryConfig struct {
	ID   int    `mapstructure:"id"   json:"id"   validate:"required"`
	Name string `mapstructure:"name" json:"name" validate:"required"`
}
