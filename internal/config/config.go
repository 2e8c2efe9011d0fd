package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Session   SessionConfig
	Report    ReportConfig
	Archive   ArchiveConfig
	Events    EventsConfig
	Storage   StorageConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// AIConfig selects and tunes the completion provider.
type AIConfig struct {
	Provider    string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Timeout     time.Duration

	Gemini GeminiConfig
	Ark    ArkConfig
	OpenAI OpenAIConfig
}

// GeminiConfig holds Google Gemini credentials.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ArkConfig holds Volcengine Ark credentials.
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled reports whether the Ark credentials are complete.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// OpenAIConfig holds credentials for OpenAI or a compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// SessionConfig bounds the in-memory session store. Zero disables the bound.
type SessionConfig struct {
	MaxSessions int
	IdleTTL     time.Duration
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	TempDir string
	Format  string
}

// ArchiveConfig points at the optional transcript audit database.
type ArchiveConfig struct {
	Driver string
	DSN    string
}

// Enabled reports whether an archive database is configured.
func (c ArchiveConfig) Enabled() bool {
	return c.Driver != "" && c.DSN != ""
}

// EventsConfig points at the optional message broker.
type EventsConfig struct {
	RabbitMQURL string
	Exchange    string
}

// StorageConfig holds S3-compatible (Cloudflare R2) object storage settings.
type StorageConfig struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	Endpoint  string
	Region    string
}

// Enabled reports whether object storage is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != "" && (c.Endpoint != "" || c.AccountID != "")
}

// ResolvedEndpoint returns the explicit endpoint or the R2 endpoint of the account.
func (c StorageConfig) ResolvedEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.AccountID == "" {
		return ""
	}
	return "https://" + c.AccountID + ".r2.cloudflarestorage.com"
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// TelemetryConfig controls the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled bool
	Dir     string
}

// Load reads .env (when present) and the process environment.
func Load(envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	return FromViper(newViper())
}

func loadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("ai_provider", "gemini")
	v.SetDefault("ai_timeout_seconds", 60)
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("ark_base_url", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("ark_region", "cn-beijing")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("report_format", "pdf")
	v.SetDefault("events_exchange", "session_updates")
	v.SetDefault("r2_region", "auto")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 14)
	v.SetDefault("telemetry_dir", "telemetry")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	server, err := loadServerConfig(v)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(v)
	if err != nil {
		return nil, err
	}

	sessions, err := loadSessionConfig(v)
	if err != nil {
		return nil, err
	}

	report, err := loadReportConfig(v)
	if err != nil {
		return nil, err
	}

	archive := ArchiveConfig{
		Driver: strings.ToLower(str(v, "archive_driver")),
		DSN:    str(v, "archive_dsn"),
	}
	switch archive.Driver {
	case "", "postgres", "sqlite3":
	default:
		return nil, errors.Errorf("invalid ARCHIVE_DRIVER value %q", archive.Driver)
	}

	telemetryEnabled, err := parseBool(v, "telemetry_enabled", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Session: sessions,
		Report:  report,
		Archive: archive,
		Events: EventsConfig{
			RabbitMQURL: str(v, "rabbitmq_url"),
			Exchange:    str(v, "events_exchange"),
		},
		Storage: StorageConfig{
			AccountID: str(v, "r2_account_id"),
			AccessKey: str(v, "r2_access_key"),
			SecretKey: str(v, "r2_secret_key"),
			Bucket:    str(v, "r2_bucket"),
			Endpoint:  str(v, "r2_endpoint"),
			Region:    str(v, "r2_region"),
		},
		Log: LogConfig{
			Level:      strings.ToLower(str(v, "log_level")),
			File:       str(v, "log_file"),
			MaxSizeMB:  v.GetInt("log_max_size_mb"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAgeDays: v.GetInt("log_max_age_days"),
		},
		Telemetry: TelemetryConfig{
			Enabled: telemetryEnabled,
			Dir:     str(v, "telemetry_dir"),
		},
	}, nil
}

// loadServerConfig resolves the listen address.
func loadServerConfig(v *viper.Viper) (ServerConfig, error) {
	port := str(v, "port")
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" or "127.0.0.1:8080" are taken as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, errors.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadAIConfig(v *viper.Viper) (AIConfig, error) {
	temperature, err := parseOptionalFloat(v, "ai_temperature")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloat(v, "ai_top_p")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalInt(v, "ai_max_tokens")
	if err != nil {
		return AIConfig{}, err
	}

	timeoutSeconds, err := parseOptionalInt(v, "ai_timeout_seconds")
	if err != nil {
		return AIConfig{}, err
	}
	timeout := 60 * time.Second
	if timeoutSeconds != nil && *timeoutSeconds > 0 {
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	provider := strings.ToLower(str(v, "ai_provider"))
	switch provider {
	case "gemini", "ark", "openai":
	default:
		return AIConfig{}, errors.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:    provider,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
		Gemini: GeminiConfig{
			APIKey: str(v, "gemini_api_key"),
			Model:  str(v, "gemini_model"),
		},
		Ark: ArkConfig{
			APIKey:    str(v, "ark_api_key"),
			AccessKey: str(v, "ark_access_key"),
			SecretKey: str(v, "ark_secret_key"),
			Model:     str(v, "ark_model"),
			BaseURL:   str(v, "ark_base_url"),
			Region:    str(v, "ark_region"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  str(v, "openai_api_key"),
			Model:   str(v, "openai_model"),
			BaseURL: str(v, "openai_base_url"),
		},
	}, nil
}

func loadSessionConfig(v *viper.Viper) (SessionConfig, error) {
	maxSessions, err := parseOptionalInt(v, "session_max")
	if err != nil {
		return SessionConfig{}, err
	}
	ttlMinutes, err := parseOptionalInt(v, "session_idle_ttl_minutes")
	if err != nil {
		return SessionConfig{}, err
	}

	var cfg SessionConfig
	if maxSessions != nil && *maxSessions > 0 {
		cfg.MaxSessions = *maxSessions
	}
	if ttlMinutes != nil && *ttlMinutes > 0 {
		cfg.IdleTTL = time.Duration(*ttlMinutes) * time.Minute
	}
	return cfg, nil
}

func loadReportConfig(v *viper.Viper) (ReportConfig, error) {
	format := strings.ToLower(str(v, "report_format"))
	switch format {
	case "pdf", "docx":
	default:
		return ReportConfig{}, errors.Errorf("invalid REPORT_FORMAT value %q", format)
	}

	dir := str(v, "report_tmp_dir")
	if dir == "" {
		dir = os.TempDir()
	}
	return ReportConfig{TempDir: dir, Format: format}, nil
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func parseBool(v *viper.Viper, key string, defaultValue bool) (bool, error) {
	raw := str(v, key)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s value %q", strings.ToUpper(key), raw)
	}
	return val, nil
}

func parseOptionalFloat(v *viper.Viper, key string) (*float64, error) {
	raw := str(v, key)
	if raw == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s value %q", strings.ToUpper(key), raw)
	}
	return &val, nil
}

func parseOptionalInt(v *viper.Viper, key string) (*int, error) {
	raw := str(v, key)
	if raw == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s value %q", strings.ToUpper(key), raw)
	}
	return &val, nil
}
