package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Quotes    QuotesConfig
	Logging   LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	StaticDir         string
	TrustProxy        bool
	MaxBodyBytes      int64
}

// StorageConfig selects and configures the lead persistence backend.
type StorageConfig struct {
	Backend string // file|mongo|graph|sqlite
	File    FileConfig
	Mongo   MongoConfig
	Graph   GraphConfig
	SQLite  SQLiteConfig
}

// FileConfig locates the JSON file backend.
type FileConfig struct {
	Path string
}

// MongoConfig describes connectivity to the document store.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// GraphConfig describes connectivity to the graph database (Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// SQLiteConfig locates the SQLite backend.
type SQLiteConfig struct {
	DSN string
}

// AuthConfig controls bearer-token checks on the read path.
type AuthConfig struct {
	JWTSecret string
	ReadMode  string // off|optional|required
	TokenTTL  time.Duration
}

// RateLimitConfig sizes the fixed window applied to public lead submissions.
type RateLimitConfig struct {
	Window time.Duration
	Max    int
}

// QuotesConfig points at the upstream price feed.
type QuotesConfig struct {
	URL     string
	Timeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// Auth read modes.
const (
	AuthModeOff      = "off"
	AuthModeOptional = "optional"
	AuthModeRequired = "required"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 3000
	defaultReadTimeout     = "10s"
	defaultWriteTimeout    = "15s"
	defaultIdleTimeout     = "60s"
	defaultShutdownTimeout = "10s"
	defaultAllowedOrigins  = "*"
	defaultMaxBodyBytes    = 64 << 10
	defaultBackend         = "file"
	defaultLeadsFile       = "data/leads-buffer.json"
	defaultMongoDatabase   = "leads"
	defaultMongoCollection = "leads"
	defaultMongoTimeout    = "10s"
	defaultGraphMaxConns   = 10
	defaultSQLiteDSN       = "leads.db"
	defaultTokenTTL        = "168h"
	defaultRateWindow      = "15m"
	defaultRateMax         = 50
	defaultQuotesURL       = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,ethereum&vs_currencies=usd"
	defaultQuotesTimeout   = "5s"
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
)

var backends = []string{"file", "mongo", "graph", "sqlite"}

// Load reads configuration from the environment, applying defaults. When CONFIG_FILE
// names a file it is read first and environment variables override its values.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path taking precedence over CONFIG_FILE.
func LoadFile(path string) (Config, error) {
	v, err := newViper(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:              v.GetString("server_host"),
			MetricsEnabled:    v.GetBool("server_metrics_enabled"),
			AllowedOriginsCSV: v.GetString("server_allowed_origins"),
			StaticDir:         v.GetString("server_static_dir"),
			TrustProxy:        v.GetBool("server_trust_proxy"),
			MaxBodyBytes:      v.GetInt64("server_max_body_bytes"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("leads_backend"))),
			File:    FileConfig{Path: v.GetString("leads_file_path")},
			Mongo: MongoConfig{
				URI:        v.GetString("mongo_uri"),
				Database:   v.GetString("mongo_database"),
				Collection: v.GetString("mongo_collection"),
			},
			Graph: GraphConfig{
				URI:            v.GetString("graph_uri"),
				Database:       v.GetString("graph_database"),
				Username:       v.GetString("graph_username"),
				Password:       v.GetString("graph_password"),
				MaxConnections: v.GetInt("graph_max_connections"),
			},
			SQLite: SQLiteConfig{DSN: v.GetString("sqlite_dsn")},
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("jwt_secret"),
			ReadMode:  strings.ToLower(strings.TrimSpace(v.GetString("auth_read_mode"))),
		},
		RateLimit: RateLimitConfig{
			Max: v.GetInt("rate_limit_max"),
		},
		Quotes: QuotesConfig{
			URL: v.GetString("quotes_url"),
		},
		Logging: LoggingConfig{
			Level:         v.GetString("log_level"),
			Format:        v.GetString("log_format"),
			IncludeCaller: v.GetBool("log_include_caller"),
		},
	}

	port, err := parsePort(v, "server_port")
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"server_read_timeout", &cfg.HTTP.ReadTimeout},
		{"server_write_timeout", &cfg.HTTP.WriteTimeout},
		{"server_idle_timeout", &cfg.HTTP.IdleTimeout},
		{"server_shutdown_timeout", &cfg.HTTP.ShutdownTimeout},
		{"mongo_connect_timeout", &cfg.Storage.Mongo.ConnectTimeout},
		{"auth_token_ttl", &cfg.Auth.TokenTTL},
		{"rate_limit_window", &cfg.RateLimit.Window},
		{"quotes_timeout", &cfg.Quotes.Timeout},
	}
	for _, d := range durations {
		parsed, err := parseDuration(v, d.key)
		if err != nil {
			return Config{}, err
		}
		*d.dst = parsed
	}

	if cfg.Auth.ReadMode == "" {
		cfg.Auth.ReadMode = AuthModeOff
		if cfg.Auth.JWTSecret != "" {
			cfg.Auth.ReadMode = AuthModeRequired
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server_host", defaultHost)
	v.SetDefault("server_port", defaultPort)
	v.SetDefault("server_read_timeout", defaultReadTimeout)
	v.SetDefault("server_write_timeout", defaultWriteTimeout)
	v.SetDefault("server_idle_timeout", defaultIdleTimeout)
	v.SetDefault("server_shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server_metrics_enabled", true)
	v.SetDefault("server_allowed_origins", defaultAllowedOrigins)
	v.SetDefault("server_trust_proxy", false)
	v.SetDefault("server_max_body_bytes", defaultMaxBodyBytes)
	v.SetDefault("leads_backend", defaultBackend)
	v.SetDefault("leads_file_path", defaultLeadsFile)
	v.SetDefault("mongo_database", defaultMongoDatabase)
	v.SetDefault("mongo_collection", defaultMongoCollection)
	v.SetDefault("mongo_connect_timeout", defaultMongoTimeout)
	v.SetDefault("graph_max_connections", defaultGraphMaxConns)
	v.SetDefault("sqlite_dsn", defaultSQLiteDSN)
	v.SetDefault("auth_token_ttl", defaultTokenTTL)
	v.SetDefault("rate_limit_window", defaultRateWindow)
	v.SetDefault("rate_limit_max", defaultRateMax)
	v.SetDefault("quotes_url", defaultQuotesURL)
	v.SetDefault("quotes_timeout", defaultQuotesTimeout)
	v.SetDefault("log_level", defaultLoggingLevel)
	v.SetDefault("log_format", defaultLoggingFormat)
	v.SetDefault("log_include_caller", false)

	v.AutomaticEnv()
	// Hosting platforms commonly inject PORT.
	if err := v.BindEnv("server_port", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}
	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("bind config file env: %w", err)
	}

	if path = strings.TrimSpace(path); path == "" {
		path = strings.TrimSpace(v.GetString("config_file"))
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return v, nil
}

func (c Config) validate() error {
	var errs []error

	if !slices.Contains(backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("invalid LEADS_BACKEND %q (want one of %s)", c.Storage.Backend, strings.Join(backends, ", ")))
	}
	switch c.Storage.Backend {
	case "file":
		if strings.TrimSpace(c.Storage.File.Path) == "" {
			errs = append(errs, errors.New("LEADS_FILE_PATH is required for the file backend"))
		}
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo backend"))
		}
	case "graph":
		if c.Storage.Graph.URI == "" {
			errs = append(errs, errors.New("GRAPH_URI is required for the graph backend"))
		}
	}

	switch c.Auth.ReadMode {
	case AuthModeOff:
	case AuthModeOptional, AuthModeRequired:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, fmt.Errorf("JWT_SECRET is required when AUTH_READ_MODE is %s", c.Auth.ReadMode))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid AUTH_READ_MODE %q", c.Auth.ReadMode))
	}

	if c.RateLimit.Max <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimit.Max))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("SERVER_MAX_BODY_BYTES must be positive, got %d", c.HTTP.MaxBodyBytes))
	}
	return errors.Join(errs...)
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}
	return d, nil
}

func parsePort(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), raw, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d is out of range", port)
	}
	return port, nil
}
