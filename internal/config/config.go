package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/formstore/internal/errors"
	"github.com/vango-dev/formstore/pkg/ingest"
	"github.com/vango-dev/formstore/pkg/server"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "FORMSTORE"

	// DotEnvFile is loaded into the environment when present.
	DotEnvFile = ".env"
)

// Storage backends.
const (
	BackendDisk  = "disk"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Config is the complete formstore configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Ingest   IngestConfig   `mapstructure:"ingest" yaml:"ingest"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Policies []PolicyConfig `mapstructure:"policies" yaml:"policies,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxRequestBytes int64         `mapstructure:"max_request_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MarshalYAML renders durations in their string form.
func (s ServerConfig) MarshalYAML() (any, error) {
	return struct {
		Addr            string `yaml:"addr"`
		MaxRequestBytes int64  `yaml:"max_request_bytes"`
		ReadTimeout     string `yaml:"read_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	}{s.Addr, s.MaxRequestBytes, s.ReadTimeout.String(), s.ShutdownTimeout.String()}, nil
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
}

// IngestConfig contains pipeline limits.
type IngestConfig struct {
	MaxPartBytes  int64 `mapstructure:"max_part_bytes" yaml:"max_part_bytes"`
	MaxFieldBytes int64 `mapstructure:"max_field_bytes" yaml:"max_field_bytes"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Dirs    DirsConfig  `mapstructure:"dirs" yaml:"dirs"`
	S3      S3Config    `mapstructure:"s3" yaml:"s3"`
	MinIO   MinIOConfig `mapstructure:"minio" yaml:"minio"`
}

// DirsConfig holds the base directory, or object key prefix, per category.
type DirsConfig struct {
	ProfileImage string `mapstructure:"profile_image" yaml:"profile_image"`
	TeamImage    string `mapstructure:"team_image" yaml:"team_image"`
	Video        string `mapstructure:"video" yaml:"video"`
}

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
}

// MinIOConfig configures the MinIO backend.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// PolicyConfig is the file form of an ingest.Policy.
type PolicyConfig struct {
	Field        string   `mapstructure:"field" yaml:"field"`
	Category     string   `mapstructure:"category" yaml:"category"`
	AllowedTypes []string `mapstructure:"allowed_types" yaml:"allowed_types"`
}

// defaults lists every key with its default value. Keys must be known to
// viper for environment overrides to reach Unmarshal.
var defaults = map[string]any{
	"server.addr":              ":8080",
	"server.max_request_bytes": int64(64 << 20),
	"server.read_timeout":      60 * time.Second,
	"server.shutdown_timeout":  15 * time.Second,

	"log.level":  "info",
	"log.format": "text",

	"ingest.max_part_bytes":  ingest.DefaultMaxPartBytes,
	"ingest.max_field_bytes": ingest.DefaultMaxFieldBytes,

	"storage.backend":            BackendDisk,
	"storage.dirs.profile_image": "storage/images/profile",
	"storage.dirs.team_image":    "storage/images/teams",
	"storage.dirs.video":         "storage/videos",

	"storage.s3.bucket":     "",
	"storage.s3.region":     "us-east-1",
	"storage.s3.endpoint":   "",
	"storage.s3.access_key": "",
	"storage.s3.secret_key": "",
	"storage.s3.path_style": false,

	"storage.minio.endpoint":   "",
	"storage.minio.bucket":     "",
	"storage.minio.region":     "",
	"storage.minio.access_key": "",
	"storage.minio.secret_key": "",
	"storage.minio.use_ssl":    false,
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	dotEnv string
}

// WithDotEnv sets the .env file to load. An empty path disables it.
func WithDotEnv(path string) LoadOption {
	return func(o *loadOptions) {
		o.dotEnv = path
	}
}

// New returns a Config holding only the defaults.
func New() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the environment, the optional file at
// path and the defaults, then validates it.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{dotEnv: DotEnvFile}
	for _, opt := range opts {
		opt(&o)
	}

	if o.dotEnv != "" {
		if _, err := os.Stat(o.dotEnv); err == nil {
			if err := godotenv.Load(o.dotEnv); err != nil {
				return nil, errors.New("E101").
					WithDetailf("failed to load %s", o.dotEnv).
					WithLocationFromError(o.dotEnv, err).
					Wrap(err)
			}
		}
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil, errors.New("E100").WithDetail(path)
			}
			return nil, errors.New("E101").
				WithDetailf("failed to parse %s", path).
				WithLocationFromError(path, err).
				Wrap(err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, errors.New("E101").WithDetail("failed to decode settings").Wrap(err)
	}
	cfg.configPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks the configuration and reports the first problem found.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("E102").WithDetail("server.addr must not be empty")
	}
	if c.Server.MaxRequestBytes <= 0 {
		return errors.New("E102").WithDetailf("server.max_request_bytes must be positive, got %d", c.Server.MaxRequestBytes)
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("E102").WithDetailf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("E102").WithDetailf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return errors.New("E102").WithDetail(err.Error()).WithSuggestion("Use one of: debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("E102").WithDetailf("log.format %q is not supported", c.Log.Format).WithSuggestion("Use text or json")
	}

	if c.Ingest.MaxPartBytes <= 0 {
		return errors.New("E102").WithDetailf("ingest.max_part_bytes must be positive, got %d", c.Ingest.MaxPartBytes)
	}
	if c.Ingest.MaxFieldBytes <= 0 {
		return errors.New("E102").WithDetailf("ingest.max_field_bytes must be positive, got %d", c.Ingest.MaxFieldBytes)
	}

	switch c.Storage.Backend {
	case BackendDisk:
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("E105").WithDetail("storage.s3.bucket is required for the s3 backend")
		}
	case BackendMinIO:
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return errors.New("E105").WithDetail("storage.minio.endpoint and storage.minio.bucket are required for the minio backend")
		}
	default:
		return errors.New("E103").WithDetailf("storage.backend is %q", c.Storage.Backend)
	}

	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

// Table builds the field policy table. An empty policy list yields the
// built-in table.
func (c *Config) Table() (*ingest.Table, error) {
	if len(c.Policies) == 0 {
		return ingest.DefaultTable(), nil
	}

	policies := make([]ingest.Policy, 0, len(c.Policies))
	for i, p := range c.Policies {
		category, err := ingest.ParseCategory(p.Category)
		if err != nil {
			return nil, errors.New("E104").WithDetailf("policies[%d] (%s): %v", i, p.Field, err)
		}
		policies = append(policies, ingest.Policy{
			Field:        p.Field,
			Category:     category,
			AllowedTypes: p.AllowedTypes,
		})
	}

	table, err := ingest.NewTable(policies...)
	if err != nil {
		return nil, errors.New("E104").WithDetail(err.Error())
	}
	return table, nil
}

// Directories returns the base directory per category. Categories with an
// empty directory are left out.
func (c *Config) Directories() map[ingest.Category]string {
	dirs := make(map[ingest.Category]string, 3)
	for category, dir := range map[ingest.Category]string{
		ingest.ProfileImage: c.Storage.Dirs.ProfileImage,
		ingest.TeamImage:    c.Storage.Dirs.TeamImage,
		ingest.Video:        c.Storage.Dirs.Video,
	} {
		if dir != "" {
			dirs[category] = dir
		}
	}
	return dirs
}

// PipelineConfig assembles the ingest pipeline settings.
func (c *Config) PipelineConfig() (ingest.Config, error) {
	table, err := c.Table()
	if err != nil {
		return ingest.Config{}, err
	}
	return ingest.Config{
		MaxPartBytes:  c.Ingest.MaxPartBytes,
		MaxFieldBytes: c.Ingest.MaxFieldBytes,
		Table:         table,
		Directories:   c.Directories(),
	}, nil
}

// HTTPServer assembles the HTTP server settings.
func (c *Config) HTTPServer() *server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = c.Server.Addr
	cfg.MaxRequestBytes = c.Server.MaxRequestBytes
	cfg.ReadTimeout = c.Server.ReadTimeout
	cfg.ShutdownTimeout = c.Server.ShutdownTimeout
	return cfg
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q is not supported", s)
	}
	return level, nil
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

const masked = "********"

func mask(s string) string {
	if s == "" {
		return ""
	}
	return masked
}

// Redacted returns a copy with credentials masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Storage.S3.AccessKey = mask(c.Storage.S3.AccessKey)
	out.Storage.S3.SecretKey = mask(c.Storage.S3.SecretKey)
	out.Storage.MinIO.AccessKey = mask(c.Storage.MinIO.AccessKey)
	out.Storage.MinIO.SecretKey = mask(c.Storage.MinIO.SecretKey)
	out.Policies = append([]PolicyConfig(nil), c.Policies...)
	return &out
}

// Dump renders the configuration as YAML with credentials masked.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

// String implements fmt.Stringer with credentials masked.
func (c *Config) String() string {
	data, err := c.Dump()
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
