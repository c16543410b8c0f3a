// Package config resolves settings from defaults, a YAML file, a .env file,
// the environment and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/davebowl/Canna-spot-mobile/internal/mail"
)

// Default values for configuration fields.
const (
	DefaultDatabaseURL      = "sqlite:///cannaspot.db"
	DefaultConfigFile       = "cannaspot.yml"
	DefaultEnvFile          = ".env"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultTargetPGVersion  = 14
	DefaultFormat           = "text"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultUploadDir        = "./uploads"
	DefaultBackupDir        = "./backups"
	DefaultHTTPAddr         = ":5000"
	DefaultSMTPPort         = 587
	DefaultParticipantTTL   = 30 * time.Second
	DefaultSignalTTL        = 5 * time.Minute
	DefaultPruneInterval    = time.Minute
)

// RTC holds the signaling relay expiry policy.
type RTC struct {
	ParticipantTTL time.Duration `env:"RTC_PARTICIPANT_TTL"`
	SignalTTL      time.Duration `env:"RTC_SIGNAL_TTL"`
	PruneInterval  time.Duration `env:"RTC_PRUNE_INTERVAL"`
}

// Config holds the application configuration.
type Config struct {
	DatabaseURL      string        `env:"DATABASE_URL"`
	SecretKey        string        `env:"SECRET_KEY"`
	UploadDir        string        `env:"UPLOAD_DIR"`
	BackupDir        string        `env:"BACKUP_DIR"`
	HTTPAddr         string        `env:"HTTP_ADDR"`
	LockTimeout      time.Duration `env:"LOCK_TIMEOUT"`
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT"`
	TargetPGVersion  int           `env:"TARGET_PG_VERSION"`
	Format           string        `env:"FORMAT"`
	LogLevel         string        `env:"LOG_LEVEL"`
	LogFormat        string        `env:"LOG_FORMAT"`
	SMTP             mail.Settings
	RTC              RTC
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL      string         `yaml:"database_url"`
	SecretKey        string         `yaml:"secret_key"`
	UploadDir        string         `yaml:"upload_dir"`
	BackupDir        string         `yaml:"backup_dir"`
	HTTPAddr         string         `yaml:"http_addr"`
	LockTimeout      string         `yaml:"lock_timeout"`
	StatementTimeout string         `yaml:"statement_timeout"`
	TargetPGVersion  int            `yaml:"target_pg_version"`
	Format           string         `yaml:"format"`
	LogLevel         string         `yaml:"log_level"`
	LogFormat        string         `yaml:"log_format"`
	SMTP             *mail.Settings `yaml:"smtp"`
	RTC              struct {
		ParticipantTTL string `yaml:"participant_ttl"`
		SignalTTL      string `yaml:"signal_ttl"`
		PruneInterval  string `yaml:"prune_interval"`
	} `yaml:"rtc"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		DatabaseURL:      DefaultDatabaseURL,
		UploadDir:        DefaultUploadDir,
		BackupDir:        DefaultBackupDir,
		HTTPAddr:         DefaultHTTPAddr,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		TargetPGVersion:  DefaultTargetPGVersion,
		Format:           DefaultFormat,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		SMTP:             mail.Settings{Port: DefaultSMTPPort, UseTLS: true},
		RTC: RTC{
			ParticipantTTL: DefaultParticipantTTL,
			SignalTTL:      DefaultSignalTTL,
			PruneInterval:  DefaultPruneInterval,
		},
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", name, v, err)
	}

	*dst = d

	return nil
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.SecretKey, raw.SecretKey)
	setString(&cfg.UploadDir, raw.UploadDir)
	setString(&cfg.BackupDir, raw.BackupDir)
	setString(&cfg.HTTPAddr, raw.HTTPAddr)
	setString(&cfg.Format, raw.Format)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)

	if raw.TargetPGVersion != 0 {
		cfg.TargetPGVersion = raw.TargetPGVersion
	}

	if raw.SMTP != nil {
		cfg.SMTP = *raw.SMTP
		if cfg.SMTP.Port == 0 {
			cfg.SMTP.Port = DefaultSMTPPort
		}
	}

	for _, d := range []struct {
		dst  *time.Duration
		name string
		v    string
	}{
		{&cfg.LockTimeout, "lock_timeout", raw.LockTimeout},
		{&cfg.StatementTimeout, "statement_timeout", raw.StatementTimeout},
		{&cfg.RTC.ParticipantTTL, "rtc.participant_ttl", raw.RTC.ParticipantTTL},
		{&cfg.RTC.SignalTTL, "rtc.signal_ttl", raw.RTC.SignalTTL},
		{&cfg.RTC.PruneInterval, "rtc.prune_interval", raw.RTC.PruneInterval},
	} {
		if err := setDuration(d.dst, d.name, d.v); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// MergeEnv overrides config fields from the given environment. Variables
// that are unset leave the field alone; malformed values are errors.
func MergeEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	return nil
}

// Sources names where Resolve looks for settings.
type Sources struct {
	// File is the YAML config path. A missing file is an error only when
	// FileRequired is set.
	File         string
	FileRequired bool
	// EnvFile is a .env file. Its values never override the real environment.
	EnvFile string
	// Environ replaces the process environment, for tests.
	Environ map[string]string
}

// Resolve applies defaults, the YAML file, the .env file and the environment
// in increasing order of precedence. Flags are applied by the caller.
func Resolve(src Sources) (*Config, error) {
	path := src.File
	if path == "" {
		path = DefaultConfigFile
	}

	cfg, err := Load(path, !src.FileRequired)
	if err != nil {
		return nil, err
	}

	environ := src.Environ
	if environ == nil {
		environ = osEnviron()
	}

	if src.EnvFile != "" {
		dotenv, err := godotenv.Read(src.EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", src.EnvFile, err)
		}

		merged := make(map[string]string, len(dotenv)+len(environ))
		for k, v := range dotenv {
			merged[k] = v
		}

		for k, v := range environ {
			merged[k] = v
		}

		environ = merged
	}

	if err := MergeEnv(cfg, environ); err != nil {
		return nil, err
	}

	return cfg, nil
}

func osEnviron() map[string]string {
	out := make(map[string]string)

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}

	return out
}

// Validate checks values that are only known to be wrong once every source
// has been applied.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (want text or json)", c.Format)
	}

	if c.LockTimeout < 0 || c.StatementTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}

	if c.RTC.PruneInterval <= 0 {
		return errors.New("rtc prune interval must be positive")
	}

	return nil
}

// Secret returns the signing key for relay tokens.
func (c *Config) Secret() ([]byte, error) {
	if c.SecretKey == "" || c.SecretKey == mail.PlaceholderSecret {
		return nil, errors.New("SECRET_KEY is not set (run setup-email or set it in .env)")
	}

	return []byte(c.SecretKey), nil
}
