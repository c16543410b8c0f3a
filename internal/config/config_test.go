package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/config"
)

func TestNew_returnsDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.New()

	assert.Equal(t, config.DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, config.DefaultUploadDir, cfg.UploadDir)
	assert.Equal(t, config.DefaultLockTimeout, cfg.LockTimeout)
	assert.Equal(t, config.DefaultStatementTimeout, cfg.StatementTimeout)
	assert.Equal(t, config.DefaultTargetPGVersion, cfg.TargetPGVersion)
	assert.Equal(t, config.DefaultFormat, cfg.Format)
	assert.Equal(t, config.DefaultSMTPPort, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.UseTLS)
	assert.Equal(t, config.DefaultSignalTTL, cfg.RTC.SignalTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		allowMissing bool
		writeFile    bool
		wantErr      bool
		errContains  string
		check        func(t *testing.T, cfg *config.Config)
	}{
		{
			name:      "valid file parses all fields",
			writeFile: true,
			content: `database_url: "postgres://localhost:5432/cannaspot"
upload_dir: "/srv/uploads"
lock_timeout: "10s"
statement_timeout: "1m"
target_pg_version: 15
format: "json"
smtp:
  host: smtp.gmail.com
  port: 465
  use_ssl: true
rtc:
  signal_ttl: "2m"
`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost:5432/cannaspot", cfg.DatabaseURL)
				assert.Equal(t, "/srv/uploads", cfg.UploadDir)
				assert.Equal(t, 10*time.Second, cfg.LockTimeout)
				assert.Equal(t, time.Minute, cfg.StatementTimeout)
				assert.Equal(t, 15, cfg.TargetPGVersion)
				assert.Equal(t, "json", cfg.Format)
				assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
				assert.Equal(t, 465, cfg.SMTP.Port)
				assert.True(t, cfg.SMTP.UseSSL)
				assert.Equal(t, 2*time.Minute, cfg.RTC.SignalTTL)
				assert.Equal(t, config.DefaultParticipantTTL, cfg.RTC.ParticipantTTL)
			},
		},
		{
			name:      "partial file applies defaults",
			writeFile: true,
			content:   `database_url: "postgres://localhost/mydb"`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost/mydb", cfg.DatabaseURL)
				assert.Equal(t, config.DefaultBackupDir, cfg.BackupDir)
				assert.Equal(t, config.DefaultLockTimeout, cfg.LockTimeout)
				assert.Equal(t, config.DefaultSMTPPort, cfg.SMTP.Port)
			},
		},
		{
			name:      "empty file returns defaults",
			writeFile: true,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.DefaultDatabaseURL, cfg.DatabaseURL)
			},
		},
		{
			name:         "missing file with allowMissing returns defaults",
			allowMissing: true,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.DefaultLockTimeout, cfg.LockTimeout)
			},
		},
		{
			name:        "missing file without allowMissing returns error",
			wantErr:     true,
			errContains: "reading config file",
		},
		{
			name:        "invalid YAML returns error",
			writeFile:   true,
			content:     "{{{invalid yaml",
			wantErr:     true,
			errContains: "parsing config file",
		},
		{
			name:        "invalid lock_timeout duration returns error",
			writeFile:   true,
			content:     `lock_timeout: "not-a-duration"`,
			wantErr:     true,
			errContains: "parsing lock_timeout",
		},
		{
			name:        "invalid rtc duration returns error",
			writeFile:   true,
			content:     "rtc:\n  prune_interval: soon\n",
			wantErr:     true,
			errContains: "parsing rtc.prune_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "cannaspot.yml")

			if tt.writeFile {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			cfg, err := config.Load(path, tt.allowMissing)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestMergeEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "overrides database URL",
			env:  map[string]string{"DATABASE_URL": "postgres://env-host/db"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://env-host/db", cfg.DatabaseURL)
			},
		},
		{
			name: "overrides timeouts",
			env:  map[string]string{"LOCK_TIMEOUT": "15s", "STATEMENT_TIMEOUT": "2m"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, 15*time.Second, cfg.LockTimeout)
				assert.Equal(t, 2*time.Minute, cfg.StatementTimeout)
			},
		},
		{
			name: "overrides nested smtp and rtc",
			env: map[string]string{
				"SMTP_HOST":           "smtp.office365.com",
				"SMTP_USE_TLS":        "false",
				"RTC_PARTICIPANT_TTL": "45s",
			},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "smtp.office365.com", cfg.SMTP.Host)
				assert.False(t, cfg.SMTP.UseTLS)
				assert.Equal(t, config.DefaultSMTPPort, cfg.SMTP.Port)
				assert.Equal(t, 45*time.Second, cfg.RTC.ParticipantTTL)
			},
		},
		{
			name:    "invalid duration is an error",
			env:     map[string]string{"LOCK_TIMEOUT": "not-valid"},
			wantErr: true,
		},
		{
			name: "unset env vars preserve original",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.DefaultDatabaseURL, cfg.DatabaseURL)
				assert.Equal(t, config.DefaultLockTimeout, cfg.LockTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.New()
			err := config.MergeEnv(cfg, tt.env)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestResolve_precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "cannaspot.yml")
	envFile := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(file, []byte(`database_url: "sqlite:///from-yaml.db"
upload_dir: "/yaml/uploads"
http_addr: ":7000"
`), 0o644))
	require.NoError(t, os.WriteFile(envFile, []byte(
		"UPLOAD_DIR=/dotenv/uploads\nHTTP_ADDR=:8000\nSECRET_KEY=abc123\n"), 0o600))

	cfg, err := config.Resolve(config.Sources{
		File:         file,
		FileRequired: true,
		EnvFile:      envFile,
		Environ:      map[string]string{"HTTP_ADDR": ":9000"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sqlite:///from-yaml.db", cfg.DatabaseURL)
	assert.Equal(t, "/dotenv/uploads", cfg.UploadDir)
	assert.Equal(t, ":9000", cfg.HTTPAddr)

	secret, err := cfg.Secret()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc123"), secret)
}

func TestResolve_missingSourcesUseDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := config.Resolve(config.Sources{
		File:    filepath.Join(dir, "absent.yml"),
		EnvFile: filepath.Join(dir, "absent.env"),
		Environ: map[string]string{},
	})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDatabaseURL, cfg.DatabaseURL)

	_, err = cfg.Secret()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.Format = "xml"
	require.ErrorContains(t, cfg.Validate(), "invalid format")

	cfg = config.New()
	cfg.RTC.PruneInterval = 0
	require.Error(t, cfg.Validate())
}
