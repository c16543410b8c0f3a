package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/config"
	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/logging"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// appLog is the diagnostics logger, set during PersistentPreRunE.
var appLog = zerolog.Nop() //nolint:gochecknoglobals // standard Cobra pattern for shared config

// environ replaces the process environment when non-nil.
var environ map[string]string //nolint:gochecknoglobals // test seam

// rootCmd is the base command for the cannaspot CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "cannaspot",
	Version: version,
	Short:   "CannaSpot schema, operator and signaling toolkit",
	Long: `cannaspot keeps the CannaSpot database schema in line with the application
model, seeds a fresh install, runs operator maintenance tasks and serves the
WebRTC signaling relay.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	pf := rootCmd.PersistentFlags()
	pf.String("config", config.DefaultConfigFile, "path to configuration file")
	pf.String("env-file", config.DefaultEnvFile, "path to .env file")
	pf.String("database-url", "", "database URL (sqlite:///path or postgres://...)")
	pf.String("format", "", "output format (text, json)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newPlanCmd(),
		newStatusCmd(),
		newBootstrapCmd(),
		newServeCmd(),
		newResetPasswordCmd(),
		newMakeAdminCmd(),
		newCreateUsersCmd(),
		newCheckCmd(),
		newResetForInstallCmd(),
		newSetupEmailCmd(),
		newTestEmailCmd(),
		newTokenCmd(),
	)
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// loadConfig loads configuration with precedence: flag > env > .env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Resolve(config.Sources{
		File:         configPath,
		FileRequired: cmd.Flags().Changed("config"),
		EnvFile:      envFile,
		Environ:      environ,
	})
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mergeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	AppConfig = cfg
	appLog = log

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	for name, dst := range map[string]*string{
		"database-url": &cfg.DatabaseURL,
		"format":       &cfg.Format,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
}

// commandContext returns the command's context, which is nil when a RunE
// is invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// openDB connects to the configured database.
func openDB(ctx context.Context) (*database.DB, error) {
	if AppConfig.DatabaseURL == "" {
		return nil, errDatabaseURLRequired
	}

	log := logging.Component(appLog, "database")
	log.Debug().Str("url", config.RedactURL(AppConfig.DatabaseURL)).Msg("connecting")

	db, err := database.Open(ctx, AppConfig.DatabaseURL)
	if err != nil {
		if errors.Is(err, database.ErrInvalidDatabaseURL) {
			return nil, err
		}

		return nil, fmt.Errorf("connecting to %s: %w", config.RedactURL(AppConfig.DatabaseURL), err)
	}

	log.Info().Str("engine", string(db.Target.Engine)).Msg("connected")

	return db, nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		appLog.Warn().Err(err).Msg("closing database")
	}
}

func jsonOutput() bool {
	return AppConfig != nil && AppConfig.Format == "json"
}
