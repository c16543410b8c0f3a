package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/davebowl/Canna-spot-mobile/internal/api"
	"github.com/davebowl/Canna-spot-mobile/internal/bootstrap"
	"github.com/davebowl/Canna-spot-mobile/internal/config"
	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/logging"
	"github.com/davebowl/Canna-spot-mobile/internal/reconcile"
	"github.com/davebowl/Canna-spot-mobile/internal/rtc"
)

const (
	shutdownGrace   = 10 * time.Second
	defaultLockWait = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the signaling relay HTTP server",
		Long: `Bootstrap the database, then serve the WebRTC signaling relay, health
check and metrics until interrupted. Expired participants and signals are
pruned in the background.

When another process holds the schema lock (a second replica starting, or an
operator running migrate) serve waits up to --lock-wait, then starts without
touching the schema.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from HTTP_ADDR)")
	cmd.Flags().Bool("migrate", false, "reconcile the schema before serving")
	cmd.Flags().Duration("lock-wait", defaultLockWait, "how long to wait for a busy schema lock")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cmd.Flags().Changed("addr") {
		cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
	}

	secret, err := cfg.Secret()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	lockWait, _ := cmd.Flags().GetDuration("lock-wait")

	boot, err := runBootstrapOn(ctx, db, bootstrap.Options{Seed: true, LockWait: lockWait, SkipIfLocked: true})
	if err != nil {
		return fmt.Errorf("bootstrapping: %w", err)
	}

	if m, _ := cmd.Flags().GetBool("migrate"); m && !boot.LockBusy {
		if err := migrateForServe(ctx, db, cfg); err != nil {
			return err
		}
	}

	store := rtc.NewStore(db)
	srv := api.NewServer(db, store, api.Options{
		Addr:       cfg.HTTPAddr,
		Secret:     secret,
		StaleAfter: cfg.RTC.ParticipantTTL,
	}, logging.Component(appLog, "http"))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rtc.RunPruner(gctx, store, rtc.PruneConfig{
			Interval:       cfg.RTC.PruneInterval,
			ParticipantTTL: cfg.RTC.ParticipantTTL,
			SignalTTL:      cfg.RTC.SignalTTL,
		}, logging.Component(appLog, "rtc"))

		return nil
	})

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownGrace)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// migrateForServe reconciles before serving. Losing the lock race to another
// process is not fatal since that process is reconciling the same catalog.
func migrateForServe(ctx context.Context, db *database.DB, cfg *config.Config) error {
	res, err := newReconciler(db, cfg).Run(ctx, reconcile.Options{
		Lint:             true,
		LockTimeout:      cfg.LockTimeout,
		StatementTimeout: cfg.StatementTimeout,
	})
	if errors.Is(err, database.ErrLockNotAcquired) {
		appLog.Warn().Msg("schema lock busy, serving without reconciling")

		return nil
	}

	if err != nil {
		return fmt.Errorf("reconciling: %w", err)
	}

	if res.Partial() {
		appLog.Warn().Int("failed", len(res.Report.Failed())).Msg("serving with a partially reconciled schema")
	}

	return nil
}
