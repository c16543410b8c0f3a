package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/mail"
)

func newSetupEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-email",
		Short: "Configure SMTP settings interactively",
		Long: `Walk through choosing an email provider and write the SMTP_* settings and
a SECRET_KEY to the .env file. Other keys already in the file are kept.`,
		Args: cobra.NoArgs,
		RunE: runSetupEmail,
	}
}

func newTestEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-email <to>",
		Short: "Send a test message with the configured SMTP settings",
		Args:  usageArgs(1, 1),
		RunE:  runTestEmail,
	}
}

func runSetupEmail(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path, _ := cmd.Flags().GetString("env-file")

	w := mail.NewWizard(cmd.InOrStdin(), out)

	provider, settings, err := w.Run()
	if errors.Is(err, mail.ErrCancelled) {
		fmt.Fprintln(out, "Setup cancelled, nothing written.")

		return nil
	}

	if err != nil {
		return err
	}

	if provider == mail.Skip {
		fmt.Fprintln(out, "Skipping email setup. Password resets and notifications will not be sent.")
	}

	existing, err := mail.ReadEnvFile(path)
	if err != nil {
		return err
	}

	secret, err := mail.ResolveSecretKey(existing)
	if err != nil {
		return err
	}

	written, err := mail.WriteEnvFile(path, settings, secret, func() bool {
		return w.Confirm(path + " already exists. Update its email settings?")
	})
	if err != nil {
		return err
	}

	if !written {
		fmt.Fprintf(out, "%s left unchanged.\n", path)

		return nil
	}

	fmt.Fprintf(out, "Wrote %s settings to %s.\n", provider, path)

	if settings.Configured() {
		fmt.Fprintln(out, "Send a test message with: cannaspot test-email <address>")
	}

	return nil
}

func runTestEmail(cmd *cobra.Command, args []string) error {
	s := AppConfig.SMTP
	if !s.Configured() {
		return fmt.Errorf("%w (run setup-email)", mail.ErrNotConfigured)
	}

	appLog.Info().Str("host", s.Host).Int("port", s.Port).Bool("ssl", s.UseSSL).Bool("tls", s.UseTLS).
		Msg("sending test email")

	if err := mail.Send(commandContext(cmd), s, mail.TestMessage(args[0])); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Test email sent to %s.\n", args[0])

	return nil
}
