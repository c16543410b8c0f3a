package mail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	submissionPort = 587
	implicitTLS    = 465
	appPasswordLen = 16
)

// ErrCancelled is returned when the operator backs out of the wizard.
var ErrCancelled = errors.New("email setup cancelled")

// Provider is the menu choice made in the wizard.
type Provider string

// Menu entries.
const (
	Gmail   Provider = "gmail"
	Outlook Provider = "outlook"
	Custom  Provider = "custom"
	Skip    Provider = "skip"
)

// Wizard asks for SMTP settings on an interactive terminal.
type Wizard struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewWizard creates a wizard reading answers from in and prompting on out.
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{in: bufio.NewScanner(in), out: out}
}

// Run shows the provider menu and collects settings for the chosen one.
func (w *Wizard) Run() (Provider, Settings, error) {
	w.say("Choose your email provider:")
	w.say("  1. Gmail (development only)")
	w.say("  2. Outlook / Hotmail (development only)")
	w.say("  3. Production SMTP (SendGrid, Mailgun, SES, web host)")
	w.say("  4. Skip (email features will not work)")

	switch w.ask("Your choice (1-4)", "") {
	case "1":
		s, err := w.gmail()

		return Gmail, s, err
	case "2":
		return Outlook, w.outlook(), nil
	case "3":
		return Custom, w.custom(), nil
	case "4":
		return Skip, Settings{Port: submissionPort, From: DefaultFrom, UseTLS: true}, nil
	default:
		return "", Settings{}, fmt.Errorf("%w: invalid choice", ErrCancelled)
	}
}

func (w *Wizard) gmail() (Settings, error) {
	w.say("Gmail is not recommended for production: roughly 500 emails a day,")
	w.say("an App Password is required and the account may be suspended.")

	if !strings.EqualFold(w.ask("Continue with Gmail anyway? (y/N)", "n"), "y") {
		return Settings{}, ErrCancelled
	}

	w.say("Create an App Password at https://myaccount.google.com/apppasswords")

	email := w.ask("Gmail address", "")
	pass := strings.ReplaceAll(w.ask("App Password (16 chars, no spaces)", ""), " ", "")

	if len(pass) != appPasswordLen {
		w.say(fmt.Sprintf("Warning: App Password should be 16 characters (you entered %d)", len(pass)))
	}

	return Settings{
		Host: "smtp.gmail.com", Port: submissionPort,
		User: email, Pass: pass, From: senderFor(email), UseTLS: true,
	}, nil
}

func (w *Wizard) outlook() Settings {
	email := w.ask("Outlook/Hotmail address", "")
	pass := w.ask("Password", "")

	return Settings{
		Host: "smtp-mail.outlook.com", Port: submissionPort,
		User: email, Pass: pass, From: senderFor(email), UseTLS: true,
	}
}

func (w *Wizard) custom() Settings {
	w.say("  1. Web host email (cPanel, DirectAdmin, Plesk)")
	w.say("  2. Other SMTP server")

	var host string

	if w.ask("Your choice (1-2)", "2") == "1" {
		w.say("Web hosts usually accept 'localhost' or 'mail.yourdomain.com' on 587 (TLS) or 465 (SSL).")
		host = w.ask("SMTP host", "localhost")
	} else {
		host = w.ask("SMTP host (e.g. smtp.example.com)", "")
	}

	port, err := strconv.Atoi(w.ask("SMTP port (587 or 465)", strconv.Itoa(submissionPort)))
	if err != nil {
		port = submissionPort
	}

	email := w.ask("Email address", "")
	pass := w.ask("Password", "")

	return Settings{
		Host: host, Port: port, User: email, Pass: pass, From: senderFor(email),
		UseTLS: port == submissionPort,
		UseSSL: port == implicitTLS,
	}
}

// Confirm asks a yes/no question defaulting to no.
func (w *Wizard) Confirm(question string) bool {
	return strings.EqualFold(w.ask(question+" (y/N)", "n"), "y")
}

func (w *Wizard) say(line string) {
	_, _ = fmt.Fprintln(w.out, line)
}

// ask prompts and returns the trimmed answer, or def on an empty answer or EOF.
func (w *Wizard) ask(prompt, def string) string {
	_, _ = fmt.Fprintf(w.out, "%s: ", prompt)

	if !w.in.Scan() {
		return def
	}

	if answer := strings.TrimSpace(w.in.Text()); answer != "" {
		return answer
	}

	return def
}
