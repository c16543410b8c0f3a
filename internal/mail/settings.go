// Package mail configures and exercises outgoing SMTP.
package mail

import (
	"errors"
	"net"
	"strconv"
)

// DefaultFrom is the sender used when email is left unconfigured.
const DefaultFrom = "CannaSpot <noreply@cannaspot.local>"

// ErrNotConfigured is returned by Send when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp is not configured")

// Settings are the SMTP_* values. UseSSL means implicit TLS from the first
// byte (port 465); UseTLS means STARTTLS after connecting.
type Settings struct {
	Host   string `env:"SMTP_HOST"    yaml:"host"`
	Port   int    `env:"SMTP_PORT"    yaml:"port"`
	User   string `env:"SMTP_USER"    yaml:"user"`
	Pass   string `env:"SMTP_PASS"    yaml:"pass"`
	From   string `env:"SMTP_FROM"    yaml:"from"`
	UseTLS bool   `env:"SMTP_USE_TLS" yaml:"use_tls"`
	UseSSL bool   `env:"SMTP_USE_SSL" yaml:"use_ssl"`
}

// Configured reports whether a host is set.
func (s Settings) Configured() bool {
	return s.Host != ""
}

// Addr returns host:port.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Env renders the settings as .env keys.
func (s Settings) Env() map[string]string {
	return map[string]string{
		"SMTP_HOST":    s.Host,
		"SMTP_PORT":    strconv.Itoa(s.Port),
		"SMTP_USER":    s.User,
		"SMTP_PASS":    s.Pass,
		"SMTP_FROM":    s.From,
		"SMTP_USE_TLS": strconv.FormatBool(s.UseTLS),
		"SMTP_USE_SSL": strconv.FormatBool(s.UseSSL),
	}
}

func senderFor(email string) string {
	return "CannaSpot <" + email + ">"
}
