package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"net/smtp"
	"net/textproto"
	"time"
)

// Message is a plain-text email with an optional HTML alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// TestMessage is the message sent by the test-email command.
func TestMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "CannaSpot Email Test",
		Text:    "This is a test email from CannaSpot.\n\nIf you received this, your SMTP configuration is working correctly!",
		HTML: `<html><body style="font-family: Arial, sans-serif; padding: 20px;">
<h1 style="color: #4CAF50;">Email Test Successful!</h1>
<p>This is a test email from CannaSpot.</p>
<p>If you received this, your SMTP configuration is working correctly!</p>
</body></html>`,
	}
}

// Send delivers msg through the configured server.
func Send(ctx context.Context, s Settings, msg Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	from, err := netmail.ParseAddress(s.From)
	if err != nil {
		return fmt.Errorf("parsing SMTP_FROM: %w", err)
	}

	to, err := netmail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("parsing recipient: %w", err)
	}

	body, err := compose(from, to, msg, time.Now())
	if err != nil {
		return err
	}

	c, err := dial(ctx, s)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", s.Addr(), err)
	}
	defer c.Close()

	if s.UseTLS && !s.UseSSL {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
			return fmt.Errorf("authenticating as %s: %w", s.User, err)
		}
	}

	if err := c.Mail(from.Address); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}

	if err := c.Rcpt(to.Address); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}

	return c.Quit()
}

func dial(ctx context.Context, s Settings) (*smtp.Client, error) {
	d := &net.Dialer{Timeout: 30 * time.Second} //nolint:mnd // connect timeout

	var (
		conn net.Conn
		err  error
	)

	if s.UseSSL {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}}
		conn, err = td.DialContext(ctx, "tcp", s.Addr())
	} else {
		conn, err = d.DialContext(ctx, "tcp", s.Addr())
	}

	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	return c, nil
}

// compose renders a MIME message, multipart/alternative when HTML is set.
func compose(from, to *netmail.Address, msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.Text)

		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, fmt.Errorf("composing message: %w", err)
		}

		if _, err := pw.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("composing message: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("composing message: %w", err)
	}

	return buf.Bytes(), nil
}
