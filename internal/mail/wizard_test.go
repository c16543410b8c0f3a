package mail_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/mail"
)

func runWizard(t *testing.T, answers ...string) (mail.Provider, mail.Settings, string, error) {
	t.Helper()

	var out bytes.Buffer

	p, s, err := mail.NewWizard(strings.NewReader(strings.Join(answers, "\n")+"\n"), &out).Run()

	return p, s, out.String(), err
}

func TestWizard_gmail(t *testing.T) {
	t.Parallel()

	p, s, out, err := runWizard(t, "1", "y", "me@gmail.com", "abcd efgh ijkl mnop")
	require.NoError(t, err)
	assert.Equal(t, mail.Gmail, p)
	assert.Equal(t, mail.Settings{
		Host: "smtp.gmail.com", Port: 587, User: "me@gmail.com", Pass: "abcdefghijklmnop",
		From: "CannaSpot <me@gmail.com>", UseTLS: true,
	}, s)
	assert.NotContains(t, out, "Warning")
}

func TestWizard_gmailShortPasswordWarns(t *testing.T) {
	t.Parallel()

	_, s, out, err := runWizard(t, "1", "y", "me@gmail.com", "short")
	require.NoError(t, err)
	assert.Equal(t, "short", s.Pass)
	assert.Contains(t, out, "you entered 5")
}

func TestWizard_gmailDeclined(t *testing.T) {
	t.Parallel()

	_, _, _, err := runWizard(t, "1", "")
	require.ErrorIs(t, err, mail.ErrCancelled)
}

func TestWizard_customPorts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		answers []string
		want    mail.Settings
	}{
		{
			name:    "web host on 465 uses SSL",
			answers: []string{"3", "1", "", "465", "noreply@example.org", "pw"},
			want: mail.Settings{
				Host: "localhost", Port: 465, User: "noreply@example.org", Pass: "pw",
				From: "CannaSpot <noreply@example.org>", UseSSL: true,
			},
		},
		{
			name:    "other server defaults to 587 with TLS",
			answers: []string{"3", "2", "smtp.example.org", "", "a@example.org", "pw"},
			want: mail.Settings{
				Host: "smtp.example.org", Port: 587, User: "a@example.org", Pass: "pw",
				From: "CannaSpot <a@example.org>", UseTLS: true,
			},
		},
		{
			name:    "other port uses neither",
			answers: []string{"3", "2", "smtp.example.org", "2525", "a@example.org", "pw"},
			want: mail.Settings{
				Host: "smtp.example.org", Port: 2525, User: "a@example.org", Pass: "pw",
				From: "CannaSpot <a@example.org>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, s, _, err := runWizard(t, tt.answers...)
			require.NoError(t, err)
			assert.Equal(t, mail.Custom, p)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestWizard_skipAndInvalid(t *testing.T) {
	t.Parallel()

	p, s, _, err := runWizard(t, "4")
	require.NoError(t, err)
	assert.Equal(t, mail.Skip, p)
	assert.False(t, s.Configured())
	assert.Equal(t, mail.DefaultFrom, s.From)

	_, _, _, err = runWizard(t, "9")
	require.ErrorIs(t, err, mail.ErrCancelled)
}
