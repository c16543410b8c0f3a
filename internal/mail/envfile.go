package mail

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// PlaceholderSecret is the development secret shipped in .env.example.
	PlaceholderSecret = "dev-secret-change-this-in-production"
	defaultDatabase   = "sqlite:///cannaspot.db"
	secretBytes       = 32
)

// ReadEnvFile returns the keys of an existing .env file, or nil when the
// file does not exist.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return env, nil
}

// ResolveSecretKey keeps an existing real SECRET_KEY and otherwise
// generates a new random one.
func ResolveSecretKey(existing map[string]string) (string, error) {
	if k := existing["SECRET_KEY"]; k != "" && k != PlaceholderSecret {
		return k, nil
	}

	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret key: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// WriteEnvFile writes the SMTP settings and secret to path. Other keys of an
// existing file are preserved, SMTP_* and SECRET_KEY are replaced. When the
// file exists confirmOverwrite is asked first; a false answer leaves the file
// alone and returns false.
func WriteEnvFile(path string, s Settings, secret string, confirmOverwrite func() bool) (bool, error) {
	existing, err := ReadEnvFile(path)
	if err != nil {
		return false, err
	}

	if existing != nil && confirmOverwrite != nil && !confirmOverwrite() {
		return false, nil
	}

	env := make(map[string]string, len(existing)+9) //nolint:mnd // smtp keys + secret + database

	for k, v := range existing {
		if strings.HasPrefix(k, "SMTP_") || k == "SECRET_KEY" {
			continue
		}

		env[k] = v
	}

	if env["DATABASE_URL"] == "" {
		env["DATABASE_URL"] = defaultDatabase
	}

	for k, v := range s.Env() {
		env[k] = v
	}

	env["SECRET_KEY"] = secret

	if err := godotenv.Write(env, path); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}

	if err := os.Chmod(path, 0o600); err != nil { //nolint:mnd // secrets file
		return true, fmt.Errorf("restricting %s: %w", path, err)
	}

	return true, nil
}
