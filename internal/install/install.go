// Package install returns a deployment to a pre-installation state: the
// SQLite database and uploaded files are backed up, then removed.
package install

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

const stampLayout = "20060102_150405"

// ErrNotSQLite is returned for database targets that are not a SQLite file.
var ErrNotSQLite = errors.New("reset-for-install only supports a SQLite database file")

// Options locates what to reset.
type Options struct {
	DatabaseURL string
	UploadDir   string
	BackupDir   string
	Now         func() time.Time
}

// sidecarSuffixes name the files SQLite keeps next to a database in
// rollback-journal and WAL mode.
var sidecarSuffixes = []string{"-journal", "-wal", "-shm"} //nolint:gochecknoglobals // constant list

// Backup records one copied database file. Sidecars lists the journal and
// WAL files copied next to Dest under the same suffixes.
type Backup struct {
	Source   string   `json:"source"`
	Dest     string   `json:"dest"`
	Sidecars []string `json:"sidecars,omitempty"`
}

// Report lists what Reset did. Warnings hold per-file failures that did not
// stop the reset.
type Report struct {
	Databases     []Backup `json:"databases"`
	UploadsBackup string   `json:"uploads_backup,omitempty"`
	ClearedFiles  int      `json:"cleared_files"`
	Warnings      []string `json:"warnings,omitempty"`
}

// DatabaseFiles returns the SQLite file of the target and its instance/
// sibling, whether or not they exist.
func DatabaseFiles(t database.Target) ([]string, error) {
	if t.Engine != database.SQLite || t.Memory() {
		return nil, ErrNotSQLite
	}

	dir, base := filepath.Split(t.Path)

	return []string{t.Path, filepath.Join(dir, "instance", base)}, nil
}

// Reset backs up and deletes every existing database file, then backs up a
// non-empty upload directory and removes its files, keeping directories.
func Reset(opts Options) (*Report, error) {
	target, err := database.ParseURL(opts.DatabaseURL)
	if err != nil {
		return nil, err
	}

	files, err := DatabaseFiles(target)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	stamp := now().Format(stampLayout)

	if err := os.MkdirAll(opts.BackupDir, 0o755); err != nil { //nolint:mnd // directory mode
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	report := &Report{}

	for i, src := range files {
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		ext := filepath.Ext(src)
		stem := strings.TrimSuffix(filepath.Base(src), ext)

		if i > 0 {
			stem += "_instance"
		}

		dest := filepath.Join(opts.BackupDir, stem+"_pre_reset_"+stamp+ext)

		b, err := backupDatabase(src, dest)
		if err != nil {
			return report, err
		}

		report.Databases = append(report.Databases, b)
	}

	if opts.UploadDir == "" || isEmptyDir(opts.UploadDir) {
		return report, nil
	}

	report.UploadsBackup = filepath.Join(opts.BackupDir, "uploads_pre_reset_"+stamp)

	if err := copyTree(opts.UploadDir, report.UploadsBackup); err != nil {
		return report, fmt.Errorf("backing up uploads: %w", err)
	}

	report.ClearedFiles, report.Warnings = clearFiles(opts.UploadDir)

	return report, nil
}

// backupDatabase copies src and any sidecar files before deleting them, so
// a new database is never opened against a stale journal.
func backupDatabase(src, dest string) (Backup, error) {
	b := Backup{Source: src, Dest: dest}
	remove := []string{src}

	if err := copyFile(src, dest); err != nil {
		return b, fmt.Errorf("backing up %s: %w", src, err)
	}

	for _, suffix := range sidecarSuffixes {
		side := src + suffix
		if _, err := os.Stat(side); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := copyFile(side, dest+suffix); err != nil {
			return b, fmt.Errorf("backing up %s: %w", side, err)
		}

		b.Sidecars = append(b.Sidecars, dest+suffix)
		remove = append(remove, side)
	}

	for _, f := range remove {
		if err := os.Remove(f); err != nil {
			return b, fmt.Errorf("deleting %s: %w", f, err)
		}
	}

	return b, nil
}

func isEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)

	return err != nil || len(entries) == 0
}

// clearFiles removes regular files below dir and keeps the directory tree.
func clearFiles(dir string) (int, []string) {
	var (
		removed  int
		warnings []string
	)

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read %s: %v", path, err))

			return nil
		}

		if d.IsDir() {
			return nil
		}

		if err := os.Remove(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not delete %s: %v", path, err))

			return nil
		}

		removed++

		return nil
	})

	return removed, warnings
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755) //nolint:mnd // directory mode
		}

		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
