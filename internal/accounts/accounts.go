// Package accounts implements the operator tools that manage user rows
// directly in the database.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

// User is the operator view of a user row.
type User struct {
	ID       int64
	Username string
	Email    string
	Display  string
	Admin    bool
	Created  time.Time
}

// NewUser describes a user to create.
type NewUser struct {
	Username string
	Display  string
	Email    string
	Password string
	Admin    bool
}

// Summary counts users by role.
type Summary struct {
	Total   int `json:"total"`
	Admins  int `json:"admins"`
	Regular int `json:"regular"`
}

// Store reads and writes the user table.
type Store struct {
	db   *database.DB
	hash func(string) (string, error)
	now  func() time.Time
}

// New creates a Store on db.
func New(db *database.DB) *Store {
	return &Store{db: db, hash: HashPassword, now: time.Now}
}

const userColumns = `id, uname, email, dname, admin, created`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u       User
		display sql.NullString
		admin   sql.NullBool
		created database.Time
	)

	if err := row.Scan(&u.ID, &u.Username, &u.Email, &display, &admin, &created); err != nil {
		return nil, err
	}

	u.Display = display.String
	u.Admin = admin.Bool
	u.Created = created.Time

	return &u, nil
}

// Find looks a user up by username first, then by email (case-insensitive).
func (s *Store) Find(ctx context.Context, usernameOrEmail string) (*User, error) {
	return s.find(ctx, s.db, usernameOrEmail)
}

func (s *Store) find(ctx context.Context, q database.Querier, usernameOrEmail string) (*User, error) {
	key := strings.TrimSpace(usernameOrEmail)

	u, err := scanUser(q.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+userColumns+` FROM "user" WHERE uname = ?`), key))
	if err == nil {
		return u, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up %q: %w", key, err)
	}

	u, err = scanUser(q.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+userColumns+` FROM "user" WHERE LOWER(email) = LOWER(?)`), key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", key, err)
	}

	return u, nil
}

// ResetPassword sets a new password for the user and, when grantAdmin is
// set, makes them an admin. The returned user reflects the change.
func (s *Store) ResetPassword(ctx context.Context, target, password string, grantAdmin bool) (*User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	var u *User

	err = database.ExecInTransaction(ctx, s.db.DB, func(tx *sql.Tx) error {
		found, err := s.find(ctx, tx, target)
		if err != nil {
			return err
		}

		query := `UPDATE "user" SET pw_hash = ? WHERE id = ?`
		args := []any{hash, found.ID}

		if grantAdmin {
			query = `UPDATE "user" SET pw_hash = ?, admin = ? WHERE id = ?`
			args = []any{hash, true, found.ID}
			found.Admin = true
		}

		if _, err := tx.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("updating password of %s: %w", found.Username, err)
		}

		u = found

		return nil
	})

	return u, err
}

// SetAdmin grants or revokes admin rights.
func (s *Store) SetAdmin(ctx context.Context, target string, admin bool) (*User, error) {
	u, err := s.Find(ctx, target)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE "user" SET admin = ? WHERE id = ?`), admin, u.ID); err != nil {
		return nil, fmt.Errorf("updating admin flag of %s: %w", u.Username, err)
	}

	u.Admin = admin

	return u, nil
}

// EnsureUser creates nu unless a user with that username already exists.
// It reports whether a row was created.
func (s *Store) EnsureUser(ctx context.Context, nu NewUser) (bool, error) {
	if nu.Username == "" || nu.Email == "" || nu.Password == "" {
		return false, fmt.Errorf("%w: username, email and password are required", ErrInvalidUser)
	}

	hash, err := s.hash(nu.Password)
	if err != nil {
		return false, err
	}

	created := false

	err = database.ExecInTransaction(ctx, s.db.DB, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM "user" WHERE uname = ?`), nu.Username).
			Scan(&n); err != nil {
			return fmt.Errorf("checking for %s: %w", nu.Username, err)
		}

		if n > 0 {
			return nil
		}

		now := s.db.Dialect.TimeArg(s.now())

		if _, err := tx.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO "user" (uname, email, dname, pw_hash, admin, status, seen, created)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			nu.Username, nu.Email, nu.Display, hash, nu.Admin, "online", now, now,
		); err != nil {
			return fmt.Errorf("creating %s: %w", nu.Username, err)
		}

		created = true

		return nil
	})

	return created, err
}

// List returns every user ordered by id.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM "user" ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, *u)
	}

	return users, rows.Err()
}

// Summary counts users and admins.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary

	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN admin = ? THEN 1 ELSE 0 END), 0) FROM "user"`), true).
		Scan(&sum.Total, &sum.Admins)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing users: %w", err)
	}

	sum.Regular = sum.Total - sum.Admins

	return sum, nil
}

// DefaultUsers returns the development accounts created by create-users.
func DefaultUsers() []NewUser {
	return []NewUser{
		{Username: "admin", Display: "Admin", Email: "admin@cannaspot.local", Password: "admin123", Admin: true},
		{Username: "user", Display: "Regular User", Email: "user@cannaspot.local", Password: "user123"},
	}
}
