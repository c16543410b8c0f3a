// Package rtc is the polling mailbox peers use to exchange WebRTC offers,
// answers and ICE candidates without a persistent socket.
package rtc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/metrics"
)

// Kind tags a signal.
type Kind string

// Signal kinds.
const (
	Offer     Kind = "offer"
	Answer    Kind = "answer"
	Candidate Kind = "candidate"
	Join      Kind = "join"
	Leave     Kind = "leave"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Offer, Answer, Candidate, Join, Leave:
		return true
	default:
		return false
	}
}

const (
	maxRoomLen   = 120
	defaultLimit = 100
	maxLimit     = 500
)

// Signal is one mailbox message. A nil TargetID broadcasts to the room.
type Signal struct {
	ID        int64           `json:"id"`
	Room      string          `json:"room"`
	SenderID  int64           `json:"sender_id"`
	TargetID  *int64          `json:"target_id,omitempty"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Participant is a user's membership of a room.
type Participant struct {
	Room     string    `json:"room"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"last_seen"`
}

// PostgresSettle is the default settle window on Postgres. Serial ids are
// handed out before commit, so a signal with a lower id can become visible
// after a higher one. Poll holds back signals younger than the window so the
// cursor does not jump past one still in flight. SQLite commits writers one
// at a time and needs no window.
const PostgresSettle = 500 * time.Millisecond

// Store reads and writes the rtc_signal and rtc_participant tables.
type Store struct {
	db     *database.DB
	now    func() time.Time
	settle time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSettle overrides the poll settle window.
func WithSettle(d time.Duration) StoreOption {
	return func(s *Store) { s.settle = d }
}

// NewStore creates a Store on db.
func NewStore(db *database.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, now: time.Now}
	if db.Target.Engine == database.Postgres {
		s.settle = PostgresSettle
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// ValidRoom reports whether room is a usable room name.
func ValidRoom(room string) bool {
	return room != "" && len(room) <= maxRoomLen
}

func validate(s *Signal) error {
	switch {
	case !ValidRoom(s.Room):
		return fmt.Errorf("%w: room must be 1-%d characters", ErrInvalidSignal, maxRoomLen)
	case !s.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, s.Kind)
	case s.SenderID <= 0:
		return fmt.Errorf("%w: missing sender", ErrInvalidSignal)
	case len(s.Payload) == 0 || !json.Valid(s.Payload):
		return fmt.Errorf("%w: payload must be JSON", ErrInvalidSignal)
	case s.TargetID != nil && *s.TargetID == s.SenderID:
		return fmt.Errorf("%w: a peer cannot signal itself", ErrInvalidSignal)
	}

	return nil
}

// Send stores a signal and returns it with its id and timestamp.
func (s *Store) Send(ctx context.Context, sig Signal) (*Signal, error) {
	if err := validate(&sig); err != nil {
		return nil, err
	}

	if err := s.requireUser(ctx, s.db, sig.SenderID); err != nil {
		return nil, err
	}

	var target any

	if sig.TargetID != nil {
		ok, err := s.userExists(ctx, s.db, *sig.TargetID)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, fmt.Errorf("%w: unknown target %d", ErrInvalidSignal, *sig.TargetID)
		}

		target = *sig.TargetID
	}

	sig.CreatedAt = s.now().UTC()

	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`INSERT INTO rtc_signal (room, sender_id, target_id, kind, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		sig.Room, sig.SenderID, target, string(sig.Kind), string(sig.Payload), s.db.Dialect.TimeArg(sig.CreatedAt),
	).Scan(&sig.ID)
	if err != nil {
		return nil, fmt.Errorf("storing signal: %w", err)
	}

	metrics.RTCSignalsTotal.WithLabelValues(string(sig.Kind)).Inc()

	return &sig, nil
}

// Poll returns signals in room after the afterID cursor that userID should
// see: addressed to them or broadcast, never their own. Signals come back in
// id order; the last id is the next cursor. A limit outside 1..500 means 100.
// Signals younger than the settle window are left for the next poll; an
// insert that takes longer than the window to commit can still be skipped.
func (s *Store) Poll(ctx context.Context, room string, userID, afterID int64, limit int) ([]Signal, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	settled := s.db.Dialect.TimeArg(s.now().UTC().Add(-s.settle))

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT id, room, sender_id, target_id, kind, payload, created_at
		 FROM rtc_signal
		 WHERE room = ? AND id > ? AND sender_id <> ? AND (target_id IS NULL OR target_id = ?)
		   AND created_at <= ?
		 ORDER BY id
		 LIMIT ?`),
		room, afterID, userID, userID, settled, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("polling %s: %w", room, err)
	}
	defer rows.Close()

	var out []Signal

	for rows.Next() {
		var (
			sig     Signal
			target  sql.NullInt64
			kind    string
			payload string
			created database.Time
		)

		if err := rows.Scan(&sig.ID, &sig.Room, &sig.SenderID, &target, &kind, &payload, &created); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}

		if target.Valid {
			sig.TargetID = &target.Int64
		}

		sig.Kind = Kind(kind)
		sig.Payload = json.RawMessage(payload)
		sig.CreatedAt = created.Time
		out = append(out, sig)
	}

	return out, rows.Err()
}

// Join records userID as present in room. It reports whether the user was
// not already a member.
func (s *Store) Join(ctx context.Context, room string, userID int64) (bool, error) {
	if !ValidRoom(room) {
		return false, fmt.Errorf("%w: room must be 1-%d characters", ErrInvalidSignal, maxRoomLen)
	}

	return s.touch(ctx, room, userID)
}

// Heartbeat refreshes last_seen, joining the room if needed.
func (s *Store) Heartbeat(ctx context.Context, room string, userID int64) error {
	_, err := s.Join(ctx, room, userID)

	return err
}

func (s *Store) touch(ctx context.Context, room string, userID int64) (bool, error) {
	now := s.db.Dialect.TimeArg(s.now())
	joined := false

	err := database.ExecInTransaction(ctx, s.db.DB, func(tx *sql.Tx) error {
		if err := s.requireUser(ctx, tx, userID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, s.db.Rebind(
			`UPDATE rtc_participant SET last_seen = ? WHERE room = ? AND user_id = ?`), now, room, userID)
		if err != nil {
			return err
		}

		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}

		if _, err := tx.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO rtc_participant (room, user_id, joined_at, last_seen) VALUES (?, ?, ?, ?)`),
			room, userID, now, now); err != nil {
			return err
		}

		joined = true

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("joining %s: %w", room, err)
	}

	return joined, nil
}

// userExists checks the account table so a dangling id is reported as bad
// input rather than surfacing as a foreign key violation.
func (s *Store) userExists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, s.db.Rebind(
		`SELECT COUNT(*) FROM `+s.db.Dialect.Quote("user")+` WHERE id = ?`), id).Scan(&n); err != nil {
		return false, fmt.Errorf("looking up user %d: %w", id, err)
	}

	return n > 0, nil
}

func (s *Store) requireUser(ctx context.Context, q database.Querier, id int64) error {
	ok, err := s.userExists(ctx, q, id)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownUser, id)
	}

	return nil
}

// Leave removes userID from room.
func (s *Store) Leave(ctx context.Context, room string, userID int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM rtc_participant WHERE room = ? AND user_id = ?`), room, userID); err != nil {
		return fmt.Errorf("leaving %s: %w", room, err)
	}

	return nil
}

// Participants lists members of room seen within staleAfter, oldest first.
func (s *Store) Participants(ctx context.Context, room string, staleAfter time.Duration) ([]Participant, error) {
	cutoff := s.db.Dialect.TimeArg(s.now().Add(-staleAfter))

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT user_id, MIN(joined_at), MAX(last_seen)
		 FROM rtc_participant
		 WHERE room = ? AND last_seen >= ?
		 GROUP BY user_id
		 ORDER BY MIN(joined_at), user_id`),
		room, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participants of %s: %w", room, err)
	}
	defer rows.Close()

	var out []Participant

	for rows.Next() {
		var (
			p              Participant
			joined, seenAt database.Time
		)

		if err := rows.Scan(&p.UserID, &joined, &seenAt); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}

		p.Room = room
		p.JoinedAt = joined.Time
		p.LastSeen = seenAt.Time
		out = append(out, p)
	}

	return out, rows.Err()
}

// PruneResult counts rows removed by Prune.
type PruneResult struct {
	Participants int64
	Signals      int64
}

// Prune deletes participants not seen within participantTTL and signals
// older than signalTTL.
func (s *Store) Prune(ctx context.Context, participantTTL, signalTTL time.Duration) (PruneResult, error) {
	now := s.now()

	var res PruneResult

	r, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM rtc_participant WHERE last_seen < ?`),
		s.db.Dialect.TimeArg(now.Add(-participantTTL)))
	if err != nil {
		return res, fmt.Errorf("pruning participants: %w", err)
	}

	res.Participants, _ = r.RowsAffected()

	r, err = s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM rtc_signal WHERE created_at < ?`),
		s.db.Dialect.TimeArg(now.Add(-signalTTL)))
	if err != nil {
		return res, fmt.Errorf("pruning signals: %w", err)
	}

	res.Signals, _ = r.RowsAffected()

	metrics.RTCPrunedTotal.WithLabelValues("rtc_participant").Add(float64(res.Participants))
	metrics.RTCPrunedTotal.WithLabelValues("rtc_signal").Add(float64(res.Signals))

	return res, nil
}
