package rtc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/bootstrap"
	"github.com/davebowl/Canna-spot-mobile/internal/database/databasetest"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestStore returns a store on a bootstrapped database with users 1, 2
// and 3, and the clock driving it.
func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()

	db := databasetest.OpenMemory(t)
	_, err := bootstrap.Run(context.Background(), db, schema.CannaSpot(), bootstrap.Options{}, zerolog.Nop())
	require.NoError(t, err)

	databasetest.Exec(t, db,
		`INSERT INTO "user" (id, uname, email, pw_hash) VALUES (1, 'ann', 'ann@example.org', 'x')`,
		`INSERT INTO "user" (id, uname, email, pw_hash) VALUES (2, 'bob', 'bob@example.org', 'x')`,
		`INSERT INTO "user" (id, uname, email, pw_hash) VALUES (3, 'cy', 'cy@example.org', 'x')`,
	)

	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(db)
	s.now = c.now

	return s, c
}

func ptr(v int64) *int64 { return &v }

func send(t *testing.T, s *Store, from int64, to *int64, kind Kind) *Signal {
	t.Helper()

	sig, err := s.Send(context.Background(), Signal{
		Room: "lobby", SenderID: from, TargetID: to, Kind: kind, Payload: json.RawMessage(`{"sdp":"v=0"}`),
	})
	require.NoError(t, err)

	return sig
}

func TestSend_validation(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ok := Signal{Room: "lobby", SenderID: 1, Kind: Offer, Payload: json.RawMessage(`{}`)}

	tests := []struct {
		name   string
		mutate func(*Signal)
	}{
		{name: "empty room", mutate: func(sig *Signal) { sig.Room = "" }},
		{name: "room too long", mutate: func(sig *Signal) { sig.Room = string(make([]byte, 121)) }},
		{name: "unknown kind", mutate: func(sig *Signal) { sig.Kind = "hello" }},
		{name: "no sender", mutate: func(sig *Signal) { sig.SenderID = 0 }},
		{name: "payload not json", mutate: func(sig *Signal) { sig.Payload = json.RawMessage(`{oops`) }},
		{name: "empty payload", mutate: func(sig *Signal) { sig.Payload = nil }},
		{name: "self target", mutate: func(sig *Signal) { sig.TargetID = ptr(1) }},
		{name: "target without account", mutate: func(sig *Signal) { sig.TargetID = ptr(999) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := ok
			tt.mutate(&sig)

			_, err := s.Send(context.Background(), sig)
			require.ErrorIs(t, err, ErrInvalidSignal)
		})
	}
}

func TestStore_unknownUser(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Send(ctx, Signal{Room: "lobby", SenderID: 42, Kind: Offer, Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrUnknownUser)

	_, err = s.Join(ctx, "lobby", 42)
	require.ErrorIs(t, err, ErrUnknownUser)

	require.ErrorIs(t, s.Heartbeat(ctx, "lobby", 42), ErrUnknownUser)

	ps, err := s.Participants(ctx, "lobby", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestPoll_holdsBackUnsettledSignals(t *testing.T) {
	t.Parallel()

	s, c := newTestStore(t)
	WithSettle(time.Second)(s)

	ctx := context.Background()
	first := send(t, s, 1, nil, Offer)

	got, err := s.Poll(ctx, "lobby", 2, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got, "too recent to hand out a cursor past it")

	c.advance(time.Second)
	second := send(t, s, 1, nil, Candidate)

	got, err = s.Poll(ctx, "lobby", 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	c.advance(time.Second)

	got, err = s.Poll(ctx, "lobby", 2, first.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)
}

func TestNewStore_settleDependsOnEngine(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.Zero(t, s.settle)
	assert.Equal(t, 2*time.Second, NewStore(s.db, WithSettle(2*time.Second)).settle)
}

func TestPoll_routing(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	broadcast := send(t, s, 1, nil, Join)
	toBob := send(t, s, 1, ptr(2), Offer)
	toCy := send(t, s, 1, ptr(3), Offer)
	fromBob := send(t, s, 2, ptr(1), Answer)

	got, err := s.Poll(ctx, "lobby", 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, broadcast.ID, got[0].ID)
	assert.Equal(t, toBob.ID, got[1].ID)
	assert.Nil(t, got[0].TargetID)
	assert.Equal(t, int64(2), *got[1].TargetID)
	assert.JSONEq(t, `{"sdp":"v=0"}`, string(got[1].Payload))
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), got[1].CreatedAt)

	got, err = s.Poll(ctx, "lobby", 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "own signals are never returned")
	assert.Equal(t, fromBob.ID, got[0].ID)

	got, err = s.Poll(ctx, "lobby", 3, toBob.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, toCy.ID, got[0].ID)

	got, err = s.Poll(ctx, "elsewhere", 2, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPoll_limit(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	for range 5 {
		send(t, s, 1, nil, Candidate)
	}

	got, err := s.Poll(context.Background(), "lobby", 2, 0, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	rest, err := s.Poll(context.Background(), "lobby", 2, got[1].ID, 0)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestParticipants_joinHeartbeatLeave(t *testing.T) {
	t.Parallel()

	s, c := newTestStore(t)
	ctx := context.Background()

	joined, err := s.Join(ctx, "lobby", 1)
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = s.Join(ctx, "lobby", 1)
	require.NoError(t, err)
	assert.False(t, joined, "second join is a heartbeat")

	c.advance(20 * time.Second)
	require.NoError(t, s.Heartbeat(ctx, "lobby", 2))

	ps, err := s.Participants(ctx, "lobby", 30*time.Second)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, int64(1), ps[0].UserID)
	assert.Equal(t, int64(2), ps[1].UserID)

	c.advance(15 * time.Second)

	ps, err = s.Participants(ctx, "lobby", 30*time.Second)
	require.NoError(t, err)
	require.Len(t, ps, 1, "user 1 went stale")
	assert.Equal(t, int64(2), ps[0].UserID)

	require.NoError(t, s.Leave(ctx, "lobby", 2))

	ps, err = s.Participants(ctx, "lobby", time.Hour)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, int64(1), ps[0].UserID)

	_, err = s.Join(ctx, "", 1)
	require.ErrorIs(t, err, ErrInvalidSignal)
}

func TestPrune(t *testing.T) {
	t.Parallel()

	s, c := newTestStore(t)
	ctx := context.Background()

	send(t, s, 1, nil, Join)
	_, err := s.Join(ctx, "lobby", 1)
	require.NoError(t, err)

	c.advance(2 * time.Minute)
	fresh := send(t, s, 2, nil, Join)
	_, err = s.Join(ctx, "lobby", 2)
	require.NoError(t, err)

	res, err := s.Prune(ctx, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{Participants: 1, Signals: 1}, res)

	got, err := s.Poll(ctx, "lobby", 3, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestRunPruner_stopsWithContext(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		RunPruner(ctx, s, PruneConfig{Interval: time.Millisecond, ParticipantTTL: time.Minute, SignalTTL: time.Minute},
			zerolog.Nop())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop")
	}
}
