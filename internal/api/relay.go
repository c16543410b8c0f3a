package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/davebowl/Canna-spot-mobile/internal/rtc"
)

const maxSignalBody = 64 << 10

type relayHandler struct {
	store      *rtc.Store
	staleAfter time.Duration
}

// roomAndUser extracts the room path parameter and the caller. It writes the
// error response itself and returns ok=false when either is unusable.
func roomAndUser(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	room := chi.URLParam(r, "room")
	if !rtc.ValidRoom(room) {
		WriteError(w, http.StatusBadRequest, "invalid room")

		return "", 0, false
	}

	user, ok := UserFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized")

		return "", 0, false
	}

	return room, user, true
}

func (h *relayHandler) join(w http.ResponseWriter, r *http.Request) {
	room, user, ok := roomAndUser(w, r)
	if !ok {
		return
	}

	joined, err := h.store.Join(r.Context(), room, user)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	status := http.StatusOK
	if joined {
		status = http.StatusCreated
	}

	WriteJSON(w, status, map[string]any{"room": room, "user_id": user, "joined": joined})
}

func (h *relayHandler) heartbeat(w http.ResponseWriter, r *http.Request) {
	room, user, ok := roomAndUser(w, r)
	if !ok {
		return
	}

	if err := h.store.Heartbeat(r.Context(), room, user); err != nil {
		h.fail(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *relayHandler) leave(w http.ResponseWriter, r *http.Request) {
	room, user, ok := roomAndUser(w, r)
	if !ok {
		return
	}

	if err := h.store.Leave(r.Context(), room, user); err != nil {
		h.internal(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *relayHandler) participants(w http.ResponseWriter, r *http.Request) {
	room, _, ok := roomAndUser(w, r)
	if !ok {
		return
	}

	ps, err := h.store.Participants(r.Context(), room, h.staleAfter)
	if err != nil {
		h.internal(w, r, err)

		return
	}

	if ps == nil {
		ps = []rtc.Participant{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"participants": ps})
}

type sendRequest struct {
	TargetID *int64          `json:"target_id"`
	Kind     rtc.Kind        `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

func (h *relayHandler) send(w http.ResponseWriter, r *http.Request) {
	room, user, ok := roomAndUser(w, r)
	if !ok {
		return
	}

	var req sendRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSignalBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())

		return
	}

	sig, err := h.store.Send(r.Context(), rtc.Signal{
		Room: room, SenderID: user, TargetID: req.TargetID, Kind: req.Kind, Payload: req.Payload,
	})
	if err != nil {
		h.fail(w, r, err)

		return
	}

	WriteJSON(w, http.StatusCreated, sig)
}

func (h *relayHandler) poll(w http.ResponseWriter, r *http.Request) {
	room, user, ok := roomAndUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	var (
		after int64
		limit int
		err   error
	)

	if v := q.Get("after"); v != "" {
		if after, err = strconv.ParseInt(v, 10, 64); err != nil || after < 0 {
			WriteError(w, http.StatusBadRequest, "invalid after")

			return
		}
	}

	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			WriteError(w, http.StatusBadRequest, "invalid limit")

			return
		}
	}

	sigs, err := h.store.Poll(r.Context(), room, user, after, limit)
	if err != nil {
		h.internal(w, r, err)

		return
	}

	next := after
	if len(sigs) > 0 {
		next = sigs[len(sigs)-1].ID
	} else {
		sigs = []rtc.Signal{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"signals": sigs, "next": next})
}

// fail maps store errors to client responses. A token for a user without an
// account row is treated as unauthenticated.
func (h *relayHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rtc.ErrUnknownUser):
		WriteError(w, http.StatusUnauthorized, "unknown user")
	case errors.Is(err, rtc.ErrInvalidSignal):
		WriteErrorDetail(w, http.StatusBadRequest, "invalid signal", err.Error())
	default:
		h.internal(w, r, err)
	}
}

func (h *relayHandler) internal(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg("relay request failed")
	WriteError(w, http.StatusInternalServerError, "internal server error")
}
