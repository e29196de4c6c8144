package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ghostline/relay/internal/domain"
)

// Frame is one outbound wire message, already serialized.
type Frame = []byte

// SignalConn is the transport half the registries see: something frames can
// be pushed into without blocking.
type SignalConn interface {
	TrySend(Frame) error
	Close()
}

// ErrRoomQuota is returned when a join would exceed the tier's room cap.
var ErrRoomQuota = errors.New("room quota for tier exhausted")

type participantEntry struct {
	conn   SignalConn
	cancel context.CancelFunc

	// device is set on the first room interaction and cleared again once
	// the joined-room set drains; tier sticks for the connection lifetime.
	device domain.DeviceID
	tier   domain.Tier
	rooms  map[domain.RoomCode]struct{}
}

// ParticipantRegistry owns per-connection bookkeeping: the bound transport,
// the self-asserted device identity, the resolved tier and the set of
// currently-joined rooms. It is the authorization source for every relay.
type ParticipantRegistry struct {
	mu      sync.RWMutex
	entries map[domain.ConnID]*participantEntry
}

func NewParticipantRegistry() *ParticipantRegistry {
	return &ParticipantRegistry{entries: make(map[domain.ConnID]*participantEntry)}
}

// Bind attaches a live transport connection. Called once per WS upgrade.
func (r *ParticipantRegistry) Bind(cid domain.ConnID, conn SignalConn, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cid] = &participantEntry{
		conn:   conn,
		cancel: cancel,
		rooms:  make(map[domain.RoomCode]struct{}),
	}
	log.Info().Str("module", "app.participants").Str("cid", string(cid)).Msg("bound connection")
}

// Ensure records the device identity and tier on first room interaction.
// The identity is write-once: later calls with a different device id for a
// live participant are ignored.
func (r *ParticipantRegistry) Ensure(cid domain.ConnID, device domain.DeviceID, tier domain.Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[cid]
	if !ok {
		return
	}
	if e.device == "" {
		e.device = device
		e.tier = tier
		log.Info().Str("module", "app.participants").Str("cid", string(cid)).Str("tier", tier.Name).Msg("participant created")
	}
}

// RecordJoin adds code to the participant's room set, enforcing the tier's
// MaxRooms cap. Re-recording a room already in the set always succeeds.
func (r *ParticipantRegistry) RecordJoin(cid domain.ConnID, code domain.RoomCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[cid]
	if !ok {
		return errors.New("unknown connection")
	}
	if _, joined := e.rooms[code]; joined {
		return nil
	}
	if len(e.rooms) >= e.tier.MaxRooms {
		return ErrRoomQuota
	}
	e.rooms[code] = struct{}{}
	return nil
}

// CanJoin reports whether recording code would stay within the tier cap.
// Handlers check this before touching room state, so a refused join never
// mutates the room at all.
func (r *ParticipantRegistry) CanJoin(cid domain.ConnID, code domain.RoomCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[cid]
	if !ok {
		return false
	}
	if _, joined := e.rooms[code]; joined {
		return true
	}
	return len(e.rooms) < e.tier.MaxRooms
}

// RecordLeave drops code from the room set. Draining the set clears the
// device identity; the connection binding and its resolved tier survive,
// so a later join on the same connection keeps its quota.
func (r *ParticipantRegistry) RecordLeave(cid domain.ConnID, code domain.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[cid]
	if !ok {
		return
	}
	delete(e.rooms, code)
	if len(e.rooms) == 0 {
		e.device = ""
	}
}

// IsMember is the authorization primitive every relay handler consults.
func (r *ParticipantRegistry) IsMember(cid domain.ConnID, code domain.RoomCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[cid]
	if !ok {
		return false
	}
	_, joined := e.rooms[code]
	return joined
}

// Rooms snapshots the participant's joined-room set.
func (r *ParticipantRegistry) Rooms(cid domain.ConnID) []domain.RoomCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[cid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomCode, 0, len(e.rooms))
	for code := range e.rooms {
		out = append(out, code)
	}
	return out
}

// Device returns the recorded device identity, if any.
func (r *ParticipantRegistry) Device(cid domain.ConnID) (domain.DeviceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[cid]
	if !ok || e.device == "" {
		return "", false
	}
	return e.device, true
}

// Conn returns the bound transport for cid.
func (r *ParticipantRegistry) Conn(cid domain.ConnID) (SignalConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[cid]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Forget tears down the binding entirely and cancels the connection's
// context. Idempotent.
func (r *ParticipantRegistry) Forget(cid domain.ConnID) {
	r.mu.Lock()
	e, ok := r.entries[cid]
	delete(r.entries, cid)
	r.mu.Unlock()
	if !ok {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	log.Info().Str("module", "app.participants").Str("cid", string(cid)).Msg("forgot connection")
}

// Len returns the number of bound connections.
func (r *ParticipantRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
