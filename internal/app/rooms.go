package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ghostline/relay/internal/domain"
)

// ErrRoomFull is returned when a third distinct connection tries to join.
var ErrRoomFull = errors.New("room is full")

type roomEntry struct {
	occupants map[domain.ConnID]struct{}
	// linked flips to true the moment the room reaches two occupants and
	// never flips back; it distinguishes WAITING from SIGNAL_LOST at size 1.
	linked bool
}

func (e *roomEntry) status() domain.LinkStatus {
	switch {
	case len(e.occupants) == domain.MaxOccupants:
		return domain.StatusLinked
	case e.linked:
		return domain.StatusSignalLost
	default:
		return domain.StatusWaiting
	}
}

// RoomRegistry owns every live room. A room exists only while it has at
// least one occupant; there are no tombstones. All occupancy mutations run
// under one mutex so the capacity check and the add (and the leave and the
// possible delete) are atomic with respect to concurrent connections.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]*roomEntry
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomCode]*roomEntry)}
}

// JoinResult reports the room's state right after a successful join.
type JoinResult struct {
	Status  domain.LinkStatus
	Count   int
	Created bool
}

// Join adds cid to the room, creating the room on first use of the code.
// Joining a room the caller already occupies is idempotent. A room holding
// two other connections rejects with ErrRoomFull and is left untouched.
func (r *RoomRegistry) Join(code domain.RoomCode, cid domain.ConnID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[code]
	if !ok {
		e = &roomEntry{occupants: map[domain.ConnID]struct{}{cid: {}}}
		r.rooms[code] = e
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("cid", string(cid)).Msg("room created")
		return JoinResult{Status: e.status(), Count: 1, Created: true}, nil
	}

	if _, member := e.occupants[cid]; !member && len(e.occupants) >= domain.MaxOccupants {
		return JoinResult{}, ErrRoomFull
	}

	e.occupants[cid] = struct{}{}
	if len(e.occupants) == domain.MaxOccupants {
		e.linked = true
	}
	return JoinResult{Status: e.status(), Count: len(e.occupants)}, nil
}

// LeaveResult reports what a leave did. When Deleted is false and Remaining
// is non-empty, Status carries the state the survivors should be told.
type LeaveResult struct {
	Deleted   bool
	Remaining []domain.ConnID
	Status    domain.LinkStatus
	Count     int
}

// Leave removes cid from the room. The last occupant out deletes the room;
// a subsequent join to the same code behaves as a brand-new room. Leaving a
// room one never joined is a no-op.
func (r *RoomRegistry) Leave(code domain.RoomCode, cid domain.ConnID) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[code]
	if !ok {
		return LeaveResult{}
	}
	if _, member := e.occupants[cid]; !member {
		return LeaveResult{}
	}
	delete(e.occupants, cid)

	if len(e.occupants) == 0 {
		delete(r.rooms, code)
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("room deleted")
		return LeaveResult{Deleted: true}
	}

	rest := make([]domain.ConnID, 0, len(e.occupants))
	for occ := range e.occupants {
		rest = append(rest, occ)
	}
	return LeaveResult{Remaining: rest, Status: e.status(), Count: len(e.occupants)}
}

// Exists reports whether the code currently indexes a live room.
func (r *RoomRegistry) Exists(code domain.RoomCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[code]
	return ok
}

// Peers returns every occupant of the room other than self.
func (r *RoomRegistry) Peers(code domain.RoomCode, self domain.ConnID) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[code]
	if !ok {
		return nil
	}
	out := make([]domain.ConnID, 0, len(e.occupants))
	for occ := range e.occupants {
		if occ != self {
			out = append(out, occ)
		}
	}
	return out
}

// Occupants returns every occupant of the room.
func (r *RoomRegistry) Occupants(code domain.RoomCode) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[code]
	if !ok {
		return nil
	}
	out := make([]domain.ConnID, 0, len(e.occupants))
	for occ := range e.occupants {
		out = append(out, occ)
	}
	return out
}

// Len returns the number of live rooms.
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
