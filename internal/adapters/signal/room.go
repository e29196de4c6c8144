package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/domain"
	"github.com/ghostline/relay/internal/metrics"
)

type linkStatusMsg struct {
	Type     string            `json:"type"`
	RoomCode domain.RoomCode   `json:"roomCode"`
	Status   domain.LinkStatus `json:"status"`
	Count    int               `json:"count"`
}

// handleRequestRoom draws a fresh unique code and replies on the same
// connection. The optional reqId is echoed so clients can correlate the
// response without an implicit callback channel.
func (ctl *Controller) handleRequestRoom(cid domain.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		ReqID string `json:"reqId,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad request_room payload")
		return
	}

	code, err := ctl.codes.Generate()
	if err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonExhausted).Inc()
		log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("code generation")
		ctl.blocked(c, "no room codes available", "")
		return
	}

	ctl.sendJSON(c, struct {
		Type  string          `json:"type"`
		Code  domain.RoomCode `json:"code"`
		ReqID string          `json:"reqId,omitempty"`
	}{Type: "room_code", Code: code, ReqID: p.ReqID})
}

// handleJoin runs the full join path: payload validation, tier resolution,
// quota check, capacity check, then a room-wide link_status broadcast.
// Every rejection counts toward the brute-force guard; only landing in the
// room clears it.
func (ctl *Controller) handleJoin(cid domain.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.failJoin(cid, c, "bad join payload", "")
		return
	}

	code, err := app.NormalizeRoomCode(p.RoomCode)
	if err != nil {
		ctl.failJoin(cid, c, "invalid room code", "")
		return
	}

	device, err := app.ValidateDeviceID(p.DeviceID)
	if err != nil {
		ctl.failJoin(cid, c, "invalid device id", code)
		return
	}
	// Device identity is fixed for the connection's lifetime.
	if existing, ok := ctl.parts.Device(cid); ok && existing != device {
		ctl.failJoin(cid, c, "device id mismatch", code)
		return
	}

	tier := ctl.tiers.Resolve(device)
	ctl.parts.Ensure(cid, device, tier)

	// Quota before occupancy: a join the tier cannot afford must leave the
	// room's linked history untouched.
	if !ctl.parts.CanJoin(cid, code) {
		metrics.Rejections.WithLabelValues(metrics.ReasonQuota).Inc()
		ctl.guard.Fail(cid)
		ctl.blocked(c, "room limit for tier reached", code)
		return
	}

	res, err := ctl.rooms.Join(code, cid)
	if errors.Is(err, app.ErrRoomFull) {
		metrics.Rejections.WithLabelValues(metrics.ReasonCapacity).Inc()
		ctl.guard.Fail(cid)
		ctl.blocked(c, "room is full", code)
		return
	}
	if err != nil {
		ctl.failJoin(cid, c, "join failed", code)
		return
	}
	if res.Created {
		metrics.Rooms.Inc()
	}

	if err := ctl.parts.RecordJoin(cid, code); err != nil {
		// Only reachable if the binding vanished mid-join.
		if leave := ctl.rooms.Leave(code, cid); leave.Deleted {
			metrics.Rooms.Dec()
		}
		ctl.failJoin(cid, c, "join failed", code)
		return
	}
	ctl.guard.Clear(cid)
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("room", string(code)).Str("status", string(res.Status)).Msg("joined")

	status := linkStatusMsg{Type: "link_status", RoomCode: code, Status: res.Status, Count: res.Count}
	b, _ := json.Marshal(status)
	for _, occ := range ctl.rooms.Occupants(code) {
		if conn, ok := ctl.parts.Conn(occ); ok {
			_ = conn.TrySend(b)
		}
	}
}

func (ctl *Controller) failJoin(cid domain.ConnID, c *wsConn, msg string, code domain.RoomCode) {
	metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
	ctl.guard.Fail(cid)
	log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("reason", msg).Msg("join rejected")
	ctl.blocked(c, msg, code)
}

// handleLeave removes the caller from the room. The last occupant out
// deletes the room; otherwise the survivor hears SIGNAL_LOST.
func (ctl *Controller) handleLeave(cid domain.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		return
	}

	code, err := app.NormalizeRoomCode(p.RoomCode)
	if err != nil || !ctl.parts.IsMember(cid, code) {
		metrics.Rejections.WithLabelValues(metrics.ReasonAuth).Inc()
		return
	}

	ctl.leaveRoom(cid, code)
	ctl.sendJSON(c, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
	}{Type: "left", RoomCode: code})
}

// leaveRoom is the single leave path, shared by explicit leaves and the
// disconnect cascade.
func (ctl *Controller) leaveRoom(cid domain.ConnID, code domain.RoomCode) {
	res := ctl.rooms.Leave(code, cid)
	ctl.parts.RecordLeave(cid, code)

	if res.Deleted {
		metrics.Rooms.Dec()
		return
	}
	status := linkStatusMsg{Type: "link_status", RoomCode: code, Status: res.Status, Count: res.Count}
	ctl.sendToPeers("link_status", res.Remaining, status)
}

// handleDisconnectIntent is the client-initiated full teardown. The WS
// close that follows will hit cleanupConnection again; both paths are
// idempotent.
func (ctl *Controller) handleDisconnectIntent(cid domain.ConnID, c *wsConn, _ []byte) {
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("disconnect intent")
	ctl.cleanupConnection(cid, c)
}

// cleanupConnection cascades membership cleanup across every room the
// connection had joined, then releases limiter, guard and registry state.
// Runs exactly once per connection regardless of how the teardown started.
func (ctl *Controller) cleanupConnection(cid domain.ConnID, c *wsConn) {
	c.teardown.Do(func() {
		for _, code := range ctl.parts.Rooms(cid) {
			ctl.leaveRoom(cid, code)
		}
		ctl.limiter.Forget(cid)
		ctl.guard.Clear(cid)
		ctl.parts.Forget(cid)
		metrics.Connections.Dec()
		c.Close()
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("connection cleaned up")
	})
}
