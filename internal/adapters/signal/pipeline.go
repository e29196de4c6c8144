package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/domain"
	"github.com/ghostline/relay/internal/metrics"
)

// Inbound event names.
const (
	evRequestRoom      = "request_room"
	evJoinRoom         = "join_room"
	evLeaveRoom        = "leave_room"
	evText             = "transmit_text"
	evVanish           = "transmit_vanish"
	evReveal           = "transmit_reveal"
	evWhisper          = "transmit_whisper"
	evVideoControls    = "transmit_video_controls"
	evScreenBlur       = "transmit_screen_blur"
	evSendInvite       = "send_invite"
	evAcceptInvite     = "accept_invite"
	evDeclineInvite    = "decline_invite"
	evWebRTC           = "webrtc-negotiation"
	evScreenShare      = "screen-share-negotiation"
	evPresence         = "transmit_presence"
	evPulseTap         = "transmit_pulse_tap"
	evHeartbeat        = "heartbeat"
	evDisconnect       = "disconnect"
	evDisconnectIntent = "disconnect_intent"
)

type handlerFunc func(cid domain.ConnID, c *wsConn, data []byte)

// buildDispatch composes the full pipeline for every event at construction
// time. The order is fixed: brute-force guard (joins only), rate limiter,
// then the validating/authorizing handler.
func (ctl *Controller) buildDispatch() map[string]handlerFunc {
	limited := ctl.withRateLimit
	return map[string]handlerFunc{
		evRequestRoom:   limited(evRequestRoom, ctl.handleRequestRoom),
		evJoinRoom:      ctl.withGuard(limited(evJoinRoom, ctl.handleJoin)),
		evLeaveRoom:     limited(evLeaveRoom, ctl.handleLeave),
		evText:          limited(evText, ctl.handleText),
		evVanish:        limited(evVanish, ctl.handleVanish),
		evReveal:        limited(evReveal, ctl.handleReveal),
		evWhisper:       limited(evWhisper, ctl.handleWhisper),
		evVideoControls: limited(evVideoControls, ctl.handleVideoControls),
		evScreenBlur:    limited(evScreenBlur, ctl.handleScreenBlur),
		evSendInvite:    limited(evSendInvite, ctl.inviteRelay("receive_invite")),
		evAcceptInvite:  limited(evAcceptInvite, ctl.inviteRelay("invite_accepted")),
		evDeclineInvite: limited(evDeclineInvite, ctl.inviteRelay("invite_declined")),
		evWebRTC:        limited(evWebRTC, ctl.negotiationRelay(evWebRTC)),
		evScreenShare:   limited(evScreenShare, ctl.negotiationRelay(evScreenShare)),
		evPresence:      limited(evPresence, ctl.handlePresence),
		evPulseTap:      limited(evPulseTap, ctl.handlePulseTap),
		evHeartbeat:     limited(evHeartbeat, ctl.handleHeartbeat),

		evDisconnect:       ctl.handleDisconnectIntent,
		evDisconnectIntent: ctl.handleDisconnectIntent,
	}
}

// withRateLimit rejects over-quota events with a retry hint and suppresses
// the handler. The connection stays open.
func (ctl *Controller) withRateLimit(event string, next handlerFunc) handlerFunc {
	return func(cid domain.ConnID, c *wsConn, data []byte) {
		ok, retry := ctl.limiter.Allow(cid, event)
		if !ok {
			metrics.Rejections.WithLabelValues(metrics.ReasonRateLimit).Inc()
			log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("event", event).Msg("rate limited")
			ctl.sendJSON(c, rateLimitedMsg{
				Type:         "rate_limited",
				Event:        event,
				RetryAfterMs: retry.Milliseconds(),
			})
			return
		}
		next(cid, c, data)
	}
}

// withGuard cuts off joins from a connection over the failed-join threshold
// before any payload is even parsed.
func (ctl *Controller) withGuard(next handlerFunc) handlerFunc {
	return func(cid domain.ConnID, c *wsConn, data []byte) {
		if ctl.guard.Blocked(cid) {
			metrics.Rejections.WithLabelValues(metrics.ReasonBruteForce).Inc()
			log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("join blocked: too many attempts")
			ctl.blocked(c, "too many join attempts, try again later", "")
			return
		}
		next(cid, c, data)
	}
}

type rateLimitedMsg struct {
	Type         string `json:"type"`
	Event        string `json:"event"`
	RetryAfterMs int64  `json:"retryAfterMs"`
}

type blockedMsg struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	RoomCode domain.RoomCode `json:"roomCode,omitempty"`
}

func (ctl *Controller) blocked(c *wsConn, msg string, code domain.RoomCode) {
	ctl.sendJSON(c, blockedMsg{Type: "signal_blocked", Message: msg, RoomCode: code})
}

// relayTargets runs the shared validate-code + authorize step for relay
// events. A bad code or a room the sender never joined drops the signal
// silently: fail-closed, nothing reaches the peer.
func (ctl *Controller) relayTargets(cid domain.ConnID, rawCode string) (domain.RoomCode, []domain.ConnID, bool) {
	code, err := app.NormalizeRoomCode(rawCode)
	if err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("relay: bad room code")
		return "", nil, false
	}
	if !ctl.parts.IsMember(cid, code) {
		metrics.Rejections.WithLabelValues(metrics.ReasonAuth).Inc()
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("room", string(code)).Msg("relay: not a member")
		return "", nil, false
	}
	return code, ctl.rooms.Peers(code, cid), true
}

// sendToPeers forwards v to every other occupant, never the sender.
func (ctl *Controller) sendToPeers(event string, peers []domain.ConnID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}
	for _, peer := range peers {
		conn, ok := ctl.parts.Conn(peer)
		if !ok {
			continue
		}
		if err := conn.TrySend(b); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("peer", string(peer)).Msg("relay send")
			continue
		}
		metrics.SignalsRelayed.WithLabelValues(event).Inc()
	}
}
