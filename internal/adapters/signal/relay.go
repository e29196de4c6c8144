package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/domain"
	"github.com/ghostline/relay/internal/metrics"
)

func (ctl *Controller) handleText(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad text payload")
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	text, err := app.SanitizeText(p.Text, ctl.limits.TextMaxLen)
	if err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("text rejected")
		return
	}
	ctl.sendToPeers("remote_text", peers, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
		Text     string          `json:"text"`
	}{Type: "remote_text", RoomCode: code, Text: text})
}

// handleVanish relays the decay signal; there is no payload, only the event.
func (ctl *Controller) handleVanish(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	ctl.sendToPeers("remote_vanish", peers, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
	}{Type: "remote_vanish", RoomCode: code})
}

// handleReveal forwards the image payload (or null, the clear toggle)
// untouched. Exposure tracking is the client's concern.
func (ctl *Controller) handleReveal(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string  `json:"type"`
		RoomCode string  `json:"roomCode"`
		Payload  *string `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	if err := app.ValidateMediaPayload(p.Payload, ctl.limits.ImageMaxBytes); err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("reveal rejected")
		return
	}
	ctl.sendToPeers("remote_reveal", peers, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
		Payload  *string         `json:"payload"`
	}{Type: "remote_reveal", RoomCode: code, Payload: p.Payload})
}

func (ctl *Controller) handleWhisper(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string  `json:"type"`
		RoomCode string  `json:"roomCode"`
		Payload  *string `json:"payload"`
		Filter   string  `json:"filter,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	if err := app.ValidateMediaPayload(p.Payload, ctl.limits.AudioMaxBytes); err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("whisper rejected")
		return
	}
	if err := app.ValidateWhisperFilter(p.Filter); err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		return
	}
	ctl.sendToPeers("remote_whisper", peers, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
		Payload  *string         `json:"payload"`
		Filter   string          `json:"filter,omitempty"`
	}{Type: "remote_whisper", RoomCode: code, Payload: p.Payload, Filter: p.Filter})
}

// handleVideoControls re-marshals through the typed struct, so unexpected
// keys never pass through to the peer.
func (ctl *Controller) handleVideoControls(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string            `json:"type"`
		RoomCode string            `json:"roomCode"`
		Controls app.VideoControls `json:"controls"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	if err := app.ValidateVideoControls(p.Controls); err != nil {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		return
	}
	ctl.sendToPeers("remote_video_controls", peers, struct {
		Type     string            `json:"type"`
		RoomCode domain.RoomCode   `json:"roomCode"`
		Controls app.VideoControls `json:"controls"`
	}{Type: "remote_video_controls", RoomCode: code, Controls: p.Controls})
}

// handleScreenBlur is the blur-control relay of the screen-share family.
func (ctl *Controller) handleScreenBlur(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string  `json:"type"`
		RoomCode string  `json:"roomCode"`
		Blur     float64 `json:"blur"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	if p.Blur < 0 || p.Blur > 100 {
		metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
		return
	}
	ctl.sendToPeers("remote_screen_blur", peers, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
		Blur     float64         `json:"blur"`
	}{Type: "remote_screen_blur", RoomCode: code, Blur: p.Blur})
}

func (ctl *Controller) handlePresence(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type       string  `json:"type"`
		RoomCode   string  `json:"roomCode"`
		Activity   float64 `json:"activity"`
		Brightness float64 `json:"brightness"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	activity, brightness := app.ClampPresence(p.Activity, p.Brightness)
	ctl.sendToPeers("remote_presence", peers, struct {
		Type       string          `json:"type"`
		RoomCode   domain.RoomCode `json:"roomCode"`
		Activity   float64         `json:"activity"`
		Brightness float64         `json:"brightness"`
	}{Type: "remote_presence", RoomCode: code, Activity: activity, Brightness: brightness})
}

func (ctl *Controller) handlePulseTap(cid domain.ConnID, _ *wsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
	if !ok {
		return
	}
	ctl.sendToPeers("remote_pulse_tap", peers, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
	}{Type: "remote_pulse_tap", RoomCode: code})
}
