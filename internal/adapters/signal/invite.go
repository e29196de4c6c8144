package signal

import (
	"encoding/json"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/domain"
	"github.com/ghostline/relay/internal/metrics"
)

// inviteRelay builds the handler for one leg of the three-message invite
// exchange (request, accept, decline). Nothing about an invite is stored:
// each leg is validated, authorized and forwarded, and that is all.
func (ctl *Controller) inviteRelay(outEvent string) handlerFunc {
	return func(cid domain.ConnID, _ *wsConn, data []byte) {
		var p struct {
			Type     string `json:"type"`
			RoomCode string `json:"roomCode"`
			Feature  string `json:"feature"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
		if !ok {
			return
		}
		if err := app.ValidateInviteFeature(p.Feature); err != nil {
			metrics.Rejections.WithLabelValues(metrics.ReasonValidation).Inc()
			return
		}
		ctl.sendToPeers(outEvent, peers, struct {
			Type     string          `json:"type"`
			RoomCode domain.RoomCode `json:"roomCode"`
			Feature  string          `json:"feature"`
		}{Type: outEvent, RoomCode: code, Feature: p.Feature})
	}
}
