package signal

import (
	"encoding/json"

	"github.com/ghostline/relay/internal/domain"
)

// negotiationRelay handles both the WebRTC and the screen-share signaling
// events. The negotiation body (SDP, ICE candidates, whatever the clients
// exchange) is an opaque capability blob: the relay validates only the
// envelope (event type and room membership) and forwards the payload
// byte-for-byte to the peer. It never parses SDP or candidate contents.
//
// Wire contract: the envelope is {"type", "roomCode", "payload"}, with the
// clients' negotiation message nested whole under "payload" rather than
// spread flat ({"type": "offer", "sdp": ...}) into the envelope. Flat
// framing would make the outer "type" collide with the inner offer/answer
// discriminator and force the relay to enumerate inner shapes; nesting
// keeps the blob opaque. Clients wrap on send and unwrap on receive.
func (ctl *Controller) negotiationRelay(event string) handlerFunc {
	return func(cid domain.ConnID, _ *wsConn, data []byte) {
		var p struct {
			Type     string          `json:"type"`
			RoomCode string          `json:"roomCode"`
			Payload  json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		code, peers, ok := ctl.relayTargets(cid, p.RoomCode)
		if !ok {
			return
		}
		ctl.sendToPeers(event, peers, struct {
			Type     string          `json:"type"`
			RoomCode domain.RoomCode `json:"roomCode"`
			Payload  json.RawMessage `json:"payload"`
		}{Type: event, RoomCode: code, Payload: p.Payload})
	}
}
