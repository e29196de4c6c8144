package signal

import "github.com/ghostline/relay/internal/domain"

// handleHeartbeat is the application-level keep-alive half of the
// heartbeat/acknowledgement pair.
func (ctl *Controller) handleHeartbeat(_ domain.ConnID, conn *wsConn, _ []byte) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "heartbeat_ack",
	}
	ctl.sendJSON(conn, resp)
}
