package signal

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two sockets from the same browser carry the same cookie token but are
// separate connections: every upgrade mints its own identity, so one
// socket closing must not tear down its sibling's state.
func TestSocketsSharingCookieStaySeparate(t *testing.T) {
	ctl := newTestController(nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", "same-browser")
		ctl.HandleSignal(c.Request.Context(), c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	dial := func() *websocket.Conn {
		t.Helper()
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}

	tab1 := dial()
	tab2 := dial()
	defer tab2.Close()

	require.Eventually(t, func() bool { return ctl.parts.Len() == 2 },
		time.Second, 10*time.Millisecond)

	// Closing one tab cleans up exactly one binding.
	require.NoError(t, tab1.Close())
	require.Eventually(t, func() bool { return ctl.parts.Len() == 1 },
		time.Second, 10*time.Millisecond)

	// The surviving tab is still fully serviced.
	require.NoError(t, tab2.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`)))
	require.NoError(t, tab2.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := tab2.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "heartbeat_ack")
}
