package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/config"
	"github.com/ghostline/relay/internal/domain"
	"github.com/ghostline/relay/internal/metrics"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WebSocket side of the relay: one dispatch table,
// composed once at construction, through which every inbound signal flows.
// It holds no room or participant state of its own; that lives in the
// registries it reads and mutates.
type Controller struct {
	cfg      *config.Config
	limits   app.Limits
	rooms    *app.RoomRegistry
	parts    *app.ParticipantRegistry
	guard    *app.BruteForceGuard
	limiter  *app.EventRateLimiter
	codes    *app.CodeGenerator
	tiers    app.TierResolver
	dispatch map[string]handlerFunc
}

func NewController(
	cfg *config.Config,
	rooms *app.RoomRegistry,
	parts *app.ParticipantRegistry,
	guard *app.BruteForceGuard,
	limiter *app.EventRateLimiter,
	codes *app.CodeGenerator,
	tiers app.TierResolver,
) *Controller {
	ctl := &Controller{
		cfg: cfg,
		limits: app.Limits{
			TextMaxLen:    cfg.TextMaxLen,
			ImageMaxBytes: cfg.ImageMaxBytes,
			AudioMaxBytes: cfg.AudioMaxBytes,
		},
		rooms:   rooms,
		parts:   parts,
		guard:   guard,
		limiter: limiter,
		codes:   codes,
		tiers:   tiers,
	}
	ctl.dispatch = ctl.buildDispatch()
	return ctl
}

type wsConn struct {
	conn *websocket.Conn
	send chan app.Frame

	mu     sync.RWMutex
	closed bool

	teardown sync.Once
}

func (c *wsConn) TrySend(f app.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until it drops.
// Every upgrade gets its own ConnID: two tabs sharing the browser cookie
// must not share per-connection state, so the cookie token is logged for
// correlation only.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	cid := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).
		Str("browser", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan app.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.parts.Bind(cid, conn, cancel)
	metrics.Connections.Inc()

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cid, conn)
}
