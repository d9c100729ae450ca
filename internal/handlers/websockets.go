package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bin_monitoring/internal/hub"
	"bin_monitoring/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
	maxBinsArg = 100

	errBinsInvalid = "invalid 'bins'; use a comma separated list of bin ids"
	errNoLiveFeed  = "live feed unavailable"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: h.checkOrigin}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}

// @Summary      Live bin events
// @Description  WebSocket. The first frame is a "snapshot" event with the current bins, then sensorUpdate, collectionRequested and collectionCancelled events as they commit. Slow clients may miss events and should reconcile from the snapshot of a new connection.
// @Tags         live
// @Param        bins  query  string  false  "Comma separated bin ids to follow (all when empty)"  example(1,2)
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	bins, err := parseBinFilter(c.Query("bins"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBinsInvalid})
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoLiveFeed})
		return
	}

	// Subscribe before the snapshot so nothing committed in between is lost.
	sub := h.hub.Subscribe(bins...)
	defer h.hub.Unsubscribe(sub)

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	ctx := c.Request.Context()
	if err := h.sendSnapshot(ctx, conn, sub); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err, "session", sub.ID)
		}
		return
	}
	if h.log != nil {
		h.log.Infow("ws_connected", "session", sub.ID, "bins", sub.Bins())
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err, "session", sub.ID)
				}
				return
			}
		case ev, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err, "session", sub.ID)
				}
				return
			}
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendSnapshot writes the current state of every bin the session follows.
func (h *Handler) sendSnapshot(ctx context.Context, conn *websocket.Conn, sub *hub.Subscription) error {
	all, err := h.services.ListBins(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_snapshot_failed", "err", err)
		}
		return err
	}
	bins := make([]models.Bin, 0, len(all))
	for _, b := range all {
		if sub.Wants(b.ID) {
			bins = append(bins, b)
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(models.Event{
		ID:         uuid.NewString(),
		Type:       models.EventSnapshot,
		OccurredAt: time.Now().UTC(),
		Data:       bins,
	})
}

// parseBinFilter reads ?bins=1,2,3. Empty means every bin.
func parseBinFilter(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > maxBinsArg {
		return nil, strconv.ErrRange
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		if id <= 0 {
			return nil, strconv.ErrSyntax
		}
		out = append(out, id)
	}
	return out, nil
}
