package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"cryptointel/internal/util"
)

// Notification is a push message from the server's /api/ws endpoint.
type Notification struct {
	Type        string    `json:"type"` // "snapshot"
	ExtractedAt time.Time `json:"extracted_at"`
	Count       int       `json:"count"`
}

// Notifier keeps a websocket open to the server and reports snapshot
// notifications. It reconnects with exponential backoff until ctx ends.
type Notifier struct {
	url         string
	log         *slog.Logger
	readTimeout time.Duration
}

// NewNotifier derives the websocket URL from the HTTP API root.
func NewNotifier(baseURL string, log *slog.Logger) *Notifier {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return &Notifier{url: u + "/api/ws", log: log, readTimeout: 2 * time.Minute}
}

// URL returns the websocket endpoint.
func (n *Notifier) URL() string { return n.url }

// Run blocks, invoking fn for every snapshot notification, until ctx is done.
func (n *Notifier) Run(ctx context.Context, fn func(Notification)) {
	retry := 0
	for {
		if ctx.Err() != nil {
			return
		}
		connected, err := n.session(ctx, fn)
		if ctx.Err() != nil {
			return
		}
		if connected {
			retry = 0
		}
		if err != nil {
			n.log.Warn("notifier disconnected", "url", n.url, "error", err, "retry", retry)
		}
		delay := util.Backoff(retry)
		retry++
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// session reads one connection until it fails. connected reports whether the
// dial succeeded.
func (n *Notifier) session(ctx context.Context, fn func(Notification)) (connected bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, n.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	n.log.Info("notifier connected", "url", n.url)

	// Server pings keep an idle connection alive.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(n.readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		conn.SetReadDeadline(time.Now().Add(n.readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var msg Notification
		if err := json.Unmarshal(data, &msg); err != nil {
			n.log.Warn("notifier: bad message", "error", err)
			continue
		}
		if msg.Type == "snapshot" {
			fn(msg)
		}
	}
}
