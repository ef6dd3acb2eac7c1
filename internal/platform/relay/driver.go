package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatdeck/chatdeck/internal/transport"
	"github.com/chatdeck/chatdeck/internal/types"
)

const (
	maxReconnects  = 5
	reconnectDelay = 2 * time.Second
)

// Driver connects conversations through a websocket relay gateway that
// forwards chat from sources without a native driver. The gateway speaks
// JSON events in the loose inbound shape; normalization happens here.
type Driver struct {
	gatewayURL string
}

// New creates a relay driver for the given ws:// or wss:// gateway URL.
func New(gatewayURL string) *Driver {
	return &Driver{gatewayURL: gatewayURL}
}

// Dial subscribes to the conversation's channel on the gateway and
// delivers its messages through sink. Dropped connections are redialed a
// bounded number of times before the stream is given up.
func (d *Driver) Dial(ctx context.Context, conv types.Conversation, sink func(types.Message)) (io.Closer, error) {
	if d.gatewayURL == "" {
		return nil, fmt.Errorf("no relay gateway configured")
	}
	target, err := channelURL(d.gatewayURL, conv.Title)
	if err != nil {
		return nil, err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay gateway: %w", err)
	}

	c := &conn{ws: ws, done: make(chan struct{})}
	go c.readLoop(target, conv, sink)
	return c, nil
}

// CheckLive reports whether the gateway accepts a subscription for the
// channel right now.
func (d *Driver) CheckLive(ctx context.Context, conv types.Conversation) (bool, error) {
	if d.gatewayURL == "" {
		return false, fmt.Errorf("no relay gateway configured")
	}
	target, err := channelURL(d.gatewayURL, conv.Title)
	if err != nil {
		return false, err
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, nil
	}
	_ = ws.Close()
	return true, nil
}

func channelURL(gateway, channel string) (string, error) {
	u, err := url.Parse(gateway)
	if err != nil {
		return "", fmt.Errorf("parse gateway URL: %w", err)
	}
	q := u.Query()
	q.Set("channel", channel)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type conn struct {
	ws   *websocket.Conn
	done chan struct{}
}

func (c *conn) readLoop(target string, conv types.Conversation, sink func(types.Message)) {
	attempts := 0
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if attempts >= maxReconnects {
				log.Printf("relay stream for %s gave up after %d reconnects: %v", conv.ID, attempts, err)
				return
			}
			attempts++
			time.Sleep(reconnectDelay)
			ws, _, dialErr := websocket.DefaultDialer.Dial(target, nil)
			if dialErr != nil {
				log.Printf("relay redial %d/%d for %s failed: %v", attempts, maxReconnects, conv.ID, dialErr)
				continue
			}
			c.ws = ws
			continue
		}
		attempts = 0

		var raw transport.RawEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("relay event for %s is not valid JSON, skipping: %v", conv.ID, err)
			continue
		}
		raw.ConversationID = conv.ID
		sink(transport.Normalize(raw))
	}
}

func (c *conn) Close() error {
	close(c.done)
	return c.ws.Close()
}
