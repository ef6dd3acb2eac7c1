package transport

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/chatdeck/chatdeck/internal/types"
)

// Driver is one platform's connection implementation. Dial delivers
// normalized messages through sink until the returned connection is
// closed.
type Driver interface {
	Dial(ctx context.Context, conv types.Conversation, sink func(types.Message)) (io.Closer, error)
	CheckLive(ctx context.Context, conv types.Conversation) (bool, error)
}

// Router fans several platform drivers into one normalized event stream
// and implements the lifecycle manager's Connector contract. Connection
// handles are opaque UUIDs.
type Router struct {
	drivers map[types.Platform]Driver
	conns   map[string]io.Closer
	events  chan types.Message
}

// NewRouter creates a router with an event buffer sized for bursty chat.
func NewRouter() *Router {
	return &Router{
		drivers: make(map[types.Platform]Driver),
		conns:   make(map[string]io.Closer),
		events:  make(chan types.Message, 256),
	}
}

// Register installs the driver used for a platform.
func (r *Router) Register(platform types.Platform, driver Driver) {
	r.drivers[platform] = driver
}

// Events is the merged stream of normalized messages from all open
// connections.
func (r *Router) Events() <-chan types.Message {
	return r.events
}

// Connect opens the conversation's source through its platform driver and
// returns an opaque connection handle.
func (r *Router) Connect(ctx context.Context, conv types.Conversation) (string, error) {
	driver, ok := r.drivers[conv.Platform]
	if !ok {
		return "", fmt.Errorf("no driver for platform %q", conv.Platform)
	}
	conn, err := driver.Dial(ctx, conv, r.deliver)
	if err != nil {
		return "", err
	}
	handle := uuid.NewString()
	r.conns[handle] = conn
	return handle, nil
}

// Disconnect closes the connection behind a handle. Unknown handles are
// ignored; the conversation is gone either way.
func (r *Router) Disconnect(ctx context.Context, handle string) error {
	conn, ok := r.conns[handle]
	if !ok {
		return nil
	}
	delete(r.conns, handle)
	return conn.Close()
}

// CheckLive asks the platform driver whether the source is still live.
func (r *Router) CheckLive(ctx context.Context, conv types.Conversation) (bool, error) {
	driver, ok := r.drivers[conv.Platform]
	if !ok {
		return false, fmt.Errorf("no driver for platform %q", conv.Platform)
	}
	return driver.CheckLive(ctx, conv)
}

// CloseAll tears down every open connection, e.g. on shutdown.
func (r *Router) CloseAll() {
	for handle, conn := range r.conns {
		_ = conn.Close()
		delete(r.conns, handle)
	}
}

// deliver pushes a message into the merged stream. Chat bursts beyond the
// buffer are dropped rather than blocking a platform reader.
func (r *Router) deliver(msg types.Message) {
	select {
	case r.events <- msg:
	default:
		log.Printf("event buffer full, dropping message %s", msg.ID)
	}
}
