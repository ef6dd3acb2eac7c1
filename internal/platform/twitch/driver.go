package twitch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"

	"github.com/chatdeck/chatdeck/internal/transport"
	"github.com/chatdeck/chatdeck/internal/types"
)

// Driver connects conversations to Twitch IRC. Each dialed conversation
// gets its own client so closing one does not disturb the others.
type Driver struct {
	username string
	oauth    string
}

// New creates a Twitch driver. With an empty oauth token the client
// connects anonymously, which is enough for read-only chat.
func New(username, oauth string) *Driver {
	return &Driver{username: username, oauth: oauth}
}

// Dial joins the conversation's channel and delivers its messages through
// sink until the returned connection is closed.
func (d *Driver) Dial(ctx context.Context, conv types.Conversation, sink func(types.Message)) (io.Closer, error) {
	var client *twitchirc.Client
	if d.oauth == "" {
		client = twitchirc.NewAnonymousClient()
	} else {
		client = twitchirc.NewClient(d.username, d.oauth)
	}

	client.OnPrivateMessage(func(msg twitchirc.PrivateMessage) {
		sink(transport.Normalize(transport.RawEvent{
			ID:             msg.ID,
			ConversationID: conv.ID,
			Username:       msg.User.DisplayName,
			Message:        msg.Message,
			TimestampMS:    msg.Time.UnixMilli(),
			Platform:       string(types.PlatformTwitch),
		}))
	})
	client.OnConnect(func() {
		log.Printf("connected to twitch irc for %s", conv.ID)
	})

	client.Join(conv.Title)
	go func() {
		if err := client.Connect(); err != nil {
			log.Printf("twitch irc connection for %s ended: %v", conv.ID, err)
		}
	}()

	return &conn{client: client}, nil
}

// CheckLive reports whether the channel page exists. Twitch chat stays
// joinable while a channel exists, even between streams.
func (d *Driver) CheckLive(ctx context.Context, conv types.Conversation) (bool, error) {
	url := fmt.Sprintf("https://www.twitch.tv/%s", conv.Title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

type conn struct {
	client *twitchirc.Client
}

func (c *conn) Close() error {
	return c.client.Disconnect()
}
