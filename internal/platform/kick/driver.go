package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	kickchat "github.com/johanvandegriff/kick-chat-wrapper"

	"github.com/chatdeck/chatdeck/internal/transport"
	"github.com/chatdeck/chatdeck/internal/types"
)

// channelResponse is the shape of Kick's channel API answer. livestream
// is null while the channel is offline.
type channelResponse struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Chatroom struct {
		ID int `json:"id"`
	} `json:"chatroom"`
	Livestream *struct {
		IsLive bool `json:"is_live"`
	} `json:"livestream"`
}

// Driver connects conversations to Kick chat. Channel slugs are resolved
// to chatroom IDs through the Kick API before joining.
type Driver struct {
	apiBase string
	http    *http.Client
}

// New creates a Kick driver against the given API base URL.
func New(apiBase string) *Driver {
	return &Driver{
		apiBase: apiBase,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Dial resolves the conversation's chatroom, joins it, and delivers its
// messages through sink until the returned connection is closed.
func (d *Driver) Dial(ctx context.Context, conv types.Conversation, sink func(types.Message)) (io.Closer, error) {
	info, err := d.fetchChannel(ctx, conv.Title)
	if err != nil {
		return nil, fmt.Errorf("resolve kick channel %q: %w", conv.Title, err)
	}

	client, err := kickchat.NewClient()
	if err != nil {
		return nil, fmt.Errorf("kick chat client: %w", err)
	}
	if err := client.JoinChannelByID(info.Chatroom.ID); err != nil {
		client.Close()
		return nil, fmt.Errorf("join kick chatroom %d: %w", info.Chatroom.ID, err)
	}

	done := make(chan struct{})
	go func() {
		messages := client.ListenForMessages()
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					log.Printf("kick message stream for %s closed", conv.ID)
					return
				}
				sink(transport.Normalize(transport.RawEvent{
					ConversationID: conv.ID,
					Username:       msg.Sender.Username,
					Content:        msg.Content,
					TimestampMS:    msg.CreatedAt.UnixMilli(),
					Platform:       string(types.PlatformKick),
				}))
			case <-done:
				return
			}
		}
	}()

	return &conn{client: client, done: done}, nil
}

// CheckLive reports whether the channel is currently streaming.
func (d *Driver) CheckLive(ctx context.Context, conv types.Conversation) (bool, error) {
	info, err := d.fetchChannel(ctx, conv.Title)
	if err != nil {
		return false, err
	}
	return info.Livestream != nil && info.Livestream.IsLive, nil
}

// fetchChannel queries the Kick channel API. Browser-like headers keep
// CloudFlare from rejecting the request.
func (d *Driver) fetchChannel(ctx context.Context, slug string) (*channelResponse, error) {
	url := fmt.Sprintf("%s/channels/%s", d.apiBase, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://kick.com/")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("kick API returned status %d: %s", resp.StatusCode, string(body))
	}

	var info channelResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode kick channel response: %w", err)
	}
	return &info, nil
}

type conn struct {
	client *kickchat.Client
	done   chan struct{}
}

func (c *conn) Close() error {
	close(c.done)
	c.client.Close()
	return nil
}
