package transport

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/chatdeck/chatdeck/internal/types"
)

// ParseSourceURL turns a pasted stream URL into a conversation: the
// platform is detected from the host and the conversation ID from the
// platform's URL shape. Unknown hosts are routed through the relay.
func ParseSourceURL(raw string) (types.Conversation, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.Conversation{}, fmt.Errorf("empty source URL")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return types.Conversation{}, fmt.Errorf("parse source URL: %w", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := splitPath(u.Path)

	var platform types.Platform
	var channel string
	switch {
	case host == "twitch.tv" || host == "m.twitch.tv":
		platform = types.PlatformTwitch
		if len(segments) > 0 {
			channel = segments[0]
		}
	case host == "kick.com":
		platform = types.PlatformKick
		if len(segments) > 0 {
			channel = segments[0]
		}
	case host == "youtube.com" || host == "youtu.be":
		platform = types.PlatformYouTube
		switch {
		case host == "youtu.be" && len(segments) > 0:
			channel = segments[0]
		case u.Query().Get("v") != "":
			channel = u.Query().Get("v")
		case len(segments) > 1 && segments[0] == "live":
			channel = segments[1]
		case len(segments) > 0 && strings.HasPrefix(segments[0], "@"):
			channel = segments[0]
		}
	default:
		platform = types.PlatformRelay
		channel = host
		if len(segments) > 0 {
			channel = segments[len(segments)-1]
		}
	}

	if channel == "" {
		return types.Conversation{}, fmt.Errorf("no channel in source URL %q", raw)
	}
	channel = strings.ToLower(channel)

	return types.Conversation{
		ID:        fmt.Sprintf("%s-%s", platform, channel),
		SourceURL: raw,
		Platform:  platform,
		Title:     channel,
	}, nil
}

func splitPath(p string) []string {
	out := make([]string, 0, 4)
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
