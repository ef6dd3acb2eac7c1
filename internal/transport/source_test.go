package transport

import (
	"testing"

	"github.com/chatdeck/chatdeck/internal/types"
)

func TestParseSourceURL(t *testing.T) {
	tests := []struct {
		url          string
		wantPlatform types.Platform
		wantID       string
	}{
		{"https://www.twitch.tv/somestreamer", types.PlatformTwitch, "twitch-somestreamer"},
		{"twitch.tv/SomeStreamer", types.PlatformTwitch, "twitch-somestreamer"},
		{"https://kick.com/anotherone", types.PlatformKick, "kick-anotherone"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", types.PlatformYouTube, "youtube-dqw4w9wgxcq"},
		{"https://youtube.com/live/AbCdEf12345", types.PlatformYouTube, "youtube-abcdef12345"},
		{"https://youtu.be/AbCdEf12345", types.PlatformYouTube, "youtube-abcdef12345"},
		{"https://example.org/room42", types.PlatformRelay, "relay-room42"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			conv, err := ParseSourceURL(tt.url)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if conv.Platform != tt.wantPlatform {
				t.Errorf("platform = %s, want %s", conv.Platform, tt.wantPlatform)
			}
			if conv.ID != tt.wantID {
				t.Errorf("id = %s, want %s", conv.ID, tt.wantID)
			}
		})
	}
}

func TestParseSourceURLRejectsEmpty(t *testing.T) {
	if _, err := ParseSourceURL("  "); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := ParseSourceURL("https://twitch.tv/"); err == nil {
		t.Error("expected error for URL without a channel")
	}
}
