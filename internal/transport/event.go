package transport

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/chatdeck/chatdeck/internal/types"
)

// RawEvent is an inbound message event as delivered by a source before
// normalization. Sources disagree on field names (text vs. content vs.
// message), so the loose shape is decoded here once and nowhere else.
type RawEvent struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Author         string `json:"author"`
	Username       string `json:"username"`
	Text           string `json:"text"`
	Content        string `json:"content"`
	Message        string `json:"message"`
	TimestampMS    int64  `json:"timestampMillis"`
	Timestamp      string `json:"timestamp"` // RFC3339 fallback
	IsQuestion     *bool  `json:"isQuestion,omitempty"`
	Sentiment      string `json:"sentiment,omitempty"`
	IsFlagged      bool   `json:"isFlagged,omitempty"`
	Platform       string `json:"platform"`
}

// Normalize produces the canonical Message shape from a raw event. The
// core never branches on which loose field was present; all coalescing
// happens here. An explicit isQuestion flag always wins over the heuristic.
func Normalize(raw RawEvent) types.Message {
	text := raw.Text
	if text == "" {
		text = raw.Content
	}
	if text == "" {
		text = raw.Message
	}

	author := raw.Author
	if author == "" {
		author = raw.Username
	}

	ts := raw.TimestampMS
	if ts == 0 && raw.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			ts = parsed.UnixMilli()
		}
	}
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	isQuestion := LooksLikeQuestion(text)
	if raw.IsQuestion != nil {
		isQuestion = *raw.IsQuestion
	}

	sentiment := types.Sentiment(raw.Sentiment)
	switch sentiment {
	case types.SentimentHappy, types.SentimentNeutral, types.SentimentSad:
	default:
		sentiment = types.SentimentUnknown
	}

	platform := types.Platform(raw.Platform)
	if platform == "" {
		platform = types.PlatformRelay
	}

	id := raw.ID
	if id == "" {
		id = deriveID(platform, raw.ConversationID, author, text, ts)
	}

	return types.Message{
		ID:             id,
		ConversationID: raw.ConversationID,
		Author:         author,
		Text:           text,
		TS:             ts,
		IsQuestion:     isQuestion,
		Sentiment:      sentiment,
		Flagged:        raw.IsFlagged,
		Platform:       platform,
	}
}

// LooksLikeQuestion is the fallback heuristic for sources that do not
// classify messages: the presence of a question mark.
func LooksLikeQuestion(text string) bool {
	return strings.Contains(text, "?") || strings.Contains(text, "？")
}

// deriveID builds a stable ID for sources that do not assign one, so
// re-delivery of the same event still dedups in the store.
func deriveID(platform types.Platform, conversationID, author, text string, ts int64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d", platform, conversationID, author, text, ts)
	return fmt.Sprintf("%s-%016x", platform, h.Sum64())
}
