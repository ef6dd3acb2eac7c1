package store

import (
	"strings"

	"github.com/chatdeck/chatdeck/internal/types"
)

// Filter produces a derived, read-only message sequence: scoped to one
// conversation (or the union of questions across the active set when
// AllQuestions is on), optionally restricted to questions, calm-filtered,
// and substring-matched case-insensitively on author or text. Pure function
// of the buffer and options; ordering is arrival order, ties by insertion.
func (s *Store) Filter(conversationID string, opts types.FilterOptions) []types.Message {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	var scope map[string]struct{}
	if opts.AllQuestions {
		scope = make(map[string]struct{}, len(opts.ActiveConversations))
		for _, id := range opts.ActiveConversations {
			scope[id] = struct{}{}
		}
	}

	out := make([]types.Message, 0, 32)
	for _, msg := range s.messages {
		if opts.AllQuestions {
			if _, ok := scope[msg.ConversationID]; !ok {
				continue
			}
			if !msg.IsQuestion {
				continue
			}
		} else {
			if msg.ConversationID != conversationID {
				continue
			}
			if opts.QuestionsOnly && !msg.IsQuestion {
				continue
			}
		}
		if opts.CalmMode && (msg.Flagged || msg.Sentiment == types.SentimentSad) {
			continue
		}
		if query != "" && !matchesQuery(msg, query) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func matchesQuery(msg types.Message, lowered string) bool {
	return strings.Contains(strings.ToLower(msg.Author), lowered) ||
		strings.Contains(strings.ToLower(msg.Text), lowered)
}
