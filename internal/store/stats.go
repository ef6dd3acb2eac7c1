package store

import "github.com/chatdeck/chatdeck/internal/types"

// Stats returns the derived counters for one conversation. Results are
// memoized against the store version so cost scales with reads after a
// change, not with every ingest.
func (s *Store) Stats(conversationID string) types.ConversationStats {
	s.refreshStats()
	return s.statsCache[conversationID]
}

// AllStats returns the derived counters for every conversation that has
// buffered messages.
func (s *Store) AllStats() map[string]types.ConversationStats {
	s.refreshStats()
	out := make(map[string]types.ConversationStats, len(s.statsCache))
	for id, st := range s.statsCache {
		out[id] = st
	}
	return out
}

func (s *Store) refreshStats() {
	if s.statsCache != nil && s.statsVersion == s.version {
		return
	}

	counts := make(map[string]types.ConversationStats)
	for _, msg := range s.messages {
		st := counts[msg.ConversationID]
		st.Messages++
		if msg.IsQuestion {
			st.Questions++
		}
		counts[msg.ConversationID] = st
	}
	// Unread may auto-anchor a first-viewed conversation, which bumps the
	// version; record the version after all reads so the cache stays valid.
	for id, st := range counts {
		st.Unread = s.Unread(id)
		counts[id] = st
	}
	s.statsCache = counts
	s.statsVersion = s.version
}
