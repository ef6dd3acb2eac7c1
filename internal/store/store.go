package store

import (
	"github.com/chatdeck/chatdeck/internal/types"
)

// DefaultLimit is the total number of messages retained across all
// conversations. Eviction is by global arrival order, not per conversation.
const DefaultLimit = 200

// Store owns the canonical, deduplicated, bounded message buffer. All
// mutation goes through its operations; consumers only read derived views.
// It is not safe for concurrent use — the event loop is the single writer.
type Store struct {
	messages []types.Message
	present  map[string]struct{}
	limit    int

	// readTo is the per-conversation anchor: everything at or before it in
	// arrival order is read. unreadQuestions tracks question messages
	// individually, since questions stay unread until explicitly visited
	// even after the main anchor has moved past them.
	readTo          map[string]string
	unreadQuestions map[string]map[string]struct{}

	version      uint64
	statsVersion uint64
	statsCache   map[string]types.ConversationStats
}

// New creates an empty store retaining at most limit messages. A limit of
// zero or below falls back to DefaultLimit.
func New(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		present:         make(map[string]struct{}),
		limit:           limit,
		readTo:          make(map[string]string),
		unreadQuestions: make(map[string]map[string]struct{}),
	}
}

// Version increments on every mutation. Derived views cache against it.
func (s *Store) Version() uint64 {
	return s.version
}

// Len returns the number of buffered messages across all conversations.
func (s *Store) Len() int {
	return len(s.messages)
}

// Ingest appends a newly observed message in arrival order. Re-delivery of
// an already-known ID is a silent no-op; the return value reports whether
// the message was actually added.
func (s *Store) Ingest(msg types.Message) bool {
	if _, ok := s.present[msg.ID]; ok {
		return false
	}
	s.messages = append(s.messages, msg)
	s.present[msg.ID] = struct{}{}
	if msg.IsQuestion {
		s.addUnreadQuestion(msg.ConversationID, msg.ID)
	}
	s.evict()
	s.version++
	return true
}

// MergeHistoricalPage inserts a page of older messages directly before the
// earliest known message of the conversation, skipping IDs already present.
// Known messages are never reordered. Returns the number of messages
// actually inserted. Historical messages never count as unread.
func (s *Store) MergeHistoricalPage(conversationID string, older []types.Message) int {
	fresh := make([]types.Message, 0, len(older))
	for _, msg := range older {
		if _, ok := s.present[msg.ID]; ok {
			continue
		}
		fresh = append(fresh, msg)
	}
	if len(fresh) == 0 {
		return 0
	}

	at := 0
	for i, msg := range s.messages {
		if msg.ConversationID == conversationID {
			at = i
			break
		}
	}

	merged := make([]types.Message, 0, len(s.messages)+len(fresh))
	merged = append(merged, s.messages[:at]...)
	merged = append(merged, fresh...)
	merged = append(merged, s.messages[at:]...)
	s.messages = merged
	for _, msg := range fresh {
		s.present[msg.ID] = struct{}{}
	}

	// The global bound still applies; if the page itself overflows it, the
	// oldest entries lose.
	s.evict()
	s.version++
	return len(fresh)
}

// Conversation returns the buffered messages of one conversation in
// arrival order. Unknown conversations yield an empty slice.
func (s *Store) Conversation(conversationID string) []types.Message {
	out := make([]types.Message, 0, 32)
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out
}

// All returns a copy of the whole buffer in arrival order.
func (s *Store) All() []types.Message {
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Get looks a single message up by ID.
func (s *Store) Get(id string) (types.Message, bool) {
	if _, ok := s.present[id]; !ok {
		return types.Message{}, false
	}
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return types.Message{}, false
}

// ClearConversation drops all buffered messages and read state for a
// conversation, e.g. when it is removed entirely.
func (s *Store) ClearConversation(conversationID string) {
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			delete(s.present, msg.ID)
			continue
		}
		kept = append(kept, msg)
	}
	s.messages = kept
	delete(s.readTo, conversationID)
	delete(s.unreadQuestions, conversationID)
	s.version++
}

// Restore replaces the buffer and anchors from a persisted snapshot.
func (s *Store) Restore(snap types.Snapshot) {
	s.messages = s.messages[:0]
	s.present = make(map[string]struct{})
	s.readTo = make(map[string]string)
	s.unreadQuestions = make(map[string]map[string]struct{})
	for _, msg := range snap.Messages {
		if _, ok := s.present[msg.ID]; ok {
			continue
		}
		s.messages = append(s.messages, msg)
		s.present[msg.ID] = struct{}{}
	}
	for conv, id := range snap.ReadAnchors {
		if id != "" {
			s.readTo[conv] = id
		}
	}
	// Questions past each conversation's anchor were still unread when the
	// snapshot was taken; without an anchor every buffered question is.
	anchorPos := make(map[string]int, len(s.readTo))
	for conv, id := range s.readTo {
		anchorPos[conv] = s.position(id)
	}
	for i, msg := range s.messages {
		if !msg.IsQuestion {
			continue
		}
		if pos, ok := anchorPos[msg.ConversationID]; ok && i <= pos {
			continue
		}
		s.addUnreadQuestion(msg.ConversationID, msg.ID)
	}
	s.evict()
	s.version++
}

// ReadAnchors returns a copy of the current anchors for snapshotting.
func (s *Store) ReadAnchors() map[string]string {
	out := make(map[string]string, len(s.readTo))
	for conv, id := range s.readTo {
		out[conv] = id
	}
	return out
}

// position returns the arrival index of a message ID, or -1 when absent.
func (s *Store) position(id string) int {
	if id == "" {
		return -1
	}
	if _, ok := s.present[id]; !ok {
		return -1
	}
	for i, msg := range s.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) addUnreadQuestion(conversationID, id string) {
	set, ok := s.unreadQuestions[conversationID]
	if !ok {
		set = make(map[string]struct{})
		s.unreadQuestions[conversationID] = set
	}
	set[id] = struct{}{}
}

// evict truncates to the most recent limit messages by global arrival
// order, dropping bookkeeping for everything that falls off the front.
func (s *Store) evict() {
	if len(s.messages) <= s.limit {
		return
	}
	drop := s.messages[:len(s.messages)-s.limit]
	for _, msg := range drop {
		delete(s.present, msg.ID)
		if set, ok := s.unreadQuestions[msg.ConversationID]; ok {
			delete(set, msg.ID)
		}
	}
	s.messages = append(s.messages[:0], s.messages[len(s.messages)-s.limit:]...)
}
