package store

import "github.com/chatdeck/chatdeck/internal/types"

// MarkRead moves the conversation's read anchor to msgID. The anchor only
// moves forward in arrival order; calls referencing an older position, or
// an ID absent from the buffer, are ignored. Questions at or before the new
// anchor are cleared from the question boundary as well — this is the
// explicit "I have looked at everything up to here" action.
func (s *Store) MarkRead(conversationID, msgID string) {
	if !s.advanceAnchor(conversationID, msgID) {
		return
	}
	pos := s.position(msgID)
	if set, ok := s.unreadQuestions[conversationID]; ok {
		for id := range set {
			if p := s.position(id); p >= 0 && p <= pos {
				delete(set, id)
			}
		}
	}
	s.version++
}

// MarkLiveRead moves the anchor the way the live-edge auto-advance does:
// forward only, but without touching the question boundary. Questions stay
// unread until explicitly visited so the question counter keeps meaning.
func (s *Store) MarkLiveRead(conversationID, msgID string) {
	if !s.advanceAnchor(conversationID, msgID) {
		return
	}
	s.version++
}

// MarkQuestionRead clears a single question from the unread-question
// boundary, e.g. after navigating to it. Other messages are unaffected.
func (s *Store) MarkQuestionRead(conversationID, msgID string) {
	set, ok := s.unreadQuestions[conversationID]
	if !ok {
		return
	}
	if _, ok := set[msgID]; !ok {
		return
	}
	delete(set, msgID)
	s.version++
}

func (s *Store) advanceAnchor(conversationID, msgID string) bool {
	pos := s.position(msgID)
	if pos < 0 {
		return false
	}
	if cur, ok := s.readTo[conversationID]; ok {
		// An anchor that aged out of the buffer no longer orders anything;
		// any present ID may re-establish it.
		if curPos := s.position(cur); curPos >= 0 && curPos >= pos {
			return false
		}
	}
	s.readTo[conversationID] = msgID
	return true
}

// Unread walks backward from the conversation's newest message to the read
// anchor, reporting the total passed and the open question count. The first
// computation for a conversation auto-anchors to its newest message and
// reports zero — messages you just loaded are not a backlog. An anchor that
// aged out of the buffer means everything buffered counts as unread until a
// new anchor is set.
func (s *Store) Unread(conversationID string) types.UnreadStats {
	msgs := s.Conversation(conversationID)
	if len(msgs) == 0 {
		return types.UnreadStats{}
	}

	anchor, ok := s.readTo[conversationID]
	if !ok {
		newest := msgs[len(msgs)-1]
		s.readTo[conversationID] = newest.ID
		delete(s.unreadQuestions, conversationID)
		s.version++
		return types.UnreadStats{}
	}

	total := 0
	found := false
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == anchor {
			found = true
			break
		}
		total++
	}
	if !found {
		total = len(msgs)
	}

	questions := 0
	if set, ok := s.unreadQuestions[conversationID]; ok {
		for id := range set {
			if _, buffered := s.present[id]; buffered {
				questions++
			}
		}
	}
	return types.UnreadStats{Total: total, Questions: questions}
}

// NextUnreadQuestion returns the next unread question for the conversation
// in arrival order. With afterID set, the search starts strictly after that
// message and wraps around to the first unread question; it reports false
// only when no unread questions remain.
func (s *Store) NextUnreadQuestion(conversationID, afterID string) (types.Message, bool) {
	set, ok := s.unreadQuestions[conversationID]
	if !ok || len(set) == 0 {
		return types.Message{}, false
	}

	unread := make([]types.Message, 0, len(set))
	for _, msg := range s.Conversation(conversationID) {
		if _, ok := set[msg.ID]; ok {
			unread = append(unread, msg)
		}
	}
	if len(unread) == 0 {
		return types.Message{}, false
	}
	if afterID == "" {
		return unread[0], true
	}

	afterPos := s.position(afterID)
	if afterPos < 0 {
		// Reference aged out; fall back to the first unread question.
		return unread[0], true
	}
	for _, msg := range unread {
		if s.position(msg.ID) > afterPos {
			return msg, true
		}
	}
	// Past the end: cyclic navigation starts over.
	return unread[0], true
}
