package store

import (
	"testing"

	"github.com/chatdeck/chatdeck/internal/types"
)

func seedFilterStore(t *testing.T) *Store {
	t.Helper()
	s := New(0)
	s.Ingest(types.Message{ID: "1", ConversationID: "s1", Author: "Alice", Text: "hello chat", Platform: types.PlatformTwitch})
	s.Ingest(types.Message{ID: "2", ConversationID: "s1", Author: "bob", Text: "how does this work?", IsQuestion: true, Platform: types.PlatformTwitch})
	s.Ingest(types.Message{ID: "3", ConversationID: "s1", Author: "carol", Text: "BUY CHEAP STUFF", Flagged: true, Platform: types.PlatformTwitch})
	s.Ingest(types.Message{ID: "4", ConversationID: "s1", Author: "dave", Text: "this is awful", Sentiment: types.SentimentSad, Platform: types.PlatformTwitch})
	s.Ingest(types.Message{ID: "5", ConversationID: "s2", Author: "erin", Text: "why though?", IsQuestion: true, Platform: types.PlatformKick})
	s.Ingest(types.Message{ID: "6", ConversationID: "s3", Author: "frank", Text: "anyone here?", IsQuestion: true, Platform: types.PlatformKick})
	return s
}

func ids(msgs []types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter(t *testing.T) {
	s := seedFilterStore(t)

	tests := []struct {
		name string
		conv string
		opts types.FilterOptions
		want []string
	}{
		{"all of s1", "s1", types.FilterOptions{}, []string{"1", "2", "3", "4"}},
		{"questions only", "s1", types.FilterOptions{QuestionsOnly: true}, []string{"2"}},
		{"calm mode", "s1", types.FilterOptions{CalmMode: true}, []string{"1", "2"}},
		{"query on author", "s1", types.FilterOptions{Query: "ALICE"}, []string{"1"}},
		{"query on text", "s1", types.FilterOptions{Query: "work"}, []string{"2"}},
		{"query no match", "s1", types.FilterOptions{Query: "zebra"}, []string{}},
		{
			"all questions across active set",
			"s1",
			types.FilterOptions{AllQuestions: true, ActiveConversations: []string{"s1", "s2"}},
			[]string{"2", "5"},
		},
		{"unknown conversation", "nope", types.FilterOptions{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(s.Filter(tt.conv, tt.opts))
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterIsPure(t *testing.T) {
	s := seedFilterStore(t)
	before := s.Version()
	s.Filter("s1", types.FilterOptions{QuestionsOnly: true, CalmMode: true, Query: "x"})
	if s.Version() != before {
		t.Error("Filter mutated the store")
	}
}

func TestStatsMemoized(t *testing.T) {
	s := seedFilterStore(t)
	st := s.Stats("s1")
	if st.Messages != 4 || st.Questions != 1 {
		t.Fatalf("stats = %+v, want 4 messages / 1 question", st)
	}
	// Same version: the cached map must be returned unchanged.
	again := s.Stats("s1")
	if again != st {
		t.Errorf("stats changed without a mutation: %+v vs %+v", again, st)
	}

	s.Ingest(types.Message{ID: "7", ConversationID: "s1", Author: "gail", Text: "new", Platform: types.PlatformTwitch})
	if got := s.Stats("s1"); got.Messages != 5 {
		t.Errorf("stats after ingest = %+v, want 5 messages", got)
	}

	all := s.AllStats()
	if len(all) != 3 {
		t.Errorf("AllStats has %d conversations, want 3", len(all))
	}
	if all["s2"].Questions != 1 {
		t.Errorf("s2 questions = %d, want 1", all["s2"].Questions)
	}
}
