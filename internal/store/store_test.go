package store

import (
	"fmt"
	"testing"

	"github.com/chatdeck/chatdeck/internal/types"
)

func msg(id, conv string) types.Message {
	return types.Message{
		ID:             id,
		ConversationID: conv,
		Author:         "viewer-" + id,
		Text:           "message " + id,
		TS:             1700000000000,
		Platform:       types.PlatformTwitch,
	}
}

func question(id, conv string) types.Message {
	m := msg(id, conv)
	m.IsQuestion = true
	m.Text = "what about " + id + "?"
	return m
}

func TestIngestIdempotent(t *testing.T) {
	s := New(0)
	if !s.Ingest(msg("a", "s1")) {
		t.Fatal("first ingest should insert")
	}
	if s.Ingest(msg("a", "s1")) {
		t.Fatal("re-delivery of same id should be a no-op")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestBoundedBufferKeepsMostRecent(t *testing.T) {
	s := New(5)
	for i := 0; i < 12; i++ {
		s.Ingest(msg(fmt.Sprintf("m%02d", i), "s1"))
	}
	if s.Len() != 5 {
		t.Fatalf("len = %d, want 5", s.Len())
	}
	got := s.Conversation("s1")
	for i, m := range got {
		want := fmt.Sprintf("m%02d", 7+i)
		if m.ID != want {
			t.Errorf("position %d = %s, want %s", i, m.ID, want)
		}
	}
	if _, ok := s.Get("m00"); ok {
		t.Error("evicted message still retrievable")
	}
}

func TestMergeHistoricalPage(t *testing.T) {
	s := New(0)
	s.Ingest(msg("c", "s1"))
	s.Ingest(msg("x", "s2"))
	s.Ingest(msg("d", "s1"))

	inserted := s.MergeHistoricalPage("s1", []types.Message{msg("a", "s1"), msg("b", "s1"), msg("c", "s1")})
	if inserted != 2 {
		t.Fatalf("inserted = %d, want 2 (c already known)", inserted)
	}

	got := s.Conversation("s1")
	wantOrder := []string{"a", "b", "c", "d"}
	if len(got) != len(wantOrder) {
		t.Fatalf("conversation len = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
	// s2's message must be untouched and still after the merged block.
	all := s.All()
	if all[3].ID != "x" {
		t.Errorf("known messages reordered: %v", all)
	}
}

func TestMergeIntoEmptyConversation(t *testing.T) {
	s := New(0)
	s.Ingest(msg("z", "s2"))
	if got := s.MergeHistoricalPage("s1", []types.Message{msg("a", "s1")}); got != 1 {
		t.Fatalf("inserted = %d, want 1", got)
	}
	if all := s.All(); all[0].ID != "a" || all[1].ID != "z" {
		t.Errorf("unexpected order: %s, %s", all[0].ID, all[1].ID)
	}
}

func TestMergedHistoryIsNotUnread(t *testing.T) {
	s := New(0)
	s.Ingest(msg("c", "s1"))
	s.Unread("s1") // auto-anchor at c
	s.MergeHistoricalPage("s1", []types.Message{question("a", "s1"), msg("b", "s1")})
	got := s.Unread("s1")
	if got.Total != 0 || got.Questions != 0 {
		t.Errorf("unread after merge = %+v, want zero", got)
	}
}

func TestForwardOnlyAnchor(t *testing.T) {
	s := New(0)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Ingest(msg(id, "s1"))
	}
	s.MarkRead("s1", "c")
	s.MarkRead("s1", "a") // out-of-order call must not move the anchor back
	got := s.Unread("s1")
	if got.Total != 1 {
		t.Errorf("unread total = %d, want 1 (only d past anchor c)", got.Total)
	}
	s.MarkRead("s1", "d")
	if got := s.Unread("s1"); got.Total != 0 {
		t.Errorf("unread total = %d, want 0", got.Total)
	}
}

func TestUnreadCountCorrectness(t *testing.T) {
	s := New(0)
	ids := []string{"m1", "m2", "m3", "m4", "m5", "m6"}
	for i, id := range ids {
		if i%2 == 1 {
			s.Ingest(question(id, "s1"))
		} else {
			s.Ingest(msg(id, "s1"))
		}
	}
	// Anchor at position 3 (m3): unread are m4(q), m5, m6(q).
	s.MarkRead("s1", "m3")
	got := s.Unread("s1")
	if got.Total != 3 || got.Questions != 2 {
		t.Errorf("unread = %+v, want {3 2}", got)
	}
}

func TestFirstViewAutoAnchor(t *testing.T) {
	s := New(0)
	for i := 1; i <= 5; i++ {
		s.Ingest(msg(fmt.Sprintf("m%d", i), "s1"))
	}
	got := s.Unread("s1")
	if got.Total != 0 || got.Questions != 0 {
		t.Fatalf("first computation = %+v, want {0 0}", got)
	}

	// Scenario B: a question and a plain message arrive afterwards.
	s.Ingest(question("m6", "s1"))
	s.Ingest(msg("m7", "s1"))
	got = s.Unread("s1")
	if got.Total != 2 || got.Questions != 1 {
		t.Errorf("after two arrivals = %+v, want {2 1}", got)
	}
}

func TestLiveReadPreservesQuestionBoundary(t *testing.T) {
	s := New(0)
	for i := 1; i <= 5; i++ {
		s.Ingest(msg(fmt.Sprintf("m%d", i), "s1"))
	}
	s.Unread("s1")
	s.Ingest(question("m6", "s1"))
	s.Ingest(msg("m7", "s1"))

	// The live-edge auto-advance marks the newest non-question read but the
	// question stays on the counter until visited.
	s.MarkLiveRead("s1", "m7")
	got := s.Unread("s1")
	if got.Total != 0 {
		t.Errorf("total = %d, want 0", got.Total)
	}
	if got.Questions != 1 {
		t.Errorf("questions = %d, want 1", got.Questions)
	}

	s.MarkQuestionRead("s1", "m6")
	if got := s.Unread("s1"); got.Questions != 0 {
		t.Errorf("questions after visit = %d, want 0", got.Questions)
	}
}

func TestExplicitMarkReadClearsQuestionsUpToAnchor(t *testing.T) {
	s := New(0)
	s.Ingest(msg("m1", "s1"))
	s.Unread("s1")
	s.Ingest(question("m2", "s1"))
	s.Ingest(question("m3", "s1"))
	s.Ingest(msg("m4", "s1"))

	s.MarkRead("s1", "m2")
	got := s.Unread("s1")
	if got.Total != 2 || got.Questions != 1 {
		t.Errorf("unread = %+v, want {2 1} (m3 question still open)", got)
	}
}

func TestAgedOutAnchorReportsAllUnread(t *testing.T) {
	s := New(3)
	s.Ingest(msg("a", "s1"))
	s.MarkRead("s1", "a")
	for _, id := range []string{"b", "c", "d"} {
		s.Ingest(msg(id, "s1"))
	}
	// "a" has been evicted; the anchor no longer resolves.
	got := s.Unread("s1")
	if got.Total != 3 {
		t.Errorf("total = %d, want 3 (all buffered unread)", got.Total)
	}
	// A fresh explicit read re-establishes the boundary.
	s.MarkRead("s1", "d")
	if got := s.Unread("s1"); got.Total != 0 {
		t.Errorf("total after re-anchor = %d, want 0", got.Total)
	}
}

func TestNextUnreadQuestionCycles(t *testing.T) {
	s := New(0)
	s.Ingest(msg("m0", "s1"))
	s.Unread("s1")
	s.Ingest(question("q1", "s1"))
	s.Ingest(msg("m1", "s1"))
	s.Ingest(question("q2", "s1"))

	first, ok := s.NextUnreadQuestion("s1", "")
	if !ok || first.ID != "q1" {
		t.Fatalf("first = %v %v, want q1", first.ID, ok)
	}
	second, ok := s.NextUnreadQuestion("s1", "q1")
	if !ok || second.ID != "q2" {
		t.Fatalf("second = %v %v, want q2", second.ID, ok)
	}
	wrapped, ok := s.NextUnreadQuestion("s1", "q2")
	if !ok || wrapped.ID != "q1" {
		t.Fatalf("wrapped = %v %v, want q1", wrapped.ID, ok)
	}

	s.MarkQuestionRead("s1", "q1")
	s.MarkQuestionRead("s1", "q2")
	if _, ok := s.NextUnreadQuestion("s1", ""); ok {
		t.Error("expected no unread questions after visiting both")
	}
}

func TestClearConversation(t *testing.T) {
	s := New(0)
	s.Ingest(msg("a", "s1"))
	s.Ingest(msg("b", "s2"))
	s.MarkRead("s1", "a")
	s.ClearConversation("s1")
	if len(s.Conversation("s1")) != 0 {
		t.Error("s1 messages survived clear")
	}
	if len(s.Conversation("s2")) != 1 {
		t.Error("s2 messages affected by clearing s1")
	}
	// First view after clearing behaves like a fresh conversation.
	s.Ingest(msg("c", "s1"))
	if got := s.Unread("s1"); got.Total != 0 {
		t.Errorf("unread after clear = %+v, want zero (auto-anchor)", got)
	}
}

func TestRestoreSnapshot(t *testing.T) {
	s := New(0)
	s.Restore(types.Snapshot{
		Messages:    []types.Message{msg("a", "s1"), msg("b", "s1"), msg("c", "s2")},
		ReadAnchors: map[string]string{"s1": "a"},
	})
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	if got := s.Unread("s1"); got.Total != 1 {
		t.Errorf("restored unread = %+v, want total 1", got)
	}
}

func TestRestoreRebuildsQuestionBoundary(t *testing.T) {
	s := New(0)
	s.Ingest(msg("m1", "s1"))
	s.Unread("s1")
	s.Ingest(question("q1", "s1"))
	s.Ingest(msg("m2", "s1"))
	if got := s.Unread("s1"); got.Total != 2 || got.Questions != 1 {
		t.Fatalf("live unread = %+v, want {2 1}", got)
	}

	restored := New(0)
	restored.Restore(types.Snapshot{Messages: s.All(), ReadAnchors: s.ReadAnchors()})
	if got := restored.Unread("s1"); got.Total != 2 || got.Questions != 1 {
		t.Errorf("restored unread = %+v, want {2 1}", got)
	}

	// Questions at or before the anchor were already seen.
	restored.MarkRead("s1", "m2")
	second := New(0)
	second.Restore(types.Snapshot{Messages: restored.All(), ReadAnchors: restored.ReadAnchors()})
	if got := second.Unread("s1"); got.Total != 0 || got.Questions != 0 {
		t.Errorf("unread after anchored restore = %+v, want zero", got)
	}
}
