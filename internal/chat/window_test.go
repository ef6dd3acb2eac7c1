package chat

import (
	"fmt"
	"testing"

	"github.com/chatdeck/chatdeck/internal/types"
)

func makeMessages(n int) []types.Message {
	msgs := make([]types.Message, n)
	for i := range msgs {
		msgs[i] = types.Message{ID: fmt.Sprintf("m%03d", i), ConversationID: "s1", Author: "a", Text: "hello"}
	}
	return msgs
}

func unitHeight(types.Message) int { return 1 }

func TestSmallConversationRendersWhole(t *testing.T) {
	msgs := makeMessages(WindowThreshold)
	win := SelectWindow(msgs, Following, 0, unitHeight, RenderLimit)
	if len(win.Messages) != len(msgs) || win.Start != 0 {
		t.Errorf("window = %d@%d, want all messages", len(win.Messages), win.Start)
	}
	if win.MoreAbove || win.MoreBelow {
		t.Error("whole render should not report clipped edges")
	}
}

func TestFollowingWindowEndsAtNewest(t *testing.T) {
	msgs := makeMessages(500)
	win := SelectWindow(msgs, Following, 0, unitHeight, RenderLimit)
	if len(win.Messages) != RenderLimit {
		t.Fatalf("window size = %d, want %d", len(win.Messages), RenderLimit)
	}
	if win.Messages[len(win.Messages)-1].ID != "m499" {
		t.Errorf("window does not end at the newest message")
	}
	if !win.MoreAbove || win.MoreBelow {
		t.Errorf("moreAbove=%v moreBelow=%v, want true/false", win.MoreAbove, win.MoreBelow)
	}
}

func TestPausedWindowCentersOnAnchor(t *testing.T) {
	msgs := makeMessages(500)
	win := SelectWindow(msgs, Paused, 250, unitHeight, RenderLimit)
	if win.Start != 150 || len(win.Messages) != RenderLimit {
		t.Errorf("window = %d@%d, want %d@150", len(win.Messages), win.Start, RenderLimit)
	}
	if !win.MoreAbove || !win.MoreBelow {
		t.Error("a centered window has history on both sides")
	}
}

func TestWindowClampsAtEdges(t *testing.T) {
	msgs := makeMessages(500)

	top := SelectWindow(msgs, NavigatingToTarget, 5, unitHeight, RenderLimit)
	if top.Start != 0 || len(top.Messages) != RenderLimit {
		t.Errorf("top window = %d@%d", len(top.Messages), top.Start)
	}

	bottom := SelectWindow(msgs, Paused, 499, unitHeight, RenderLimit)
	if bottom.Start != 300 || bottom.MoreBelow {
		t.Errorf("bottom window start=%d moreBelow=%v", bottom.Start, bottom.MoreBelow)
	}

	outOfRange := SelectWindow(msgs, Paused, 9999, unitHeight, RenderLimit)
	if outOfRange.Start != 300 {
		t.Errorf("out-of-range anchor window start = %d, want clamped to 300", outOfRange.Start)
	}
}

func TestWindowSizedByCachedHeights(t *testing.T) {
	msgs := makeMessages(500)
	cache := NewHeightCache()
	for _, msg := range msgs {
		cache.SetMeasured(msg, 80, 4)
	}
	height := func(msg types.Message) int { return cache.Height(msg, 80) }

	// 100 budget lines of 4-line messages fill after 25 items, well under
	// the item cap.
	win := SelectWindow(msgs, Following, 0, height, 100)
	if len(win.Messages) != 25 {
		t.Fatalf("window size = %d, want 25", len(win.Messages))
	}
	if win.Messages[len(win.Messages)-1].ID != "m499" {
		t.Errorf("window does not end at the newest message")
	}

	centered := SelectWindow(msgs, Paused, 250, height, 100)
	if len(centered.Messages) > 26 {
		t.Errorf("centered window size = %d, want the height budget honored", len(centered.Messages))
	}
	if centered.Start > 250 || centered.Start+len(centered.Messages) <= 250 {
		t.Errorf("window %d@%d does not contain the anchor", len(centered.Messages), centered.Start)
	}
}

func TestWindowFallsBackToEstimatesUnmeasured(t *testing.T) {
	msgs := make([]types.Message, 500)
	for i := range msgs {
		msgs[i] = types.Message{ID: fmt.Sprintf("m%03d", i), ConversationID: "s1", Author: "a", Text: makeText(150)}
	}
	cache := NewHeightCache()
	height := func(msg types.Message) int { return cache.Height(msg, 80) }

	// Nothing measured, so the 3-line estimate bucket sizes the window.
	win := SelectWindow(msgs, Following, 0, height, 90)
	if len(win.Messages) != 30 {
		t.Errorf("window size = %d, want 30 estimated 3-line messages", len(win.Messages))
	}
}

func TestHeightCacheMeasurementReplacesEstimate(t *testing.T) {
	cache := NewHeightCache()
	msg := types.Message{ID: "m1", Author: "alice", Text: "a reasonably sized chat message for the test"}

	estimated := cache.Height(msg, 80)
	if estimated < 1 {
		t.Fatalf("estimate = %d", estimated)
	}
	if cache.Measured(msg, 80) {
		t.Error("nothing measured yet")
	}

	cache.SetMeasured(msg, 80, 2)
	if got := cache.Height(msg, 80); got != 2 {
		t.Errorf("height = %d, want measured 2", got)
	}
	if !cache.Measured(msg, 80) {
		t.Error("measurement not recorded")
	}
}

func TestHeightCacheInvalidatesOnFingerprintChange(t *testing.T) {
	cache := NewHeightCache()
	msg := types.Message{ID: "m1", Author: "alice", Text: "hello"}
	cache.SetMeasured(msg, 80, 2)

	// Narrower viewport changes the fingerprint; the stale measurement
	// must not be served.
	if cache.Measured(msg, 40) {
		t.Error("measurement for width 80 served at width 40")
	}
	if got := cache.Height(msg, 40); got != EstimateHeight(msg, 40) {
		t.Errorf("height = %d, want fresh estimate", got)
	}
}

func TestHeightCacheForget(t *testing.T) {
	cache := NewHeightCache()
	a := types.Message{ID: "a", Text: "x"}
	b := types.Message{ID: "b", Text: "y"}
	cache.SetMeasured(a, 80, 1)
	cache.SetMeasured(b, 80, 1)

	cache.Forget(map[string]struct{}{"b": {}})
	if cache.Measured(a, 80) {
		t.Error("evicted message still cached")
	}
	if !cache.Measured(b, 80) {
		t.Error("live message dropped")
	}
}

func TestEstimateBuckets(t *testing.T) {
	short := types.Message{ID: "s", Author: "a", Text: "hi"}
	medium := types.Message{ID: "m", Author: "a", Text: makeText(150)}
	long := types.Message{ID: "l", Author: "a", Text: makeText(600)}

	if got := EstimateHeight(short, 80); got != 1 {
		t.Errorf("short = %d, want 1", got)
	}
	if got := EstimateHeight(medium, 80); got != 3 {
		t.Errorf("medium = %d, want 3", got)
	}
	if got := EstimateHeight(long, 80); got != 6 {
		t.Errorf("long = %d, want 6", got)
	}
}

func makeText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
