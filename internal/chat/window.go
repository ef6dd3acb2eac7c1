package chat

import (
	"fmt"

	"github.com/chatdeck/chatdeck/internal/types"
)

const (
	// WindowThreshold is the message count below which the whole
	// conversation renders directly.
	WindowThreshold = 200
	// RenderLimit caps the rows rendered at once in windowed mode.
	RenderLimit = 200
)

// Window is the slice of a conversation chosen for rendering.
type Window struct {
	Messages  []types.Message
	Start     int  // index of Messages[0] in the full slice
	MoreAbove bool // older history exists beyond the window
	MoreBelow bool
}

// SelectWindow picks which messages to render. Small conversations render
// whole; past the threshold the window grows item by item, ending at the
// newest message while following or spreading out from anchorIndex
// otherwise, until the per-item heights sum to lineBudget rendered lines.
// RenderLimit caps the item count no matter how short the messages are.
func SelectWindow(messages []types.Message, mode ScrollMode, anchorIndex int, height func(types.Message) int, lineBudget int) Window {
	n := len(messages)
	if n <= WindowThreshold {
		return Window{Messages: messages}
	}
	if lineBudget <= 0 {
		lineBudget = RenderLimit
	}

	var start, end int
	if mode == Following {
		start, end = n, n
		lines := 0
		for start > 0 && end-start < RenderLimit && lines < lineBudget {
			lines += height(messages[start-1])
			start--
		}
	} else {
		if anchorIndex < 0 {
			anchorIndex = 0
		}
		if anchorIndex >= n {
			anchorIndex = n - 1
		}
		start, end = anchorIndex, anchorIndex+1
		lines := height(messages[anchorIndex])
		for end-start < RenderLimit && lines < lineBudget {
			grew := false
			if start > 0 {
				lines += height(messages[start-1])
				start--
				grew = true
			}
			if end < n && end-start < RenderLimit && lines < lineBudget {
				lines += height(messages[end])
				end++
				grew = true
			}
			if !grew {
				break
			}
		}
	}

	return Window{
		Messages:  messages[start:end],
		Start:     start,
		MoreAbove: start > 0,
		MoreBelow: end < n,
	}
}

// HeightCache remembers measured render heights per message so scroll
// geometry stays stable across refreshes. Until a message is measured an
// estimate from its text length stands in.
type HeightCache struct {
	entries map[string]heightEntry
}

type heightEntry struct {
	fingerprint string
	height      int
}

// NewHeightCache creates an empty cache.
func NewHeightCache() *HeightCache {
	return &HeightCache{entries: make(map[string]heightEntry)}
}

// Fingerprint captures everything that affects a message's rendered
// height. A changed fingerprint invalidates the cached measurement.
func Fingerprint(msg types.Message, width int) string {
	return fmt.Sprintf("%d|%d|%d|%t", width, len(msg.Author), len(msg.Text), msg.IsQuestion)
}

// Height returns the cached measurement when the fingerprint still
// matches, otherwise an estimate.
func (c *HeightCache) Height(msg types.Message, width int) int {
	fp := Fingerprint(msg, width)
	if entry, ok := c.entries[msg.ID]; ok && entry.fingerprint == fp {
		return entry.height
	}
	return EstimateHeight(msg, width)
}

// SetMeasured records a real measurement, replacing the estimate.
func (c *HeightCache) SetMeasured(msg types.Message, width, height int) {
	if height < 1 {
		height = 1
	}
	c.entries[msg.ID] = heightEntry{fingerprint: Fingerprint(msg, width), height: height}
}

// Measured reports whether a current measurement exists for the message.
func (c *HeightCache) Measured(msg types.Message, width int) bool {
	entry, ok := c.entries[msg.ID]
	return ok && entry.fingerprint == Fingerprint(msg, width)
}

// Forget drops messages no longer in the buffer. keep is the set of live
// message IDs.
func (c *HeightCache) Forget(keep map[string]struct{}) {
	for id := range c.entries {
		if _, ok := keep[id]; !ok {
			delete(c.entries, id)
		}
	}
}

// EstimateHeight guesses rendered lines from text length. Messages fall
// into three size buckets so estimates stay stable while the user scrolls
// through unmeasured history.
func EstimateHeight(msg types.Message, width int) int {
	if width <= 0 {
		return 1
	}
	chars := len(msg.Author) + len(msg.Text) + 2
	lines := (chars + width - 1) / width
	switch {
	case lines <= 1:
		return 1
	case lines <= 3:
		return 3
	default:
		return 6
	}
}
