package chat

// ScrollMode is the viewport's relationship to incoming messages.
type ScrollMode int

const (
	// Following pins the viewport to the newest message.
	Following ScrollMode = iota
	// Paused holds the current position while new messages accumulate.
	Paused
	// NavigatingToTarget is a programmatic jump to a specific message;
	// arrivals must not move the viewport until the jump settles.
	NavigatingToTarget
)

func (m ScrollMode) String() string {
	switch m {
	case Following:
		return "following"
	case Paused:
		return "paused"
	case NavigatingToTarget:
		return "navigating"
	default:
		return "unknown"
	}
}

// ScrollController decides whether the viewport sticks to the bottom. It
// is pure state: the model feeds it scroll and arrival events and asks it
// whether to auto-scroll. Each conversation has its own controller.
type ScrollController struct {
	mode    ScrollMode
	pending int
	target  string
}

// NewScrollController starts in Following, pinned to live.
func NewScrollController() *ScrollController {
	return &ScrollController{mode: Following}
}

// Mode returns the current scroll mode.
func (s *ScrollController) Mode() ScrollMode { return s.mode }

// Pending is the number of messages that arrived while not following.
func (s *ScrollController) Pending() int { return s.pending }

// Target is the message ID of an in-flight navigation, if any.
func (s *ScrollController) Target() string { return s.target }

// OnUserScroll reports a user-initiated scroll. Scrolling away from the
// bottom pauses following; scrolling back to the bottom resumes it. A
// navigation in flight is cancelled by any manual scroll.
func (s *ScrollController) OnUserScroll(atBottom bool) {
	if s.mode == NavigatingToTarget {
		s.target = ""
	}
	if atBottom {
		s.mode = Following
		s.pending = 0
		return
	}
	s.mode = Paused
}

// OnNewMessage reports an arrival and returns whether the viewport should
// auto-scroll to show it.
func (s *ScrollController) OnNewMessage() bool {
	if s.mode == Following {
		return true
	}
	s.pending++
	return false
}

// JumpToLive returns to the newest message and resumes following.
func (s *ScrollController) JumpToLive() {
	s.mode = Following
	s.pending = 0
	s.target = ""
}

// NavigateTo starts a programmatic jump to a specific message.
func (s *ScrollController) NavigateTo(id string) {
	s.mode = NavigatingToTarget
	s.target = id
}

// OnSettled reports that a navigation reached its target, with the
// viewport's resulting position. Settling at the live edge resumes
// following; anywhere else the viewport holds still in Paused.
func (s *ScrollController) OnSettled(atBottom bool) {
	if s.mode != NavigatingToTarget {
		return
	}
	s.target = ""
	if atBottom {
		s.mode = Following
		s.pending = 0
		return
	}
	s.mode = Paused
}
