package chat

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
)

// notifyCooldown rate-limits desktop notifications during chat bursts.
const notifyCooldown = 10 * time.Second

// Notifier sends a desktop notification when a question arrives while the
// viewport is paused, so questions are not missed off-screen.
type Notifier struct {
	enabled bool
	last    time.Time
	now     func() time.Time
}

// NewNotifier creates a notifier; disabled notifiers drop everything.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, now: time.Now}
}

// QuestionArrived notifies about an off-screen question, at most once per
// cooldown window.
func (n *Notifier) QuestionArrived(author, text string) {
	if !n.enabled {
		return
	}
	if n.now().Sub(n.last) < notifyCooldown {
		return
	}
	n.last = n.now()
	if len(text) > 80 {
		text = text[:77] + "..."
	}
	// Notification failure is cosmetic, not worth surfacing.
	_ = beeep.Notify("chatdeck", fmt.Sprintf("%s asked: %s", author, text), "")
}
