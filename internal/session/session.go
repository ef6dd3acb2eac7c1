package session

import (
	"context"
	"fmt"
	"time"

	"github.com/chatdeck/chatdeck/internal/types"
)

// MaxActive is the hard cap on simultaneously active conversations.
const MaxActive = 3

// maxRecent bounds the remembered-for-reopen list.
const maxRecent = 10

// Connector is the external transport collaborator. Implementations live
// under internal/platform; failures carry a human-readable reason.
type Connector interface {
	Connect(ctx context.Context, conv types.Conversation) (handle string, err error)
	Disconnect(ctx context.Context, handle string) error
	CheckLive(ctx context.Context, conv types.Conversation) (bool, error)
}

// Manager owns the followed-conversation set and its lifecycle state. Not
// safe for concurrent use; the event loop is the single caller.
type Manager struct {
	connector     Connector
	conversations map[string]*types.Conversation
	order         []string
	viewedID      string
	recent        []types.RecentConversation
}

// NewManager creates an empty lifecycle manager over the given transport.
func NewManager(connector Connector) *Manager {
	return &Manager{
		connector:     connector,
		conversations: make(map[string]*types.Conversation),
	}
}

// ActiveCount reports how many conversations are currently active.
func (m *Manager) ActiveCount() int {
	n := 0
	for _, conv := range m.conversations {
		if conv.Visibility == types.VisibilityActive {
			n++
		}
	}
	return n
}

// Get returns a copy of a conversation's current state.
func (m *Manager) Get(id string) (types.Conversation, bool) {
	conv, ok := m.conversations[id]
	if !ok {
		return types.Conversation{}, false
	}
	return *conv, true
}

// Visible lists active conversations in the order they were added.
func (m *Manager) Visible() []types.Conversation {
	out := make([]types.Conversation, 0, len(m.order))
	for _, id := range m.order {
		if conv := m.conversations[id]; conv.Visibility == types.VisibilityActive {
			out = append(out, *conv)
		}
	}
	return out
}

// Followed lists every non-closed conversation in addition order.
func (m *Manager) Followed() []types.Conversation {
	out := make([]types.Conversation, 0, len(m.order))
	for _, id := range m.order {
		if conv := m.conversations[id]; conv.Visibility != types.VisibilityClosed {
			out = append(out, *conv)
		}
	}
	return out
}

// ActiveIDs returns the IDs of active conversations in addition order.
func (m *Manager) ActiveIDs() []string {
	out := make([]string, 0, len(m.order))
	for _, id := range m.order {
		if m.conversations[id].Visibility == types.VisibilityActive {
			out = append(out, id)
		}
	}
	return out
}

// Recent returns the remembered closed conversations, newest first.
func (m *Manager) Recent() []types.RecentConversation {
	out := make([]types.RecentConversation, len(m.recent))
	copy(out, m.recent)
	return out
}

// SeedRecent preloads conversations remembered by a previous session, in
// newest-first order, so they can be reopened. Conversations already known
// to this session win over seeded ones.
func (m *Manager) SeedRecent(recent []types.RecentConversation) {
	for _, rc := range recent {
		if _, ok := m.conversations[rc.ID]; ok {
			continue
		}
		conv := types.Conversation{
			ID:         rc.ID,
			SourceURL:  rc.SourceURL,
			Platform:   rc.Platform,
			Title:      rc.Title,
			Visibility: types.VisibilityClosed,
			Status:     types.StatusDisconnected,
		}
		m.conversations[rc.ID] = &conv
		m.order = append(m.order, rc.ID)
		m.recent = append(m.recent, rc)
	}
	if len(m.recent) > maxRecent {
		m.recent = m.recent[:maxRecent]
	}
}

// ViewedID returns the conversation currently in view, or "" when none.
func (m *Manager) ViewedID() string {
	return m.viewedID
}

// Add starts following a conversation: connects it and makes it active and
// viewed. Fails with ErrCapacityExceeded when the active limit is reached,
// or wraps the transport's reason when connecting fails.
func (m *Manager) Add(ctx context.Context, conv types.Conversation) error {
	if existing, ok := m.conversations[conv.ID]; ok && existing.Visibility != types.VisibilityClosed {
		// Already followed; just bring it into view.
		return m.View(existing.ID)
	}
	if m.ActiveCount() >= MaxActive {
		return types.ErrCapacityExceeded
	}

	handle, err := m.connector.Connect(ctx, conv)
	if err != nil {
		return fmt.Errorf("connect %s: %w", conv.ID, err)
	}

	conv.ConnectionID = handle
	conv.Visibility = types.VisibilityActive
	conv.Status = types.StatusConnected
	conv.ConnectedAt = time.Now().UnixMilli()

	if _, ok := m.conversations[conv.ID]; !ok {
		m.order = append(m.order, conv.ID)
	}
	stored := conv
	m.conversations[conv.ID] = &stored
	m.viewedID = conv.ID
	return nil
}

// Collapse hides an active conversation without touching its connection.
// If it was the one in view, the viewer moves to another active
// conversation, or to none when none remain.
func (m *Manager) Collapse(id string) {
	conv, ok := m.conversations[id]
	if !ok || conv.Visibility != types.VisibilityActive {
		return
	}
	conv.Visibility = types.VisibilityCollapsed
	if m.viewedID == id {
		m.viewedID = m.firstActiveID()
	}
}

// Expand restores a collapsed conversation to active. The active cap still
// applies.
func (m *Manager) Expand(id string) error {
	conv, ok := m.conversations[id]
	if !ok || conv.Visibility != types.VisibilityCollapsed {
		return nil
	}
	if m.ActiveCount() >= MaxActive {
		return types.ErrCapacityExceeded
	}
	conv.Visibility = types.VisibilityActive
	return nil
}

// View brings a conversation into view. The viewed conversation is always
// active: viewing a collapsed one expands it first (subject to the cap),
// and closed conversations cannot be viewed without Reopen.
func (m *Manager) View(id string) error {
	conv, ok := m.conversations[id]
	if !ok {
		return types.ErrInvalidReference
	}
	switch conv.Visibility {
	case types.VisibilityClosed:
		return types.ErrInvalidReference
	case types.VisibilityCollapsed:
		if err := m.Expand(id); err != nil {
			return err
		}
	}
	m.viewedID = id
	return nil
}

// Close disconnects a conversation from its source and remembers it for
// reopening. Its buffered messages stay in the store subject to normal
// eviction.
func (m *Manager) Close(ctx context.Context, id string) error {
	conv, ok := m.conversations[id]
	if !ok || conv.Visibility == types.VisibilityClosed {
		return nil
	}
	if conv.ConnectionID != "" {
		if err := m.connector.Disconnect(ctx, conv.ConnectionID); err != nil {
			return fmt.Errorf("disconnect %s: %w", id, err)
		}
	}
	conv.ConnectionID = ""
	conv.Visibility = types.VisibilityClosed
	conv.Status = types.StatusDisconnected
	m.remember(*conv)
	if m.viewedID == id {
		m.viewedID = m.firstActiveID()
	}
	return nil
}

// Reopen reconnects a previously closed conversation. Fails with
// ErrCapacityExceeded under the active cap and ErrSourceUnavailable when
// the origin is no longer live.
func (m *Manager) Reopen(ctx context.Context, id string) error {
	conv, ok := m.conversations[id]
	if !ok || conv.Visibility != types.VisibilityClosed {
		return types.ErrInvalidReference
	}
	if m.ActiveCount() >= MaxActive {
		return types.ErrCapacityExceeded
	}

	live, err := m.connector.CheckLive(ctx, *conv)
	if err != nil {
		return fmt.Errorf("check %s: %w", id, err)
	}
	if !live {
		return types.ErrSourceUnavailable
	}

	handle, err := m.connector.Connect(ctx, *conv)
	if err != nil {
		return fmt.Errorf("connect %s: %w", id, err)
	}
	conv.ConnectionID = handle
	conv.Visibility = types.VisibilityActive
	conv.Status = types.StatusConnected
	conv.ConnectedAt = time.Now().UnixMilli()
	m.viewedID = id
	return nil
}

// SetStatus updates the transport status shown for a conversation.
func (m *Manager) SetStatus(id string, status types.ConnectionStatus) {
	if conv, ok := m.conversations[id]; ok {
		conv.Status = status
	}
}

func (m *Manager) firstActiveID() string {
	for _, id := range m.order {
		if m.conversations[id].Visibility == types.VisibilityActive {
			return id
		}
	}
	return ""
}

func (m *Manager) remember(conv types.Conversation) {
	kept := m.recent[:0]
	for _, r := range m.recent {
		if r.ID != conv.ID {
			kept = append(kept, r)
		}
	}
	m.recent = append([]types.RecentConversation{{
		ID:         conv.ID,
		SourceURL:  conv.SourceURL,
		Platform:   conv.Platform,
		Title:      conv.Title,
		LastViewed: time.Now().UnixMilli(),
	}}, kept...)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[:maxRecent]
	}
}
