package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chatdeck/chatdeck/internal/transport"
	"github.com/chatdeck/chatdeck/internal/types"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - chromeHeight
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		m.refreshViewport(m.scrollFor(m.lifecycle.ViewedID()).Mode() == Following)
		return m, nil

	case IncomingMsg:
		cmd := m.handleIncoming(types.Message(msg))
		return m, tea.Batch(m.waitForEvent(), cmd)

	case pageMsg:
		m.handlePage(msg)
		return m, nil

	case searchTickMsg:
		return m, m.handleSearchTick(msg)

	case searchResultMsg:
		m.handleSearchResult(msg)
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) handleIncoming(msg types.Message) tea.Cmd {
	conv, ok := m.lifecycle.Get(msg.ConversationID)
	if !ok || conv.Visibility == types.VisibilityClosed {
		// Not followed (or already closed): the message is dropped.
		return nil
	}
	if !m.store.Ingest(msg) {
		return nil
	}
	if m.archive != nil {
		if err := m.archive.RecordMessage(msg); err != nil {
			m.status = "archive: " + err.Error()
		}
	}

	if msg.ConversationID != m.lifecycle.ViewedID() {
		return nil
	}
	sc := m.scrollFor(msg.ConversationID)
	if sc.OnNewMessage() {
		// Live edge: showing the message reads it, except questions, which
		// stay unread until explicitly visited.
		if !msg.IsQuestion {
			m.store.MarkLiveRead(msg.ConversationID, msg.ID)
		}
		m.refreshViewport(true)
		return nil
	}
	m.refreshViewport(false)
	if msg.IsQuestion {
		m.notifier.QuestionArrived(msg.Author, msg.Text)
	}
	return nil
}

func (m *Model) handlePage(msg pageMsg) {
	delete(m.fetching, msg.conversationID)
	if msg.err != nil {
		m.status = "history: " + msg.err.Error()
		return
	}
	conv, ok := m.lifecycle.Get(msg.conversationID)
	if !ok || conv.Visibility == types.VisibilityClosed {
		// Closed while the fetch was in flight; drop the page.
		return
	}
	m.hasMore[msg.conversationID] = msg.page.HasMore

	prevHeight := lipgloss.Height(m.renderMessages())
	merged := m.store.MergeHistoricalPage(msg.conversationID, msg.page.Messages)
	if merged == 0 {
		return
	}
	m.refreshViewport(false)
	if msg.conversationID == m.lifecycle.ViewedID() {
		// Keep the same messages on screen after the prepend.
		delta := lipgloss.Height(m.renderMessages()) - prevHeight
		if delta > 0 {
			m.viewport.SetYOffset(m.viewport.YOffset + delta)
		}
	}
}

func (m *Model) handleSearchTick(msg searchTickMsg) tea.Cmd {
	if msg.seq != m.searchSeq || m.mode != inputSearch {
		return nil
	}
	m.query = m.input.Value()
	m.refreshViewport(false)
	if m.query == "" || m.fetcher == nil {
		return nil
	}
	return m.searchCmd(msg.seq, m.lifecycle.ViewedID(), m.query)
}

func (m *Model) handleSearchResult(msg searchResultMsg) {
	if msg.seq != m.searchSeq {
		return
	}
	if msg.err != nil {
		m.status = "search: " + msg.err.Error()
		return
	}
	// Archived matches join the buffer as history so they scroll normally.
	if m.store.MergeHistoricalPage(msg.conversationID, msg.page.Messages) > 0 {
		m.refreshViewport(false)
	}
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		wasSearch := m.mode == inputSearch
		m.closeInput()
		if wasSearch {
			m.query = ""
			m.refreshViewport(false)
		}
		return m, nil
	case "enter":
		value := m.input.Value()
		mode := m.mode
		m.closeInput()
		if mode == inputAddSource {
			m.addSource(value)
			return m, nil
		}
		m.query = value
		m.refreshViewport(false)
		if value != "" && m.fetcher != nil {
			m.searchSeq++
			return m, m.searchCmd(m.searchSeq, m.lifecycle.ViewedID(), value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == inputSearch {
		m.searchSeq++
		return m, tea.Batch(cmd, m.searchTickCmd(m.searchSeq))
	}
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.persistState()
		return m, tea.Quit

	case "a":
		m.mode = inputAddSource
		m.input.Placeholder = "paste a stream URL"
		m.input.Focus()
		return m, nil

	case "/":
		m.mode = inputSearch
		m.input.Placeholder = "search messages"
		m.input.SetValue(m.query)
		m.input.Focus()
		return m, nil

	case "tab":
		m.cycleConversation(1)
		return m, nil
	case "shift+tab":
		m.cycleConversation(-1)
		return m, nil

	case "c":
		m.collapseViewed()
		return m, nil
	case "x":
		m.closeViewed()
		return m, nil
	case "r":
		return m, m.reopenRecent()

	case "n":
		m.nextQuestion()
		return m, nil

	case "G", "end":
		m.jumpToLive()
		return m, nil

	case "u":
		m.markReadHere()
		return m, nil

	case "?":
		m.prefs.QuestionsOnly = !m.prefs.QuestionsOnly
		m.refreshViewport(false)
		m.persistState()
		return m, nil
	case "Q":
		m.allQuestions = !m.allQuestions
		m.refreshViewport(false)
		return m, nil
	case "m":
		m.prefs.CalmMode = !m.prefs.CalmMode
		m.refreshViewport(false)
		m.persistState()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, tea.Batch(cmd, m.syncScroll())
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, tea.Batch(cmd, m.syncScroll())
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		for _, conv := range m.lifecycle.Followed() {
			if m.zones.Get("tab-" + conv.ID).InBounds(msg) {
				m.viewConversation(conv.ID)
				return m, nil
			}
		}
	}
	return m, nil
}

// syncScroll reconciles the scroll controller with the viewport after a
// user scroll, and triggers a history fetch near the top.
func (m *Model) syncScroll() tea.Cmd {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return nil
	}
	sc := m.scrollFor(viewed)
	atBottom := m.atBottom()
	sc.OnUserScroll(atBottom)
	if atBottom {
		m.markLiveEdge(viewed)
	}

	if m.nearTop() && m.hasMore[viewed] && !m.fetching[viewed] && m.fetcher != nil {
		msgs := m.store.Conversation(viewed)
		if len(msgs) > 0 {
			m.fetching[viewed] = true
			return m.fetchOlderCmd(viewed, msgs[0].ID)
		}
	}
	return nil
}

func (m *Model) addSource(raw string) {
	conv, err := transport.ParseSourceURL(raw)
	if err != nil {
		m.status = err.Error()
		return
	}
	err = m.lifecycle.Add(context.Background(), conv)
	switch {
	case errors.Is(err, types.ErrCapacityExceeded):
		m.status = "three conversations already active; close or collapse one first"
	case errors.Is(err, types.ErrSourceUnavailable):
		m.status = fmt.Sprintf("%s is unreachable: %v", conv.Title, err)
	case err != nil:
		m.status = err.Error()
	default:
		m.hasMore[conv.ID] = true
		m.status = "following " + conv.Title
		m.refreshViewport(true)
	}
}

func (m *Model) viewConversation(id string) {
	current := m.lifecycle.ViewedID()
	if current == id {
		return
	}
	if current != "" {
		m.savedOffsets[current] = m.viewport.YOffset
	}
	if err := m.lifecycle.View(id); err != nil {
		m.status = err.Error()
		return
	}
	sc := m.scrollFor(id)
	if sc.Mode() == Following {
		m.refreshViewport(true)
		return
	}
	m.refreshViewport(false)
	m.viewport.SetYOffset(m.savedOffsets[id])
}

func (m *Model) cycleConversation(dir int) {
	followed := m.lifecycle.Followed()
	if len(followed) < 2 {
		return
	}
	viewed := m.lifecycle.ViewedID()
	index := 0
	for i, conv := range followed {
		if conv.ID == viewed {
			index = i
			break
		}
	}
	next := (index + dir + len(followed)) % len(followed)
	m.viewConversation(followed[next].ID)
}

func (m *Model) collapseViewed() {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return
	}
	m.savedOffsets[viewed] = m.viewport.YOffset
	m.lifecycle.Collapse(viewed)
	m.prefs.Collapsed[viewed] = true
	m.persistState()
	m.refreshViewport(true)
}

func (m *Model) closeViewed() {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return
	}
	conv, _ := m.lifecycle.Get(viewed)
	if err := m.lifecycle.Close(context.Background(), viewed); err != nil {
		m.status = err.Error()
		return
	}
	if m.archive != nil {
		_ = m.archive.RememberConversation(types.RecentConversation{
			ID: conv.ID, SourceURL: conv.SourceURL, Platform: conv.Platform,
			Title: conv.Title, LastViewed: time.Now().UnixMilli(),
		})
	}
	m.store.ClearConversation(viewed)
	delete(m.scroll, viewed)
	delete(m.savedOffsets, viewed)
	delete(m.windowAnchor, viewed)
	delete(m.prefs.Collapsed, viewed)
	m.persistState()
	m.status = "closed " + conv.Title
	m.refreshViewport(true)
}

func (m *Model) reopenRecent() tea.Cmd {
	recent := m.lifecycle.Recent()
	if len(recent) == 0 {
		m.status = "nothing to reopen"
		return nil
	}
	target := recent[0]
	err := m.lifecycle.Reopen(context.Background(), target.ID)
	switch {
	case errors.Is(err, types.ErrSourceUnavailable):
		m.status = target.Title + " is not live right now"
	case errors.Is(err, types.ErrCapacityExceeded):
		m.status = "three conversations already active; close or collapse one first"
	case err != nil:
		m.status = err.Error()
	default:
		m.hasMore[target.ID] = true
		m.status = "reopened " + target.Title
		m.refreshViewport(true)
		if m.fetcher != nil {
			// Backfill what was said while the conversation was closed.
			m.fetching[target.ID] = true
			return m.fetchOlderCmd(target.ID, "")
		}
	}
	return nil
}

func (m *Model) nextQuestion() {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return
	}
	sc := m.scrollFor(viewed)
	target, ok := m.store.NextUnreadQuestion(viewed, m.lastQuestionID(viewed))
	if !ok {
		m.status = "no unread questions"
		return
	}
	sc.NavigateTo(target.ID)
	m.refreshViewport(false)
	if offset, ok := m.renderOffsets[target.ID]; ok {
		want := offset - m.viewport.Height/3
		if want < 0 {
			want = 0
		}
		m.viewport.SetYOffset(want)
	}
	m.store.MarkQuestionRead(viewed, target.ID)
	m.setLastQuestionID(viewed, target.ID)
	sc.OnSettled(m.atBottom())
	m.status = fmt.Sprintf("question from %s", target.Author)
}

func (m *Model) jumpToLive() {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return
	}
	m.scrollFor(viewed).JumpToLive()
	m.markLiveEdge(viewed)
	m.refreshViewport(true)
}

// markLiveEdge advances the read anchor to the newest non-question
// message. Questions keep their unread status until visited.
func (m *Model) markLiveEdge(conversationID string) {
	msgs := m.store.Conversation(conversationID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsQuestion {
			m.store.MarkLiveRead(conversationID, msgs[i].ID)
			return
		}
	}
}

func (m *Model) markReadHere() {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return
	}
	msgs := m.store.Filter(viewed, m.filterOptions())
	if len(msgs) == 0 {
		return
	}
	m.store.MarkRead(viewed, msgs[len(msgs)-1].ID)
	m.persistState()
	m.status = "marked read"
}
