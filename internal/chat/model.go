package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/chatdeck/chatdeck/internal/persist"
	"github.com/chatdeck/chatdeck/internal/session"
	"github.com/chatdeck/chatdeck/internal/store"
	"github.com/chatdeck/chatdeck/internal/transport"
	"github.com/chatdeck/chatdeck/internal/types"
)

const (
	// bottomThreshold is how many lines from the bottom still count as
	// "at the bottom" for resuming follow mode.
	bottomThreshold = 3
	// searchDebounce delays archive searches while the user is typing.
	searchDebounce = 300 * time.Millisecond
)

type inputMode int

const (
	inputNone inputMode = iota
	inputAddSource
	inputSearch
)

// IncomingMsg is a normalized chat message delivered by the router.
type IncomingMsg types.Message

type pageMsg struct {
	conversationID string
	page           types.Page
	err            error
}

type searchTickMsg struct{ seq int }

type searchResultMsg struct {
	seq            int
	conversationID string
	page           types.Page
	err            error
}

// Options configures a new chat model.
type Options struct {
	Store       *store.Store
	Lifecycle   *session.Manager
	Fetcher     *transport.Fetcher
	Archive     *persist.Archive // nil disables persistence
	Events      <-chan types.Message
	PageSize      int
	Notifications bool
	Preferences   types.Preferences
}

// Model is the Bubble Tea model for the aggregated chat view.
type Model struct {
	store     *store.Store
	lifecycle *session.Manager
	fetcher   *transport.Fetcher
	archive   *persist.Archive
	events    <-chan types.Message
	notifier  *Notifier

	viewport viewport.Model
	input    textinput.Model
	mode     inputMode
	zones    *zone.Manager

	scroll        map[string]*ScrollController
	savedOffsets  map[string]int
	lastQuestion  map[string]string // conversation ID -> last visited question
	heights       *HeightCache
	renderOffsets map[string]int // message ID -> line offset in last render
	windowAnchor  map[string]int // conversation ID -> center of last render window

	prefs        types.Preferences
	allQuestions bool
	query        string
	searchSeq    int

	pageSize int
	fetching map[string]bool
	hasMore  map[string]bool

	width  int
	height int
	status string
}

// NewModel builds the chat model around an already-populated store and
// lifecycle manager.
func NewModel(opts Options) *Model {
	input := textinput.New()
	input.CharLimit = 512

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	prefs := opts.Preferences
	if prefs.Collapsed == nil {
		prefs.Collapsed = make(map[string]bool)
	}

	return &Model{
		store:         opts.Store,
		lifecycle:     opts.Lifecycle,
		fetcher:       opts.Fetcher,
		archive:       opts.Archive,
		events:        opts.Events,
		notifier:      NewNotifier(opts.Notifications),
		viewport:      viewport.New(0, 0),
		input:         input,
		zones:         zone.New(),
		scroll:        make(map[string]*ScrollController),
		savedOffsets:  make(map[string]int),
		lastQuestion:  make(map[string]string),
		heights:       NewHeightCache(),
		renderOffsets: make(map[string]int),
		windowAnchor:  make(map[string]int),
		prefs:         prefs,
		pageSize:      pageSize,
		fetching:      make(map[string]bool),
		hasMore:       make(map[string]bool),
	}
}

// Init starts the event pump.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// scrollFor returns the viewed conversation's scroll controller, creating
// it on first use.
func (m *Model) scrollFor(conversationID string) *ScrollController {
	sc, ok := m.scroll[conversationID]
	if !ok {
		sc = NewScrollController()
		m.scroll[conversationID] = sc
	}
	return sc
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return nil
		}
		return IncomingMsg(msg)
	}
}

func (m *Model) fetchOlderCmd(conversationID, beforeID string) tea.Cmd {
	return func() tea.Msg {
		page, err := m.fetcher.FetchPage(context.Background(), types.PageRequest{
			ConversationID: conversationID,
			BeforeID:       beforeID,
			Limit:          m.pageSize,
		})
		return pageMsg{conversationID: conversationID, page: page, err: err}
	}
}

func (m *Model) searchTickCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

func (m *Model) searchCmd(seq int, conversationID, query string) tea.Cmd {
	return func() tea.Msg {
		page, err := m.fetcher.Search(context.Background(), conversationID, query, m.pageSize)
		return searchResultMsg{seq: seq, conversationID: conversationID, page: page, err: err}
	}
}

// filterOptions is the effective filter for the viewed conversation.
func (m *Model) filterOptions() types.FilterOptions {
	return types.FilterOptions{
		QuestionsOnly:       m.prefs.QuestionsOnly,
		AllQuestions:        m.allQuestions,
		CalmMode:            m.prefs.CalmMode,
		Query:               m.query,
		ActiveConversations: m.lifecycle.ActiveIDs(),
	}
}

func (m *Model) lastQuestionID(conversationID string) string {
	return m.lastQuestion[conversationID]
}

func (m *Model) setLastQuestionID(conversationID, id string) {
	m.lastQuestion[conversationID] = id
}

// persistState saves anchors and preferences; called on quit and after
// state-changing actions.
func (m *Model) persistState() {
	if m.archive == nil {
		return
	}
	if err := m.archive.SaveAnchors(m.store.ReadAnchors()); err != nil {
		m.status = "save anchors: " + err.Error()
	}
	if err := m.archive.SavePreferences(m.prefs); err != nil {
		m.status = "save preferences: " + err.Error()
	}
}
