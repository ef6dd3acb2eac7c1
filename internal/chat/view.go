package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/chatdeck/chatdeck/internal/types"
)

// chromeHeight is the rows taken by tabs, notification bar, status bar,
// and the input line.
const chromeHeight = 4

var (
	tabStyle          = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle    = tabStyle.Bold(true).Underline(true)
	collapsedTabStyle = tabStyle.Faint(true)
	badgeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	questionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	statusStyle       = lipgloss.NewStyle().Faint(true)
	pendingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	affordanceStyle   = lipgloss.NewStyle().Faint(true).Italic(true)
	targetStyle       = lipgloss.NewStyle().Reverse(true)

	platformColors = map[types.Platform]lipgloss.Color{
		types.PlatformTwitch:  lipgloss.Color("99"),
		types.PlatformKick:    lipgloss.Color("40"),
		types.PlatformYouTube: lipgloss.Color("196"),
		types.PlatformRelay:   lipgloss.Color("245"),
	}
)

func (m *Model) View() string {
	sections := []string{
		m.renderTabs(),
		m.viewport.View(),
		m.renderPendingBar(),
		m.renderStatusBar(),
	}
	if m.mode != inputNone {
		sections = append(sections, m.input.View())
	}
	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTabs() string {
	followed := m.lifecycle.Followed()
	if len(followed) == 0 {
		return statusStyle.Render("no conversations; press a to add a stream URL")
	}

	viewed := m.lifecycle.ViewedID()
	tabs := make([]string, 0, len(followed))
	for _, conv := range followed {
		label := conv.Title
		unread := m.store.Unread(conv.ID)
		if unread.Total > 0 {
			label += badgeStyle.Render(fmt.Sprintf(" %d", unread.Total))
		}
		if unread.Questions > 0 {
			label += questionStyle.Render(fmt.Sprintf(" ?%d", unread.Questions))
		}
		if conv.Status != types.StatusConnected {
			label += statusStyle.Render(" " + string(conv.Status))
		}

		style := tabStyle
		switch {
		case conv.ID == viewed:
			style = activeTabStyle.Foreground(platformColors[conv.Platform])
		case conv.Visibility == types.VisibilityCollapsed:
			style = collapsedTabStyle
		}
		tabs = append(tabs, m.zones.Mark("tab-"+conv.ID, style.Render(label)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderPendingBar() string {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return ""
	}
	sc := m.scrollFor(viewed)
	if sc.Mode() == Following || sc.Pending() == 0 {
		return ""
	}
	return pendingStyle.Render(fmt.Sprintf("v %d new below - end jumps to live", sc.Pending()))
}

func (m *Model) renderStatusBar() string {
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return statusStyle.Render("a add - tab switch - / search - ? questions - q quit")
	}
	conv, _ := m.lifecycle.Get(viewed)
	stats := m.store.Stats(viewed)
	parts := []string{
		fmt.Sprintf("%d msgs", stats.Messages),
		fmt.Sprintf("%d questions", stats.Questions),
		m.scrollFor(viewed).Mode().String(),
	}
	if conv.ConnectedAt > 0 {
		parts = append(parts, "connected "+humanize.Time(time.UnixMilli(conv.ConnectedAt)))
	}
	return statusStyle.Render(strings.Join(parts, " - "))
}

// renderMessages builds the viewport content for the viewed conversation
// and records per-message line offsets and measured heights.
func (m *Model) renderMessages() string {
	viewed := m.lifecycle.ViewedID()
	if viewed == "" {
		return ""
	}
	msgs := m.store.Filter(viewed, m.filterOptions())
	if len(msgs) == 0 {
		return statusStyle.Render("waiting for messages...")
	}

	sc := m.scrollFor(viewed)
	anchorIdx := m.windowAnchor[viewed]
	if sc.Mode() == NavigatingToTarget {
		for i, msg := range msgs {
			if msg.ID == sc.Target() {
				anchorIdx = i
				break
			}
		}
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	budget := m.viewport.Height * 4
	if budget <= 0 {
		budget = RenderLimit
	}
	win := SelectWindow(msgs, sc.Mode(), anchorIdx, func(msg types.Message) int {
		return m.heights.Height(msg, width)
	}, budget)
	m.windowAnchor[viewed] = win.Start + len(win.Messages)/2

	lineStyle := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	offset := 0
	m.renderOffsets = make(map[string]int, len(win.Messages))

	if win.MoreAbove || m.hasMore[viewed] {
		affordance := affordanceStyle.Render("- scroll up for older history -")
		b.WriteString(affordance)
		b.WriteByte('\n')
		offset += lipgloss.Height(affordance)
	}

	for _, msg := range win.Messages {
		m.renderOffsets[msg.ID] = offset
		rendered := lineStyle.Render(m.renderMessage(msg, sc.Target()))
		b.WriteString(rendered)
		b.WriteByte('\n')
		h := lipgloss.Height(rendered)
		m.heights.SetMeasured(msg, width, h)
		offset += h
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *Model) renderMessage(msg types.Message, target string) string {
	author := lipgloss.NewStyle().
		Foreground(platformColors[msg.Platform]).
		Bold(true).
		Render(msg.Author)

	prefix := ""
	if msg.IsQuestion {
		prefix = questionStyle.Render("? ")
	}
	line := fmt.Sprintf("%s%s: %s", prefix, author, msg.Text)
	if msg.ID == target {
		return targetStyle.Render(line)
	}
	return line
}

// refreshViewport re-renders the content and restores scroll geometry,
// mirroring how the buffer and filters may have shifted underneath it.
func (m *Model) refreshViewport(scrollToBottom bool) {
	content := m.renderMessages()
	// Keep content taller than the viewport; an exact height match makes
	// the renderer cut off the first line.
	if h := lipgloss.Height(content); h > 0 && h <= m.viewport.Height {
		content = "\n" + content
	}
	m.viewport.SetContent(content)
	m.pruneHeightCache()

	if scrollToBottom {
		m.viewport.GotoBottom()
		return
	}
	if m.viewport.Height <= 0 {
		return
	}
	maxOffset := lipgloss.Height(content) - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.viewport.YOffset > maxOffset {
		m.viewport.SetYOffset(maxOffset)
	}
}

func (m *Model) pruneHeightCache() {
	keep := make(map[string]struct{}, m.store.Len())
	for _, msg := range m.store.All() {
		keep[msg.ID] = struct{}{}
	}
	m.heights.Forget(keep)
}

func (m *Model) nearTop() bool {
	return m.viewport.YOffset <= 5
}

// atBottom reports whether the viewport sits within bottomThreshold lines
// of the end of its content. The full content height matters here, not the
// visible slice, which is always exactly Height lines once content
// overflows.
func (m *Model) atBottom() bool {
	if m.viewport.Height <= 0 {
		return true
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	return m.viewport.YOffset >= maxOffset-bottomThreshold
}
