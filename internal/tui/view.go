package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/tui/components"
	"github.com/pixdl/pixdl/internal/utils"
)

const logoText = `
 ┏━┓╻╻ ╻╺┳┓╻
 ┣━┛┃┏╋┛ ┃┃┃
 ╹  ╹╹ ╹╺┻┛┗━╸`

func (m RootModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.state == SettingsState {
		return m.viewSettings()
	}

	availableWidth := m.width - 4
	leftWidth := int(float64(availableWidth) * ListWidthRatio)
	rightWidth := availableWidth - leftWidth - 2

	graphHeight, listHeight := m.layoutHeights()
	transfersHeight := HeaderHeight + listHeight - graphHeight

	// --- HEADER (top left) ---
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		LogoStyle.Render(logoText),
		lipgloss.NewStyle().MarginLeft(4).MarginTop(1).Render(m.renderStats()),
	)
	headerBox := lipgloss.NewStyle().
		Width(leftWidth).
		Height(HeaderHeight).
		Padding(0, 2).
		Render(header)

	// --- LIST (bottom left) ---
	listInner := lipgloss.NewStyle().Padding(1, 2).Render(m.renderList(leftWidth - 6))
	listBox := renderBtopBox(m.panel.String(), listInner, leftWidth, listHeight, ColorNeonPink, true)

	// --- GRAPH (top right) ---
	graphBox := renderBtopBox("Network Activity", m.renderGraph(rightWidth, graphHeight), rightWidth, graphHeight, ColorNeonCyan, false)

	// --- TRANSFERS (bottom right) ---
	list := components.NewTransferListModel(m.transfers, rightWidth-6, transfersHeight-4, m.progress, m.spinner.View())
	transfersInner := lipgloss.NewStyle().Padding(1, 2).Render(list.View())
	transfersBox := renderBtopBox(fmt.Sprintf("Transfers (%d)", len(m.transfers)), transfersInner, rightWidth, transfersHeight, ColorGray, true)

	left := lipgloss.JoinVertical(lipgloss.Left, headerBox, listBox)
	right := lipgloss.JoinVertical(lipgloss.Left, graphBox, transfersBox)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var footer string
	if m.notification != "" {
		footer = lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center,
			NotificationStyle.Render(components.Truncate(m.notification, m.width-2)))
	} else {
		footer = FooterStyle.Render(m.help.View(m.keys))
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// layoutHeights splits the terminal between the graph and the list
func (m RootModel) layoutHeights() (graphHeight, listHeight int) {
	available := m.height - 2
	listHeight = available - HeaderHeight
	if listHeight < MinListHeight {
		listHeight = MinListHeight
	}
	graphHeight = available / 3
	if graphHeight < MinGraphHeight {
		graphHeight = MinGraphHeight
	}
	return graphHeight, listHeight
}

func (m RootModel) renderStats() string {
	var downloading, done, failed int
	for _, s := range m.states {
		switch s {
		case stateDownloading:
			downloading++
		case stateDone:
			done++
		case stateFailed:
			failed++
		}
	}

	received := utils.ConvertBytesToHumanReadable(m.received)
	if m.expected > 0 {
		received += " / " + utils.ConvertBytesToHumanReadable(m.expected)
	}

	dir := components.Truncate(m.Settings.General.OutputDir, 40)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Output:"), StatsValueStyle.Render(dir)),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Group:"), StatsValueStyle.Render(m.Settings.General.GroupMode.String())),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Artworks:"),
			stateStyle(stateDownloading).Render(fmt.Sprintf("%d active ", downloading)),
			stateStyle(stateDone).Render(fmt.Sprintf("%d done ", done)),
			stateStyle(stateFailed).Render(fmt.Sprintf("%d failed", failed))),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Received:"), StatsValueStyle.Render(received)),
	)
}

func (m RootModel) renderPanelTabs() string {
	var tabs []string
	for p := Panel(0); p < panelCount; p++ {
		if p == m.panel {
			tabs = append(tabs, ActiveTabStyle.Render(p.String()))
		} else {
			tabs = append(tabs, TabStyle.Render(p.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderSubheader is the ranking category bar or the id input line
func (m RootModel) renderSubheader(width int) string {
	switch m.panel {
	case RankPanel:
		var tabs []string
		for i, mode := range types.RankModes {
			if i == m.rankTab {
				tabs = append(tabs, ActiveTabStyle.Render(string(mode)))
			} else {
				tabs = append(tabs, TabStyle.Render(string(mode)))
			}
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
		if m.r18 {
			line = stateStyle(stateFailed).Bold(true).Render("R-18 ") + line
		}
		return lipgloss.NewStyle().MaxWidth(width).Render(line)

	default:
		if m.state == InputState {
			return m.input.View()
		}
		hint := "[i] enter an artwork id or URL"
		if m.panel == UserPanel {
			hint = "[i] enter a user id or URL"
		}
		if q := m.panels[m.panel].query; q != 0 {
			hint = fmt.Sprintf("%d  %s", q, hint)
		}
		return lipgloss.NewStyle().Foreground(ColorGray).Render(hint)
	}
}

func (m RootModel) renderList(width int) string {
	p := m.panels[m.panel]
	lines := []string{m.renderPanelTabs(), m.renderSubheader(width), ""}

	switch {
	case p.err != nil && len(p.items) == 0:
		lines = append(lines, stateStyle(stateFailed).Render(components.Truncate(p.err.Error(), width)))
	case p.loading && len(p.items) == 0:
		lines = append(lines, m.spinner.View()+" Loading...")
	case len(p.items) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(ColorNeonCyan).Render("Nothing listed"))
	}

	rows := m.visibleRows()
	end := p.offset + rows
	if end > len(p.items) {
		end = len(p.items)
	}
	for i := p.offset; i < end; i++ {
		lines = append(lines, m.renderItem(p.items[i], i == p.cursor, width))
	}
	if p.loading && len(p.items) > 0 {
		lines = append(lines, m.spinner.View()+" Loading more...")
	}

	return strings.Join(lines, "\n")
}

func (m RootModel) renderItem(it listItem, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}

	var rank string
	if m.panel == RankPanel {
		rank = RankStyle.Render(fmt.Sprintf("#%d", it.Rank))
	}

	text := it.Title
	if it.Author != "" {
		text += " — " + it.Author
	}
	if it.Images > 0 {
		text += fmt.Sprintf(" (%d)", it.Images)
	}

	switch m.states[it.ID] {
	case stateDownloading:
		text = "⬇ " + text
	case stateDone:
		text = "✔ " + text
	case stateFailed:
		text = "✖ " + text
	}

	text = components.Truncate(text, width-lipgloss.Width(prefix)-lipgloss.Width(rank))
	style := stateStyle(m.states[it.ID])
	if selected {
		if m.states[it.ID] == stateIdle {
			style = SelectedItemStyle
		} else {
			style = style.Bold(true)
		}
	}
	return prefix + rank + style.Render(text)
}

func (m RootModel) renderGraph(width, height int) string {
	contentWidth := width - GraphAxisWidth - 5
	if contentWidth < 10 {
		contentWidth = 10
	}
	contentHeight := height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}

	maxSpeed := graphScale(m.SpeedHistory)
	graph := renderMultiLineGraph(m.SpeedHistory, contentWidth, contentHeight, maxSpeed, ColorNeonPink)

	axisStyle := lipgloss.NewStyle().Width(GraphAxisWidth).Foreground(ColorGray).Align(lipgloss.Right)
	axis := make([]string, contentHeight)
	axis[0] = axisStyle.Render(fmt.Sprintf("%.0f", maxSpeed))
	if contentHeight >= 5 {
		axis[contentHeight/2] = axisStyle.Render(fmt.Sprintf("%.1f", maxSpeed/2))
	}
	if contentHeight > 1 {
		axis[contentHeight-1] = axisStyle.Render("0")
	}
	for i := range axis {
		if axis[i] == "" {
			axis[i] = axisStyle.Render("")
		}
	}

	current := 0.0
	if len(m.SpeedHistory) > 0 {
		current = m.SpeedHistory[len(m.SpeedHistory)-1]
	}
	title := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Foreground(ColorNeonPink).
		Bold(true).
		Render(fmt.Sprintf("Current: %.2f MB/s", current))

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(axis, "\n"),
		lipgloss.NewStyle().MarginLeft(1).Render(graph),
	)
	return lipgloss.JoinVertical(lipgloss.Left, title, "", row)
}

// renderBtopBox creates a btop-style box with title embedded in the top border
// Example (left):  ╭─ TITLE ─────────────────────────────────╮
// Example (right): ╭─────────────────────────────────── TITLE ─╮
func renderBtopBox(title string, content string, width, height int, borderColor lipgloss.TerminalColor, titleRight bool) string {
	const (
		topLeft     = "╭"
		topRight    = "╮"
		bottomLeft  = "╰"
		bottomRight = "╯"
		horizontal  = "─"
		vertical    = "│"
	)

	innerWidth := width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	border := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(ColorNeonCyan).Bold(true)

	titleText := fmt.Sprintf(" %s ", title)
	remaining := innerWidth - lipgloss.Width(titleText) - 1
	if remaining < 0 {
		remaining = 0
	}

	var top string
	if titleRight {
		top = border.Render(topLeft+strings.Repeat(horizontal, remaining)) +
			titleStyle.Render(titleText) +
			border.Render(horizontal+topRight)
	} else {
		top = border.Render(topLeft+horizontal) +
			titleStyle.Render(titleText) +
			border.Render(strings.Repeat(horizontal, remaining)+topRight)
	}
	bottom := border.Render(bottomLeft + strings.Repeat(horizontal, innerWidth) + bottomRight)

	lines := strings.Split(content, "\n")
	innerHeight := height - 2
	clip := lipgloss.NewStyle().MaxWidth(innerWidth)

	wrapped := make([]string, 0, innerHeight)
	for i := 0; i < innerHeight; i++ {
		var line string
		if i < len(lines) {
			line = clip.Render(lines[i])
		}
		if w := lipgloss.Width(line); w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		}
		wrapped = append(wrapped, border.Render(vertical)+line+border.Render(vertical))
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, strings.Join(wrapped, "\n"), bottom)
}
