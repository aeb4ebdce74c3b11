package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pixdl/pixdl/internal/engine/driver"
	"github.com/pixdl/pixdl/internal/engine/events"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/history"
	"github.com/pixdl/pixdl/internal/messages"
	"github.com/pixdl/pixdl/internal/utils"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureVisible()
		return m, nil

	case messages.TickMsg:
		m.pollProgress()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case messages.RankPageMsg:
		return m.handleRankPage(msg)

	case messages.UserListMsg:
		return m.handleUserList(msg)

	case messages.ArtworkMsg:
		return m.handleArtwork(msg)

	case messages.SweepFinishedMsg:
		for _, o := range msg.Outcomes {
			m.markOutcome(o.ArtworkID, o.Err)
		}
		return m, nil

	case messages.NotificationMsg:
		return m, m.notify(msg.Text)

	case messages.ClearNotificationMsg:
		if msg.Seq == m.notificationSeq {
			m.notification = ""
		}
		return m, nil

	// Engine events: handle, then keep listening
	case events.BatchStartedMsg:
		m.states[msg.ArtworkID] = stateDownloading
		return m, m.listen()

	case events.BatchDoneMsg:
		m.markOutcome(msg.ArtworkID, msg.Err)
		if msg.Err != nil {
			utils.Debug("artwork %d failed: %v", msg.ArtworkID, msg.Err)
		}
		return m, m.listen()

	case events.SweepDoneMsg:
		text := fmt.Sprintf("Finished %d artwork(s)", msg.Total)
		if msg.Failed > 0 {
			text = fmt.Sprintf("Finished %d artwork(s), %d failed", msg.Total, msg.Failed)
		}
		return m, tea.Batch(m.listen(), m.notify(text))

	case events.TransferStartedMsg, events.TransferCompleteMsg, events.TransferErrorMsg:
		return m, m.listen()

	case tea.KeyMsg:
		switch m.state {
		case SettingsState:
			return m.updateSettings(msg)
		case InputState:
			return m.updateInput(msg)
		default:
			return m.updateDashboard(msg)
		}
	}

	return m, nil
}

func (m RootModel) listen() tea.Cmd {
	if m.Service == nil {
		return nil
	}
	return listenForActivity(m.Service.StreamEvents())
}

func (m *RootModel) notify(text string) tea.Cmd {
	m.notificationSeq++
	m.notification = text
	seq := m.notificationSeq
	return tea.Tick(NotificationDuration, func(_ time.Time) tea.Msg {
		return messages.ClearNotificationMsg{Seq: seq}
	})
}

func (m *RootModel) markOutcome(id uint64, err error) {
	if id == 0 {
		return
	}
	if err != nil {
		m.states[id] = stateFailed
	} else {
		m.states[id] = stateDone
	}
}

// pollProgress reads the registry and derives aggregate throughput
func (m *RootModel) pollProgress() {
	if m.Service == nil {
		return
	}
	m.transfers = m.Service.Progress()
	m.received, m.expected = m.Service.Totals()

	var delta int64
	seen := make(map[string]int64, len(m.transfers))
	for _, t := range m.transfers {
		if d := t.Downloaded - m.lastBytes[t.ID]; d > 0 {
			delta += d
		}
		seen[t.ID] = t.Downloaded
	}
	m.lastBytes = seen

	speed := float64(delta) / TickInterval.Seconds() / types.Megabyte
	m.SpeedHistory = append(m.SpeedHistory, speed)
	if len(m.SpeedHistory) > SpeedHistoryLen {
		m.SpeedHistory = m.SpeedHistory[len(m.SpeedHistory)-SpeedHistoryLen:]
	}
}

// restartListing cancels the in-flight listing request. Transfers keep
// running on the root context.
func (m *RootModel) restartListing() {
	m.listStop()
	m.listCtx, m.listStop = context.WithCancel(m.ctx)
	m.listGen++
}

func (m RootModel) loadRankPage(gen, page int) tea.Cmd {
	if m.Service == nil {
		return nil
	}
	svc, ctx, mode, r18 := m.Service, m.listCtx, m.rankMode(), m.r18
	return func() tea.Msg {
		entries, err := svc.RankPage(ctx, mode, r18, page)
		return messages.RankPageMsg{Gen: gen, Mode: mode, R18: r18, Page: page, Entries: entries, Err: err}
	}
}

func (m RootModel) loadUser(gen int, userID uint64) tea.Cmd {
	svc, ctx := m.Service, m.listCtx
	return func() tea.Msg {
		ids, err := svc.UserArtworks(ctx, userID)
		return messages.UserListMsg{Gen: gen, UserID: userID, IDs: ids, Err: err}
	}
}

func (m RootModel) loadArtwork(gen int, id uint64) tea.Cmd {
	svc, ctx := m.Service, m.listCtx
	return func() tea.Msg {
		meta, err := svc.Resolve(ctx, id)
		msg := messages.ArtworkMsg{Gen: gen, ID: id, Meta: meta, Err: err}
		if err == nil {
			if last, ok, herr := svc.LastOutcome(ctx, id); herr == nil && ok {
				msg.Previous = &last
			}
		}
		return msg
	}
}

// startSweep downloads ids on the long-lived context
func (m *RootModel) startSweep(ids []uint64, mode driver.Mode) tea.Cmd {
	if m.Service == nil || len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		m.states[id] = stateDownloading
	}
	svc, ctx := m.Service, m.ctx
	src := driver.FromSlice(ids)
	return func() tea.Msg {
		return messages.SweepFinishedMsg{Outcomes: svc.Sweep(ctx, src, mode)}
	}
}

// reloadPanel restarts the listing of the active panel
func (m *RootModel) reloadPanel() tea.Cmd {
	m.restartListing()
	p := m.current()

	switch m.panel {
	case RankPanel:
		p.reset()
		p.loading = true
		return m.loadRankPage(m.listGen, 1)
	case UserPanel:
		if p.query == 0 {
			return nil
		}
		p.loading = true
		p.err = nil
		return m.loadUser(m.listGen, p.query)
	case ArtworkPanel:
		// Already resolved artworks stay listed
		p.loading = false
	}
	return nil
}

func (m RootModel) handleRankPage(msg messages.RankPageMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.listGen {
		return m, nil
	}
	p := &m.panels[RankPanel]
	p.loading = false

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		p.err = msg.Err
		return m, m.notify("Ranking failed: " + msg.Err.Error())
	}

	if len(msg.Entries) == 0 {
		p.done = true
		return m, nil
	}

	seen := make(map[uint64]bool, len(p.items))
	for _, it := range p.items {
		seen[it.ID] = true
	}
	for _, e := range msg.Entries {
		if seen[e.ID] {
			continue
		}
		p.items = append(p.items, listItem{ID: e.ID, Rank: e.Rank, Title: e.Title, Author: e.Author})
	}
	p.page = msg.Page
	if len(msg.Entries) < types.RankPageSize {
		p.done = true
	}
	return m, nil
}

func (m RootModel) handleUserList(msg messages.UserListMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.listGen {
		return m, nil
	}
	p := &m.panels[UserPanel]
	p.loading = false

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		p.err = msg.Err
		return m, m.notify(fmt.Sprintf("User %d: %v", msg.UserID, msg.Err))
	}

	p.items = p.items[:0]
	for _, id := range msg.IDs {
		p.items = append(p.items, listItem{ID: id, Title: fmt.Sprintf("artwork %d", id)})
	}
	p.cursor, p.offset = 0, 0
	if len(msg.IDs) == 0 {
		return m, m.notify(fmt.Sprintf("User %d has no artworks", msg.UserID))
	}
	return m, nil
}

func (m RootModel) handleArtwork(msg messages.ArtworkMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.listGen {
		return m, nil
	}
	p := &m.panels[ArtworkPanel]
	p.loading = false

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		p.err = msg.Err
		return m, m.notify(fmt.Sprintf("Artwork %d: %v", msg.ID, msg.Err))
	}
	p.err = nil

	item := listItem{ID: msg.Meta.ID, Title: msg.Meta.Title, Author: msg.Meta.Author, Images: len(msg.Meta.Images)}
	items := []listItem{item}
	for _, it := range p.items {
		if it.ID != item.ID {
			items = append(items, it)
		}
	}
	p.items = items
	p.cursor, p.offset = 0, 0

	if prev := msg.Previous; prev != nil {
		if _, seen := m.states[item.ID]; !seen {
			m.markOutcome(item.ID, prevErr(prev))
		}
		status := "downloaded"
		if prev.Failed() {
			status = "failed"
		}
		return m, m.notify(fmt.Sprintf("Artwork %d: last %s %s", item.ID, status, utils.Ago(prev.FinishedAt)))
	}
	return m, nil
}

func prevErr(e *history.Entry) error {
	if e.Failed() {
		return errors.New(e.Error)
	}
	return nil
}

func (m RootModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.current()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.listStop()
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Settings):
		m.state = SettingsState
		m.SettingsIsEditing = false
		m.settingsErr = ""
		return m, nil

	case key.Matches(msg, m.keys.PrevPanel):
		m.panel = (m.panel + panelCount - 1) % panelCount
		return m, m.reloadPanel()

	case key.Matches(msg, m.keys.NextPanel):
		m.panel = (m.panel + 1) % panelCount
		return m, m.reloadPanel()

	case key.Matches(msg, m.keys.PrevTab):
		if m.panel == RankPanel {
			m.rankTab = (m.rankTab + len(types.RankModes) - 1) % len(types.RankModes)
			return m, m.reloadPanel()
		}

	case key.Matches(msg, m.keys.NextTab):
		if m.panel == RankPanel {
			m.rankTab = (m.rankTab + 1) % len(types.RankModes)
			return m, m.reloadPanel()
		}

	case key.Matches(msg, m.keys.ToggleR18):
		if m.panel == RankPanel {
			m.r18 = !m.r18
			return m, m.reloadPanel()
		}

	case key.Matches(msg, m.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		m.ensureVisible()

	case key.Matches(msg, m.keys.Down):
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
		m.ensureVisible()
		if m.panel == RankPanel && !p.done && !p.loading && p.cursor >= len(p.items)-PrefetchMargin {
			p.loading = true
			return m, m.loadRankPage(m.listGen, p.page+1)
		}

	case key.Matches(msg, m.keys.Download):
		if it, ok := p.selected(); ok {
			return m, m.startSweep([]uint64{it.ID}, driver.Sequential)
		}

	case key.Matches(msg, m.keys.DownloadAll):
		ids := make([]uint64, 0, len(p.items))
		for _, it := range p.items {
			ids = append(ids, it.ID)
		}
		if len(ids) == 0 {
			return m, m.notify("Nothing to download")
		}
		cmd := m.startSweep(ids, driver.SweepAll)
		return m, tea.Batch(cmd, m.notify(fmt.Sprintf("Downloading %d artwork(s)", len(ids))))

	case key.Matches(msg, m.keys.Input):
		if m.panel == RankPanel {
			return m, nil
		}
		m.state = InputState
		m.input.SetValue("")
		if m.panel == ArtworkPanel {
			m.input.Placeholder = "artwork id or URL"
		} else {
			m.input.Placeholder = "user id or URL"
		}
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Copy):
		if it, ok := p.selected(); ok {
			url := utils.ArtworkURL(m.BaseURL, it.ID)
			if err := writeClipboard(url); err != nil {
				return m, m.notify("Clipboard unavailable: " + err.Error())
			}
			return m, m.notify("Copied " + url)
		}
	}

	return m, nil
}

func (m RootModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = DashboardState
		m.input.Blur()
		return m, nil

	case "enter":
		value := m.input.Value()
		m.state = DashboardState
		m.input.Blur()

		var (
			id  uint64
			err error
		)
		if m.panel == ArtworkPanel {
			id, err = utils.ParseArtworkID(value)
		} else {
			id, err = utils.ParseUserID(value)
		}
		if err != nil {
			return m, m.notify(err.Error())
		}

		m.restartListing()
		p := m.current()
		p.loading = true
		p.err = nil
		p.query = id
		if m.panel == ArtworkPanel {
			return m, m.loadArtwork(m.listGen, id)
		}
		return m, m.loadUser(m.listGen, id)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// visibleRows is how many list rows fit in the list box
func (m RootModel) visibleRows() int {
	_, listHeight := m.layoutHeights()
	rows := listHeight - 2 - 2 - 3 // borders, padding, tab lines
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *RootModel) ensureVisible() {
	p := m.current()
	rows := m.visibleRows()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+rows {
		p.offset = p.cursor - rows + 1
	}
	if p.offset < 0 {
		p.offset = 0
	}
}
