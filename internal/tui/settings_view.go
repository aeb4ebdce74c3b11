package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

var themeNames = []string{"System", "Light", "Dark"}

// viewSettings renders the Btop-style settings page
func (m RootModel) viewSettings() string {
	width := 74
	height := 20
	if m.width < width+4 {
		width = m.width - 4
	}
	if m.height < height+4 {
		height = m.height - 4
	}

	categories := config.CategoryOrder()
	metas := config.GetSettingsMetadata()[categories[m.SettingsActiveTab]]

	// === TAB BAR ===
	var tabItems []string
	for i, cat := range categories {
		label := fmt.Sprintf("[%d] %s", i+1, cat)
		if i == m.SettingsActiveTab {
			tabItems = append(tabItems, ActiveTabStyle.Render(label))
		} else {
			tabItems = append(tabItems, TabStyle.Render(label))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabItems...)

	leftWidth := 24
	rightWidth := width - leftWidth - 5

	// === LEFT COLUMN: names ===
	var listLines []string
	for i, meta := range metas {
		if i == m.SettingsSelectedRow {
			listLines = append(listLines, lipgloss.NewStyle().Foreground(ColorNeonPink).Bold(true).Render("> "+meta.Label))
		} else {
			listLines = append(listLines, lipgloss.NewStyle().Foreground(ColorLightGray).Render("  "+meta.Label))
		}
	}
	listBox := lipgloss.NewStyle().Width(leftWidth).Render(lipgloss.JoinVertical(lipgloss.Left, listLines...))

	separator := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render(strings.TrimSuffix(strings.Repeat("│\n", len(metas)), "\n"))

	// === RIGHT COLUMN: value + description ===
	var rightContent string
	if m.SettingsSelectedRow < len(metas) {
		meta := metas[m.SettingsSelectedRow]

		valueStr := m.formatSettingValue(meta)
		if m.SettingsIsEditing {
			valueStr = m.SettingsInput.View()
		}
		valueDisplay := lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true).
			Render("Value: " + valueStr)

		descDisplay := lipgloss.NewStyle().
			Foreground(ColorGray).
			Width(rightWidth - 2).
			Render(meta.Description)

		rightContent = valueDisplay + "\n\n" + descDisplay
		if m.settingsErr != "" {
			rightContent += "\n\n" + stateStyle(stateFailed).Render(m.settingsErr)
		}
	}
	rightBox := lipgloss.NewStyle().Width(rightWidth).PaddingLeft(1).Render(rightContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listBox, separator, rightBox)

	fullContent := lipgloss.JoinVertical(lipgloss.Left,
		tabBar,
		"",
		content,
		"",
		m.help.View(SettingsKeys),
	)
	padded := lipgloss.NewStyle().Padding(1, 2).Render(fullContent)

	box := renderBtopBox("Settings", padded, width, height, ColorNeonPink, false)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// formatSettingValue formats the current value of a setting for display
func (m RootModel) formatSettingValue(meta config.SettingMeta) string {
	v, err := m.Settings.Get(meta.Key)
	if err != nil {
		return "-"
	}
	switch meta.Type {
	case "bool":
		if v == "true" {
			return "True"
		}
		return "False"
	case "string":
		if v == "" {
			return "(default)"
		}
		return truncateString(v, 36)
	}
	if meta.Key == "theme" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(themeNames) {
			return themeNames[n]
		}
	}
	if meta.Key == "worker_buffer_size" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return utils.ConvertBytesToHumanReadable(n)
		}
	}
	return v
}

func truncateString(s string, i int) string {
	runes := []rune(s)
	if len(runes) > i {
		return string(runes[:i]) + "..."
	}
	return s
}

// currentSetting returns the metadata of the selected row
func (m RootModel) currentSetting() (config.SettingMeta, bool) {
	metas := config.GetSettingsMetadata()[config.CategoryOrder()[m.SettingsActiveTab]]
	if m.SettingsSelectedRow < 0 || m.SettingsSelectedRow >= len(metas) {
		return config.SettingMeta{}, false
	}
	return metas[m.SettingsSelectedRow], true
}

func (m RootModel) settingsCount() int {
	return len(config.GetSettingsMetadata()[config.CategoryOrder()[m.SettingsActiveTab]])
}

func (m RootModel) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.SettingsIsEditing {
		return m.updateSettingsEdit(msg)
	}

	switch {
	case key.Matches(msg, SettingsKeys.Close):
		m.state = DashboardState
		if err := config.SaveSettings(m.Settings); err != nil {
			utils.Debug("saving settings: %v", err)
			return m, m.notify("Failed to save settings: " + err.Error())
		}
		if m.Service != nil {
			m.Service.ApplySettings(m.Settings)
		}
		return m, m.notify("Settings saved")

	case key.Matches(msg, SettingsKeys.Up):
		if m.SettingsSelectedRow > 0 {
			m.SettingsSelectedRow--
		}
		m.settingsErr = ""

	case key.Matches(msg, SettingsKeys.Down):
		if m.SettingsSelectedRow < m.settingsCount()-1 {
			m.SettingsSelectedRow++
		}
		m.settingsErr = ""

	case key.Matches(msg, SettingsKeys.Tab):
		n := len(config.CategoryOrder())
		if msg.String() == "tab" {
			m.SettingsActiveTab = (m.SettingsActiveTab + 1) % n
		} else if i, err := strconv.Atoi(msg.String()); err == nil && i >= 1 && i <= n {
			m.SettingsActiveTab = i - 1
		}
		m.SettingsSelectedRow = 0
		m.settingsErr = ""

	case key.Matches(msg, SettingsKeys.Reset):
		if meta, ok := m.currentSetting(); ok {
			def, _ := config.DefaultSettings().Get(meta.Key)
			m.applySetting(meta, def)
		}

	case key.Matches(msg, SettingsKeys.Edit):
		meta, ok := m.currentSetting()
		if !ok {
			return m, nil
		}
		switch {
		case meta.Type == "bool":
			v, _ := m.Settings.Get(meta.Key)
			m.applySetting(meta, strconv.FormatBool(v != "true"))
		case meta.Type == "group":
			next := types.GroupModes[0]
			for i, g := range types.GroupModes {
				if g == m.Settings.General.GroupMode {
					next = types.GroupModes[(i+1)%len(types.GroupModes)]
				}
			}
			m.applySetting(meta, next.String())
		case meta.Type == "rank":
			next := types.RankModes[0]
			for i, r := range types.RankModes {
				if r == m.Settings.Rank.Mode {
					next = types.RankModes[(i+1)%len(types.RankModes)]
				}
			}
			m.applySetting(meta, string(next))
		case meta.Key == "theme":
			theme := (m.Settings.General.Theme + 1) % len(themeNames)
			m.applySetting(meta, strconv.Itoa(theme))
			ApplyTheme(theme)
		default:
			v, _ := m.Settings.Get(meta.Key)
			m.SettingsInput.SetValue(v)
			m.SettingsIsEditing = true
			return m, m.SettingsInput.Focus()
		}
	}
	return m, nil
}

func (m RootModel) updateSettingsEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.SettingsIsEditing = false
		m.SettingsInput.Blur()
		return m, nil
	case "enter":
		m.SettingsIsEditing = false
		m.SettingsInput.Blur()
		if meta, ok := m.currentSetting(); ok {
			m.applySetting(meta, strings.TrimSpace(m.SettingsInput.Value()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.SettingsInput, cmd = m.SettingsInput.Update(msg)
	return m, cmd
}

// applySetting stores value, keeping the previous value on a parse error
func (m *RootModel) applySetting(meta config.SettingMeta, value string) {
	if err := m.Settings.Set(meta.Key, value); err != nil {
		m.settingsErr = err.Error()
		return
	}
	m.settingsErr = ""
}
