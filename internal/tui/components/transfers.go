package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// rowsPerTransfer is the label line plus the gauge line
const rowsPerTransfer = 2

// TransferListModel renders registry snapshots as labelled progress gauges
type TransferListModel struct {
	Transfers []types.TransferSnapshot
	Width     int // UI render width
	Height    int // Available height in rows
	Bar       progress.Model
	Spinner   string // Shown in place of a gauge while the size is unknown

	LabelStyle lipgloss.Style
	MutedStyle lipgloss.Style
}

// NewTransferListModel creates a transfer list sized to width x height
func NewTransferListModel(transfers []types.TransferSnapshot, width, height int, bar progress.Model, spinner string) TransferListModel {
	return TransferListModel{
		Transfers:  transfers,
		Width:      width,
		Height:     height,
		Bar:        bar,
		Spinner:    spinner,
		LabelStyle: lipgloss.NewStyle().Bold(true),
		MutedStyle: lipgloss.NewStyle().Faint(true),
	}
}

// Capacity is how many transfers fit, keeping one row for the overflow line
func (m TransferListModel) Capacity() int {
	if m.Height < rowsPerTransfer {
		return 0
	}
	n := m.Height / rowsPerTransfer
	if n < len(m.Transfers) && m.Height%rowsPerTransfer == 0 {
		n--
	}
	if n < 0 {
		n = 0
	}
	return n
}

// View renders the list
func (m TransferListModel) View() string {
	if len(m.Transfers) == 0 {
		return m.MutedStyle.Render("No active transfers")
	}

	width := m.Width
	if width < 10 {
		width = 10
	}
	bar := m.Bar
	bar.Width = width - 8

	shown := m.Capacity()
	if shown > len(m.Transfers) {
		shown = len(m.Transfers)
	}

	var lines []string
	for _, t := range m.Transfers[:shown] {
		size := utils.ConvertBytesToHumanReadable(t.Downloaded)
		if t.TotalKnown {
			size += " / " + utils.ConvertBytesToHumanReadable(t.Total)
		}
		label := Truncate(t.Label, width-lipgloss.Width(size)-1)
		gap := width - lipgloss.Width(label) - lipgloss.Width(size)
		if gap < 1 {
			gap = 1
		}
		lines = append(lines, m.LabelStyle.Render(label)+strings.Repeat(" ", gap)+m.MutedStyle.Render(size))

		if pct := t.Percent(); pct >= 0 {
			lines = append(lines, bar.ViewAs(pct)+fmt.Sprintf(" %3.0f%%", pct*100))
		} else {
			lines = append(lines, m.MutedStyle.Render(m.Spinner+" size unknown"))
		}
	}

	if rest := len(m.Transfers) - shown; rest > 0 {
		lines = append(lines, m.MutedStyle.Render(fmt.Sprintf("+%d more", rest)))
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to at most n display cells, marking the cut with "…"
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
