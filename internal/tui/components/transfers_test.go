package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/stretchr/testify/assert"

	"github.com/pixdl/pixdl/internal/engine/types"
)

func TestTransferList_Empty(t *testing.T) {
	m := NewTransferListModel(nil, 40, 10, progress.New(), "*")
	assert.Contains(t, m.View(), "No active transfers")
}

func TestTransferList_KnownAndUnknownSizes(t *testing.T) {
	m := NewTransferListModel([]types.TransferSnapshot{
		{ID: "a", Label: "sunset #1", Downloaded: 512, Total: 1024, TotalKnown: true},
		{ID: "b", Label: "river #1", Downloaded: 2048},
	}, 50, 10, progress.New(progress.WithoutPercentage()), "*")

	view := m.View()
	assert.Contains(t, view, "sunset #1")
	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "river #1")
	assert.Contains(t, view, "size unknown")
	assert.NotContains(t, view, "more")
}

func TestTransferList_Overflow(t *testing.T) {
	var ts []types.TransferSnapshot
	for i := 0; i < 6; i++ {
		ts = append(ts, types.TransferSnapshot{ID: string(rune('a' + i)), Label: "x"})
	}
	m := NewTransferListModel(ts, 40, 6, progress.New(), "*")

	assert.Equal(t, 2, m.Capacity())
	assert.Contains(t, m.View(), "+4 more")
	assert.LessOrEqual(t, len(strings.Split(m.View(), "\n")), 6)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.LessOrEqual(t, len([]rune(Truncate("星空の夜明け", 5))), 5)
}
