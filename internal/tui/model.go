package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pixdl/pixdl/internal/config"
	"github.com/pixdl/pixdl/internal/core"
	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/messages"
)

type UIState int

const (
	DashboardState UIState = iota
	InputState             // Typing an artwork or user id
	SettingsState          // Settings overlay
)

// Panel is one of the three listings
type Panel int

const (
	RankPanel Panel = iota
	ArtworkPanel
	UserPanel
	panelCount
)

func (p Panel) String() string {
	switch p {
	case ArtworkPanel:
		return "Artwork"
	case UserPanel:
		return "User"
	default:
		return "Ranking"
	}
}

type itemState int

const (
	stateIdle itemState = iota
	stateDownloading
	stateDone
	stateFailed
)

// listItem is one artwork row in a panel
type listItem struct {
	ID     uint64
	Rank   int
	Title  string
	Author string
	Images int
}

// panelModel is the listing shown by one panel
type panelModel struct {
	items  []listItem
	cursor int
	offset int // First visible row

	loading bool
	err     error

	// Ranking paging
	page int
	done bool

	// Artwork / user panels
	query uint64
}

func (p *panelModel) reset() {
	*p = panelModel{}
}

func (p *panelModel) selected() (listItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return listItem{}, false
	}
	return p.items[p.cursor], true
}

// writeClipboard is swapped out in tests
var writeClipboard = clipboard.WriteAll

type RootModel struct {
	Service  core.Service
	Settings *config.Settings
	BaseURL  string

	width  int
	height int
	state  UIState

	// ctx outlives every listing; transfers run on it
	ctx      context.Context
	cancel   context.CancelFunc
	listCtx  context.Context
	listStop context.CancelFunc
	listGen  int

	panel   Panel
	panels  [panelCount]panelModel
	rankTab int
	r18     bool

	// Per-artwork download state across all panels
	states map[uint64]itemState

	// Progress sidebar
	transfers    []types.TransferSnapshot
	received     int64 // Bytes of running transfers with a known size
	expected     int64
	lastBytes    map[string]int64
	SpeedHistory []float64
	progress     progress.Model
	spinner      spinner.Model

	input textinput.Model
	help  help.Model
	keys  KeyMap

	// Settings overlay
	SettingsActiveTab   int
	SettingsSelectedRow int
	SettingsIsEditing   bool
	SettingsInput       textinput.Model
	settingsErr         string

	notification    string
	notificationSeq int
}

// InitialRootModel builds the dashboard. Quitting cancels every transfer.
func InitialRootModel(svc core.Service, settings *config.Settings, baseURL string) RootModel {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if baseURL == "" {
		baseURL = types.DefaultBaseURL
	}

	ctx, cancel := context.WithCancel(context.Background())
	listCtx, listStop := context.WithCancel(ctx)

	input := textinput.New()
	input.Width = InputWidth
	input.Prompt = "› "

	settingsInput := textinput.New()
	settingsInput.Width = InputWidth
	settingsInput.Prompt = ""

	rankTab := 0
	for i, mode := range types.RankModes {
		if mode == settings.Rank.Mode {
			rankTab = i
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := RootModel{
		Service:       svc,
		Settings:      settings,
		BaseURL:       baseURL,
		ctx:           ctx,
		cancel:        cancel,
		listCtx:       listCtx,
		listStop:      listStop,
		rankTab:       rankTab,
		r18:           settings.Rank.R18,
		states:        make(map[uint64]itemState),
		lastBytes:     make(map[string]int64),
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:       sp,
		input:         input,
		help:          help.New(),
		keys:          Keys,
		SettingsInput: settingsInput,
	}
	m.panels[RankPanel].loading = svc != nil
	return m
}

func (m RootModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.spinner.Tick}
	if m.Service != nil {
		cmds = append(cmds, listenForActivity(m.Service.StreamEvents()))
	}
	cmds = append(cmds, m.loadRankPage(m.listGen, 1))
	return tea.Batch(cmds...)
}

// Context returns the context transfers run on
func (m RootModel) Context() context.Context {
	return m.ctx
}

func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return messages.TickMsg(t)
	})
}

func listenForActivity(sub <-chan any) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-sub
		if !ok {
			return nil
		}
		return msg
	}
}

func (m RootModel) rankMode() types.RankMode {
	return types.RankModes[m.rankTab]
}

func (m *RootModel) current() *panelModel {
	return &m.panels[m.panel]
}

// Close cancels the listing and every transfer still running
func (m RootModel) Close() {
	m.listStop()
	m.cancel()
}
