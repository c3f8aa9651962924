package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/homedash/internal/command"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/logtail"
	"github.com/five82/homedash/internal/prefs"
	"github.com/five82/homedash/internal/relay"
	"github.com/five82/homedash/internal/state"
)

const (
	maxBrightness    = 100
	problemsInterval = 5 * time.Second
	problemsScan     = 400
	problemsShown    = 5
)

// Options configures the UI.
type Options struct {
	Context        context.Context
	Snapshots      *relay.Receiver[state.Snapshot]
	Commands       *relay.Sender[command.Command]
	Redraw         relay.Signal
	ThemeName      string
	BrightnessStep int
	PrefsPath      string

	// LogPath is the homedash log; its recent warnings are shown when set.
	LogPath string
	Logger  *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	snapshots *relay.Receiver[state.Snapshot]
	commands  *relay.Sender[command.Command]
	redraw    relay.Signal
	prefsPath string
	logPath   string
	log       *zap.Logger

	// UI state
	theme          Theme
	keys           keyMap
	help           help.Model
	brightnessStep int
	width          int
	height         int
	status         string

	// Data state
	snapshot    state.Snapshot
	hasSnapshot bool
	problems    []logtail.Entry
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	step := opts.BrightnessStep
	if step <= 0 {
		step = prefs.Default().BrightnessStep
	}

	return Model{
		ctx:            ctx,
		snapshots:      opts.Snapshots,
		commands:       opts.Commands,
		redraw:         opts.Redraw,
		prefsPath:      opts.PrefsPath,
		logPath:        opts.LogPath,
		log:            log,
		theme:          GetTheme(opts.ThemeName),
		keys:           DefaultKeyMap(),
		help:           help.New(),
		brightnessStep: step,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.snapshots != nil {
		cmds = append(cmds, waitSnapshotCmd(m.ctx, m.snapshots, m.redraw))
	}
	if m.logPath != "" {
		cmds = append(cmds, loadProblemsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.hasSnapshot = true
		if !msg.open {
			return m, tea.Quit
		}
		return m, waitSnapshotCmd(m.ctx, m.snapshots, m.redraw)

	case closedMsg:
		return m, tea.Quit

	case problemsMsg:
		if msg.err != nil {
			m.log.Debug("read log problems failed", zap.Error(msg.err))
		} else {
			m.problems = msg.entries
		}
		return m, problemsTickCmd(m.logPath)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, BrightnessStep: m.brightnessStep}); err != nil {
			m.log.Warn("save preferences failed", zap.Error(err))
		}

	case key.Matches(msg, m.keys.ToggleDevice):
		m.toggleDevice(int(msg.String()[0] - '1'))

	case key.Matches(msg, m.keys.BrightnessUp):
		m.stepBrightness(m.brightnessStep)

	case key.Matches(msg, m.keys.BrightnessDown):
		m.stepBrightness(-m.brightnessStep)

	case key.Matches(msg, m.keys.CyclePreset):
		m.cyclePreset()
	}
	return m, nil
}

func (m *Model) toggleDevice(index int) {
	devices := m.snapshot.Bluetooth.Devices
	if index < 0 || index >= len(devices) {
		return
	}
	d := devices[index]
	m.send(command.Toggle(d.Name, d.Connected))
}

func (m *Model) stepBrightness(delta int) {
	d := m.snapshot.Display
	if d == nil || !d.HasBrightness {
		m.status = "brightness unknown"
		return
	}
	target := int(d.Brightness) + delta
	if target < 0 {
		target = 0
	}
	if target > maxBrightness {
		target = maxBrightness
	}
	if target == int(d.Brightness) {
		return
	}
	m.send(command.Brightness(uint16(target)))
}

func (m *Model) cyclePreset() {
	d := m.snapshot.Display
	if d == nil {
		m.status = "no display"
		return
	}
	current := display.PresetUnknown
	if d.HasPreset {
		current = d.Preset.Mode
	}
	m.send(command.Preset(nextPreset(current)))
}

// nextPreset returns the settable preset after mode. Unknown modes start the
// cycle from the beginning.
func nextPreset(mode display.PresetMode) display.PresetMode {
	for i, p := range display.Presets {
		if p == mode {
			return display.Presets[(i+1)%len(display.Presets)]
		}
	}
	return display.Presets[0]
}

// send queues cmd without blocking the event loop.
func (m *Model) send(cmd command.Command) {
	if m.commands == nil {
		return
	}
	switch m.commands.TrySend(cmd) {
	case relay.Sent:
		m.status = cmd.String()
	case relay.Full:
		m.status = "busy, dropped " + cmd.String()
		m.log.Warn("command dropped, queue full", zap.Stringer("command", cmd))
	default:
		m.status = "commands unavailable"
	}
}

// Messages

type snapshotMsg struct {
	snapshot state.Snapshot
	open     bool
}

type closedMsg struct{}

type problemsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

// waitSnapshotCmd blocks until a redraw is requested, then returns the
// newest snapshot. Intermediate snapshots are skipped.
func waitSnapshotCmd(ctx context.Context, rx *relay.Receiver[state.Snapshot], redraw relay.Signal) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-ctx.Done():
				return closedMsg{}
			case <-redraw.C():
			}
			snap, ok, open := rx.Drain()
			switch {
			case ok:
				return snapshotMsg{snapshot: snap, open: open}
			case !open:
				return closedMsg{}
			}
		}
	}
}

func loadProblemsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Problems(path, problemsScan, problemsShown)
		return problemsMsg{entries: entries, err: err}
	}
}

func problemsTickCmd(path string) tea.Cmd {
	return tea.Tick(problemsInterval, func(time.Time) tea.Msg {
		entries, err := logtail.Problems(path, problemsScan, problemsShown)
		return problemsMsg{entries: entries, err: err}
	})
}

// Run starts the Bubble Tea program and blocks until it exits. A cancelled
// context is a clean exit.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
