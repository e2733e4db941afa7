// Package app is the root Bubble Tea model: the screen router framed by a
// header and footer, plus the signals that arrive from outside a screen.
package app

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/screens/home"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/screens/welcome"
	"github.com/abhisek/ladder/internal/ui/layout"
)

const (
	// StatusInterval is how often the header rereads the save status.
	StatusInterval = time.Second
	// ToastDuration is how long a completion toast stays up.
	ToastDuration = 3 * time.Second
)

// Options are what the terminal UI runs on.
type Options struct {
	Deps *shell.Deps

	// Updates streams the stored account after changes made elsewhere.
	// May be nil.
	Updates <-chan progression.Account

	// CheckUpdate reports a newer release, or "". May be nil.
	CheckUpdate func(ctx context.Context) (string, error)

	// SkipWelcome starts on the home screen.
	SkipWelcome bool
}

type accountUpdatedMsg struct {
	Account progression.Account
	Closed  bool
}

type toastMsg struct {
	Text string
}

type toastExpiredMsg struct {
	Seq int
}

type statusTickMsg time.Time

type updateAvailableMsg struct {
	Version string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	deps        *shell.Deps
	router      *router.Router
	updates     <-chan progression.Account
	toasts      chan string
	checkUpdate func(ctx context.Context) (string, error)

	toast    string
	toastSeq int
	width    int
	height   int
}

// newAppModel creates the model and subscribes it to completion signals.
func newAppModel(opts Options) *AppModel {
	deps := opts.Deps
	homeFactory := func() screen.Screen { return home.New(deps) }

	var first screen.Screen = welcome.New(homeFactory)
	if opts.SkipWelcome {
		first = homeFactory()
	}

	m := &AppModel{
		deps:        deps,
		router:      router.New(first),
		updates:     opts.Updates,
		toasts:      make(chan string, 8),
		checkUpdate: opts.CheckUpdate,
	}
	deps.Progression.Subscribe(progression.ListenerFuncs{
		OnModuleCompleted: func(moduleID string) {
			title := moduleID
			if mod, ok := deps.Progression.Catalog().Module(moduleID); ok {
				title = mod.Title
			}
			m.pushToast(fmt.Sprintf("★ %s complete! ★", title))
		},
	})
	return m
}

// pushToast queues a toast without blocking the caller.
func (m *AppModel) pushToast(text string) {
	select {
	case m.toasts <- text:
	default:
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.router.Active().Init(),
		m.listenUpdates(),
		m.listenToasts(),
		statusTick(),
		m.findUpdate(),
	)
}

func (m *AppModel) listenUpdates() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		acc, ok := <-ch
		return accountUpdatedMsg{Account: acc, Closed: !ok}
	}
}

func (m *AppModel) listenToasts() tea.Cmd {
	ch := m.toasts
	return func() tea.Msg {
		return toastMsg{Text: <-ch}
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(StatusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m *AppModel) findUpdate() tea.Cmd {
	if m.checkUpdate == nil {
		return nil
	}
	check, logger := m.checkUpdate, m.deps.Log()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		version, err := check(ctx)
		if err != nil {
			logger.Debug("update check failed", "error", err)
			return nil
		}
		return updateAvailableMsg{Version: version}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if !m.capturing() && m.router.Depth() > 1 {
				return m, router.Pop
			}
		}

	case accountUpdatedMsg:
		if msg.Closed {
			m.deps.Log().Debug("progress subscription closed")
			return m, nil
		}
		m.deps.Progression.Merge(msg.Account)
		var cmd tea.Cmd
		if rs, ok := m.router.Active().(screen.Resumer); ok && !m.capturing() {
			cmd = rs.Resume()
		}
		return m, tea.Batch(cmd, m.listenUpdates())

	case toastMsg:
		m.toast = msg.Text
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Batch(
			m.listenToasts(),
			tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{Seq: seq} }),
		)

	case toastExpiredMsg:
		if msg.Seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case statusTickMsg:
		return m, statusTick()

	case updateAvailableMsg:
		m.deps.LatestVersion = msg.Version
		return m, nil
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// capturing reports whether the active screen owns the keyboard.
func (m *AppModel) capturing() bool {
	c, ok := m.router.Active().(screen.Capturer)
	return ok && c.Capturing()
}

func (m *AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the framed active screen.
func (m *AppModel) render() string {
	active := m.router.Active()

	title := m.router.Trail(" › ")
	if m.toast != "" {
		title = m.toast
	}
	header := layout.RenderHeader(title, layout.Stats{
		XP:     m.deps.Progression.XP(),
		Level:  m.deps.Level(),
		Notice: m.deps.SaveNotice(),
	}, m.width)

	footer := layout.RenderFooter(m.footerHints(active), m.width)
	contentHeight := layout.ContentHeight(m.height)
	return layout.RenderFrame(header, m.router.View(m.width, contentHeight), footer, m.width, m.height)
}

func (m *AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return append(p.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the terminal UI and blocks until it exits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
