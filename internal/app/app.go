package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/router"
	"github.com/abhisek/examgen/internal/screen"
	"github.com/abhisek/examgen/internal/screens/setup"
	"github.com/abhisek/examgen/internal/screens/welcome"
	"github.com/abhisek/examgen/internal/ui/layout"
	"github.com/abhisek/examgen/internal/workspace"
)

// Options holds dependencies injected into the app.
type Options struct {
	Workspace *workspace.Workspace
	MaxUpload int64
	OutputDir string
	// Disabled is non-nil when no model provider is configured.
	Disabled    error
	InitialPath string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	ws     *workspace.Workspace
	width  int
	height int
}

// newAppModel creates a new AppModel starting at the welcome screen.
func newAppModel(opts Options) AppModel {
	next := func() screen.Screen { return setup.New(setup.Options(opts)) }
	return AppModel{
		router: router.New(welcome.New(next)),
		ws:     opts.Workspace,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.listen())
}

// listen waits for the next coordinator notification.
func (m AppModel) listen() tea.Cmd {
	if m.ws == nil {
		return nil
	}
	updates := m.ws.Updates()
	return func() tea.Msg {
		ev, ok := <-updates
		if !ok {
			return nil
		}
		return ev
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case quizstate.Event:
		return m, tea.Batch(m.router.Update(msg), m.listen())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// status summarizes the generation state for the header.
func (m AppModel) status() string {
	if m.ws == nil {
		return ""
	}
	s := m.ws.View().State
	switch s.Status {
	case quizstate.StatusGenerating:
		return "generating…"
	case quizstate.StatusFailed:
		return "generation failed"
	case quizstate.StatusReady:
		if n := len(s.Pending); n > 0 {
			return fmt.Sprintf("%d diagram(s) pending", n)
		}
		return "ready"
	}
	return ""
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(), m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	}
	if footerHints == nil {
		if m.router.Depth() > 1 {
			footerHints = []layout.KeyHint{
				{Key: "Esc", Description: "Back"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		} else {
			footerHints = []layout.KeyHint{
				{Key: "any key", Description: "Continue"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
