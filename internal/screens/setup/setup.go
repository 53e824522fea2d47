package setup

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"
	"github.com/samber/lo"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/router"
	"github.com/abhisek/examgen/internal/screen"
	"github.com/abhisek/examgen/internal/screens/exam"
	"github.com/abhisek/examgen/internal/ui/components"
	"github.com/abhisek/examgen/internal/ui/layout"
	"github.com/abhisek/examgen/internal/upload"
	"github.com/abhisek/examgen/internal/workspace"
)

// Options carries what the setup screen needs to start a paper.
type Options struct {
	Workspace *workspace.Workspace
	MaxUpload int64
	OutputDir string
	// Disabled is non-nil when no model provider is configured.
	Disabled    error
	InitialPath string
}

type field int

const (
	fieldMaterial field = iota
	fieldLevel
	fieldLanguage
	fieldTopics
	fieldGenerate
	fieldCount
)

// startedMsg is sent once the material is loaded and generation requested.
type startedMsg struct {
	Epoch uint64
	Err   error
}

// SetupScreen collects the study material and generation settings.
type SetupScreen struct {
	opts     Options
	session  string
	path     components.TextInput
	topics   components.TextInput
	level    int
	language int
	focus    field
	generate components.Button
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates a SetupScreen seeded from the workspace configuration.
func New(opts Options) *SetupScreen {
	s := &SetupScreen{
		opts:   opts,
		path:   components.NewTextInput("path/to/notes.pdf", 512),
		topics: components.NewTextInput("e.g. quadratic equations, indices", 200),
	}
	s.generate = components.NewButton("GENERATE PAPER", "enter", false, s.start)
	s.seed(opts.InitialPath)
	return s
}

// seed copies the workspace configuration into the form.
func (s *SetupScreen) seed(path string) {
	v := s.opts.Workspace.View()
	s.session = v.SessionID
	s.level = max(lo.IndexOf(quiz.AcademicLevels, v.Config.AcademicLevel), 0)
	s.language = max(lo.IndexOf(quiz.Languages, v.Config.Language), 0)
	s.path.SetValue(path)
	s.topics.SetValue(v.Config.FocusTopics)
	s.errMsg = ""
}

// refresh clears the form after the workspace was reset elsewhere.
func (s *SetupScreen) refresh() {
	if s.opts.Workspace.View().SessionID != s.session {
		s.seed("")
	}
}

func (s *SetupScreen) Init() tea.Cmd {
	return s.setFocus(fieldMaterial)
}

func (s *SetupScreen) Title() string {
	return "New Paper"
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Tab/↑↓", Description: "Move"},
	}
	switch s.focus {
	case fieldLevel, fieldLanguage:
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Change"})
	case fieldGenerate:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Generate"})
	default:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Next"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Config returns the generation settings currently shown on screen.
func (s *SetupScreen) Config() quiz.GenerationConfig {
	return quiz.GenerationConfig{
		AcademicLevel: quiz.AcademicLevels[s.level],
		Language:      quiz.Languages[s.language],
		FocusTopics:   s.topics.Value(),
	}
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.refresh()
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, s.forward(msg)
}

func (s *SetupScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return s, s.setFocus((s.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return s, s.setFocus((s.focus + fieldCount - 1) % fieldCount)
	case "left", "right":
		step := 1
		if msg.String() == "left" {
			step = -1
		}
		switch s.focus {
		case fieldLevel:
			s.level = wrap(s.level+step, len(quiz.AcademicLevels))
			return s, nil
		case fieldLanguage:
			s.language = wrap(s.language+step, len(quiz.Languages))
			return s, nil
		}
	case "enter":
		if s.focus == fieldGenerate {
			var cmd tea.Cmd
			s.generate, cmd = s.generate.Update(msg)
			return s, cmd
		}
		return s, s.setFocus(s.focus + 1)
	}
	return s, s.forward(msg)
}

// forward hands a message to the focused text input.
func (s *SetupScreen) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.focus {
	case fieldMaterial:
		s.path, cmd = s.path.Update(msg)
	case fieldTopics:
		s.topics, cmd = s.topics.Update(msg)
	}
	return cmd
}

func (s *SetupScreen) setFocus(f field) tea.Cmd {
	s.focus = f
	s.path.Blur()
	s.topics.Blur()
	s.generate.Active = f == fieldGenerate
	switch f {
	case fieldMaterial:
		return s.path.Focus()
	case fieldTopics:
		return s.topics.Focus()
	}
	return nil
}

// start loads the material and asks the workspace to generate. The file
// is read off the UI goroutine.
func (s *SetupScreen) start() tea.Cmd {
	if s.busy {
		return nil
	}
	if s.opts.Disabled != nil {
		s.errMsg = "Generation unavailable: " + s.opts.Disabled.Error()
		return nil
	}

	ws := s.opts.Workspace
	if ws.View().State.Status == quizstate.StatusGenerating {
		return s.openExam()
	}

	s.busy = true
	s.errMsg = ""
	path, maxUpload, cfg := s.path.Value(), s.opts.MaxUpload, s.Config()

	return func() tea.Msg {
		m, err := upload.Load(path, maxUpload)
		if err != nil {
			return startedMsg{Err: err}
		}
		epoch, err := ws.StartWith(context.Background(), m, cfg)
		return startedMsg{Epoch: epoch, Err: err}
	}
}

func (s *SetupScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false

	var uerr *upload.UploadError
	switch {
	case errors.As(msg.Err, &uerr):
		s.path.Submit(false)
		s.errMsg = uerr.Error()
		return s, s.setFocus(fieldMaterial)
	case errors.Is(msg.Err, quizstate.ErrGenerationInProgress):
		return s, s.openExam()
	case msg.Err != nil:
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	s.path.Submit(true)
	return s, s.openExam()
}

// openExam pushes the exam screen for whatever the workspace is generating.
func (s *SetupScreen) openExam() tea.Cmd {
	next := exam.New(exam.Options{
		Workspace: s.opts.Workspace,
		OutputDir: s.opts.OutputDir,
	})
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
