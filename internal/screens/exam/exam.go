package exam

import (
	"context"
	"errors"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/examgen/internal/attempt"
	"github.com/abhisek/examgen/internal/mathtext"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/router"
	"github.com/abhisek/examgen/internal/screen"
	"github.com/abhisek/examgen/internal/ui/components"
	"github.com/abhisek/examgen/internal/ui/layout"
	"github.com/abhisek/examgen/internal/ui/theme"
	"github.com/abhisek/examgen/internal/workspace"
)

const exportTimeout = 2 * time.Minute

// Options carries the exam screen dependencies.
type Options struct {
	Workspace *workspace.Workspace
	OutputDir string
}

// exportDoneMsg reports the outcome of a file export.
type exportDoneMsg struct {
	Path    string
	Answers bool
	Err     error
}

// restartedMsg is sent when a failed generation is retried.
type restartedMsg struct {
	Err error
}

// ExamScreen shows the paper while it is generated, lets the student answer
// it, and reveals the score.
type ExamScreen struct {
	opts     Options
	spinner  spinner.Model
	spinning bool

	epoch   uint64
	index   int
	cursors map[int]int

	submit  components.Button
	actions components.Menu

	exporting bool
	notice    string
	noticeErr bool
}

var _ screen.Screen = (*ExamScreen)(nil)
var _ screen.KeyHintProvider = (*ExamScreen)(nil)

// New creates an ExamScreen bound to the workspace.
func New(opts Options) *ExamScreen {
	s := &ExamScreen{
		opts: opts,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Accent)),
		),
		cursors: make(map[int]int),
	}
	s.submit = components.NewButton("SUBMIT ANSWERS", "s", false, s.reveal)
	s.actions = components.NewMenu([]components.MenuItem{
		{Label: "RETRY", Action: s.retry},
		{Label: "EXPORT PAPER", Action: func() tea.Cmd { return s.export(false) }},
		{Label: "EXPORT WITH ANSWERS", Action: func() tea.Cmd { return s.export(true) }},
		{Label: "NEW PAPER", Action: s.newPaper},
	})
	s.sync(opts.Workspace.View())
	return s
}

func (s *ExamScreen) Init() tea.Cmd {
	s.spinning = true
	return s.spinner.Tick
}

func (s *ExamScreen) Title() string {
	v := s.opts.Workspace.View()
	if v.State.Quiz != nil && v.State.Quiz.Metadata.Title != "" {
		return mathtext.Plain(v.State.Quiz.Metadata.Title)
	}
	return "Practice Paper"
}

func (s *ExamScreen) KeyHints() []layout.KeyHint {
	v := s.opts.Workspace.View()
	switch v.State.Status {
	case quizstate.StatusGenerating:
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	case quizstate.StatusFailed:
		return []layout.KeyHint{
			{Key: "G", Description: "Try again"},
			{Key: "N", Description: "New paper"},
			{Key: "Esc", Description: "Back"},
		}
	}
	if v.Revealed {
		return []layout.KeyHint{
			{Key: "←→", Description: "Review"},
			{Key: "↑↓", Description: "Actions"},
			{Key: "Enter", Description: "Select"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "←→", Description: "Question"},
		{Key: "↑↓/1-9", Description: "Option"},
		{Key: "Enter", Description: "Choose"},
	}
	if v.CanReveal {
		hints = append(hints, layout.KeyHint{Key: "S", Description: "Submit"})
	}
	return append(hints, layout.KeyHint{Key: "E/A", Description: "Export"})
}

func (s *ExamScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !s.busy() {
			s.spinning = false
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case quizstate.Event:
		s.sync(s.opts.Workspace.View())
		return s, s.wakeSpinner()

	case restartedMsg:
		if msg.Err != nil {
			s.setNotice(msg.Err.Error(), true)
		}
		s.sync(s.opts.Workspace.View())
		return s, s.wakeSpinner()

	case exportDoneMsg:
		s.exporting = false
		if msg.Err != nil {
			s.setNotice("Export failed: "+msg.Err.Error(), true)
		} else {
			s.setNotice("Saved "+msg.Path, false)
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *ExamScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	v := s.opts.Workspace.View()
	s.sync(v)

	switch v.State.Status {
	case quizstate.StatusFailed:
		switch msg.String() {
		case "g":
			return s, s.restart()
		case "n":
			return s, s.newPaper()
		}
		return s, nil
	case quizstate.StatusReady:
	default:
		return s, nil
	}

	questions := v.State.Quiz.Questions
	switch msg.String() {
	case "left", "h":
		if s.index > 0 {
			s.index--
		}
		return s, nil
	case "right", "l":
		if s.index < len(questions)-1 {
			s.index++
		}
		return s, nil
	case "e":
		return s, s.export(false)
	case "a":
		return s, s.export(true)
	case "n":
		return s, s.newPaper()
	case "r":
		if v.Revealed {
			return s, s.retry()
		}
	}

	if v.Revealed {
		var cmd tea.Cmd
		s.actions, cmd = s.actions.Update(msg)
		return s, cmd
	}

	if msg.String() == s.submit.Key {
		s.submit.Active = v.CanReveal
		if !v.CanReveal {
			s.setNotice("Answer every question before submitting.", true)
			return s, nil
		}
		var cmd tea.Cmd
		s.submit, cmd = s.submit.Update(msg)
		return s, cmd
	}

	q := questions[s.index]
	mc := s.choice(v, s.index)
	before := mc.ChosenIndex
	mc, _ = mc.Update(msg)
	s.cursors[q.ID] = mc.Cursor
	if mc.ChosenIndex != before && mc.ChosenIndex >= 0 {
		if err := s.opts.Workspace.Select(q.ID, mc.ChosenIndex); err != nil {
			s.setNotice(err.Error(), true)
			return s, nil
		}
		s.notice = ""
		if s.index < len(questions)-1 {
			s.index++
		}
	}
	return s, nil
}

// choice builds the option selector for the question at position i.
func (s *ExamScreen) choice(v workspace.View, i int) components.MultiChoice {
	q := v.State.Quiz.Questions[i]
	opts := make([]string, len(q.Options))
	for j, o := range q.Options {
		opts[j] = mathtext.Plain(o)
	}
	correct := -1
	if q.HasCorrectAnswer() {
		correct = q.CorrectAnswerIndex
	}
	mc := components.NewMultiChoice(opts, correct)
	if c, ok := s.cursors[q.ID]; ok {
		mc.Cursor = c
	}
	if a, ok := v.Answers[q.ID]; ok {
		mc.ChosenIndex = a
		if _, moved := s.cursors[q.ID]; !moved {
			mc.Cursor = a
		}
	}
	mc.Revealed = v.Revealed
	return mc
}

// sync resets per-paper navigation when a new generation epoch starts.
func (s *ExamScreen) sync(v workspace.View) {
	if v.State.Epoch == s.epoch {
		return
	}
	s.epoch = v.State.Epoch
	s.index = 0
	s.cursors = make(map[int]int)
	s.notice = ""
}

// busy reports whether anything is still being generated.
func (s *ExamScreen) busy() bool {
	return !s.opts.Workspace.View().State.Settled()
}

func (s *ExamScreen) wakeSpinner() tea.Cmd {
	if s.spinning || !s.busy() {
		return nil
	}
	s.spinning = true
	return s.spinner.Tick
}

func (s *ExamScreen) setNotice(text string, isErr bool) {
	s.notice = text
	s.noticeErr = isErr
}

func (s *ExamScreen) reveal() tea.Cmd {
	result, err := s.opts.Workspace.Reveal()
	switch {
	case errors.Is(err, attempt.ErrIncomplete):
		s.setNotice("Answer every question before submitting.", true)
	case err != nil:
		s.setNotice(err.Error(), true)
	default:
		s.setNotice("Score: "+result.String(), false)
		s.index = 0
	}
	return nil
}

func (s *ExamScreen) retry() tea.Cmd {
	s.opts.Workspace.Retry()
	s.index = 0
	s.cursors = make(map[int]int)
	s.setNotice("Answers cleared. Try again!", false)
	return nil
}

func (s *ExamScreen) restart() tea.Cmd {
	ws := s.opts.Workspace
	return func() tea.Msg {
		_, err := ws.Start(context.Background())
		return restartedMsg{Err: err}
	}
}

// newPaper clears the whole session and returns to the setup screen.
func (s *ExamScreen) newPaper() tea.Cmd {
	s.opts.Workspace.Reset()
	return func() tea.Msg { return router.PopToRootMsg{} }
}

func (s *ExamScreen) export(includeAnswers bool) tea.Cmd {
	if s.exporting {
		return nil
	}
	s.exporting = true
	s.setNotice("Exporting...", false)
	ws, dir := s.opts.Workspace, s.opts.OutputDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		path, err := ws.Export(ctx, includeAnswers, dir)
		return exportDoneMsg{Path: path, Answers: includeAnswers, Err: err}
	}
}
