package exam

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examgen/internal/mathtext"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/ui/components"
	"github.com/abhisek/examgen/internal/ui/theme"
	"github.com/abhisek/examgen/internal/workspace"
)

func (s *ExamScreen) View(width, height int) string {
	v := s.opts.Workspace.View()
	switch v.State.Status {
	case quizstate.StatusGenerating:
		return s.renderGenerating(v, width, height)
	case quizstate.StatusFailed:
		return renderFailed(v, width, height)
	case quizstate.StatusReady:
		if v.State.Quiz != nil && len(v.State.Quiz.Questions) > 0 {
			return s.renderPaper(v, width, height)
		}
	}
	return components.Centered(theme.Hint.Render("No paper yet. Press Esc to set one up."), width, height)
}

func (s *ExamScreen) renderGenerating(v workspace.View, width, height int) string {
	name := "your material"
	if v.Material != nil {
		name = v.Material.Name
	}
	lines := []string{
		s.spinner.View() + " " + theme.Body.Render("Generating a "+string(v.Config.AcademicLevel)+" paper"),
		"",
		theme.Hint.Render("Reading " + name + ". This can take a minute."),
	}
	return components.Centered(strings.Join(lines, "\n"), width, height)
}

func renderFailed(v workspace.View, width, height int) string {
	msg := "Generation failed."
	if v.State.Err != nil {
		msg += "\n\n" + v.State.Err.Error()
	}
	cw := components.ContentWidth(width)
	body := lipgloss.NewStyle().Foreground(theme.Error).Width(cw - 4).Render(msg) +
		"\n\n" + theme.Hint.Render("Press G to try again or N to start a new paper.")
	return components.Centered(components.Panel(body, cw), width, height)
}

func (s *ExamScreen) renderPaper(v workspace.View, width, height int) string {
	q := v.State.Quiz
	cw := components.ContentWidth(width)
	s.index = min(s.index, len(q.Questions)-1)

	var sections []string

	meta := fmt.Sprintf("%s · %s · %s", mathtext.Plain(q.Metadata.Subject), q.Metadata.AcademicLevel, q.Metadata.Language)
	sections = append(sections, theme.Subtitle.Width(cw).Render(meta))

	progress := components.NewProgressBar("Answered", len(v.Answers), len(q.Questions), cw)
	sections = append(sections, progress.View())

	if v.Revealed && v.Score != nil {
		score := lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Width(cw).Align(lipgloss.Center).
			Render("Score: " + v.Score.String())
		sections = append(sections, score)
	}

	sections = append(sections, components.Panel(s.renderQuestion(v, cw-4), cw))

	if v.Revealed {
		sections = append(sections, s.actions.View())
	} else {
		s.submit.Active = v.CanReveal
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(s.submit.View()))
	}

	if s.notice != "" {
		style := theme.Hint
		if s.noticeErr {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		sections = append(sections, style.Width(cw).Render(s.notice))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, strings.Join(sections, "\n"))
}

func (s *ExamScreen) renderQuestion(v workspace.View, w int) string {
	q := v.State.Quiz.Questions[s.index]

	header := theme.Label.Render(fmt.Sprintf("Question %d of %d", s.index+1, len(v.State.Quiz.Questions)))
	if q.CognitiveLevel != "" {
		header += theme.Hint.Render("  " + q.CognitiveLevel)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Bold(true).Width(w).Render(mathtext.Plain(q.Stem)))
	b.WriteString("\n")

	switch v.State.ImageStatus(q.ID) {
	case quizstate.ImagePending:
		b.WriteString(s.spinner.View() + theme.Hint.Render(" drawing diagram..."))
		b.WriteString("\n")
	case quizstate.ImageResolved:
		b.WriteString(theme.Hint.Render("[diagram included in the exported paper]"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.choice(v, s.index).View())

	if v.Revealed {
		b.WriteString("\n")
		if letter := q.CorrectLetter(); letter != "" {
			b.WriteString(theme.Correct.Render("Correct answer: " + letter))
			b.WriteString("\n")
		}
		if q.Explanation != "" {
			b.WriteString(theme.Body.Width(w).Render(mathtext.Plain(q.Explanation)))
			b.WriteString("\n")
		}
		if q.SourceReference != "" {
			b.WriteString(theme.Hint.Width(w).Render("Source: " + q.SourceReference))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
