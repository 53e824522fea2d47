package setup

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/ui/components"
	"github.com/abhisek/examgen/internal/ui/theme"
)

func (s *SetupScreen) View(width, height int) string {
	s.refresh()
	cw := components.ContentWidth(width)

	var rows []string
	rows = append(rows, theme.Title.Width(cw).Render("Create a practice paper"))
	rows = append(rows, theme.Subtitle.Width(cw).Render("PDF notes or a photo of the textbook page"))
	rows = append(rows, "")

	rows = append(rows, s.row(fieldMaterial, "Study material", s.path.View()))
	rows = append(rows, s.row(fieldLevel, "Academic level", s.selector(fieldLevel, string(quiz.AcademicLevels[s.level]))))

	lang := quiz.Languages[s.language]
	rows = append(rows, s.row(fieldLanguage, "Language", s.selector(fieldLanguage, string(lang))))
	rows = append(rows, s.row(fieldTopics, "Focus topics", s.topics.View()))

	level := quiz.AcademicLevels[s.level]
	rows = append(rows, theme.Hint.Render(fmt.Sprintf("  %d options per question", level.OptionCount())))
	rows = append(rows, "")

	button := s.generate.View()
	if s.busy {
		button = theme.Hint.Render("Reading material...")
	}
	rows = append(rows, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(button))

	if s.errMsg != "" {
		rows = append(rows, "")
		rows = append(rows, lipgloss.NewStyle().Foreground(theme.Error).Width(cw).Render(s.errMsg))
	}
	if s.opts.Disabled != nil && s.errMsg == "" {
		rows = append(rows, "")
		rows = append(rows, theme.Hint.Width(cw).Render("No model provider configured. Set GEMINI_API_KEY to enable generation."))
	}

	return components.Centered(components.Panel(strings.Join(rows, "\n"), cw), width, height)
}

func (s *SetupScreen) row(f field, label, value string) string {
	marker := "  "
	style := theme.Label
	if s.focus == f {
		marker = "▸ "
		style = theme.Selected
	}
	return style.Render(fmt.Sprintf("%s%-16s", marker, label)) + value
}

func (s *SetupScreen) selector(f field, value string) string {
	if s.focus == f {
		return theme.Selected.Render("◂ " + value + " ▸")
	}
	return theme.Body.Render("  " + value)
}
