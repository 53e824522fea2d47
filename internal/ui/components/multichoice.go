package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector for a single question. The
// number of options is whatever the question carries.
type MultiChoice struct {
	Options      []string
	CorrectIndex int
	Cursor       int
	// ChosenIndex is -1 until an option is picked.
	ChosenIndex int
	Revealed    bool
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(options []string, correctIndex int) MultiChoice {
	return MultiChoice{
		Options:      options,
		CorrectIndex: correctIndex,
		ChosenIndex:  -1,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection. Digits pick an option
// directly. Once revealed the component ignores input.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Revealed {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space":
		m.ChosenIndex = m.Cursor
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(m.Options) {
				m.Cursor = i
				m.ChosenIndex = i
			}
		}
	}

	return m, nil
}

// View renders the options, one per line.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Revealed {
			prefix = "▸ "
		}
		mark := "○"
		if i == m.ChosenIndex {
			mark = "●"
		}

		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, quiz.OptionLabel(i), opt)

		var style lipgloss.Style
		switch {
		case m.Revealed && i == m.CorrectIndex:
			style = theme.Correct
			line += "  ✓"
		case m.Revealed && i == m.ChosenIndex:
			style = theme.Incorrect
			line += "  ✗"
		case m.Revealed:
			style = theme.Muted
		case i == m.ChosenIndex:
			style = theme.Chosen
		case i == m.Cursor:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Answered reports whether an option has been chosen.
func (m MultiChoice) Answered() bool {
	return m.ChosenIndex >= 0
}

// IsCorrect returns true if the chosen option is the correct one.
func (m MultiChoice) IsCorrect() bool {
	return m.ChosenIndex >= 0 && m.ChosenIndex == m.CorrectIndex
}
