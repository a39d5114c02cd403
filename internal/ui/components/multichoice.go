package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/ui/theme"
)

// OptionLabel returns the letter shown before option i: A, B, C...
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// MultiChoice is a multiple-choice selector. It only tracks the cursor and
// the chosen option; scoring belongs to the caller, which reveals the
// correct option once it knows it.
type MultiChoice struct {
	Options      []string
	Selected     int
	Submitted    bool
	ChosenIndex  int
	CorrectIndex int
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{
		Options:      options,
		ChosenIndex:  -1,
		CorrectIndex: -1,
	}
}

// Update handles keyboard navigation and selection. Letter keys and digit
// keys jump to an option; Enter chooses the highlighted one. The returned
// bool is true on the keystroke that chose an option.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, bool) {
	if m.Submitted || len(m.Options) == 0 {
		return m, false
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, false
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
		return m, false
	case "enter":
		m.Submitted = true
		m.ChosenIndex = m.Selected
		return m, true
	}

	if len(key) == 1 {
		idx := -1
		switch c := key[0]; {
		case c >= 'a' && c <= 'z':
			idx = int(c - 'a')
		case c >= '1' && c <= '9':
			idx = int(c - '1')
		}
		if idx >= 0 && idx < len(m.Options) {
			m.Selected = idx
		}
	}
	return m, false
}

// Chosen returns the text of the chosen option, or "".
func (m MultiChoice) Chosen() string {
	if m.ChosenIndex < 0 || m.ChosenIndex >= len(m.Options) {
		return ""
	}
	return m.Options[m.ChosenIndex]
}

// Reveal marks which option was correct.
func (m *MultiChoice) Reveal(correctIndex int) {
	m.CorrectIndex = correctIndex
}

// View renders the options.
func (m MultiChoice) View() string {
	var s string
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}

		line := fmt.Sprintf("%s%s)  %s", prefix, OptionLabel(i), opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Submitted && i == m.CorrectIndex:
			style = theme.Correct
		case m.Submitted && i == m.ChosenIndex:
			style = theme.Incorrect
		case m.Submitted:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		}
		s += style.Render(line) + "\n"
	}
	return s
}
