package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/session"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
	"github.com/studyup/studyup/internal/weakness"
)

// RetryFunc restarts practice on the answer at index of the summary.
type RetryFunc func(index int) tea.Cmd

// SummaryScreen displays a completed run and lets the learner retry a
// single question from it.
type SummaryScreen struct {
	summary  *session.Summary
	onRetry  RetryFunc
	selected int
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. onRetry may be nil.
func New(summary *session.Summary, onRetry RetryFunc) *SummaryScreen {
	return &SummaryScreen{summary: summary, onRetry: onRetry}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Run Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "↑↓", Description: "Browse"}}
	if s.onRetry != nil && s.summary != nil && len(s.summary.Answers) > 0 {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Retry question"})
	}
	return append(hints, layout.KeyHint{Key: "Enter", Description: "Done"})
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || s.summary == nil {
		return s, nil
	}
	switch kmsg.String() {
	case "enter", "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.summary.Answers)-1 {
			s.selected++
		}
	case "r":
		if s.onRetry != nil && len(s.summary.Answers) > 0 {
			return s, s.onRetry(s.selected)
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), width, "Run complete!"))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	stats := fmt.Sprintf("Questions: %d        Correct: %d        Accuracy: %.0f%%        Time: %d:%02d",
		sum.TotalQuestions, sum.CorrectAnswers, sum.Accuracy()*100, mins, secs)
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), width, stats))
	b.WriteString("\n\n")

	if wrong := weakness.Analyze(sum.Wrong()); len(wrong) > 0 {
		w := wrong[0]
		line := fmt.Sprintf("Most missed this run: %s (%d)", w.DisplayName, w.Count)
		b.WriteString(layout.Centered(theme.Warning, width, line))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, layout.Rule(min(width, 64))))
	b.WriteString("\n")

	for i, a := range sum.Answers {
		mark := theme.Correct.Render("✓")
		if !a.IsCorrect {
			mark = theme.Incorrect.Render("✗")
		}
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		line := fmt.Sprintf("%s%d. %s", prefix, i+1, truncate(a.Prompt, 56))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)+" "+mark))
		b.WriteString("\n")
		if i == s.selected && !a.IsCorrect {
			detail := fmt.Sprintf("your answer: %s   correct: %s", a.SelectedAnswer, a.CorrectAnswer)
			b.WriteString(layout.Centered(theme.Hint, width, detail))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
