package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/session"
	"github.com/studyup/studyup/internal/ui/components"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
	"github.com/studyup/studyup/internal/weakness"
)

func (s *PracticeScreen) View(width, height int) string {
	switch s.phase {
	case phasePreparing:
		return layout.Centered(theme.Hint, width, "\n\n  Gathering questions...")
	case phasePrepareFailed:
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width,
			fmt.Sprintf("\n\nCould not load questions: %s\n\nPress R to try again.", s.errMsg))
	case phaseNoData:
		msg := "\n\nNothing to review yet. Questions you miss will show up here."
		if s.note != "" {
			msg = "\n\n" + s.note + msg
		}
		return layout.Centered(theme.Hint, width, msg)
	}

	run := s.runner.Snapshot()
	if run.Status != session.StatusInProgress {
		return layout.Centered(theme.Hint, width, "\n\n  Wrapping up...")
	}

	var b strings.Builder
	b.WriteString(s.renderInfoLine(run, width))
	b.WriteString("\n")
	b.WriteString(layout.Rule(width))
	b.WriteString("\n\n")

	switch run.Slot {
	case session.SlotEmpty, session.SlotLoading:
		b.WriteString(layout.Centered(theme.Hint, width, "Fetching question..."))
		return b.String()
	case session.SlotFailed:
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width,
			fmt.Sprintf("Could not fetch this question: %v\n\nPress R to retry.", run.LoadErr)))
		return b.String()
	}

	q := run.Current()
	if q.Conversation != "" {
		card := theme.Card.Width(min(width-8, 72)).Render(q.Conversation)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
		b.WriteString("\n\n")
	}

	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text).Bold(true), width, q.Prompt))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choice.View()))

	if s.answer != nil {
		b.WriteString("\n")
		b.WriteString(s.renderFeedback(width))
	}
	return b.String()
}

func (s *PracticeScreen) renderInfoLine(run session.Run, width int) string {
	label := s.title
	if q := run.Current(); q != nil {
		label = fmt.Sprintf("%s · %s", s.title, weakness.TypeNameOf(string(q.Type)))
	}
	if s.note != "" {
		label += " · " + s.note
	}
	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("  " + label)

	correct := 0
	for _, a := range run.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	right := lipgloss.NewStyle().Foreground(theme.TextDim).Render(
		fmt.Sprintf("Q %d/%d  ✓ %d", run.CurrentIndex+1, len(run.Questions), correct))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	return line
}

func (s *PracticeScreen) renderFeedback(width int) string {
	a := s.answer
	var b strings.Builder
	if a.IsCorrect {
		b.WriteString(layout.Centered(theme.Correct, width, "Correct!"))
	} else {
		b.WriteString(layout.Centered(theme.Incorrect, width, "Not quite."))
		b.WriteString("\n")
		idx := s.choice.CorrectIndex
		answer := a.CorrectAnswer
		if idx >= 0 {
			answer = components.OptionLabel(idx) + ") " + answer
		}
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), width, "Answer: "+answer))
	}
	if q := s.choiceFor; q != nil && q.Explanation != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(theme.Hint, width, q.Explanation))
	}
	return b.String()
}
