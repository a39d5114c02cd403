package talk

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
)

func (s *TalkScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	switch s.phase {
	case phaseChooseKind:
		b.WriteString(layout.Centered(theme.Title, width, "How would you like to practice speaking?"))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
		return b.String()

	case phaseForm:
		b.WriteString(layout.Centered(theme.Title, width, s.Title()))
		b.WriteString("\n\n")
		for _, f := range s.fields {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, f.View()))
			b.WriteString("\n")
		}
		if s.errMsg != "" {
			b.WriteString("\n")
			b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width, s.errMsg))
		}
		return b.String()

	case phaseStarting:
		b.WriteString(layout.Centered(theme.Hint, width, "\nConnecting to your tutor..."))
		return b.String()

	case phaseEnded:
		return s.renderSummary(width)
	}

	snap := s.manager.Snapshot()
	if snap.AIRole != "" || snap.Situation != "" {
		roles := fmt.Sprintf("Tutor: %s   You: %s", orDash(snap.AIRole), orDash(snap.UserRole))
		b.WriteString(layout.Centered(theme.Subtitle, width, roles))
		b.WriteString("\n")
		if snap.Situation != "" {
			b.WriteString(layout.Centered(theme.Hint, width, snap.Situation))
			b.WriteString("\n")
		}
	}
	b.WriteString(layout.Rule(width))
	b.WriteString("\n")

	turns := snap.DisplayTurns()
	limit := 12
	if layout.IsCompactHeight(height) {
		limit = 6
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	if len(turns) == 0 {
		b.WriteString(theme.Hint.Render("  You start. Press Space and say hello!"))
		b.WriteString("\n")
	}
	for _, t := range turns {
		b.WriteString(renderTurn(t, width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case s.phase == phaseEnding:
		b.WriteString(layout.Centered(theme.Hint, width, "Ending the session and fetching feedback..."))
	case snap.Phase == conversation.PhaseRecording:
		b.WriteString(layout.Centered(theme.Incorrect, width, "● Recording... press Space to send"))
	case snap.Phase == conversation.PhaseSubmitting:
		b.WriteString(layout.Centered(theme.Hint, width, "Waiting for your tutor..."))
	case s.notice != "":
		b.WriteString(layout.Centered(theme.Warning, width, s.notice))
	}
	return b.String()
}

func renderTurn(t conversation.Turn, width int) string {
	if t.Text == conversation.PendingText {
		return theme.Pending.Render("  You: " + t.Text)
	}
	label := theme.SpeakerAI.Render("  Tutor: ")
	if t.Speaker == conversation.SpeakerUser {
		label = theme.SpeakerUser.Render("  You: ")
	}
	body := lipgloss.NewStyle().Foreground(theme.Text).Width(max(width-12, 20)).Render(t.Text)
	line := lipgloss.JoinHorizontal(lipgloss.Top, label, body)
	if t.AudioFeedback != "" {
		line += "\n" + theme.Hint.Render("        ✎ "+t.AudioFeedback)
	}
	return line
}

func (s *TalkScreen) renderSummary(width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Title, width, "Conversation finished"))
	b.WriteString("\n\n")

	sum := s.summary
	if sum == nil {
		msg := "The session has ended."
		if s.errMsg != "" {
			msg += " " + s.errMsg
		}
		b.WriteString(layout.Centered(theme.Hint, width, msg))
		return b.String()
	}

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), width,
		fmt.Sprintf("Turns: %d        Time: %d:%02d", len(sum.Turns), mins, secs)))
	b.WriteString("\n\n")

	if sum.Evaluation == nil {
		b.WriteString(layout.Centered(theme.Hint, width, "Feedback is not available for this session."))
		return b.String()
	}
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), width, sum.Evaluation.Feedback))
	if d := sum.RecommendedDifficulty(); d != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(theme.Correct, width, "Recommended level: "+strings.ToLower(d)))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
