package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/conversation"
	hist "github.com/studyup/studyup/internal/history"
	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/store"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
	"github.com/studyup/studyup/internal/weakness"
)

const pageSize = 50

type historyLoadedMsg struct {
	Entries []hist.Entry
	Err     error
}

type transcriptLoadedMsg struct {
	SessionID string
	Turns     []conversation.Turn
	Err       error
}

// HistoryScreen displays past runs and conversations.
type HistoryScreen struct {
	eventRepo   store.EventRepo
	entries     []hist.Entry
	transcripts map[string][]conversation.Turn
	selected    int
	expanded    map[int]bool
	loaded      bool
	errMsg      string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo:   eventRepo,
		transcripts: make(map[string][]conversation.Turn),
		expanded:    make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		entries, err := hist.Recent(context.Background(), repo, pageSize)
		return historyLoadedMsg{Entries: entries, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.entries = msg.Entries
		}
		s.loaded = true
		return s, nil

	case transcriptLoadedMsg:
		if msg.Err == nil {
			s.transcripts[msg.SessionID] = msg.Turns
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.entries)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if len(s.entries) == 0 {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			e := s.entries[s.selected]
			if _, ok := s.transcripts[e.ID]; s.expanded[s.selected] && e.Kind == hist.EntryConversation && !ok {
				return s, s.loadTranscript(e.ID)
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) loadTranscript(id string) tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		turns, err := hist.Transcript(context.Background(), repo, id)
		return transcriptLoadedMsg{SessionID: id, Turns: turns, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width, fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), width, "\n\n  Loading history...")
	}
	if len(s.entries) == 0 {
		return layout.Centered(theme.Hint, width, "\n\n  Nothing here yet. Start studying!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, e := range s.entries {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if e.Abandoned {
			style = style.Foreground(theme.TextDim)
		}
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(prefix+Describe(e))))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, line := range s.details(e) {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("    "+line)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (s *HistoryScreen) details(e hist.Entry) []string {
	if e.Kind == hist.EntryRun {
		return []string{fmt.Sprintf("run %s", e.ID)}
	}
	var lines []string
	if e.Feedback != "" {
		lines = append(lines, "feedback: "+e.Feedback)
	}
	turns, ok := s.transcripts[e.ID]
	if !ok {
		return append(lines, "loading transcript...")
	}
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Speaker, t.Text))
	}
	if len(turns) == 0 {
		lines = append(lines, "no turns recorded")
	}
	return lines
}

// Describe renders one entry as a single line. The history command uses it
// as well.
func Describe(e hist.Entry) string {
	date := e.At.Local().Format("Jan 02 15:04")
	status := ""
	if e.Abandoned {
		status = "  (abandoned)"
	}

	if e.Kind == hist.EntryConversation {
		line := fmt.Sprintf("%s  talk  %-18s %d turns", date, strings.ToLower(e.ConversationKind), e.TurnCount)
		if e.RecommendedDifficulty != "" {
			line += "  next: " + strings.ToLower(e.RecommendedDifficulty)
		}
		return line + status
	}

	typ := "mixed"
	if e.QuestionType != "" {
		typ = weakness.TypeNameOf(e.QuestionType)
	}
	mins := int(e.Duration.Minutes())
	secs := int(e.Duration.Seconds()) % 60
	return fmt.Sprintf("%s  %-6s %-10s %d/%d correct  %.0f%%  %d:%02d%s",
		date, strings.ToLower(e.Mode), typ, e.CorrectAnswers, e.TotalQuestions, e.Accuracy(), mins, secs, status)
}
