// Package ranking shows the learner's weakest question types.
package ranking

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/ui/components"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
	"github.com/studyup/studyup/internal/weakness"
)

// RankFunc computes the ranking.
type RankFunc func(ctx context.Context) ([]weakness.Record, error)

type rankedMsg struct {
	Records []weakness.Record
	Err     error
}

// RankingScreen lists weakness records by priority.
type RankingScreen struct {
	rank     RankFunc
	onReview func() tea.Cmd
	records  []weakness.Record
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*RankingScreen)(nil)
var _ screen.KeyHintProvider = (*RankingScreen)(nil)

// New creates a RankingScreen. onReview starts a review of the weakest
// type and may be nil.
func New(rank RankFunc, onReview func() tea.Cmd) *RankingScreen {
	return &RankingScreen{rank: rank, onReview: onReview}
}

func (s *RankingScreen) Init() tea.Cmd {
	rank := s.rank
	return func() tea.Msg {
		recs, err := rank(context.Background())
		return rankedMsg{Records: recs, Err: err}
	}
}

func (s *RankingScreen) Title() string {
	return "Weak Spots"
}

func (s *RankingScreen) KeyHints() []layout.KeyHint {
	if len(s.records) > 0 && s.onReview != nil {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Review weakest"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *RankingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case rankedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.records = msg.Records
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "enter":
			if len(s.records) > 0 && s.onReview != nil {
				return s, s.onReview()
			}
		}
	}
	return s, nil
}

func (s *RankingScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width, "\n\nError: "+s.errMsg)
	case !s.loaded:
		return layout.Centered(theme.Hint, width, "\n\n  Analyzing answers...")
	case len(s.records) == 0:
		return layout.Centered(theme.Hint, width, "\n\n  No wrong answers yet. Keep practicing!")
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, r := range s.records {
		label := fmt.Sprintf("%2d. %-14s %3d wrong", r.PriorityRank, r.DisplayName, r.Count)
		if r.AccuracyRate > 0 {
			label += fmt.Sprintf("  %3.0f%% accuracy", r.AccuracyRate*100)
		}
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if r.PriorityRank == 1 {
			style = theme.Incorrect
		}
		bar := components.NewProgressBar("", r.Share, true, 24).View()
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(label)+"  "+bar))
		b.WriteString("\n")
	}
	return b.String()
}
