package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/review"
	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/screens/history"
	"github.com/studyup/studyup/internal/screens/practice"
	"github.com/studyup/studyup/internal/screens/ranking"
	"github.com/studyup/studyup/internal/screens/talk"
	"github.com/studyup/studyup/internal/screens/typeselect"
	"github.com/studyup/studyup/internal/session"
	"github.com/studyup/studyup/internal/store"
	"github.com/studyup/studyup/internal/study"
	"github.com/studyup/studyup/internal/ui/components"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
	"github.com/studyup/studyup/internal/weakness"
)

// Services are the dependencies the home screen hands to the screens it
// opens.
type Services struct {
	Runner *study.Runner
	Review *review.Service
	Events store.EventRepo

	// Conversations is nil when no backend is configured.
	Conversations *conversation.Manager

	Types      []question.Type
	UserID     string
	Difficulty question.Difficulty
	Count      int

	// FetchContext returns the study filters for a difficulty.
	FetchContext func(d question.Difficulty) question.FetchContext
}

type statsMsg struct {
	Answered int
	Wrong    int
	Weakest  string
}

// HomeScreen is the main menu.
type HomeScreen struct {
	svc   Services
	menu  components.Menu
	stats statsMsg
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(svc Services) *HomeScreen {
	h := &HomeScreen{svc: svc}
	push := func(s screen.Screen) tea.Cmd {
		return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
	}

	items := []components.MenuItem{
		{Label: "Study", Hint: "new questions by type", Action: func() tea.Cmd {
			return push(StudyScreen(svc))
		}},
		{Label: "Review mistakes", Hint: "questions you missed", Action: func() tea.Cmd {
			return push(typeselect.New(typeselect.Options{
				Title:    "Review",
				Types:    svc.Types,
				AllowAny: true,
				OnSelect: func(t question.Type, _ question.Difficulty) tea.Cmd {
					return push(ReviewScreen(svc, t))
				},
			}))
		}},
		{Label: "Weak-type review", Hint: "focus on your weakest type", Action: func() tea.Cmd {
			return push(WeakReviewScreen(svc))
		}},
		{Label: "Weak spots", Hint: "ranking by wrong answers", Action: func() tea.Cmd {
			return push(ranking.New(svc.Review.Ranking, func() tea.Cmd {
				return push(WeakReviewScreen(svc))
			}))
		}},
		{Label: "Conversation", Hint: conversationHint(svc), Disabled: svc.Conversations == nil, Action: func() tea.Cmd {
			return push(talk.New(svc.Conversations, svc.UserID, string(svc.Difficulty)))
		}},
		{Label: "History", Action: func() tea.Cmd {
			return push(history.New(svc.Events))
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func conversationHint(svc Services) string {
	if svc.Conversations == nil {
		return "needs a backend"
	}
	return "speak with the AI tutor"
}

// StudyScreen lets the learner pick a type and level, then starts a study
// run.
func StudyScreen(svc Services) screen.Screen {
	return typeselect.New(typeselect.Options{
		Title:          "Study",
		Types:          svc.Types,
		Difficulty:     svc.Difficulty,
		ShowDifficulty: true,
		OnSelect: func(t question.Type, d question.Difficulty) tea.Cmd {
			s := practice.NewStudy(svc.Runner, t, svc.FetchContext(d), svc.Count)
			return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
		},
	})
}

// ReviewScreen opens a review of wrong answers of type t, or of every type
// when t is empty.
func ReviewScreen(svc Services, t question.Type) screen.Screen {
	return practice.NewReview(svc.Runner, session.ModeReview, "Review", func(ctx context.Context) (practice.Prepared, error) {
		res, err := svc.Review.Review(ctx, t)
		if err != nil {
			return practice.Prepared{}, err
		}
		return practice.Prepared{Questions: res.Questions, RemoteID: res.SessionID, NoData: res.NoData || len(res.Questions) == 0}, nil
	})
}

// WeakReviewScreen opens a review focused on the most-missed type.
func WeakReviewScreen(svc Services) screen.Screen {
	return practice.NewReview(svc.Runner, session.ModeWeakTypeReview, "Weak-type Review", func(ctx context.Context) (practice.Prepared, error) {
		res, err := svc.Review.WeakTypeReview(ctx)
		if err != nil {
			return practice.Prepared{}, err
		}
		p := practice.Prepared{
			Questions: res.Questions,
			RemoteID:  res.SessionID,
			NoData:    res.NoData || len(res.Questions) == 0,
		}
		if res.Target != nil {
			p.Note = res.Target.DisplayName
		}
		return p, nil
	})
}

func (h *HomeScreen) Init() tea.Cmd {
	events := h.svc.Events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		var out statsMsg
		byType, err := events.AttemptsByType(ctx)
		if err != nil {
			return out
		}
		for _, n := range byType {
			out.Answered += n
		}
		wrong, err := events.WrongAnswers(ctx, nil, store.QueryOpts{})
		if err != nil {
			return out
		}
		out.Wrong = len(wrong)
		tags := make([]string, len(wrong))
		for i, w := range wrong {
			tags[i] = w.QuestionType
		}
		if top := weakness.MostWeakType(weakness.AnalyzeTags(tags, weakness.TotalsByDisplayName(byType))); top != nil {
			out.Weakest = top.DisplayName
		}
		return out
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(statsMsg); ok {
		h.stats = m
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Title, width, "StudyUp"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Subtitle, width, "Practice a little every day."))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Answered %d   Missed %d", h.stats.Answered, h.stats.Wrong)
	if h.stats.Weakest != "" {
		stats += "   Weakest: " + h.stats.Weakest
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Render(stats)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View()))
	return b.String()
}

func (h *HomeScreen) Title() string {
	return "Home"
}
