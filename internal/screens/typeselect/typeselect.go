// Package typeselect lets the learner pick a question type and difficulty.
package typeselect

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/ui/components"
	"github.com/studyup/studyup/internal/ui/layout"
	"github.com/studyup/studyup/internal/ui/theme"
	"github.com/studyup/studyup/internal/weakness"
)

var difficulties = []question.Difficulty{question.Beginner, question.Intermediate, question.Advanced}

// OnSelect is called with the chosen type. An empty type means "all
// types" and is only offered when AllowAny is set.
type OnSelect func(t question.Type, d question.Difficulty) tea.Cmd

// TypeSelectScreen lists the registered question types.
type TypeSelectScreen struct {
	title      string
	menu       components.Menu
	difficulty int
	showLevel  bool
}

var _ screen.Screen = (*TypeSelectScreen)(nil)
var _ screen.KeyHintProvider = (*TypeSelectScreen)(nil)

// Options configures a TypeSelectScreen.
type Options struct {
	Title      string
	Types      []question.Type
	Difficulty question.Difficulty

	// ShowDifficulty lets the learner change the level with ←→.
	ShowDifficulty bool

	// AllowAny adds an "All types" entry first.
	AllowAny bool

	OnSelect OnSelect
}

// New creates a TypeSelectScreen.
func New(opts Options) *TypeSelectScreen {
	s := &TypeSelectScreen{title: opts.Title, showLevel: opts.ShowDifficulty}
	for i, d := range difficulties {
		if d == opts.Difficulty {
			s.difficulty = i
		}
	}

	var items []components.MenuItem
	if opts.AllowAny {
		items = append(items, components.MenuItem{Label: "All types", Action: s.action(opts.OnSelect, "")})
	}
	for _, t := range opts.Types {
		items = append(items, components.MenuItem{
			Label:  weakness.TypeNameOf(string(t)),
			Hint:   t.WireTag(),
			Action: s.action(opts.OnSelect, t),
		})
	}
	s.menu = components.NewMenu(items)
	return s
}

func (s *TypeSelectScreen) action(fn OnSelect, t question.Type) func() tea.Cmd {
	return func() tea.Cmd {
		if fn == nil {
			return nil
		}
		return fn(t, s.Difficulty())
	}
}

// Difficulty returns the currently selected level.
func (s *TypeSelectScreen) Difficulty() question.Difficulty {
	return difficulties[s.difficulty]
}

func (s *TypeSelectScreen) Init() tea.Cmd {
	return nil
}

func (s *TypeSelectScreen) Title() string {
	return s.title
}

func (s *TypeSelectScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "↑↓", Description: "Navigate"}}
	if s.showLevel {
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Level"})
	}
	return append(hints,
		layout.KeyHint{Key: "Enter", Description: "Start"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *TypeSelectScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "left", "h":
			if s.showLevel && s.difficulty > 0 {
				s.difficulty--
			}
			return s, nil
		case "right", "l":
			if s.showLevel && s.difficulty < len(difficulties)-1 {
				s.difficulty++
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *TypeSelectScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Title, width, "What would you like to practice?"))
	b.WriteString("\n\n")

	if s.showLevel {
		var parts []string
		for i, d := range difficulties {
			label := strings.ToLower(string(d))
			if i == s.difficulty {
				parts = append(parts, theme.Selected.Render("["+label+"]"))
			} else {
				parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render(" "+label+" "))
			}
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, fmt.Sprintf("Level: %s", strings.Join(parts, " "))))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
	return b.String()
}
