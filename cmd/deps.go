package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/spf13/cobra"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/app"
	"github.com/studyup/studyup/internal/audio"
	"github.com/studyup/studyup/internal/config"
	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/history"
	"github.com/studyup/studyup/internal/llm"
	"github.com/studyup/studyup/internal/logging"
	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/questiongen"
	"github.com/studyup/studyup/internal/review"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/screens/home"
	"github.com/studyup/studyup/internal/store"
	"github.com/studyup/studyup/internal/study"
)

// deps holds everything the interactive commands share.
type deps struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *store.Store
	client  *api.Client // nil when offline
	tracker *conversation.Tracker
	svc     home.Services
}

// setup loads config, opens the log and store, and wires the question
// sources, runner, review service and conversation manager.
func setup(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	lg, err := logging.New(logging.Config{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		lg.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		lg.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	events := st.EventRepo()

	d := &deps{cfg: cfg, log: lg, store: st, tracker: &conversation.Tracker{}}

	var (
		remote    question.Source
		generated question.Source
		reviewAPI review.Backend
	)
	runnerOpts := []study.Option{study.WithEvents(events)}
	if cfg.Online() {
		d.client = api.NewClient(cfg.APIClientConfig(), lg.Component("api"))
		remote = d.client
		reviewAPI = d.client
		runnerOpts = append(runnerOpts, study.WithUploader(d.client))
	}

	provider, err := llm.NewProvider(ctx, cfg.LLMConfig(), events, lg.Component("llm"))
	if err != nil {
		lg.Warn().Err(err).Msg("LLM provider unavailable, question generation disabled")
	} else if provider != nil {
		generated = questiongen.New(provider, questiongen.DefaultConfig(), lg.Component("questiongen"))
	}

	samples, err := question.LoadSamples()
	if err != nil {
		d.close()
		return nil, fmt.Errorf("load sample questions: %w", err)
	}

	registry := question.NewRegistry(question.NewChain(lg.Component("questions"), remote, generated, samples))
	userID := cfg.User.ID

	d.svc = home.Services{
		Runner:       study.NewRunner(registry, lg.Component("study"), runnerOpts...),
		Review:       review.NewService(reviewAPI, events, registry, userID, lg.Component("review")),
		Events:       events,
		Types:        registry.Types(),
		UserID:       userID,
		Difficulty:   cfg.Difficulty(),
		Count:        cfg.Study.Count,
		FetchContext: cfg.FetchContext,
	}

	if d.client != nil {
		d.svc.Conversations = conversation.NewManager(
			d.client,
			audio.NewCommandDevice(cfg.Audio.RecordCommand, lg.Component("audio")),
			lg.Logger,
			conversation.WithPlayer(audio.NewCommandPlayer(cfg.Audio.PlayCommand, lg.Component("audio"))),
			conversation.WithJournal(history.NewJournal(events)),
			conversation.WithTracker(d.tracker),
		)
	}

	lg.Info().
		Bool("online", cfg.Online()).
		Bool("llm", generated != nil).
		Str("db", dbPath).
		Msg("studyup started")
	return d, nil
}

// status is shown in the TUI header.
func (d *deps) status() string {
	if d.cfg.Online() {
		return "online"
	}
	return "offline"
}

// runApp runs the TUI on top of an optional start screen. A hangup or
// terminate signal stops the program like ctrl+c does; close then ends
// whatever conversation was left open.
func (d *deps) runApp(ctx context.Context, start screen.Screen) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, d.svc, d.status(), start)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		d.log.Info().Msg("terminal closed, shutting down")
		return nil
	case errors.Is(err, tea.ErrInterrupted):
		d.log.Info().Msg("interrupted, shutting down")
		return nil
	}
	return fmt.Errorf("run app: %w", err)
}

// close ends an open conversation, gives pending terminations a chance to
// reach the backend, then releases the store and log.
func (d *deps) close() {
	if m := d.svc.Conversations; m != nil {
		m.Teardown(context.Background())
	}
	if !d.tracker.Wait(conversation.DefaultTeardownTimeout) {
		d.log.Warn().Msg("conversation termination still in flight at exit")
	}
	if err := d.store.Close(); err != nil {
		d.log.Error().Err(err).Msg("close store")
	}
	d.log.Close()
}
