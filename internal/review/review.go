// Package review assembles review runs from the learner's wrong answers,
// preferring the backend and falling back to the local event store.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/store"
	"github.com/studyup/studyup/internal/weakness"
)

// DefaultLimit caps questions in one review run.
const DefaultLimit = 10

// Backend is the subset of the api client used for review.
type Backend interface {
	CreateReviewSession(ctx context.Context, req api.ReviewSessionRequest) (*api.ReviewSession, error)
	ReviewQuestions(ctx context.Context, userID, typeTag string) (*api.ReviewResult, error)
}

// Origin tells where review questions came from.
type Origin string

const (
	OriginBackend Origin = "backend"
	OriginLocal   Origin = "local"
)

// Result is the outcome of assembling a review run. NoData marks the
// explicit empty state: there is nothing to review.
type Result struct {
	SessionID string
	Questions []*question.Question
	NoData    bool
	Origin    Origin
}

// WeakResult is a weak-type review: the ranking, its head and the questions
// gathered for it. Target is nil when there are no weaknesses.
type WeakResult struct {
	Ranking []weakness.Record
	Target  *weakness.Record
	Result
}

// Service builds review runs. Backend and events may each be nil.
type Service struct {
	backend  Backend
	events   store.EventRepo
	registry *question.Registry
	userID   string
	limit    int
	logger   zerolog.Logger
}

// NewService creates a review service. A nil backend runs offline.
func NewService(backend Backend, events store.EventRepo, registry *question.Registry, userID string, logger zerolog.Logger) *Service {
	return &Service{
		backend:  backend,
		events:   events,
		registry: registry,
		userID:   userID,
		limit:    DefaultLimit,
		logger:   logger.With().Str("component", "review").Logger(),
	}
}

// SetLimit changes the per-run question cap.
func (s *Service) SetLimit(n int) {
	if n > 0 {
		s.limit = n
	}
}

// Review gathers previously missed questions, optionally of one type
// (empty means all types). A backend "no data" answer is returned as an
// empty Result with NoData set, never as an error.
func (s *Service) Review(ctx context.Context, typ question.Type) (*Result, error) {
	var tags []string
	if typ != "" {
		tags = []string{string(typ)}
	}

	if s.backend == nil {
		return s.local(ctx, tags)
	}

	res := &Result{Origin: OriginBackend}
	sess, err := s.backend.CreateReviewSession(ctx, s.sessionRequest(tags))
	switch {
	case errors.Is(err, api.ErrNoData):
		return &Result{NoData: true, Origin: OriginBackend}, nil
	case err != nil:
		s.logger.Warn().Err(err).Msg("create review session failed")
	default:
		res.SessionID = sess.SessionID
	}

	qs, noData, err := s.fetchBackend(ctx, tags)
	if err != nil {
		s.logger.Warn().Err(err).Msg("backend review failed, using local history")
		local, lerr := s.local(ctx, tags)
		if lerr != nil || local.NoData {
			return nil, fmt.Errorf("fetch review questions: %w", err)
		}
		return local, nil
	}
	res.Questions = qs
	res.NoData = noData || len(qs) == 0
	return res, nil
}

// WeakTypeReview ranks weaknesses and gathers questions for the weakest
// type. With no weaknesses the result has a nil Target and NoData set.
func (s *Service) WeakTypeReview(ctx context.Context) (*WeakResult, error) {
	ranking, err := s.Ranking(ctx)
	if err != nil {
		return nil, err
	}
	out := &WeakResult{Ranking: ranking, Target: weakness.MostWeakType(ranking)}
	if out.Target == nil {
		out.NoData = true
		return out, nil
	}

	tags := canonicalTags(out.Target.Tags)
	if s.backend != nil {
		qs, _, err := s.fetchBackend(ctx, tags)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", out.Target.DisplayName).Msg("backend weak-type review failed")
		}
		if len(qs) > 0 {
			out.Questions = qs
			out.Origin = OriginBackend
			return out, nil
		}
	}

	local, err := s.local(ctx, tags)
	if err != nil {
		return nil, err
	}
	out.Result = *local
	return out, nil
}

// Ranking returns the weakness ranking. The backend review list is used
// when it has data, each item weighted by its wrong count; otherwise the
// local answer history.
func (s *Service) Ranking(ctx context.Context) ([]weakness.Record, error) {
	if s.backend != nil {
		res, err := s.backend.ReviewQuestions(ctx, s.userID, "")
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("backend ranking failed, using local history")
		case len(res.Items) > 0:
			var tags []string
			for _, it := range res.Items {
				for n := max(1, it.WrongCount); n > 0; n-- {
					tags = append(tags, it.QuestionType)
				}
			}
			return weakness.AnalyzeTags(tags, nil), nil
		}
	}

	if s.events == nil {
		return nil, nil
	}
	wrong, err := s.events.WrongAnswers(ctx, nil, store.QueryOpts{})
	if err != nil {
		return nil, fmt.Errorf("load wrong answers: %w", err)
	}
	attempts, err := s.events.AttemptsByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	tags := make([]string, len(wrong))
	for i, w := range wrong {
		tags[i] = w.QuestionType
	}
	return weakness.AnalyzeTags(tags, weakness.TotalsByDisplayName(attempts)), nil
}

func (s *Service) sessionRequest(tags []string) api.ReviewSessionRequest {
	categories := make([]string, 0, len(tags))
	for _, t := range tags {
		categories = append(categories, wireTag(t))
	}
	return api.ReviewSessionRequest{
		UserID:          s.userID,
		SessionMetadata: map[string]any{"source": "studyup", "limit": s.limit},
		Categories:      categories,
	}
}

// fetchBackend collects review items for each tag (or all when tags is
// empty) and normalizes them.
func (s *Service) fetchBackend(ctx context.Context, tags []string) ([]*question.Question, bool, error) {
	queries := []string{""}
	if len(tags) > 0 {
		queries = queries[:0]
		for _, t := range tags {
			if w := wireTag(t); !contains(queries, w) {
				queries = append(queries, w)
			}
		}
	}

	var (
		out    []*question.Question
		seen   = make(map[string]bool)
		noData = true
	)
	for _, tag := range queries {
		res, err := s.backend.ReviewQuestions(ctx, s.userID, tag)
		if err != nil {
			return nil, false, err
		}
		if res.NoData {
			continue
		}
		noData = false
		def, _ := question.ParseType(tag)
		for _, it := range res.Items {
			q, err := s.registry.NormalizeAny(it.RawQuestion, def)
			if err != nil {
				s.logger.Debug().Err(err).Str("id", it.ID).Msg("skipping review item")
				continue
			}
			if it.ID != "" && seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, q)
			if len(out) == s.limit {
				return out, false, nil
			}
		}
	}
	return out, noData, nil
}

// local builds a review from stored wrong answers, newest first, one entry
// per question.
func (s *Service) local(ctx context.Context, tags []string) (*Result, error) {
	res := &Result{Origin: OriginLocal}
	if s.events == nil {
		res.NoData = true
		return res, nil
	}

	wrong, err := s.events.WrongAnswers(ctx, tags, store.QueryOpts{})
	if err != nil {
		return nil, fmt.Errorf("load wrong answers: %w", err)
	}
	seen := make(map[string]bool)
	for _, w := range wrong {
		if seen[w.QuestionID] {
			continue
		}
		q, err := QuestionFromEvent(w)
		if err != nil {
			s.logger.Debug().Err(err).Str("id", w.QuestionID).Msg("skipping stored answer")
			continue
		}
		seen[w.QuestionID] = true
		res.Questions = append(res.Questions, q)
		if len(res.Questions) == s.limit {
			break
		}
	}
	res.NoData = len(res.Questions) == 0
	return res, nil
}

// QuestionFromEvent rebuilds a question from a stored answer.
func QuestionFromEvent(e store.AnswerEventData) (*question.Question, error) {
	t, err := question.ParseType(e.QuestionType)
	if err != nil {
		return nil, err
	}
	if len(e.Options) < 2 || !contains(e.Options, e.CorrectAnswer) {
		return nil, &question.MalformedError{Reason: "stored question has no usable options"}
	}
	d, err := question.ParseDifficulty(e.Difficulty)
	if err != nil {
		d = question.Beginner
	}
	return &question.Question{
		ID:            e.QuestionID,
		Type:          t,
		Prompt:        e.Prompt,
		Options:       append([]string(nil), e.Options...),
		CorrectAnswer: e.CorrectAnswer,
		Explanation:   e.Explanation,
		Difficulty:    d,
		Conversation:  e.Conversation,
	}, nil
}

// canonicalTags adds the canonical form of each tag so backend wire tags
// match locally stored ones.
func canonicalTags(tags []string) []string {
	out := make([]string, 0, len(tags)*2)
	for _, t := range tags {
		if !contains(out, t) {
			out = append(out, t)
		}
		if ct, err := question.ParseType(t); err == nil && !contains(out, string(ct)) {
			out = append(out, string(ct))
		}
	}
	return out
}

func wireTag(tag string) string {
	if t, err := question.ParseType(tag); err == nil {
		return t.WireTag()
	}
	return strings.ToLower(tag)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
