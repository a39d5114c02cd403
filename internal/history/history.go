// Package history persists conversation sessions in the local event store
// and reads back past runs and conversations for display.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/store"
)

// Journal records conversation events in the store. It implements
// conversation.Journal.
type Journal struct {
	events store.EventRepo

	mu    sync.Mutex
	kinds map[string]conversation.Kind
}

var _ conversation.Journal = (*Journal)(nil)

// NewJournal creates a Journal over events.
func NewJournal(events store.EventRepo) *Journal {
	return &Journal{events: events, kinds: make(map[string]conversation.Kind)}
}

func (j *Journal) SessionStarted(ctx context.Context, s conversation.Session) error {
	j.mu.Lock()
	j.kinds[s.ID] = s.Kind
	j.mu.Unlock()

	return j.events.AppendConversationEvent(ctx, store.ConversationEventData{
		SessionID: s.ID,
		Kind:      string(s.Kind),
		Action:    store.ActionStart,
	})
}

func (j *Journal) TurnRecorded(ctx context.Context, sessionID string, seq int, t conversation.Turn) error {
	return j.events.AppendConversationTurn(ctx, store.ConversationTurnData{
		SessionID:        sessionID,
		TurnIndex:        seq,
		Speaker:          string(t.Speaker),
		Text:             t.Text,
		Feedback:         t.AudioFeedback,
		EvaluationStatus: t.EvaluationStatus,
	})
}

// SessionEnded records the end of a session. An abandoned session carries
// only its id, so the kind is taken from the start event.
func (j *Journal) SessionEnded(ctx context.Context, sessionID string, sum *conversation.Summary, abandoned bool) error {
	j.mu.Lock()
	kind := j.kinds[sessionID]
	delete(j.kinds, sessionID)
	j.mu.Unlock()

	data := store.ConversationEventData{
		SessionID: sessionID,
		Kind:      string(kind),
		Action:    store.ActionEnd,
	}
	if abandoned {
		data.Action = store.ActionAbandon
	}
	if sum != nil {
		if sum.Kind != "" {
			data.Kind = string(sum.Kind)
		}
		data.TurnCount = len(sum.Turns)
		data.RecommendedDifficulty = sum.RecommendedDifficulty()
		if sum.Evaluation != nil {
			data.Feedback = sum.Evaluation.Feedback
		}
	}
	return j.events.AppendConversationEvent(ctx, data)
}

// EntryKind distinguishes history rows.
type EntryKind string

const (
	EntryRun          EntryKind = "run"
	EntryConversation EntryKind = "conversation"
)

// Entry is one finished (or abandoned) run or conversation.
type Entry struct {
	Kind      EntryKind
	ID        string
	At        time.Time
	Abandoned bool

	// Runs
	Mode           string
	QuestionType   string
	TotalQuestions int
	CorrectAnswers int
	Duration       time.Duration

	// Conversations
	ConversationKind      string
	TurnCount             int
	Feedback              string
	RecommendedDifficulty string
}

// Accuracy returns the percentage of correct answers for a run.
func (e Entry) Accuracy() float64 {
	if e.TotalQuestions == 0 {
		return 0
	}
	return float64(e.CorrectAnswers) / float64(e.TotalQuestions) * 100
}

// Recent returns up to limit finished runs and conversations, newest
// first. Start events are skipped. A limit of zero means no limit.
func Recent(ctx context.Context, events store.EventRepo, limit int) ([]Entry, error) {
	opts := store.QueryOpts{}
	if limit > 0 {
		// Start events share the tables, so read enough to fill limit.
		opts.Limit = limit * 2
	}

	runs, err := events.QueryRunEvents(ctx, opts)
	if err != nil {
		return nil, err
	}
	convs, err := events.QueryConversationEvents(ctx, opts)
	if err != nil {
		return nil, err
	}

	type seqEntry struct {
		seq int64
		Entry
	}
	var all []seqEntry
	for _, r := range runs {
		if r.Action == store.ActionStart {
			continue
		}
		all = append(all, seqEntry{r.Sequence, Entry{
			Kind:           EntryRun,
			ID:             r.RunID,
			At:             r.Timestamp,
			Abandoned:      r.Action == store.ActionAbandon,
			Mode:           r.Mode,
			QuestionType:   r.QuestionType,
			TotalQuestions: r.TotalQuestions,
			CorrectAnswers: r.CorrectAnswers,
			Duration:       time.Duration(r.DurationSecs) * time.Second,
		}})
	}
	for _, c := range convs {
		if c.Action == store.ActionStart {
			continue
		}
		all = append(all, seqEntry{c.Sequence, Entry{
			Kind:                  EntryConversation,
			ID:                    c.SessionID,
			At:                    c.Timestamp,
			Abandoned:             c.Action == store.ActionAbandon,
			ConversationKind:      c.Kind,
			TurnCount:             c.TurnCount,
			Feedback:              c.Feedback,
			RecommendedDifficulty: c.RecommendedDifficulty,
		}})
	}

	sort.Slice(all, func(i, k int) bool { return all[i].seq > all[k].seq })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]Entry, len(all))
	for i, e := range all {
		out[i] = e.Entry
	}
	return out, nil
}

// Transcript returns the stored turns of a conversation.
func Transcript(ctx context.Context, events store.EventRepo, sessionID string) ([]conversation.Turn, error) {
	rows, err := events.ConversationTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]conversation.Turn, len(rows))
	for i, r := range rows {
		out[i] = conversation.Turn{
			Speaker:          conversation.Speaker(r.Speaker),
			Text:             r.Text,
			AudioFeedback:    r.Feedback,
			EvaluationStatus: r.EvaluationStatus,
			At:               r.Timestamp,
		}
	}
	return out, nil
}
