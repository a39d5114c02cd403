package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var answerColumns = []string{
	"run_id", "question_id", "question_type", "difficulty", "prompt", "conversation",
	"options", "explanation", "selected_answer", "correct_answer", "is_correct",
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	options, err := json.Marshal(data.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	return r.insert(ctx, AnswerEventsTable.Name, answerColumns,
		data.RunID, data.QuestionID, data.QuestionType, data.Difficulty, data.Prompt, data.Conversation,
		string(options), data.Explanation, data.SelectedAnswer, data.CorrectAnswer, data.IsCorrect,
	)
}

func (r *eventRepo) QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEventData, error) {
	return r.queryAnswers(ctx, selectEvents(AnswerEventsTable.Name, opts, answerColumns...))
}

func (r *eventRepo) WrongAnswers(ctx context.Context, tags []string, opts QueryOpts) ([]AnswerEventData, error) {
	s := selectEvents(AnswerEventsTable.Name, opts, answerColumns...)
	s.Where(entsql.EQ("is_correct", false))
	if len(tags) > 0 {
		args := make([]any, len(tags))
		for i, t := range tags {
			args[i] = t
		}
		s.Where(entsql.In("question_type", args...))
	}
	return r.queryAnswers(ctx, s)
}

func (r *eventRepo) queryAnswers(ctx context.Context, s *entsql.Selector) ([]AnswerEventData, error) {
	var out []AnswerEventData
	err := r.queryRows(ctx, s, func(rows *sql.Rows) error {
		var (
			e       AnswerEventData
			options string
		)
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.RunID, &e.QuestionID, &e.QuestionType,
			&e.Difficulty, &e.Prompt, &e.Conversation, &options, &e.Explanation,
			&e.SelectedAnswer, &e.CorrectAnswer, &e.IsCorrect); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(options), &e.Options); err != nil {
			return fmt.Errorf("decode options of %s: %w", e.QuestionID, err)
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) AttemptsByType(ctx context.Context) (map[string]int, error) {
	s := builder().
		Select("question_type", entsql.Count("*")).
		From(entsql.Table(AnswerEventsTable.Name)).
		GroupBy("question_type")

	out := make(map[string]int)
	err := r.queryRows(ctx, s, func(rows *sql.Rows) error {
		var (
			tag string
			n   int
		)
		if err := rows.Scan(&tag, &n); err != nil {
			return err
		}
		out[tag] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	return out, nil
}
