package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (r *eventRepo) AppendRunEvent(ctx context.Context, data RunEventData) error {
	return r.insert(ctx, RunEventsTable.Name,
		[]string{"run_id", "mode", "action", "question_type", "total_questions", "correct_answers", "duration_secs"},
		data.RunID, data.Mode, data.Action, data.QuestionType, data.TotalQuestions, data.CorrectAnswers, data.DurationSecs,
	)
}

func (r *eventRepo) QueryRunEvents(ctx context.Context, opts QueryOpts) ([]RunEventData, error) {
	s := selectEvents(RunEventsTable.Name, opts,
		"run_id", "mode", "action", "question_type", "total_questions", "correct_answers", "duration_secs")

	var out []RunEventData
	err := r.queryRows(ctx, s, func(rows *sql.Rows) error {
		var e RunEventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.RunID, &e.Mode, &e.Action,
			&e.QuestionType, &e.TotalQuestions, &e.CorrectAnswers, &e.DurationSecs); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	return out, nil
}
