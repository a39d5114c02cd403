package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendConversationEvent(ctx context.Context, data ConversationEventData) error {
	return r.insert(ctx, ConversationEventsTable.Name,
		[]string{"session_id", "kind", "action", "turn_count", "feedback", "recommended_difficulty"},
		data.SessionID, data.Kind, data.Action, data.TurnCount, data.Feedback, data.RecommendedDifficulty,
	)
}

func (r *eventRepo) AppendConversationTurn(ctx context.Context, data ConversationTurnData) error {
	return r.insert(ctx, ConversationTurnsTable.Name,
		[]string{"session_id", "turn_index", "speaker", "text", "feedback", "evaluation_status"},
		data.SessionID, data.TurnIndex, data.Speaker, data.Text, data.Feedback, data.EvaluationStatus,
	)
}

func (r *eventRepo) QueryConversationEvents(ctx context.Context, opts QueryOpts) ([]ConversationEventData, error) {
	s := selectEvents(ConversationEventsTable.Name, opts,
		"session_id", "kind", "action", "turn_count", "feedback", "recommended_difficulty")

	var out []ConversationEventData
	err := r.queryRows(ctx, s, func(rows *sql.Rows) error {
		var e ConversationEventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.SessionID, &e.Kind, &e.Action,
			&e.TurnCount, &e.Feedback, &e.RecommendedDifficulty); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query conversation events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) ConversationTurns(ctx context.Context, sessionID string) ([]ConversationTurnData, error) {
	s := builder().
		Select("sequence", "timestamp", "session_id", "turn_index", "speaker", "text", "feedback", "evaluation_status").
		From(entsql.Table(ConversationTurnsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("turn_index", "sequence")

	var out []ConversationTurnData
	err := r.queryRows(ctx, s, func(rows *sql.Rows) error {
		var t ConversationTurnData
		if err := rows.Scan(&t.Sequence, &t.Timestamp, &t.SessionID, &t.TurnIndex, &t.Speaker,
			&t.Text, &t.Feedback, &t.EvaluationStatus); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query conversation turns: %w", err)
	}
	return out, nil
}
