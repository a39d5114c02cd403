package store

import (
	"context"
	"database/sql"
	"fmt"
)

var llmColumns = []string{"provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms", "success", "error_message"}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.insert(ctx, LlmRequestEventsTable.Name, llmColumns,
		data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage,
	)
}

func (r *eventRepo) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventData, error) {
	s := selectEvents(LlmRequestEventsTable.Name, opts, llmColumns...)

	var out []LLMRequestEventData
	err := r.queryRows(ctx, s, func(rows *sql.Rows) error {
		var e LLMRequestEventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	return out, nil
}
