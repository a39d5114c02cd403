package store

import (
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// eventColumns returns the id, sequence and timestamp columns every event
// table starts with, followed by cols.
func eventColumns(cols ...*schema.Column) []*schema.Column {
	base := []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
	}
	return append(base, cols...)
}

func eventTable(name string, cols []*schema.Column, extra ...*schema.Index) *schema.Table {
	indexes := []*schema.Index{
		{Name: name + "_timestamp", Columns: []*schema.Column{cols[2]}},
	}
	return &schema.Table{
		Name:       name,
		Columns:    cols,
		PrimaryKey: []*schema.Column{cols[0]},
		Indexes:    append(indexes, extra...),
	}
}

var (
	// RunEventsColumns holds the columns of the "run_events" table.
	RunEventsColumns = eventColumns(
		&schema.Column{Name: "run_id", Type: field.TypeString},
		&schema.Column{Name: "mode", Type: field.TypeString},
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "question_type", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "total_questions", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	)
	// RunEventsTable records run start and completion.
	RunEventsTable = eventTable("run_events", RunEventsColumns,
		&schema.Index{Name: "run_events_run_id", Columns: []*schema.Column{RunEventsColumns[3]}},
	)

	// AnswerEventsColumns holds the columns of the "answer_events" table.
	AnswerEventsColumns = eventColumns(
		&schema.Column{Name: "run_id", Type: field.TypeString},
		&schema.Column{Name: "question_id", Type: field.TypeString},
		&schema.Column{Name: "question_type", Type: field.TypeString},
		&schema.Column{Name: "difficulty", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "prompt", Type: field.TypeString, Size: 2048},
		&schema.Column{Name: "conversation", Type: field.TypeString, Size: 4096, Default: ""},
		&schema.Column{Name: "options", Type: field.TypeString, Size: 2048},
		&schema.Column{Name: "explanation", Type: field.TypeString, Size: 2048, Default: ""},
		&schema.Column{Name: "selected_answer", Type: field.TypeString},
		&schema.Column{Name: "correct_answer", Type: field.TypeString},
		&schema.Column{Name: "is_correct", Type: field.TypeBool},
	)
	// AnswerEventsTable records every scored submission.
	AnswerEventsTable = eventTable("answer_events", AnswerEventsColumns,
		&schema.Index{Name: "answer_events_question_type", Columns: []*schema.Column{AnswerEventsColumns[5]}},
	)

	// ConversationEventsColumns holds the columns of the "conversation_events" table.
	ConversationEventsColumns = eventColumns(
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "kind", Type: field.TypeString},
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "turn_count", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "feedback", Type: field.TypeString, Size: 4096, Default: ""},
		&schema.Column{Name: "recommended_difficulty", Type: field.TypeString, Default: ""},
	)
	// ConversationEventsTable records conversation start and end.
	ConversationEventsTable = eventTable("conversation_events", ConversationEventsColumns,
		&schema.Index{Name: "conversation_events_session_id", Columns: []*schema.Column{ConversationEventsColumns[3]}},
	)

	// ConversationTurnsColumns holds the columns of the "conversation_turns" table.
	ConversationTurnsColumns = eventColumns(
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "turn_index", Type: field.TypeInt},
		&schema.Column{Name: "speaker", Type: field.TypeString},
		&schema.Column{Name: "text", Type: field.TypeString, Size: 4096},
		&schema.Column{Name: "feedback", Type: field.TypeString, Size: 4096, Default: ""},
		&schema.Column{Name: "evaluation_status", Type: field.TypeString, Default: ""},
	)
	// ConversationTurnsTable records each committed turn.
	ConversationTurnsTable = eventTable("conversation_turns", ConversationTurnsColumns,
		&schema.Index{Name: "conversation_turns_session_id", Columns: []*schema.Column{ConversationTurnsColumns[3]}},
	)

	// LlmRequestEventsColumns holds the columns of the "llm_request_events" table.
	LlmRequestEventsColumns = eventColumns(
		&schema.Column{Name: "provider", Type: field.TypeString},
		&schema.Column{Name: "model", Type: field.TypeString},
		&schema.Column{Name: "purpose", Type: field.TypeString},
		&schema.Column{Name: "input_tokens", Type: field.TypeInt},
		&schema.Column{Name: "output_tokens", Type: field.TypeInt},
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "error_message", Type: field.TypeString, Size: 2048, Default: ""},
	)
	// LlmRequestEventsTable records LLM API calls.
	LlmRequestEventsTable = eventTable("llm_request_events", LlmRequestEventsColumns)

	// Tables holds every table the store migrates.
	Tables = []*schema.Table{
		RunEventsTable,
		AnswerEventsTable,
		ConversationEventsTable,
		ConversationTurnsTable,
		LlmRequestEventsTable,
	}
)

// builder returns a SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}
