package questiongen

import "github.com/studyup/studyup/internal/llm"

var questionItem = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questionText": map[string]any{
			"type":        "string",
			"description": "The prompt shown to the learner. For FILL_IN_BLANK it contains ___ where the answer goes.",
		},
		"conversation": map[string]any{
			"type":        "string",
			"description": "A short dialogue, one line per speaker (\"A: ...\"). Empty unless the type is CONVERSATION.",
		},
		"optionA": map[string]any{"type": "string"},
		"optionB": map[string]any{"type": "string"},
		"optionC": map[string]any{"type": "string"},
		"optionD": map[string]any{"type": "string", "description": "Empty when only three options are used."},
		"correctAnswer": map[string]any{
			"type":        "string",
			"enum":        []any{"A", "B", "C", "D"},
			"description": "Letter of the correct option",
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "One or two sentences, in Korean, on why the answer is right",
		},
	},
	"required": []any{
		"questionText", "conversation", "optionA", "optionB", "optionC", "optionD",
		"correctAnswer", "explanation",
	},
	"additionalProperties": false,
}

// BatchSchema is the structured output requested from the model. Field
// names match the backend question contract.
var BatchSchema = &llm.Schema{
	Name:        "study-questions",
	Description: "A batch of multiple-choice English study questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"items":    questionItem,
				"minItems": 1,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
