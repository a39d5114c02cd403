package question

import (
	"fmt"
	"strings"
)

// Type identifies a question kind. The value is the canonical upper-case tag.
type Type string

const (
	TypeWord                   Type = "WORD"
	TypeSentence               Type = "SENTENCE"
	TypeConversation           Type = "CONVERSATION"
	TypeSynonym                Type = "SYNONYM"
	TypeSynonymSentence        Type = "SYNONYM_SENTENCE"
	TypeSentenceInterpretation Type = "SENTENCE_INTERPRETATION"
	TypeFillInBlank            Type = "FILL_IN_BLANK"
)

// AllTypes lists every supported type in menu order.
var AllTypes = []Type{
	TypeWord,
	TypeSentence,
	TypeConversation,
	TypeSynonym,
	TypeSynonymSentence,
	TypeSentenceInterpretation,
	TypeFillInBlank,
}

// WireTag returns the lower-kebab form the backend uses, e.g. "fill-in-blank".
func (t Type) WireTag() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), "_", "-")
}

// ParseType accepts either the canonical tag or any case/separator variant
// of the backend tag ("sentence-interpretation", "Sentence_Interpretation").
func ParseType(tag string) (Type, error) {
	norm := strings.ToUpper(strings.TrimSpace(tag))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "FILL_IN_THE_BLANK", "BLANK":
		return TypeFillInBlank, nil
	}
	for _, t := range AllTypes {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", &UnsupportedTypeError{Tag: tag}
}

// Difficulty is the learner level requested from the generator.
type Difficulty string

const (
	Beginner     Difficulty = "BEGINNER"
	Intermediate Difficulty = "INTERMEDIATE"
	Advanced     Difficulty = "ADVANCED"
)

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case Beginner:
		return Beginner, nil
	case Intermediate:
		return Intermediate, nil
	case Advanced:
		return Advanced, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Question is a normalized multiple-choice question. It is never mutated
// after normalization.
type Question struct {
	ID            string
	Type          Type
	Prompt        string
	Options       []string
	CorrectAnswer string
	Explanation   string
	Difficulty    Difficulty

	// Conversation is the dialogue excerpt shown above the prompt for
	// CONVERSATION questions. Empty for other types.
	Conversation string
}

// CorrectIndex returns the position of CorrectAnswer in Options, or -1.
func (q *Question) CorrectIndex() int {
	for i, o := range q.Options {
		if o == q.CorrectAnswer {
			return i
		}
	}
	return -1
}

// RawQuestion is a question as delivered by a generator, before
// normalization. Field names follow the backend JSON contract.
type RawQuestion struct {
	ID            string `json:"id,omitempty"`
	QuestionType  string `json:"questionType,omitempty"`
	QuestionText  string `json:"questionText"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD,omitempty"`
	CorrectAnswer string `json:"correctAnswer"`
	Difficulty    string `json:"difficulty,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	Conversation  string `json:"conversation,omitempty"`
}

// FetchContext carries the caller's filters for a fetch.
type FetchContext struct {
	Difficulty    Difficulty
	MajorCategory string
	Topics        []string
	Keywords      []string

	// Count is how many questions to request per generator call. Zero
	// means one.
	Count int
}

// GenerateRequest is the generator contract shared by the backend and the
// local LLM source.
type GenerateRequest struct {
	QuestionType  string     `json:"questionType"`
	Difficulty    Difficulty `json:"difficulty"`
	MajorCategory string     `json:"majorCategory"`
	Topics        []string   `json:"topics"`
	QuestionCount int        `json:"questionCount"`
}
