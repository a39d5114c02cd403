package question

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	minOptions = 2
	maxOptions = 4
)

// optionLetters maps positional answer codes to option indexes.
var optionLetters = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

// Normalize converts a raw generator payload into a Question of type t.
//
// Options are taken in A, B, C, D order with empty slots dropped, so both
// 2- and 3-option payloads are accepted. The correct-answer indicator may
// be either the literal text of an option or its letter code; a literal
// match takes precedence.
func Normalize(t Type, raw RawQuestion, fallback Difficulty) (*Question, error) {
	prompt := strings.TrimSpace(raw.QuestionText)
	if prompt == "" {
		return nil, &MalformedError{Reason: "questionText is empty"}
	}

	options := collectOptions(raw)
	if len(options) < minOptions {
		return nil, &MalformedError{Reason: fmt.Sprintf("need at least %d options, got %d", minOptions, len(options))}
	}
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if seen[o] {
			return nil, &MalformedError{Reason: fmt.Sprintf("duplicate option %q", o)}
		}
		seen[o] = true
	}

	correct, err := resolveCorrectAnswer(options, raw.CorrectAnswer)
	if err != nil {
		return nil, err
	}

	difficulty := fallback
	if d, err := ParseDifficulty(raw.Difficulty); err == nil {
		difficulty = d
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &Question{
		ID:            id,
		Type:          t,
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   strings.TrimSpace(raw.Explanation),
		Difficulty:    difficulty,
		Conversation:  strings.TrimSpace(raw.Conversation),
	}, nil
}

func collectOptions(raw RawQuestion) []string {
	var out []string
	for _, o := range []string{raw.OptionA, raw.OptionB, raw.OptionC, raw.OptionD} {
		if strings.TrimSpace(o) == "" {
			continue
		}
		out = append(out, o)
		if len(out) == maxOptions {
			break
		}
	}
	return out
}

// resolveCorrectAnswer returns the option text designated by indicator.
func resolveCorrectAnswer(options []string, indicator string) (string, error) {
	if indicator == "" {
		return "", &MalformedError{Reason: "correctAnswer is empty"}
	}
	for _, o := range options {
		if o == indicator {
			return o, nil
		}
	}

	trimmed := strings.TrimSpace(indicator)
	for _, o := range options {
		if strings.TrimSpace(o) == trimmed {
			return o, nil
		}
	}

	if idx, ok := letterIndex(trimmed); ok {
		if idx < len(options) {
			return options[idx], nil
		}
		return "", &MalformedError{Reason: fmt.Sprintf("answer code %q points past %d options", trimmed, len(options))}
	}

	return "", &MalformedError{Reason: fmt.Sprintf("correctAnswer %q matches no option", indicator)}
}

// letterIndex parses "A", "b", "C)" or "D." into an option index.
func letterIndex(code string) (int, bool) {
	code = strings.TrimRight(code, ").:")
	idx, ok := optionLetters[strings.ToUpper(code)]
	return idx, ok
}
