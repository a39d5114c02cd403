package questiongen

import (
	"fmt"
	"strings"

	"github.com/studyup/studyup/internal/question"
)

// Validator checks one generated question before it is handed on.
type Validator interface {
	Name() string
	Validate(raw question.RawQuestion, prior []string) *ValidationError
}

// ValidationError describes a rejected question.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

const (
	maxPromptLen      = 600
	maxExplanationLen = 800
)

// StructuralValidator checks lengths and that the answer letter points at
// a non-empty option.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(raw question.RawQuestion, _ []string) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	text := strings.TrimSpace(raw.QuestionText)
	switch {
	case text == "":
		return fail("questionText is empty")
	case len(text) > maxPromptLen:
		return fail("questionText exceeds %d bytes", maxPromptLen)
	case len(raw.Explanation) > maxExplanationLen:
		return fail("explanation exceeds %d bytes", maxExplanationLen)
	}

	options := map[string]string{"A": raw.OptionA, "B": raw.OptionB, "C": raw.OptionC, "D": raw.OptionD}
	letter := strings.ToUpper(strings.TrimSpace(raw.CorrectAnswer))
	if strings.TrimSpace(options[letter]) == "" {
		return fail("correctAnswer %q does not name an option", raw.CorrectAnswer)
	}
	return nil
}

// DedupValidator rejects prompts already asked recently.
type DedupValidator struct{}

func (v *DedupValidator) Name() string { return "dedup" }

func (v *DedupValidator) Validate(raw question.RawQuestion, prior []string) *ValidationError {
	text := normalizePrompt(raw.QuestionText)
	for _, p := range prior {
		if normalizePrompt(p) == text {
			return &ValidationError{Validator: v.Name(), Message: "question was already asked"}
		}
	}
	return nil
}

func normalizePrompt(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
