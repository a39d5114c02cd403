package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// blankMarkers are the placeholders a fill-in-blank prompt must contain.
var blankMarkers = []string{"___", "( )", "(  )", "[ ]", "＿"}

// typeHandler is the handler shared by all built-in types. Types differ
// only in the extra check applied after normalization.
type typeHandler struct {
	typ   Type
	src   Source
	check func(q *Question) error
}

func builtinHandlers(src Source) []Handler {
	return []Handler{
		&typeHandler{typ: TypeWord, src: src},
		&typeHandler{typ: TypeSentence, src: src},
		&typeHandler{typ: TypeConversation, src: src, check: requireConversation},
		&typeHandler{typ: TypeSynonym, src: src},
		&typeHandler{typ: TypeSynonymSentence, src: src},
		&typeHandler{typ: TypeSentenceInterpretation, src: src},
		&typeHandler{typ: TypeFillInBlank, src: src, check: requireBlank},
	}
}

// NewHandler returns a handler for t backed by src. It is how types beyond
// the built-in seven are added to a Registry.
func NewHandler(t Type, src Source) Handler {
	return &typeHandler{typ: t, src: src}
}

func (h *typeHandler) Type() Type { return h.typ }

func (h *typeHandler) Normalize(raw RawQuestion) (*Question, error) {
	return h.normalize(raw, Beginner)
}

func (h *typeHandler) normalize(raw RawQuestion, fallback Difficulty) (*Question, error) {
	q, err := Normalize(h.typ, raw, fallback)
	if err != nil {
		return nil, err
	}
	if h.check != nil {
		if err := h.check(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (h *typeHandler) Fetch(ctx context.Context, fc FetchContext) (*Question, error) {
	fc.Count = 1
	qs, err := h.FetchBatch(ctx, fc)
	if err != nil {
		return nil, err
	}
	return qs[0], nil
}

func (h *typeHandler) FetchBatch(ctx context.Context, fc FetchContext) ([]*Question, error) {
	if h.src == nil {
		return nil, fmt.Errorf("fetch %s: no question source", h.typ)
	}
	req := buildRequest(h.typ, fc)
	raws, err := h.src.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.typ, err)
	}

	var (
		out      []*Question
		firstErr error
	)
	for _, raw := range raws {
		q, err := h.normalize(raw, req.Difficulty)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", h.typ, firstErr)
		}
		return nil, fmt.Errorf("fetch %s: %w", h.typ, ErrNoQuestions)
	}
	return out, nil
}

func buildRequest(t Type, fc FetchContext) GenerateRequest {
	count := fc.Count
	if count <= 0 {
		count = 1
	}
	difficulty := fc.Difficulty
	if difficulty == "" {
		difficulty = Beginner
	}
	topics := append([]string(nil), fc.Topics...)
	topics = append(topics, fc.Keywords...)
	return GenerateRequest{
		QuestionType:  string(t),
		Difficulty:    difficulty,
		MajorCategory: fc.MajorCategory,
		Topics:        topics,
		QuestionCount: count,
	}
}

func requireConversation(q *Question) error {
	if q.Conversation == "" {
		return &MalformedError{Reason: "conversation question has no dialogue"}
	}
	return nil
}

func requireBlank(q *Question) error {
	for _, m := range blankMarkers {
		if strings.Contains(q.Prompt, m) {
			return nil
		}
	}
	return &MalformedError{Reason: "fill-in-blank prompt has no blank"}
}

// IsRecoverable reports whether a fetch error should offer a retry or a
// fallback rather than skipping the question.
func IsRecoverable(err error) bool {
	return err != nil && !errors.Is(err, ErrUnsupportedType)
}
