package question

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Source produces raw questions for a generate request. The backend client
// and the local LLM generator both implement it.
type Source interface {
	Generate(ctx context.Context, req GenerateRequest) ([]RawQuestion, error)
}

// Handler fetches and normalizes questions of one type.
type Handler interface {
	// Type returns the question type this handler serves.
	Type() Type

	// Fetch requests a single question from the handler's source.
	Fetch(ctx context.Context, fc FetchContext) (*Question, error)

	// FetchBatch requests fc.Count questions in one generator call.
	// Payloads that fail normalization are dropped; an empty result is
	// ErrNoQuestions.
	FetchBatch(ctx context.Context, fc FetchContext) ([]*Question, error)

	// Normalize converts a raw payload into a Question of the handler's type.
	Normalize(raw RawQuestion) (*Question, error)
}

// Registry maps question types to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
}

// NewRegistry returns a registry with a handler for every supported type,
// all fetching from src.
func NewRegistry(src Source) *Registry {
	r := &Registry{handlers: make(map[Type]Handler, len(AllTypes))}
	for _, h := range builtinHandlers(src) {
		r.Register(h)
	}
	return r
}

// Register adds or replaces the handler for h.Type().
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[Type]Handler)
	}
	r.handlers[h.Type()] = h
}

// Resolve returns the handler registered for t.
func (r *Registry) Resolve(t Type) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	if !ok {
		return nil, &UnsupportedTypeError{Tag: string(t)}
	}
	return h, nil
}

// ResolveTag parses a raw tag and returns its handler.
func (r *Registry) ResolveTag(tag string) (Handler, error) {
	t, err := ParseType(tag)
	if err != nil {
		return nil, err
	}
	return r.Resolve(t)
}

// Types lists the registered types in menu order, followed by any custom
// types sorted by tag.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Type
	known := make(map[Type]bool, len(AllTypes))
	for _, t := range AllTypes {
		known[t] = true
		if _, ok := r.handlers[t]; ok {
			out = append(out, t)
		}
	}
	var extra []Type
	for t := range r.handlers {
		if !known[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// NormalizeAny normalizes a payload using the handler for its own
// questionType tag, defaulting to def when the tag is empty.
func (r *Registry) NormalizeAny(raw RawQuestion, def Type) (*Question, error) {
	t := def
	if raw.QuestionType != "" {
		parsed, err := ParseType(raw.QuestionType)
		if err != nil {
			return nil, err
		}
		t = parsed
	}
	h, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	q, err := h.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", t, err)
	}
	return q, nil
}
