package question

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed samples.json
var samplesJSON []byte

// Samples serves questions from the embedded sample set. It is the last
// link of the fallback chain so a learner is never fully blocked.
type Samples struct {
	mu     sync.Mutex
	byType map[Type][]RawQuestion
	next   map[Type]int
}

// LoadSamples parses the embedded sample set.
func LoadSamples() (*Samples, error) {
	var doc map[string][]RawQuestion
	if err := json.Unmarshal(samplesJSON, &doc); err != nil {
		return nil, fmt.Errorf("parse samples: %w", err)
	}
	s := &Samples{byType: make(map[Type][]RawQuestion), next: make(map[Type]int)}
	for tag, raws := range doc {
		t, err := ParseType(tag)
		if err != nil {
			return nil, fmt.Errorf("samples: %w", err)
		}
		s.byType[t] = raws
	}
	return s, nil
}

// Generate implements Source. Questions rotate so consecutive calls for the
// same type return different items until the set wraps.
func (s *Samples) Generate(_ context.Context, req GenerateRequest) ([]RawQuestion, error) {
	t, err := ParseType(req.QuestionType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.byType[t]
	if len(pool) == 0 {
		return nil, fmt.Errorf("samples for %s: %w", t, ErrNoQuestions)
	}
	n := req.QuestionCount
	if n <= 0 {
		n = 1
	}
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]RawQuestion, 0, n)
	start := s.next[t]
	for i := 0; i < n; i++ {
		raw := pool[(start+i)%len(pool)]
		raw.ID = ""
		out = append(out, raw)
	}
	s.next[t] = (start + n) % len(pool)
	return out, nil
}

// Count returns how many samples exist for t.
func (s *Samples) Count(t Type) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byType[t])
}
