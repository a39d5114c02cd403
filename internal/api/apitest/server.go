// Package apitest provides an in-process fake of the learning backend for
// tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/question"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
	Body   []byte
	Auth   string
}

// Server is a fake backend. Exported fields configure responses and may be
// changed between requests while holding no lock; tests are expected to
// configure it before issuing calls.
type Server struct {
	*httptest.Server

	// Questions is returned by the generate endpoint, keyed by questionType.
	Questions map[string][]question.RawQuestion

	// Review is returned by the review endpoint. ReviewStatus overrides
	// the status code when non-zero (e.g. 422).
	Review       []api.ReviewItem
	ReviewStatus int

	// Greeting is sent by the general and scenario start endpoints.
	Greeting string

	// Talk is the reply for every talk call. TalkStatus overrides the status
	// when non-zero.
	Talk       api.TalkResponse
	TalkStatus int

	// EndStatus and EvaluationStatus override those endpoints' status.
	EndStatus        int
	Evaluation       api.Evaluation
	EvaluationStatus int

	// Raw, when set for a path, is written verbatim with status 200.
	Raw map[string]string

	mu    sync.Mutex
	calls []Call
	audio [][]byte
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		Questions: make(map[string][]question.RawQuestion),
		Greeting:  "Hi! What would you like to talk about?",
		Talk:      api.TalkResponse{Text: "That sounds great.", UserText: "hello"},
		Evaluation: api.Evaluation{
			Feedback:              "Good pronunciation.",
			RecommendedDifficulty: "INTERMEDIATE",
		},
		Raw: make(map[string]string),
	}

	r := mux.NewRouter()
	r.Use(s.record)
	v1 := r.PathPrefix(api.PathPrefix).Subrouter()
	v1.HandleFunc("/questions/generate", s.generate).Methods(http.MethodPost)
	v1.HandleFunc("/conversation/start", s.startGeneral).Methods(http.MethodPost)
	v1.HandleFunc("/roleplay/start", s.startScenario).Methods(http.MethodPost)
	v1.HandleFunc("/roleplay/custom/start", s.startCustom).Methods(http.MethodPost)
	v1.HandleFunc("/conversation/{sessionId}/talk", s.talk).Methods(http.MethodPost)
	v1.HandleFunc("/conversation/{sessionId}/end", s.end).Methods(http.MethodPost)
	v1.HandleFunc("/conversation/{sessionId}/evaluation", s.evaluation).Methods(http.MethodGet)
	v1.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{sessionId}/answers", s.answers).Methods(http.MethodPost)
	v1.HandleFunc("/review/questions", s.review).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Calls returns a copy of the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded requests whose path ends with suffix.
func (s *Server) CallsTo(suffix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.HasSuffix(c.Path, suffix) {
			out = append(out, c)
		}
	}
	return out
}

// Audio returns the audio payloads received by the talk endpoint.
func (s *Server) Audio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.audio...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") && r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		if raw, ok := s.Raw[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, raw)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req question.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid body")
		return
	}
	qs := s.Questions[req.QuestionType]
	if req.QuestionCount > 0 && len(qs) > req.QuestionCount {
		qs = qs[:req.QuestionCount]
	}
	respondWithJSON(w, http.StatusOK, api.GenerateResponse{Questions: qs})
}

func (s *Server) startGeneral(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, api.StartResponse{
		SessionID:       uuid.NewString(),
		AIFirstGreeting: s.Greeting,
	})
}

func (s *Server) startScenario(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, api.StartResponse{
		SessionID:       uuid.NewString(),
		AIFirstGreeting: s.Greeting,
		AIRole:          "barista",
		UserRole:        "customer",
		Situation:       "Ordering coffee",
	})
}

func (s *Server) startCustom(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, api.StartResponse{SessionID: uuid.NewString()})
}

func (s *Server) talk(w http.ResponseWriter, r *http.Request) {
	if s.TalkStatus != 0 {
		respondWithError(w, s.TalkStatus, "talk failed")
		return
	}
	file, _, err := r.FormFile(api.AudioField)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "audio part required")
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)
	s.mu.Lock()
	s.audio = append(s.audio, data)
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, s.Talk)
}

func (s *Server) end(w http.ResponseWriter, r *http.Request) {
	if s.EndStatus != 0 {
		respondWithError(w, s.EndStatus, "end failed")
		return
	}
	respondWithJSON(w, http.StatusOK, api.EndSummary{
		SessionID: mux.Vars(r)["sessionId"],
		Status:    "ENDED",
	})
}

func (s *Server) evaluation(w http.ResponseWriter, r *http.Request) {
	if s.EvaluationStatus != 0 {
		respondWithError(w, s.EvaluationStatus, "evaluation unavailable")
		return
	}
	respondWithJSON(w, http.StatusOK, s.Evaluation)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req api.ReviewSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "userId required")
		return
	}
	respondWithJSON(w, http.StatusOK, api.ReviewSession{SessionID: uuid.NewString()})
}

func (s *Server) answers(w http.ResponseWriter, r *http.Request) {
	var req api.AnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid body")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) review(w http.ResponseWriter, r *http.Request) {
	if s.ReviewStatus != 0 {
		respondWithError(w, s.ReviewStatus, "no wrong answers")
		return
	}
	tag := r.URL.Query().Get("type")
	var items []api.ReviewItem
	for _, it := range s.Review {
		if tag == "" || strings.EqualFold(it.QuestionType, tag) {
			items = append(items, it)
		}
	}
	respondWithJSON(w, http.StatusOK, api.ReviewQuestionsResponse{Questions: items})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
