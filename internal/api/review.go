package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// SessionTypeReview is the sessionType of a review session.
const SessionTypeReview = "REVIEW"

// CreateReviewSession registers a review run with the backend.
func (c *Client) CreateReviewSession(ctx context.Context, req ReviewSessionRequest) (*ReviewSession, error) {
	const op = "create review session"
	if req.SessionType == "" {
		req.SessionType = SessionTypeReview
	}
	if req.SessionMetadata == nil {
		req.SessionMetadata = map[string]any{}
	}
	if req.Categories == nil {
		req.Categories = []string{}
	}

	var resp ReviewSession
	if err := c.doJSON(ctx, op, http.MethodPost, "/sessions", req, &resp); err != nil {
		return nil, noDataOn422(err)
	}
	if err := requireField(op, "sessionId", resp.SessionID); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReviewQuestions fetches the learner's previously missed questions,
// optionally filtered by type tag. A 422 from the backend means there is
// nothing to review and yields an empty result with NoData set.
func (c *Client) ReviewQuestions(ctx context.Context, userID, typeTag string) (*ReviewResult, error) {
	q := url.Values{}
	q.Set("userId", userID)
	if typeTag != "" {
		q.Set("type", typeTag)
	}

	var resp ReviewQuestionsResponse
	err := c.doJSON(ctx, "fetch review questions", http.MethodGet, "/review/questions?"+q.Encode(), nil, &resp)
	if err != nil {
		err = noDataOn422(err)
		if errors.Is(err, ErrNoData) {
			c.logger.Info().Str("user_id", userID).Str("type", typeTag).Msg("no review data")
			return &ReviewResult{NoData: true}, nil
		}
		return nil, err
	}
	return &ReviewResult{Items: resp.Questions, NoData: len(resp.Questions) == 0}, nil
}

// RecordAnswers uploads a completed run's answer log.
func (c *Client) RecordAnswers(ctx context.Context, sessionID string, answers []AnswerRecord) error {
	if len(answers) == 0 {
		return nil
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/answers"
	return c.doJSON(ctx, "record answers", http.MethodPost, path, AnswersRequest{Answers: answers}, nil)
}
