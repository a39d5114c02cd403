package api

import (
	"context"
	"net/http"

	"github.com/studyup/studyup/internal/question"
)

// Generate asks the backend generator for questions. It implements
// question.Source.
func (c *Client) Generate(ctx context.Context, req question.GenerateRequest) ([]question.RawQuestion, error) {
	var resp GenerateResponse
	if err := c.doJSON(ctx, "generate questions", http.MethodPost, "/questions/generate", req, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}
