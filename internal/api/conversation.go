package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// AudioField is the multipart field name for a submitted utterance.
const AudioField = "audio"

// StartGeneral starts a free-topic conversation.
func (c *Client) StartGeneral(ctx context.Context, req GeneralStartRequest) (*StartResponse, error) {
	return c.start(ctx, "start conversation", "/conversation/start", req)
}

// StartScenario starts a scripted role-play.
func (c *Client) StartScenario(ctx context.Context, req ScenarioStartRequest) (*StartResponse, error) {
	return c.start(ctx, "start role-play", "/roleplay/start", req)
}

// StartCustom starts a custom role-play. The backend sends no greeting.
func (c *Client) StartCustom(ctx context.Context, req CustomStartRequest) (*StartResponse, error) {
	return c.start(ctx, "start custom role-play", "/roleplay/custom/start", req)
}

func (c *Client) start(ctx context.Context, op, path string, body any) (*StartResponse, error) {
	var resp StartResponse
	if err := c.doJSON(ctx, op, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if err := requireField(op, "sessionId", resp.SessionID); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Talk submits one recorded utterance as multipart form data.
func (c *Client) Talk(ctx context.Context, sessionID string, audio []byte, filename string) (*TalkResponse, error) {
	const op = "submit turn"
	if filename == "" {
		filename = "recording.wav"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(AudioField, filename)
	if err != nil {
		return nil, fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("%s: write audio: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: close form: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sessionURL("/conversation/", sessionID, "/talk"), &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp TalkResponse
	if err := c.do(op, req, &resp); err != nil {
		return nil, err
	}
	if err := requireField(op, "text", resp.Text); err != nil {
		return nil, err
	}
	return &resp, nil
}

// End terminates a conversation session.
func (c *Client) End(ctx context.Context, sessionID string) (*EndSummary, error) {
	var resp EndSummary
	path := "/conversation/" + url.PathEscape(sessionID) + "/end"
	if err := c.doJSON(ctx, "end conversation", http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Evaluation fetches the feedback for an ended session.
func (c *Client) Evaluation(ctx context.Context, sessionID string) (*Evaluation, error) {
	var resp Evaluation
	path := "/conversation/" + url.PathEscape(sessionID) + "/evaluation"
	if err := c.doJSON(ctx, "fetch evaluation", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) sessionURL(prefix, sessionID, suffix string) string {
	return c.baseURL + prefix + url.PathEscape(sessionID) + suffix
}
