// Package suggest turns free-form text like "almoço 25 reais ontem" into
// a pre-filled expense draft using the Gemini API. It is best-effort: the
// app works fully without it.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"financas/internal/core"
)

// ErrUnavailable means no API key is configured; callers degrade to
// manual entry instead of failing the request.
var ErrUnavailable = errors.New("suggest: no API key configured")

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash"
	requestTimeout = 20 * time.Second
)

// Suggestion is a draft expense extracted from text. CategoryID is empty
// when the model could not pick one of the offered categories.
type Suggestion struct {
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	CategoryID  string     `json:"categoryId"`
	Date        string     `json:"date"`
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewClient returns nil when apiKey is empty. A nil *Client is a valid
// receiver: Suggest reports ErrUnavailable.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Suggest asks the model to extract an expense draft from text, choosing
// a category from the caller's list. today anchors relative dates.
func (c *Client) Suggest(ctx context.Context, text string, categories []core.Category, today string) (Suggestion, error) {
	if c == nil {
		return Suggestion{}, ErrUnavailable
	}

	var sb strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&sb, "- %s: %s\n", cat.ID, cat.Name)
	}
	prompt := fmt.Sprintf(`Extract an expense from the text below. Today is %s.
Respond with ONLY a JSON object, no markdown, shaped as
{"amount": <number in the local currency>, "description": "<short description>", "categoryId": "<one id from the list or empty>", "date": "<YYYY-MM-DD>"}.

Categories:
%s
Text: %s`, today, sb.String(), text)

	requestBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.1,
			"maxOutputTokens": 256,
		},
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return Suggestion{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return Suggestion{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Suggestion{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Suggestion{}, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Suggestion{}, fmt.Errorf("parse response: %w", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return Suggestion{}, fmt.Errorf("no candidates returned")
	}

	return parseSuggestion(response.Candidates[0].Content.Parts[0].Text, categories, today)
}

func parseSuggestion(content string, categories []core.Category, today string) (Suggestion, error) {
	content = cleanMarkdownWrapper(content)

	var draft struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		CategoryID  string  `json:"categoryId"`
		Date        string  `json:"date"`
	}
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return Suggestion{}, fmt.Errorf("parse model output: %w", err)
	}
	if draft.Amount <= 0 {
		return Suggestion{}, fmt.Errorf("model returned no positive amount")
	}

	s := Suggestion{
		Amount:      core.FromFloat(draft.Amount),
		Description: strings.TrimSpace(draft.Description),
		Date:        draft.Date,
	}
	// only pass category ids we actually offered
	for _, cat := range categories {
		if cat.ID == draft.CategoryID {
			s.CategoryID = draft.CategoryID
			break
		}
	}
	if _, err := time.Parse(core.DateLayout, s.Date); err != nil {
		s.Date = today
	}
	return s, nil
}

func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}
