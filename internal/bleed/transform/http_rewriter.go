package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPRewriterConfig configures the OpenAI-compatible rewrite endpoint.
type HTTPRewriterConfig struct {
	ResponsesURL string
	APIKey       string
	Model        string
	HTTPClient   *http.Client
}

// HTTPRewriter calls an OpenAI-compatible responses endpoint to produce the
// rewritten prose.
type HTTPRewriter struct {
	cfg HTTPRewriterConfig
}

// NewHTTPRewriter builds a rewrite collaborator over HTTP.
func NewHTTPRewriter(cfg HTTPRewriterConfig) *HTTPRewriter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = "https://api.openai.com/v1/responses"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &HTTPRewriter{cfg: cfg}
}

type responsesRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	Input        string `json:"input"`
}

type responsesPayload struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Rewrite sends the structured rewrite request and parses the rewritten
// title and body from the first two output lines.
func (r *HTTPRewriter) Rewrite(ctx context.Context, request RewriteRequest) (RewriteResult, error) {
	if r == nil {
		return RewriteResult{}, fmt.Errorf("rewriter is not configured")
	}

	instructions := fmt.Sprintf(
		"%s Respond with exactly two lines: the rewritten title, then the rewritten narrative. Destination world: %s. Echo strength: %.2f.",
		request.Instruction,
		request.DestinationWorld,
		request.Strength,
	)
	body, err := json.Marshal(responsesRequest{
		Model:        r.cfg.Model,
		Instructions: instructions,
		Input:        fmt.Sprintf("Title: %s\nNarrative: %s", request.Title, request.Body),
	})
	if err != nil {
		return RewriteResult{}, fmt.Errorf("marshal rewrite request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.ResponsesURL, bytes.NewReader(body))
	if err != nil {
		return RewriteResult{}, fmt.Errorf("build rewrite request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(r.cfg.APIKey) != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	response, err := r.cfg.HTTPClient.Do(httpRequest)
	if err != nil {
		return RewriteResult{}, fmt.Errorf("call rewrite endpoint: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return RewriteResult{}, fmt.Errorf("read rewrite response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return RewriteResult{}, fmt.Errorf("rewrite endpoint returned status %d", response.StatusCode)
	}

	var payload responsesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return RewriteResult{}, fmt.Errorf("decode rewrite response: %w", err)
	}
	text := firstOutputText(payload)
	if strings.TrimSpace(text) == "" {
		return RewriteResult{}, fmt.Errorf("rewrite response contains no output text")
	}

	lines := strings.SplitN(strings.TrimSpace(text), "\n", 2)
	result := RewriteResult{Title: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		result.Body = strings.TrimSpace(lines[1])
	}
	return result, nil
}

func firstOutputText(payload responsesPayload) string {
	for _, output := range payload.Output {
		for _, content := range output.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text
			}
		}
	}
	return ""
}

var _ Rewriter = (*HTTPRewriter)(nil)
