// Package ollama implements the arbitration client against a local
// Ollama server.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"memcoach/internal/arbiter"
	"memcoach/internal/domain"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

// NewClient creates an Ollama-backed arbiter client. The timeout bounds
// every attempt; grading never waits on the arbiter longer than that.
func NewClient(baseURL, model string, timeout time.Duration, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	if retryAttempts == 0 {
		retryAttempts = arbiter.DefaultMaxRetryAttempts
	}
	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GradeRecall implements the arbiter.Client interface.
func (client *Client) GradeRecall(ctx context.Context, params arbiter.GradeRecallRequest) (arbiter.GradeRecallResponse, error) {
	prompt := buildPrompt(params.ReferenceText, params.SubmittedText)

	var result generateResponse
	err := retry.Do(
		func() error {
			res, err := client.httpClient.R().
				SetContext(ctx).
				SetBody(generateRequest{
					Model:  client.model,
					Prompt: prompt,
					Stream: false,
				}).
				SetResult(&result).
				Post("/api/generate")
			if err != nil {
				return fmt.Errorf("httpClient.Post(/api/generate) > %w", err)
			}
			if res.IsError() {
				return fmt.Errorf("response error %d: %s", res.StatusCode(), res.String())
			}
			return nil
		},
		retry.Attempts(client.maxRetryAttempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		slog.Default().Warn("Ollama arbitration failed",
			"model", client.model,
			"error", err)
		return arbiter.GradeRecallResponse{}, fmt.Errorf("%w: %v", domain.ErrArbiterUnavailable, err)
	}

	return arbiter.GradeRecallResponse{
		Grade:  parseGrade(result.Response),
		Reason: strings.TrimSpace(result.Response),
	}, nil
}

func buildPrompt(referenceText, submittedText string) string {
	return fmt.Sprintf(`Original text to memorize: %s

User's typed recall: %s

Evaluate the recall accuracy for a child memorizing text. Be encouraging but honest.

Respond with exactly one word: 'perfect' (exact or very close match), 'good' (captures essence with minor errors), or 'fail' (major differences or too short).

Response:`, referenceText, submittedText)
}

// parseGrade is deliberately lenient: models tend to decorate the answer
// word with punctuation or a short sentence.
func parseGrade(response string) domain.Grade {
	lower := strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.Contains(lower, "perfect"):
		return domain.GradePerfect
	case strings.Contains(lower, "good"):
		return domain.GradeGood
	default:
		return domain.GradeFail
	}
}
