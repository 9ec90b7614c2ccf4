package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
)

// CompletionClient resolves one completion request against the model
// provider.
type CompletionClient interface {
	Complete(ctx context.Context, request model.CompletionRequest) (*model.ChatCompletion, error)
}

// APIError is a non-2xx response from the completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether an error from a completion call is a transient
// provider failure: request timeout, rate limiting or a server-side internal
// error. Anything else must propagate without retry.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusRequestTimeout ||
			apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode >= http.StatusInternalServerError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the endpoint at baseURL (for example
// "https://api.openai.com/v1"). The per-call timeout comes from each
// request, so the underlying http.Client carries none.
func NewOpenAIClient(apiKey string, baseURL string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// completionPayload is the provider wire shape of one completion call.
// The timeout is client-side and not part of the payload.
type completionPayload struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []model.Message `json:"messages"`
	N           int             `json:"n"`
}

// Complete performs one chat completion call and decodes the response,
// keeping the raw body for content-addressed persistence.
func (c *OpenAIClient) Complete(ctx context.Context, request model.CompletionRequest) (*model.ChatCompletion, error) {
	if request.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(request.Timeout*float64(time.Second)))
		defer cancel()
	}

	body, err := json.Marshal(completionPayload{
		Model:       request.Model,
		Temperature: request.Temperature,
		Messages:    request.Messages,
		N:           request.N,
	})
	if err != nil {
		return nil, helper.NewError("marshal completion request", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, helper.NewError("create completion request", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, helper.NewError("read completion response", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: response.StatusCode, Body: string(raw)}
	}

	completion := &model.ChatCompletion{}
	err = json.Unmarshal(raw, completion)
	if err != nil {
		return nil, helper.NewError("decode completion response", err)
	}
	completion.Raw = raw

	return completion, nil
}
