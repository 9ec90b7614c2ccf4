package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siherrmann/matcher/database"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient scripts completion responses and counts calls.
type stubClient struct {
	calls atomic.Int64
	// respond builds the response for one call; err short-circuits.
	respond func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error)
}

func (c *stubClient) Complete(ctx context.Context, request model.CompletionRequest) (*model.ChatCompletion, error) {
	call := c.calls.Add(1)
	return c.respond(call, request)
}

// choices builds n completion choices from the given texts, cycling if needed.
func choices(n int, texts ...string) []model.Choice {
	result := make([]model.Choice, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, model.Choice{
			Index:   i,
			Message: model.Message{Role: "assistant", Content: texts[i%len(texts)]},
		})
	}
	return result
}

func fastConfig() Config {
	config := DefaultConfig()
	config.BackoffInitial = time.Millisecond
	config.BackoffMax = 2 * time.Millisecond
	return config
}

func testLogger() *slog.Logger {
	return slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))
}

func testPrompt(n int) *model.Prompt {
	source := model.NewRelation("patients", model.SideSource, model.NewAttribute("hgt", ""))
	target := model.NewRelation("persons", model.SideTarget,
		model.NewAttribute("height", ""),
		model.NewAttribute("weight", ""),
	)
	parameters := model.NewParameters(source, target, nil, "gpt-3.5-turbo-1106")

	return &model.Prompt{
		Parameters: parameters,
		Attributes: model.PromptAttributePair{
			Sources: source.Attributes,
			Targets: target.Attributes,
		},
		Request: model.CompletionRequest{
			Model:    "gpt-3.5-turbo-1106",
			Messages: []model.Message{{Role: "user", Content: "match these"}},
			N:        n,
		},
		Meta: model.Meta{},
	}
}

func TestSendPrompts(t *testing.T) {
	const valid = "Reasoning... {'yes': ['height']}"
	const invalid = "I cannot answer that."

	t.Run("Retries until enough valid answers arrive", func(t *testing.T) {
		client := &stubClient{
			respond: func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error) {
				// One valid choice per call, the rest invalid.
				result := choices(request.N, invalid)
				result[0].Message.Content = valid
				return &model.ChatCompletion{
					ID:      fmt.Sprintf("chatcmpl-%d", call),
					Choices: result,
				}, nil
			},
		}
		dispatcher := NewDispatcher(client, database.NewDisabledStore(testLogger()), fastConfig(), testLogger())

		answers, err := dispatcher.SendPrompts(context.Background(), []*model.Prompt{testPrompt(3)})
		assert.NoError(t, err, "Expected SendPrompts to not return an error")
		assert.Len(t, answers, 3, "Expected exactly the requested number of valid answers")
		assert.Equal(t, int64(3), client.calls.Load(), "Expected one call per missing valid answer")
		for _, answer := range answers {
			assert.True(t, answer.Valid, "Expected only valid answers to be returned")
			assert.Equal(t, valid, answer.Text, "Expected the valid choice text")
		}
	})

	t.Run("Gives up after the prompt attempt ceiling", func(t *testing.T) {
		client := &stubClient{
			respond: func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error) {
				return &model.ChatCompletion{
					ID:      fmt.Sprintf("chatcmpl-%d", call),
					Choices: choices(request.N, invalid),
				}, nil
			},
		}
		dispatcher := NewDispatcher(client, database.NewDisabledStore(testLogger()), fastConfig(), testLogger())

		answers, err := dispatcher.SendPrompts(context.Background(), []*model.Prompt{testPrompt(3)})
		assert.NoError(t, err, "Expected a shortfall to not be an error")
		assert.Empty(t, answers, "Expected no valid answers")
		assert.Equal(t, int64(5), client.calls.Load(), "Expected exactly the prompt attempt ceiling of calls")
	})

	t.Run("Non-transient failures abort the whole stage", func(t *testing.T) {
		client := &stubClient{
			respond: func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error) {
				return nil, &APIError{StatusCode: http.StatusUnauthorized, Body: "bad key"}
			},
		}
		dispatcher := NewDispatcher(client, database.NewDisabledStore(testLogger()), fastConfig(), testLogger())

		_, err := dispatcher.SendPrompts(context.Background(), []*model.Prompt{testPrompt(3), testPrompt(3)})
		assert.Error(t, err, "Expected a non-transient failure to propagate")
		assert.Contains(t, err.Error(), "401", "Expected the status code in the error chain")
	})

	t.Run("Transient exhaustion yields fewer answers without error", func(t *testing.T) {
		client := &stubClient{
			respond: func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error) {
				return nil, &APIError{StatusCode: http.StatusTooManyRequests, Body: "slow down"}
			},
		}
		config := fastConfig()
		config.MaxRequestAttempts = 2
		dispatcher := NewDispatcher(client, database.NewDisabledStore(testLogger()), config, testLogger())

		answers, err := dispatcher.SendPrompts(context.Background(), []*model.Prompt{testPrompt(3)})
		assert.NoError(t, err, "Expected transient exhaustion to not be an error")
		assert.Empty(t, answers, "Expected no answers after transient exhaustion")
		// 5 prompt attempts x 2 network attempts each.
		assert.Equal(t, int64(10), client.calls.Load(), "Expected the full retry budget to be used")
	})

	t.Run("Answers of multiple prompts chain in prompt order", func(t *testing.T) {
		client := &stubClient{
			respond: func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error) {
				return &model.ChatCompletion{
					ID:      fmt.Sprintf("chatcmpl-%d", call),
					Choices: choices(request.N, valid),
				}, nil
			},
		}
		dispatcher := NewDispatcher(client, database.NewDisabledStore(testLogger()), fastConfig(), testLogger())

		answers, err := dispatcher.SendPrompts(context.Background(), []*model.Prompt{testPrompt(2), testPrompt(1)})
		assert.NoError(t, err, "Expected SendPrompts to not return an error")
		assert.Len(t, answers, 3, "Expected the valid answers of both prompts")
	})
}

func TestSendPromptsResume(t *testing.T) {
	const valid = "Reasoning... {'yes': ['height']}"

	store, err := database.NewStore(
		&helper.DatabaseConfiguration{Path: filepath.Join(t.TempDir(), "test.sqlite3")},
		testLogger(),
	)
	require.NoError(t, err, "Expected NewStore to not return an error")
	defer store.Close()

	prompt := testPrompt(2)
	prompt.Parameters, err = store.StoreParameters(prompt.Parameters)
	require.NoError(t, err, "Expected StoreParameters to not return an error")
	prompt, err = store.StorePrompt(prompt)
	require.NoError(t, err, "Expected StorePrompt to not return an error")

	for i := 0; i < 2; i++ {
		answer := &model.Answer{Attributes: prompt.Attributes, Text: valid, Index: i, Valid: true, Meta: model.Meta{}}
		_, err = store.StoreAnswer(answer, prompt.Meta.Path(), "")
		require.NoError(t, err, "Expected StoreAnswer to not return an error")
	}

	client := &stubClient{
		respond: func(call int64, request model.CompletionRequest) (*model.ChatCompletion, error) {
			return nil, &APIError{StatusCode: http.StatusInternalServerError, Body: "should not be called"}
		},
	}
	dispatcher := NewDispatcher(client, store, fastConfig(), testLogger())

	answers, err := dispatcher.SendPrompts(context.Background(), []*model.Prompt{prompt})
	assert.NoError(t, err, "Expected SendPrompts to not return an error")
	assert.Len(t, answers, 2, "Expected the stored valid answers to satisfy the request")
	assert.Equal(t, int64(0), client.calls.Load(), "Expected no completion calls for a fully resumed prompt")
}

func TestIsRetryable(t *testing.T) {
	t.Run("Retryable statuses", func(t *testing.T) {
		for _, status := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
			assert.True(t, IsRetryable(&APIError{StatusCode: status}), "Expected status %d to be retryable", status)
		}
	})

	t.Run("Non-retryable statuses", func(t *testing.T) {
		for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
			assert.False(t, IsRetryable(&APIError{StatusCode: status}), "Expected status %d to not be retryable", status)
		}
	})

	t.Run("Deadline exceeded is retryable", func(t *testing.T) {
		assert.True(t, IsRetryable(context.DeadlineExceeded), "Expected a timeout to be retryable")
	})

	t.Run("Plain errors are not retryable", func(t *testing.T) {
		assert.False(t, IsRetryable(fmt.Errorf("boom")), "Expected a plain error to not be retryable")
	})
}
