package model

import (
	"encoding/json"
	"strconv"
)

// Message is one role-tagged part of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the wire shape of one chat completion call. Exactly
// these fields are hashed; cosmetic payload differences outside of them do
// not change the prompt digest. Timeout is in seconds.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
	N           int       `json:"n"`
	Timeout     float64   `json:"timeout"`
}

// Digest returns the content digest over the hashed wire fields in their
// pinned order: model, temperature, messages, n, timeout.
func (r CompletionRequest) Digest() string {
	fields := []string{
		r.Model,
		strconv.FormatFloat(r.Temperature, 'g', -1, 64),
	}
	for _, message := range r.Messages {
		fields = append(fields, message.Role, message.Content)
	}
	fields = append(fields,
		strconv.Itoa(r.N),
		strconv.FormatFloat(r.Timeout, 'g', -1, 64),
	)
	return digestOf("completion_request", fields...)
}

// Choice is one generated completion choice of a chat completion response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ChatCompletion is the provider's raw completion response. Raw preserves
// the undecoded response body for content-addressed persistence.
type ChatCompletion struct {
	ID      string          `json:"id"`
	Model   string          `json:"model,omitempty"`
	Created int64           `json:"created,omitempty"`
	Choices []Choice        `json:"choices"`
	Raw     json.RawMessage `json:"-"`
}
