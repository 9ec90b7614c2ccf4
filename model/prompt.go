package model

// Prompt is one fully rendered completion request together with the
// attribute groups it addresses. Meta holds the store-assigned locator used
// to link completions and answers back to their originating prompt.
type Prompt struct {
	Parameters *Parameters         `json:"parameters"`
	Attributes PromptAttributePair `json:"attributes"`
	Request    CompletionRequest   `json:"prompt"`
	Meta       Meta                `json:"meta,omitempty"`
}

// Digest returns the content digest over the parameters digest, the
// attribute group digest and the hashed completion request fields.
func (p *Prompt) Digest() string {
	return digestOf(
		"prompt",
		p.Parameters.Digest(),
		p.Attributes.Digest(),
		p.Request.Digest(),
	)
}
