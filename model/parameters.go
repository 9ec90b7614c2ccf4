package model

// Parameters describes one matching request: the two relations to match,
// the feedback to render into prompts and the completion model to use.
// Meta holds the store-assigned locator and is excluded from the digest,
// as is the model name.
type Parameters struct {
	SourceRelation *Relation `json:"source_relation"`
	TargetRelation *Relation `json:"target_relation"`
	Feedback       *Feedback `json:"feedback,omitempty"`
	LLMModel       string    `json:"llm_model,omitempty"`
	Meta           Meta      `json:"meta,omitempty"`
}

// NewParameters creates parameters for a matching request.
func NewParameters(source *Relation, target *Relation, feedback *Feedback, llmModel string) *Parameters {
	return &Parameters{
		SourceRelation: source,
		TargetRelation: target,
		Feedback:       feedback,
		LLMModel:       llmModel,
		Meta:           Meta{},
	}
}

// Digest returns the dedup/cache key for this request: the digest over the
// digests of the three content fields. Parameters with equal digest are the
// same matching request.
func (p *Parameters) Digest() string {
	return digestOf(
		"parameters",
		p.SourceRelation.Digest(),
		p.TargetRelation.Digest(),
		p.Feedback.Digest(),
	)
}
