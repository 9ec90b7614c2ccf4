package model

import "sort"

// Decision is one vote plus its textual justification, attributable to the
// model answer it was extracted from.
type Decision struct {
	Vote        Vote    `json:"vote"`
	Explanation string  `json:"explanation"`
	Answer      *Answer `json:"answer,omitempty"`
}

// Digest returns the content digest over vote and explanation.
func (d Decision) Digest() string {
	return digestOf("decision", string(d.Vote), d.Explanation)
}

// ResultPair holds the ordered vote list for one attribute pair. Votes are
// ordered by arrival, which is semantically meaningful (explanations are
// appended in processing order), so the digest is order-sensitive.
// Score is reserved for future weighting and stays at its neutral default.
type ResultPair struct {
	Attributes AttributePair `json:"attributes"`
	Votes      []Decision    `json:"votes"`
	Score      float64       `json:"score"`
}

// Digest returns the content digest over the pair digest and the ordered
// decision digests.
func (p *ResultPair) Digest() string {
	fields := []string{p.Attributes.Digest()}
	for _, decision := range p.Votes {
		fields = append(fields, decision.Digest())
	}
	return digestOf("result_pair", fields...)
}

// Result is the outcome of one matching request: exactly one ResultPair per
// included source x target attribute combination. Name is a human-readable
// experiment label attached after creation and excluded from the digest.
type Result struct {
	Name       string                  `json:"name"`
	Parameters *Parameters             `json:"parameters"`
	Pairs      map[PairKey]*ResultPair `json:"pairs"`
	Meta       Meta                    `json:"meta,omitempty"`
}

// NewEmptyResult builds the structured but unpopulated result skeleton: one
// ResultPair with an empty vote list for every combination of included
// source and target attributes.
func NewEmptyResult(parameters *Parameters) *Result {
	pairs := map[PairKey]*ResultPair{}
	for _, source := range parameters.SourceRelation.IncludedAttributes() {
		for _, target := range parameters.TargetRelation.IncludedAttributes() {
			pair := AttributePair{Source: source, Target: target}
			pairs[pair.Key()] = &ResultPair{Attributes: pair, Votes: []Decision{}}
		}
	}
	return &Result{
		Parameters: parameters,
		Pairs:      pairs,
		Meta:       Meta{},
	}
}

// Digest returns the content digest over the parameters digest and the
// sorted per-pair digests. Name and meta are excluded, so attaching the
// experiment label late does not change the digest.
func (r *Result) Digest() string {
	pairDigests := make([]string, 0, len(r.Pairs))
	for _, pair := range r.Pairs {
		pairDigests = append(pairDigests, pair.Digest())
	}
	sort.Strings(pairDigests)

	fields := append([]string{r.Parameters.Digest()}, pairDigests...)
	return digestOf("result", fields...)
}
