package model

import (
	"fmt"
	"strings"
)

// AttributePair is an ordered (source attribute, target attribute) tuple and
// the canonical key for all per-pair results.
type AttributePair struct {
	Source *Attribute `json:"source"`
	Target *Attribute `json:"target"`
}

// String returns the canonical string form used for stable ordering and as
// the compound lookup key in n-to-n decision blocks.
func (p AttributePair) String() string {
	return p.Source.Name + "," + p.Target.Name
}

// Key returns the comparable map key for this pair. Attribute names are
// unique within their relation (see Relation.Validate), so names identify
// the pair within a single matching request.
func (p AttributePair) Key() PairKey {
	return PairKey{Source: p.Source.Name, Target: p.Target.Name}
}

// Digest returns the content digest over the member attribute digests,
// order-sensitive because source and target are not interchangeable.
func (p AttributePair) Digest() string {
	return digestOf("attribute_pair", p.Source.Digest(), p.Target.Digest())
}

// PairKey is the comparable form of an AttributePair used as a map key.
// It marshals to the canonical "source,target" string so pair-keyed maps
// survive a JSON round trip.
type PairKey struct {
	Source string
	Target string
}

func (k PairKey) String() string {
	return k.Source + "," + k.Target
}

// MarshalText implements encoding.TextMarshaler.
func (k PairKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PairKey) UnmarshalText(text []byte) error {
	source, target, found := strings.Cut(string(text), ",")
	if !found {
		return fmt.Errorf("invalid pair key %q", string(text))
	}
	k.Source = source
	k.Target = target
	return nil
}

// PromptAttributePair holds the source and target attribute groups a single
// prompt addresses. Group sizes are 1 or n depending on the cardinality mode.
type PromptAttributePair struct {
	Sources []*Attribute `json:"sources"`
	Targets []*Attribute `json:"targets"`
}

// Digest returns the content digest over the grouped attribute digests in
// prompt order.
func (p PromptAttributePair) Digest() string {
	fields := make([]string, 0, len(p.Sources)+len(p.Targets)+1)
	for _, attr := range p.Sources {
		fields = append(fields, attr.Digest())
	}
	fields = append(fields, "|")
	for _, attr := range p.Targets {
		fields = append(fields, attr.Digest())
	}
	return digestOf("prompt_attribute_pair", fields...)
}
