package model

import (
	"fmt"
	"sort"

	"github.com/siherrmann/matcher/helper"
)

// Side tags a relation as the source or the target of a matching request.
// Relations are not interchangeable despite their structural symmetry.
type Side string

const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// Relation represents a table schema being matched.
type Relation struct {
	Name        string       `json:"name"`
	Attributes  []*Attribute `json:"attributes"`
	Description string       `json:"description,omitempty"`
	Side        Side         `json:"side,omitempty"`
}

// NewRelation creates a relation from attribute name/description pairs.
func NewRelation(name string, side Side, attributes ...*Attribute) *Relation {
	return &Relation{
		Name:       name,
		Side:       side,
		Attributes: attributes,
	}
}

// IncludedAttributes returns the attributes that participate in prompt
// generation and matching, in relation order.
func (r *Relation) IncludedAttributes() []*Attribute {
	included := make([]*Attribute, 0, len(r.Attributes))
	for _, attr := range r.Attributes {
		if attr.Included {
			included = append(included, attr)
		}
	}
	return included
}

// Validate checks the pair-key uniqueness invariant: attribute names must be
// unique within a relation.
func (r *Relation) Validate() error {
	seen := map[string]bool{}
	for _, attr := range r.Attributes {
		if seen[attr.Name] {
			return helper.NewError(
				fmt.Sprintf("validate relation %v", r.Name),
				fmt.Errorf("%w: duplicate attribute name %v", helper.ErrInvariant, attr.Name),
			)
		}
		seen[attr.Name] = true
	}
	return nil
}

// Digest returns the content digest over name, description, side and the
// attribute digests. Attribute order is not semantically meaningful for
// relation identity, so attribute digests are sorted before hashing.
func (r *Relation) Digest() string {
	attributeDigests := make([]string, 0, len(r.Attributes))
	for _, attr := range r.Attributes {
		attributeDigests = append(attributeDigests, attr.Digest())
	}
	sort.Strings(attributeDigests)

	fields := append([]string{r.Name, r.Description, string(r.Side)}, attributeDigests...)
	return digestOf("relation", fields...)
}
