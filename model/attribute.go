package model

import (
	"github.com/google/uuid"
)

// Attribute represents a single column of a relation.
// Name and Description are the semantic identity of an attribute; UID is a
// transient correlation handle for collaborators and Included only controls
// whether the attribute participates in prompt generation. Neither affects
// the digest.
type Attribute struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Included    bool      `json:"included"`
	UID         uuid.UUID `json:"uid,omitempty"`
}

// NewAttribute creates an included attribute with a fresh transient uid.
func NewAttribute(name string, description string) *Attribute {
	return &Attribute{
		Name:        name,
		Description: description,
		Included:    true,
		UID:         uuid.New(),
	}
}

// Digest returns the content digest over the semantic fields (name and
// description only).
func (a *Attribute) Digest() string {
	return digestOf("attribute", a.Name, a.Description)
}
