package model

import "sort"

// Feedback carries free-text guidance that is rendered into prompts: a
// general note plus per-attribute and per-attribute-pair annotations.
// Per-attribute notes are keyed by attribute name, per-pair notes by the
// canonical "source,target" pair key.
//
// Feedback participates in the Parameters digest, so identical schemas with
// different feedback are distinct experiments.
type Feedback struct {
	General      string            `json:"general,omitempty"`
	PerAttribute map[string]string `json:"per_attribute,omitempty"`
	PerPair      map[string]string `json:"per_attribute_pair,omitempty"`
}

// NewFeedback creates an empty feedback object.
func NewFeedback() *Feedback {
	return &Feedback{
		PerAttribute: map[string]string{},
		PerPair:      map[string]string{},
	}
}

// Digest returns the content digest over the general note and all
// annotations. Map iteration order is not semantically meaningful, so
// entries are sorted by key before hashing.
func (f *Feedback) Digest() string {
	if f == nil {
		return digestOf("feedback")
	}
	fields := []string{f.General}
	fields = append(fields, sortedEntries(f.PerAttribute)...)
	fields = append(fields, "|")
	fields = append(fields, sortedEntries(f.PerPair)...)
	return digestOf("feedback", fields...)
}

func sortedEntries(m map[string]string) []string {
	entries := make([]string, 0, len(m))
	for key, value := range m {
		entries = append(entries, key+"="+value)
	}
	sort.Strings(entries)
	return entries
}
