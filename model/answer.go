package model

import "strconv"

// Answer is one model-generated completion choice for a prompt. Valid is set
// after the answer passed the decision-block extraction check; it is derived
// from Text and therefore excluded from the digest, as is Meta.
type Answer struct {
	Attributes PromptAttributePair `json:"attributes"`
	Text       string              `json:"answer"`
	Index      int                 `json:"index"`
	Valid      bool                `json:"valid"`
	Meta       Meta                `json:"meta,omitempty"`
}

// Digest returns the content digest over the attribute groups, the answer
// text and the choice index.
func (a *Answer) Digest() string {
	return digestOf("answer", a.Attributes.Digest(), a.Text, strconv.Itoa(a.Index))
}
