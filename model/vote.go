package model

import (
	"fmt"
	"strings"
)

// Vote is the per-decision outcome for an attribute pair.
type Vote string

const (
	VoteYes     Vote = "yes"
	VoteNo      Vote = "no"
	VoteUnknown Vote = "unknown"
)

// ParseVote parses a decision label case-insensitively.
// Unrecognized labels return an error so callers can fall back to VoteUnknown.
func ParseVote(label string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case string(VoteYes):
		return VoteYes, nil
	case string(VoteNo):
		return VoteNo, nil
	case string(VoteUnknown):
		return VoteUnknown, nil
	}
	return VoteUnknown, fmt.Errorf("unknown vote label %q", label)
}
