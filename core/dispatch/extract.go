package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/siherrmann/matcher/model"
)

// ExtractDecisions extracts the trailing decision block from an answer text:
// a JSON-like object mapping decision labels to lists of attribute names
// (or "source,target" compound names for n-to-n answers). The scan takes the
// last "{" and the first "}" after it; single quotes are normalized to
// double quotes before parsing. Anything preceding the block is ignored
// reasoning.
func ExtractDecisions(text string) (map[string][]string, error) {
	start := strings.LastIndex(text, "{")
	if start < 0 {
		return nil, fmt.Errorf("answer contains no decision block")
	}
	length := strings.Index(text[start:], "}")
	if length < 0 {
		return nil, fmt.Errorf("answer decision block is not closed")
	}

	raw := strings.ReplaceAll(text[start:start+length+1], "'", `"`)

	decisions := map[string][]string{}
	err := json.Unmarshal([]byte(raw), &decisions)
	if err != nil {
		return nil, fmt.Errorf("answer decision block is not parseable: %w", err)
	}

	return decisions, nil
}

// IsValidAnswer reports whether an answer carries a parseable decision
// block. Malformed content never raises, the answer is just invalid.
func IsValidAnswer(answer *model.Answer) bool {
	_, err := ExtractDecisions(answer.Text)
	return err == nil
}
