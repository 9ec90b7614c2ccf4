package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siherrmann/matcher/model"
)

// TaskScope classifies an answer by the size of its attribute groups.
type TaskScope string

const (
	ScopeOneToOne TaskScope = "1-to-1"
	ScopeOneToN   TaskScope = "1-to-N"
	ScopeNToOne   TaskScope = "N-to-1"
	ScopeNToN     TaskScope = "N-to-N"
)

// ScopeOf returns the task scope of an answer.
func ScopeOf(answer *model.Answer) TaskScope {
	singleSource := len(answer.Attributes.Sources) == 1
	singleTarget := len(answer.Attributes.Targets) == 1
	switch {
	case singleSource && singleTarget:
		return ScopeOneToOne
	case singleSource:
		return ScopeOneToN
	case singleTarget:
		return ScopeNToOne
	}
	return ScopeNToN
}

// VoteTally counts the votes of one result pair per vote value.
func VoteTally(pair *model.ResultPair) map[model.Vote]int {
	tally := map[model.Vote]int{}
	for _, decision := range pair.Votes {
		tally[decision.Vote]++
	}
	return tally
}

// VotesByScope returns, per pair, only the votes whose originating answer has
// the given task scope. Votes without an attached answer are skipped because
// their scope is unknowable.
func VotesByScope(result *model.Result, scope TaskScope) map[model.PairKey][]model.Decision {
	filtered := map[model.PairKey][]model.Decision{}
	for key, pair := range result.Pairs {
		for _, decision := range pair.Votes {
			if decision.Answer == nil {
				continue
			}
			if ScopeOf(decision.Answer) == scope {
				filtered[key] = append(filtered[key], decision)
			}
		}
	}
	return filtered
}

// GenerateInsertSQL renders an INSERT INTO ... SELECT statement copying the
// source relation into the target relation over every pair with at least
// threshold yes votes. Pairs iterate in canonical key order so the statement
// is deterministic.
func GenerateInsertSQL(result *model.Result, threshold int) string {
	keys := make([]model.PairKey, 0, len(result.Pairs))
	for key := range result.Pairs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	var columns []string
	var selects []string
	for _, key := range keys {
		pair := result.Pairs[key]
		if VoteTally(pair)[model.VoteYes] < threshold {
			continue
		}
		columns = append(columns, key.Target)
		selects = append(selects, fmt.Sprintf("  %s AS %s", key.Source, key.Target))
	}

	if len(columns) == 0 {
		return ""
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT\n%s\nFROM %s;",
		result.Parameters.TargetRelation.Name,
		strings.Join(columns, ", "),
		strings.Join(selects, ",\n"),
		result.Parameters.SourceRelation.Name,
	)
}

// LevenshteinRatio returns the normalized similarity of two strings in
// [0, 1]: 1 minus the edit distance divided by the longer length.
func LevenshteinRatio(a string, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes the edit distance with a rolling single-row table.
func levenshtein(a string, b string) int {
	ra, rb := []rune(a), []rune(b)
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		previous := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current := min(row[j]+1, row[j-1]+1, previous+cost)
			previous = row[j]
			row[j] = current
		}
	}
	return row[len(rb)]
}

// TrigramSimilarity returns the Soerensen-Dice coefficient over padded
// character trigrams. Strings are padded with n-1 leading '#' and n-1
// trailing '%' characters so that boundary characters carry full weight.
func TrigramSimilarity(a string, b string) float64 {
	const n = 3
	gramsA := paddedNGrams(a, n)
	gramsB := paddedNGrams(b, n)
	if len(gramsA) == 0 && len(gramsB) == 0 {
		return 1
	}
	if len(gramsA) == 0 || len(gramsB) == 0 {
		return 0
	}

	counts := map[string]int{}
	for _, gram := range gramsA {
		counts[gram]++
	}
	overlap := 0
	for _, gram := range gramsB {
		if counts[gram] > 0 {
			counts[gram]--
			overlap++
		}
	}

	return 2 * float64(overlap) / float64(len(gramsA)+len(gramsB))
}

// paddedNGrams returns the character n-grams of the padded string.
func paddedNGrams(s string, n int) []string {
	padded := []rune(strings.Repeat("#", n-1) + s + strings.Repeat("%", n-1))
	if len(padded) < n {
		return nil
	}
	grams := make([]string, 0, len(padded)-n+1)
	for i := 0; i+n <= len(padded); i++ {
		grams = append(grams, string(padded[i:i+n]))
	}
	return grams
}

// SimilarityMetric is a pairwise string similarity in [0, 1].
type SimilarityMetric func(a string, b string) float64

// BaselineSimilarities returns the similarity of one attribute's name to each
// other attribute's name under the given metric, keyed by the other name.
// Useful as a non-LLM baseline next to the voted result.
func BaselineSimilarities(attribute *model.Attribute, others []*model.Attribute, metric SimilarityMetric) map[string]float64 {
	similarities := map[string]float64{}
	for _, other := range others {
		similarities[other.Name] = metric(attribute.Name, other.Name)
	}
	return similarities
}
