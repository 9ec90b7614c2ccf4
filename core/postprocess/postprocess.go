package postprocess

import (
	"fmt"
	"strings"

	"github.com/siherrmann/matcher/core/dispatch"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
)

// PostprocessAnswers folds a set of answers into a structured result. The
// result starts as the full skeleton over every included source x target
// combination, so pairs never mentioned by any answer still appear with an
// empty vote list. Each answer contributes exactly one vote to every pair in
// its attribute groups.
func PostprocessAnswers(answers []*model.Answer, parameters *model.Parameters) (*model.Result, error) {
	result := model.NewEmptyResult(parameters)

	for _, answer := range answers {
		votes := votesByName(answer)

		for _, source := range answer.Attributes.Sources {
			for _, target := range answer.Attributes.Targets {
				lookFor := lookupName(answer.Attributes, source, target)

				vote := model.VoteUnknown
				if label, ok := votes[lookFor]; ok {
					parsed, err := model.ParseVote(label)
					if err == nil {
						vote = parsed
					}
				}

				key := model.PairKey{Source: source.Name, Target: target.Name}
				pair, ok := result.Pairs[key]
				if !ok {
					return nil, helper.NewError(
						fmt.Sprintf("postprocess answer for pair %v", key),
						fmt.Errorf("%w: answer references a pair outside the result", helper.ErrInvariant),
					)
				}

				pair.Votes = append(pair.Votes, model.Decision{
					Vote:        vote,
					Explanation: answer.Text,
					Answer:      answer,
				})
			}
		}
	}

	return result, nil
}

// votesByName inverts an answer's decision block (label to attribute names)
// into a name to label lookup. An unparseable block yields an empty lookup,
// which downgrades every pair of the answer to an unknown vote.
func votesByName(answer *model.Answer) map[string]string {
	votes := map[string]string{}

	decisions, err := dispatch.ExtractDecisions(answer.Text)
	if err != nil {
		return votes
	}

	for label, names := range decisions {
		for _, name := range names {
			votes[strings.TrimSpace(name)] = label
		}
	}
	return votes
}

// lookupName returns the name the decision block keys a pair's vote under.
// With a single source the block lists target names, with a single target
// source names, and with multiple on both sides the compound
// "source,target" name.
func lookupName(attributes model.PromptAttributePair, source *model.Attribute, target *model.Attribute) string {
	if len(attributes.Sources) == 1 {
		return target.Name
	}
	if len(attributes.Targets) == 1 {
		return source.Name
	}
	return source.Name + "," + target.Name
}
