package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/matcher"
	"github.com/siherrmann/matcher/core/analysis"
	"github.com/siherrmann/matcher/model"
)

// Matches two relations against a real completion endpoint with feedback and
// persistence, then prints vote tallies and the generated migration SQL.
// Expects OPENAI_API_KEY (or a .env file) to be set; a rerun with identical
// input returns the stored result without querying the model again.
func main() {
	config := model.ConfigFromEnv()

	m, err := matcher.New(config)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	source := model.NewRelation("patients", model.SideSource,
		model.NewAttribute("name", "Full patient name"),
		model.NewAttribute("age", "Age in years at admission"),
		model.NewAttribute("sex", "Administrative sex, M or F"),
		model.NewAttribute("height", "Body height in centimeters"),
	)
	source.Description = "Hospital patient registry"

	target := model.NewRelation("persons", model.SideTarget,
		model.NewAttribute("full_name", "Name of the person"),
		model.NewAttribute("birth_year", "Year of birth"),
		model.NewAttribute("gender", "Self-reported gender"),
	)
	target.Description = "Insurance person registry"

	feedback := &model.Feedback{
		General: "Both schemas describe the same people.",
		PerAttribute: map[string]string{
			"age": "Derived from birth_year at admission time.",
		},
		PerPair: map[string]string{
			"sex,gender": "Treat administrative sex and gender as a match.",
		},
	}

	result, err := m.MatchRelations(context.Background(), source, target, feedback)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result.Name)
	for key, pair := range result.Pairs {
		tally := analysis.VoteTally(pair)
		fmt.Printf("  %s -> %s: yes=%d no=%d unknown=%d\n",
			key.Source, key.Target,
			tally[model.VoteYes], tally[model.VoteNo], tally[model.VoteUnknown])
	}

	if statement := m.GenerateInsertSQL(result, 2); statement != "" {
		fmt.Println("\nMigration SQL:")
		fmt.Println(statement)
	}
}
