package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/matcher"
	"github.com/siherrmann/matcher/model"
)

// Matches two small relations offline: model querying and persistence are
// both switched off, so the run synthesizes votes and needs no API key.
func main() {
	config := model.DefaultMatchConfig()
	config.QueryModel = false
	config.StorePath = ""

	m, err := matcher.New(config)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	source := model.NewRelation("patients", model.SideSource,
		model.NewAttribute("name", "Full patient name"),
		model.NewAttribute("age", "Age in years"),
		model.NewAttribute("sex", "Administrative sex"),
	)
	source.Description = "Hospital patient registry"

	target := model.NewRelation("persons", model.SideTarget,
		model.NewAttribute("full_name", "Name of the person"),
		model.NewAttribute("birth_year", "Year of birth"),
	)
	target.Description = "Insurance person registry"

	result, err := m.MatchRelations(context.Background(), source, target, nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s (%d pairs)\n", result.Name, len(result.Pairs))
	for key, pair := range result.Pairs {
		fmt.Printf("  %s -> %s:", key.Source, key.Target)
		for _, decision := range pair.Votes {
			fmt.Printf(" %s", decision.Vote)
		}
		fmt.Println()
	}
}
