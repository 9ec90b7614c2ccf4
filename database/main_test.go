package database

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	"github.com/stretchr/testify/require"
)

// initDB opens a fresh temporary database per test.
func initDB(t *testing.T) *helper.Database {
	t.Helper()

	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))
	config := &helper.DatabaseConfiguration{Path: filepath.Join(t.TempDir(), "test.sqlite3")}

	db, err := helper.NewDatabase("matcher_test", config, logger)
	require.NoError(t, err, "Expected NewDatabase to not return an error")
	t.Cleanup(func() { db.Instance.Close() })

	return db
}

// testParameters builds a small valid parameters object.
func testParameters(t *testing.T) *model.Parameters {
	t.Helper()

	source := model.NewRelation("patients", model.SideSource,
		model.NewAttribute("age", "Age in years"),
		model.NewAttribute("sex", "Administrative sex"),
	)
	target := model.NewRelation("persons", model.SideTarget,
		model.NewAttribute("birth_year", "Year of birth"),
	)
	return model.NewParameters(source, target, nil, "gpt-3.5-turbo-1106")
}

// storeTestParameters persists parameters so dependent rows have a foreign key.
func storeTestParameters(t *testing.T, db *helper.Database) *model.Parameters {
	t.Helper()

	handler, err := NewParametersDBHandler(db, false)
	require.NoError(t, err, "Expected NewParametersDBHandler to not return an error")

	parameters, err := handler.StoreParameters(testParameters(t))
	require.NoError(t, err, "Expected StoreParameters to not return an error")
	return parameters
}

// storeTestPrompt persists a prompt for the given stored parameters.
func storeTestPrompt(t *testing.T, db *helper.Database, parameters *model.Parameters) *model.Prompt {
	t.Helper()

	handler, err := NewPromptsDBHandler(db, false)
	require.NoError(t, err, "Expected NewPromptsDBHandler to not return an error")

	prompt := &model.Prompt{
		Parameters: parameters,
		Attributes: model.PromptAttributePair{
			Sources: []*model.Attribute{parameters.SourceRelation.Attributes[0]},
			Targets: parameters.TargetRelation.Attributes,
		},
		Request: model.CompletionRequest{
			Model:    "gpt-3.5-turbo-1106",
			Messages: []model.Message{{Role: "user", Content: "Do these attributes match?"}},
			N:        3,
		},
		Meta: model.Meta{},
	}

	prompt, err = handler.StorePrompt(prompt)
	require.NoError(t, err, "Expected StorePrompt to not return an error")
	return prompt
}
