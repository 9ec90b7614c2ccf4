package prompt

import (
	"log/slog"
	"os"
	"testing"

	"github.com/siherrmann/matcher/database"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()

	config := model.DefaultMatchConfig()
	config.TemplateDir = templateDir

	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))
	return NewBuilder(config, database.NewDisabledStore(logger))
}

func TestBuildPrompts(t *testing.T) {
	builder := testBuilder(t)

	t.Run("Default modes cover all attribute groups", func(t *testing.T) {
		parameters := testRenderParameters()

		prompts, err := builder.BuildPrompts(parameters)
		assert.NoError(t, err, "Expected BuildPrompts to not return an error")
		// 2 sources x 1 group (1-n) + 1 group x 2 targets (n-1) + 1 x 1 (n-n).
		assert.Len(t, prompts, 5, "Expected one prompt per mode and attribute group")

		for _, prompt := range prompts {
			assert.NotEmpty(t, prompt.Request.Messages, "Expected every prompt to carry messages")
			assert.NotEmpty(t, prompt.Meta.Path(), "Expected every prompt to be stored before returning")
			assert.Equal(t, 3, prompt.Request.N, "Expected the configured completion count")
		}
	})

	t.Run("Explicit one-to-one mode builds the full cartesian", func(t *testing.T) {
		parameters := testRenderParameters()

		prompts, err := builder.BuildPrompts(parameters, ModeOneToOne)
		assert.NoError(t, err, "Expected BuildPrompts to not return an error")
		assert.Len(t, prompts, 4, "Expected one prompt per source x target combination")

		for _, prompt := range prompts {
			assert.Len(t, prompt.Attributes.Sources, 1, "Expected a single source attribute per prompt")
			assert.Len(t, prompt.Attributes.Targets, 1, "Expected a single target attribute per prompt")
		}
	})

	t.Run("Excluded attributes do not generate prompts", func(t *testing.T) {
		parameters := testRenderParameters()
		parameters.SourceRelation.Attributes[1].Included = false

		prompts, err := builder.BuildPrompts(parameters, ModeOneToN)
		assert.NoError(t, err, "Expected BuildPrompts to not return an error")
		assert.Len(t, prompts, 1, "Expected only the included source attribute to generate a prompt")
		assert.Equal(t, "hgt", prompts[0].Attributes.Sources[0].Name, "Expected the included attribute")
	})

	t.Run("Relation without included attributes is invalid input", func(t *testing.T) {
		parameters := testRenderParameters()
		for _, attribute := range parameters.SourceRelation.Attributes {
			attribute.Included = false
		}

		_, err := builder.BuildPrompts(parameters)
		assert.Error(t, err, "Expected a fully excluded relation to be rejected")
		assert.ErrorIs(t, err, helper.ErrInvalidInput, "Expected an invalid input error")
	})

	t.Run("Parameters model overrides the configured model", func(t *testing.T) {
		parameters := testRenderParameters()
		parameters.LLMModel = "gpt-4-1106-preview"

		prompts, err := builder.BuildPrompts(parameters, ModeNToN)
		require.NoError(t, err, "Expected BuildPrompts to not return an error")
		require.Len(t, prompts, 1, "Expected a single n-n prompt")
		assert.Equal(t, "gpt-4-1106-preview", prompts[0].Request.Model, "Expected the parameters model to win")
	})

	t.Run("Missing template directory is a configuration error", func(t *testing.T) {
		config := model.DefaultMatchConfig()
		config.TemplateDir = t.TempDir()
		logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))
		broken := NewBuilder(config, database.NewDisabledStore(logger))

		_, err := broken.BuildPrompts(testRenderParameters())
		assert.Error(t, err, "Expected missing templates to fail")
		assert.ErrorIs(t, err, helper.ErrConfiguration, "Expected a configuration error")
	})
}

func TestModeTemplateName(t *testing.T) {
	assert.Equal(t, "oneToOne", ModeOneToOne.TemplateName(), "Expected the 1-1 template name")
	assert.Equal(t, "oneToN", ModeOneToN.TemplateName(), "Expected the 1-n template name")
	assert.Equal(t, "nToOne", ModeNToOne.TemplateName(), "Expected the n-1 template name")
	assert.Equal(t, "nToN", ModeNToN.TemplateName(), "Expected the n-n template name")
}
