package database

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))
}

func TestNewStore(t *testing.T) {
	t.Run("Valid call NewStore", func(t *testing.T) {
		config := &helper.DatabaseConfiguration{Path: filepath.Join(t.TempDir(), "test.sqlite3")}
		store, err := NewStore(config, testLogger())
		assert.NoError(t, err, "Expected NewStore to not return an error")
		require.NotNil(t, store, "Expected NewStore to return a non-nil instance")
		defer store.Close()

		assert.True(t, store.Enabled(), "Expected a backed store to be enabled")
		assert.NotNil(t, store.Parameters, "Expected the parameters handler to be wired")
		assert.NotNil(t, store.Answers, "Expected the answers handler to be wired")
	})

	t.Run("Invalid call NewStore with empty path", func(t *testing.T) {
		_, err := NewStore(&helper.DatabaseConfiguration{}, testLogger())
		assert.Error(t, err, "Expected an empty path to be rejected")
		assert.ErrorIs(t, err, helper.ErrConfiguration, "Expected a configuration error")
	})
}

func TestStoreRoundTrip(t *testing.T) {
	config := &helper.DatabaseConfiguration{Path: filepath.Join(t.TempDir(), "test.sqlite3")}
	store, err := NewStore(config, testLogger())
	require.NoError(t, err, "Expected NewStore to not return an error")
	defer store.Close()

	parameters, err := store.StoreParameters(testParameters(t))
	require.NoError(t, err, "Expected StoreParameters to not return an error")

	retrieved, err := store.GetParametersByHash(parameters.Digest())
	assert.NoError(t, err, "Expected GetParametersByHash to not return an error")
	require.NotNil(t, retrieved, "Expected stored parameters to be found")

	result := model.NewEmptyResult(parameters)
	result.Name = "Experiment 1"
	_, err = store.StoreResult(result)
	require.NoError(t, err, "Expected StoreResult to not return an error")

	stored, err := store.GetResultByParameters(parameters)
	assert.NoError(t, err, "Expected GetResultByParameters to not return an error")
	require.NotNil(t, stored, "Expected the stored result to be found")
	assert.Equal(t, result.Digest(), stored.Digest(), "Expected the result digest to survive")
}

func TestDisabledStore(t *testing.T) {
	store := NewDisabledStore(testLogger())

	assert.False(t, store.Enabled(), "Expected a disabled store to report disabled")
	assert.NoError(t, store.Close(), "Expected closing a disabled store to be a no-op")

	t.Run("Writes assign opaque locators", func(t *testing.T) {
		parameters, err := store.StoreParameters(testParameters(t))
		assert.NoError(t, err, "Expected a disabled write to not return an error")
		assert.NotEmpty(t, parameters.Meta.Path(), "Expected a usable opaque locator")

		prompt := &model.Prompt{Parameters: parameters, Meta: model.Meta{}}
		prompt, err = store.StorePrompt(prompt)
		assert.NoError(t, err, "Expected a disabled prompt write to not return an error")
		assert.NotEmpty(t, prompt.Meta.Path(), "Expected a usable opaque locator")

		assert.NoError(t, store.StoreChatCompletion(&model.ChatCompletion{ID: "x"}, prompt.Meta.Path()), "Expected a disabled completion write to be a no-op")
	})

	t.Run("Lookups report not found", func(t *testing.T) {
		parameters, err := store.GetParametersByHash("any-digest")
		assert.NoError(t, err, "Expected a disabled lookup to not return an error")
		assert.Nil(t, parameters, "Expected a disabled lookup to find nothing")

		result, err := store.GetResultByParameters(testParameters(t))
		assert.NoError(t, err, "Expected a disabled lookup to not return an error")
		assert.Nil(t, result, "Expected a disabled lookup to find nothing")

		answers, err := store.GetAnswersByPrompt(&model.Prompt{Meta: model.Meta{}}, true)
		assert.NoError(t, err, "Expected a disabled lookup to not return an error")
		assert.Empty(t, answers, "Expected a disabled lookup to find nothing")
	})
}
