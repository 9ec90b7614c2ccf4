package database

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
)

// Store bundles the five entity handlers behind one content-addressed
// persistence facade. A disabled store (no backing database) turns every
// write into a no-op that still hands back a usable opaque locator and every
// lookup into "not found", so the pipeline degrades to always recomputing
// results instead of erroring.
type Store struct {
	DB          *helper.Database
	Parameters  ParametersDBHandlerFunctions
	Results     ResultsDBHandlerFunctions
	Prompts     PromptsDBHandlerFunctions
	Completions CompletionsDBHandlerFunctions
	Answers     AnswersDBHandlerFunctions

	enabled bool
	log     *slog.Logger
}

// NewStore opens the embedded database and initializes all handlers.
// force=false keeps existing schemas untouched.
func NewStore(config *helper.DatabaseConfiguration, logger *slog.Logger) (*Store, error) {
	db, err := helper.NewDatabase("matcher", config, logger)
	if err != nil {
		return nil, helper.NewError("open store database", err)
	}

	parameters, err := NewParametersDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create parameters handler", err)
	}

	results, err := NewResultsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create results handler", err)
	}

	prompts, err := NewPromptsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create prompts handler", err)
	}

	completions, err := NewCompletionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create completions handler", err)
	}

	answers, err := NewAnswersDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create answers handler", err)
	}

	return &Store{
		DB:          db,
		Parameters:  parameters,
		Results:     results,
		Prompts:     prompts,
		Completions: completions,
		Answers:     answers,
		enabled:     true,
		log:         logger,
	}, nil
}

// NewDisabledStore creates a store with persistence switched off.
func NewDisabledStore(logger *slog.Logger) *Store {
	logger.Info("Persistence disabled, results will always be recomputed")
	return &Store{
		enabled: false,
		log:     logger,
	}
}

// Enabled reports whether the store has a backing database.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Close closes the backing database connection.
func (s *Store) Close() error {
	if s.DB != nil && s.DB.Instance != nil {
		return s.DB.Instance.Close()
	}
	return nil
}

// StoreParameters persists parameters and attaches the assigned locator.
func (s *Store) StoreParameters(parameters *model.Parameters) (*model.Parameters, error) {
	if !s.enabled {
		parameters.Meta = parameters.Meta.WithPath(uuid.NewString())
		return parameters, nil
	}
	return s.Parameters.StoreParameters(parameters)
}

// GetParametersByHash retrieves stored parameters by digest, or nil.
func (s *Store) GetParametersByHash(hash string) (*model.Parameters, error) {
	if !s.enabled {
		return nil, nil
	}
	return s.Parameters.GetParametersByHash(hash)
}

// StoreResult persists a result and attaches the assigned locator.
func (s *Store) StoreResult(result *model.Result) (*model.Result, error) {
	if !s.enabled {
		result.Meta = result.Meta.WithPath(uuid.NewString())
		return result, nil
	}
	return s.Results.StoreResult(result)
}

// GetResultByParameters retrieves the result for stored parameters, or nil.
func (s *Store) GetResultByParameters(parameters *model.Parameters) (*model.Result, error) {
	if !s.enabled {
		return nil, nil
	}
	return s.Results.GetResultByParameters(parameters)
}

// StorePrompt persists a prompt and attaches the assigned locator.
func (s *Store) StorePrompt(prompt *model.Prompt) (*model.Prompt, error) {
	if !s.enabled {
		prompt.Meta = prompt.Meta.WithPath(uuid.NewString())
		return prompt, nil
	}
	return s.Prompts.StorePrompt(prompt)
}

// GetPromptsByParameters retrieves all prompts for stored parameters.
func (s *Store) GetPromptsByParameters(parameters *model.Parameters) ([]*model.Prompt, error) {
	if !s.enabled {
		return nil, nil
	}
	return s.Prompts.GetPromptsByParameters(parameters)
}

// StoreChatCompletion logs a raw completion response. Best-effort by
// contract: callers log and continue on failure.
func (s *Store) StoreChatCompletion(completion *model.ChatCompletion, promptLocator string) error {
	if !s.enabled {
		return nil
	}
	return s.Completions.StoreChatCompletion(completion, promptLocator)
}

// StoreAnswer persists an answer linked to its prompt and raw completion.
func (s *Store) StoreAnswer(answer *model.Answer, promptLocator string, completionID string) (*model.Answer, error) {
	if !s.enabled {
		answer.Meta = answer.Meta.WithPath(uuid.NewString())
		return answer, nil
	}
	return s.Answers.StoreAnswer(answer, promptLocator, completionID)
}

// GetAnswersByPrompt retrieves stored answers for a prompt.
func (s *Store) GetAnswersByPrompt(prompt *model.Prompt, filterValid bool) ([]*model.Answer, error) {
	if !s.enabled {
		return nil, nil
	}
	return s.Answers.GetAnswersByPrompt(prompt, filterValid)
}
