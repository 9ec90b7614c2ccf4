package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync/atomic"

	"github.com/siherrmann/matcher/core/analysis"
	"github.com/siherrmann/matcher/core/dispatch"
	"github.com/siherrmann/matcher/core/postprocess"
	"github.com/siherrmann/matcher/core/prompt"
	"github.com/siherrmann/matcher/database"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
)

// Matcher is the schema matching pipeline facade. It wires prompt building,
// completion dispatch, answer postprocessing and the content-addressed store
// behind a single Match entry point.
type Matcher struct {
	Config     model.MatchConfig
	Store      *database.Store
	Builder    *prompt.Builder
	Dispatcher *dispatch.Dispatcher

	log        *slog.Logger
	experiment atomic.Int64
}

// New creates a matcher from the given configuration. An empty StorePath
// disables persistence, every request then recomputes from scratch.
func New(config model.MatchConfig) (*Matcher, error) {
	client := dispatch.NewOpenAIClient(config.APIKey, config.BaseURL)
	return NewWithClient(config, client)
}

// NewWithClient creates a matcher with a caller-supplied completion client.
func NewWithClient(config model.MatchConfig, client dispatch.CompletionClient) (*Matcher, error) {
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{}))

	var store *database.Store
	if config.StorePath == "" {
		store = database.NewDisabledStore(logger)
	} else {
		var err error
		store, err = database.NewStore(&helper.DatabaseConfiguration{Path: config.StorePath}, logger)
		if err != nil {
			return nil, helper.NewError("create matcher store", err)
		}
	}

	dispatchConfig := dispatch.DefaultConfig()
	dispatchConfig.MaxParallelRequests = config.MaxParallelRequests

	return &Matcher{
		Config:     config,
		Store:      store,
		Builder:    prompt.NewBuilder(config, store),
		Dispatcher: dispatch.NewDispatcher(client, store, dispatchConfig, logger),
		log:        logger,
	}, nil
}

// Close releases the store's database connection.
func (m *Matcher) Close() error {
	return m.Store.Close()
}

// MatchRelations matches two relations with optional feedback under the
// configured default model.
func (m *Matcher) MatchRelations(ctx context.Context, source *model.Relation, target *model.Relation, feedback *model.Feedback) (*model.Result, error) {
	if source == nil || target == nil {
		return nil, helper.NewError(
			"match relations",
			fmt.Errorf("%w: source and target relation must be given", helper.ErrInvalidInput),
		)
	}
	parameters := model.NewParameters(source, target, feedback, m.Config.ModelName)
	return m.Match(ctx, parameters)
}

// Match runs the full pipeline for the given parameters. Identical parameters
// (by content digest) short-circuit to the stored result when persistence is
// enabled. New results get a sequential experiment name before being stored.
func (m *Matcher) Match(ctx context.Context, parameters *model.Parameters) (*model.Result, error) {
	err := m.validateParameters(parameters)
	if err != nil {
		return nil, err
	}

	if !m.Config.QueryModel {
		m.log.Info("Model querying disabled, synthesizing votes", slog.String("parameters", parameters.Digest()))
		return m.randomResult(parameters)
	}

	stored, err := m.Store.GetParametersByHash(parameters.Digest())
	if err != nil {
		return nil, helper.NewError("look up parameters", err)
	}
	if stored != nil {
		parameters = stored
		result, err := m.Store.GetResultByParameters(parameters)
		if err != nil {
			return nil, helper.NewError("look up result", err)
		}
		if result != nil {
			m.log.Info("Returning stored result", slog.String("result", result.Digest()))
			return result, nil
		}
	} else {
		parameters, err = m.Store.StoreParameters(parameters)
		if err != nil {
			return nil, helper.NewError("store parameters", err)
		}
	}

	prompts, err := m.Builder.BuildPrompts(parameters)
	if err != nil {
		return nil, err
	}
	m.log.Info("Built prompts", slog.Int("count", len(prompts)))

	answers, err := m.Dispatcher.SendPrompts(ctx, prompts)
	if err != nil {
		return nil, err
	}
	m.log.Info("Collected valid answers", slog.Int("count", len(answers)))

	result, err := postprocess.PostprocessAnswers(answers, parameters)
	if err != nil {
		return nil, err
	}

	result.Name = m.nextExperimentName()
	result, err = m.Store.StoreResult(result)
	if err != nil {
		return nil, helper.NewError("store result", err)
	}

	return result, nil
}

// GenerateInsertSQL renders the INSERT statement copying the source relation
// into the target relation over all pairs with at least threshold yes votes.
func (m *Matcher) GenerateInsertSQL(result *model.Result, threshold int) string {
	return analysis.GenerateInsertSQL(result, threshold)
}

// validateParameters checks structural soundness before any pipeline work.
func (m *Matcher) validateParameters(parameters *model.Parameters) error {
	if parameters == nil || parameters.SourceRelation == nil || parameters.TargetRelation == nil {
		return helper.NewError(
			"validate parameters",
			fmt.Errorf("%w: parameters with source and target relation must be given", helper.ErrInvalidInput),
		)
	}
	err := parameters.SourceRelation.Validate()
	if err != nil {
		return err
	}
	return parameters.TargetRelation.Validate()
}

// randomResult synthesizes a result with weighted random votes, used when
// model querying is switched off. Every pair gets three votes drawn with
// weights no > unknown > yes, attached to a stub answer.
func (m *Matcher) randomResult(parameters *model.Parameters) (*model.Result, error) {
	result := model.NewEmptyResult(parameters)

	for _, pair := range result.Pairs {
		for i := 0; i < 3; i++ {
			answer := &model.Answer{
				Attributes: model.PromptAttributePair{
					Sources: []*model.Attribute{pair.Attributes.Source},
					Targets: []*model.Attribute{pair.Attributes.Target},
				},
				Text:  "testing",
				Index: 1,
				Valid: true,
				Meta:  model.Meta{},
			}
			pair.Votes = append(pair.Votes, model.Decision{
				Vote:        randomVote(),
				Explanation: "Testing",
				Answer:      answer,
			})
		}
	}

	result.Name = m.nextExperimentName()
	return result, nil
}

// randomVote draws from the fixed weights yes:1, no:5, unknown:2.
func randomVote() model.Vote {
	switch draw := rand.Intn(8); {
	case draw < 1:
		return model.VoteYes
	case draw < 6:
		return model.VoteNo
	}
	return model.VoteUnknown
}

// nextExperimentName returns the next sequential experiment label.
func (m *Matcher) nextExperimentName() string {
	return fmt.Sprintf("Experiment %d", m.experiment.Add(1))
}
