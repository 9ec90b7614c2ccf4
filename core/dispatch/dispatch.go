package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/matcher/database"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Config tunes the dispatch engine's retry and concurrency behavior.
type Config struct {
	// MaxParallelRequests is the global concurrency ceiling for in-flight
	// completion calls across all prompts.
	MaxParallelRequests int
	// MaxPromptAttempts is the ceiling of completion calls per prompt in the
	// retry-until-enough-valid-answers loop.
	MaxPromptAttempts int
	// MaxRequestAttempts is the ceiling of network attempts per completion
	// call for transient provider failures.
	MaxRequestAttempts int
	// BackoffInitial and BackoffMax bound the jittered wait between network
	// attempts. The wide default window mainly calms rate limiting.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// DefaultConfig returns the default retry and concurrency settings.
func DefaultConfig() Config {
	return Config{
		MaxParallelRequests: 5,
		MaxPromptAttempts:   5,
		MaxRequestAttempts:  3,
		BackoffInitial:      15 * time.Second,
		BackoffMax:          45 * time.Second,
	}
}

// Dispatcher resolves prompts to valid answers against the completion
// endpoint, persisting every attempt.
type Dispatcher struct {
	client CompletionClient
	store  *database.Store
	config Config
	log    *slog.Logger
}

// NewDispatcher creates a dispatch engine.
func NewDispatcher(client CompletionClient, store *database.Store, config Config, logger *slog.Logger) *Dispatcher {
	if config.MaxParallelRequests <= 0 {
		config.MaxParallelRequests = 1
	}
	return &Dispatcher{
		client: client,
		store:  store,
		config: config,
		log:    logger,
	}
}

// SendPrompts resolves every prompt concurrently under the shared semaphore
// and returns the chained valid answers of all prompts. All prompt tasks run
// in one structured group: an unhandled failure in any task cancels the rest
// and surfaces as a single aggregated failure for the whole stage.
func (d *Dispatcher) SendPrompts(ctx context.Context, prompts []*model.Prompt) ([]*model.Answer, error) {
	sem := semaphore.NewWeighted(int64(d.config.MaxParallelRequests))
	group, groupCtx := errgroup.WithContext(ctx)

	answersPerPrompt := make([][]*model.Answer, len(prompts))
	for i, prompt := range prompts {
		i, prompt := i, prompt
		group.Go(func() error {
			answers, err := d.processPrompt(groupCtx, sem, prompt)
			if err != nil {
				return err
			}
			answersPerPrompt[i] = answers
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, helper.NewError("dispatch prompts", err)
	}

	var answers []*model.Answer
	for _, promptAnswers := range answersPerPrompt {
		answers = append(answers, promptAnswers...)
	}
	return answers, nil
}

// processPrompt resolves one prompt to its requested number of valid
// answers. Previously stored valid answers are counted first so resuming a
// partially-completed prompt does not re-request more completions than still
// needed. Once the attempt ceiling is reached the accumulated valid answers
// are returned as they are, a deliberate best-effort policy.
func (d *Dispatcher) processPrompt(ctx context.Context, sem *semaphore.Weighted, prompt *model.Prompt) ([]*model.Answer, error) {
	validAnswers, err := d.store.GetAnswersByPrompt(prompt, true)
	if err != nil {
		// Resume data is an optimization, not a requirement.
		d.log.Warn("Could not load stored answers", slog.String("prompt", prompt.Meta.Path()), slog.Any("error", err))
		validAnswers = nil
	}

	requested := prompt.Request.N
	outstanding := requested - len(validAnswers)

	for attempt := 0; attempt < d.config.MaxPromptAttempts && outstanding > 0; attempt++ {
		request := prompt.Request
		request.N = outstanding

		completion, err := d.completeWithRetry(ctx, sem, request)
		if err != nil {
			if !IsRetryable(err) {
				return nil, helper.NewError("completion call", err)
			}
			// Transient failure even after the network retry budget. The
			// prompt loop keeps going until its own ceiling.
			d.log.Warn("Completion call failed transiently",
				slog.String("prompt", prompt.Meta.Path()),
				slog.Int("attempt", attempt+1),
				slog.Any("error", err))
			continue
		}

		err = d.store.StoreChatCompletion(completion, prompt.Meta.Path())
		if err != nil {
			d.log.Warn("Could not store chat completion", slog.String("completion", completion.ID), slog.Any("error", err))
		}

		for _, choice := range completion.Choices {
			answer := &model.Answer{
				Attributes: prompt.Attributes,
				Text:       choice.Message.Content,
				Index:      choice.Index,
				Meta:       model.Meta{},
			}
			if IsValidAnswer(answer) {
				answer.Valid = true
				validAnswers = append(validAnswers, answer)
				outstanding--
			}

			_, err := d.store.StoreAnswer(answer, prompt.Meta.Path(), completion.ID)
			if err != nil {
				d.log.Warn("Could not store answer", slog.String("prompt", prompt.Meta.Path()), slog.Any("error", err))
			}
		}
	}

	if outstanding > 0 {
		d.log.Warn("Prompt resolved with fewer valid answers than requested",
			slog.String("prompt", prompt.Meta.Path()),
			slog.Int("requested", requested),
			slog.Int("valid", len(validAnswers)))
	}

	if len(validAnswers) > requested {
		validAnswers = validAnswers[:requested]
	}
	return validAnswers, nil
}

// completeWithRetry performs one completion call with a jittered backoff
// retry budget for transient provider failures. The shared semaphore is held
// across the whole call including its retries, like one logical request.
func (d *Dispatcher) completeWithRetry(ctx context.Context, sem *semaphore.Weighted, request model.CompletionRequest) (*model.ChatCompletion, error) {
	err := sem.Acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer sem.Release(1)

	exponential := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(d.config.BackoffInitial),
		backoff.WithMaxInterval(d.config.BackoffMax),
		backoff.WithRandomizationFactor(0.5),
	)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(exponential, uint64(d.config.MaxRequestAttempts-1)),
		ctx,
	)

	var completion *model.ChatCompletion
	err = backoff.Retry(func() error {
		var err error
		completion, err = d.client.Complete(ctx, request)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err != nil {
		return nil, err
	}

	return completion, nil
}
