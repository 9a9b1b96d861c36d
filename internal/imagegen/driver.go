package imagegen

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"imagefallback/internal/infra"
)

// Outcome labels a finished attempt or call for metrics.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeFailure     Outcome = "failure"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeCanceled    Outcome = "canceled"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeInvalid     Outcome = "invalid"
)

// Recorder receives attempt and call outcomes. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ObserveAttempt(provider string, outcome Outcome, elapsed time.Duration)
	ObserveCall(outcome Outcome)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, Outcome, time.Duration) {}
func (nopRecorder) ObserveCall(Outcome) {}

// Driver walks an ordered provider list until one succeeds.
type Driver struct {
	logger   *infra.Logger
	recorder Recorder
}

// NewDriver returns a Driver. A nil logger discards output and a nil recorder
// drops metrics.
func NewDriver(logger *infra.Logger, recorder Recorder) *Driver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Driver{logger: logger, recorder: recorder}
}

// Run tries each provider in order. Providers are invoked strictly one at a
// time; the first success is returned and nothing after it is called. A done
// context stops the walk with a *CancellationError before the next attempt.
func (d *Driver) Run(ctx context.Context, providers []Descriptor, req Request) (*Result, error) {
	if len(providers) == 0 {
		d.logger.Error().Msg("no image generation provider is configured")
		return nil, &ConfigurationError{Err: ErrNoProviderAvailable}
	}

	attempts := make([]AttemptFailure, 0, len(providers))
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return nil, &CancellationError{Err: err}
		}

		d.logger.Info().Str("provider", p.Name).Msg("attempting provider")
		start := time.Now()
		images, err := p.Generator.Generate(ctx, req)
		elapsed := time.Since(start)

		if err == nil {
			d.recorder.ObserveAttempt(p.Name, OutcomeSuccess, elapsed)
			if images == nil {
				images = []Image{}
			}
			d.logger.Info().
				Str("provider", p.Name).
				Int("images", len(images)).
				Dur("elapsed", elapsed).
				Msg("image generation succeeded")
			return &Result{Provider: p.Name, Images: images}, nil
		}

		if canceled(ctx, err) {
			d.recorder.ObserveAttempt(p.Name, OutcomeCanceled, elapsed)
			return nil, cancellation(ctx, p.Name, err)
		}

		failure := AttemptFailure{
			Provider: p.Name,
			Message:  failureMessage(err),
			Err:      err,
			Elapsed:  elapsed,
		}
		failure.Class = Classify(failure.Message)
		attempts = append(attempts, failure)

		outcome := OutcomeFailure
		if errors.Is(err, ErrGenerationTimeout) {
			outcome = OutcomeTimeout
		}
		d.recorder.ObserveAttempt(p.Name, outcome, elapsed)
		d.logger.Warn().
			Err(err).
			Str("provider", p.Name).
			Str("class", string(failure.Class)).
			Dur("elapsed", elapsed).
			Msg("provider failed, trying next")
	}

	aggregate := newAllProvidersFailedError(attempts)
	d.logger.Error().
		Int("attempts", len(attempts)).
		Str("class", string(aggregate.Class())).
		Msg("all image generation providers failed")
	return nil, aggregate
}

func canceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var cancelErr *CancellationError
	return errors.As(err, &cancelErr) || errors.Is(err, context.Canceled)
}

func cancellation(ctx context.Context, provider string, err error) *CancellationError {
	var cancelErr *CancellationError
	if errors.As(err, &cancelErr) {
		out := *cancelErr
		if out.Provider == "" {
			out.Provider = provider
		}
		return &out
	}
	cause := ctx.Err()
	if cause == nil {
		cause = err
	}
	return &CancellationError{Provider: provider, Err: cause}
}
