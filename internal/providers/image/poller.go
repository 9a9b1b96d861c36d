package image

import (
	"context"
	"time"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra"
)

// JobStatus is the normalised state of a remote generation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further polling is needed.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is the provider-agnostic view of a submitted job.
type Job struct {
	ID        string
	Status    JobStatus
	OutputURL string
	Error     string
	// PollURL is where the next status check goes. Empty means the adapter
	// derives it from ID.
	PollURL string
}

// PollConfig bounds the status loop of a polling adapter.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig waits 2s between checks for up to 30 checks.
var DefaultPollConfig = PollConfig{Interval: 2 * time.Second, MaxAttempts: 30}

func (p PollConfig) withDefaults() PollConfig {
	if p.Interval <= 0 {
		p.Interval = DefaultPollConfig.Interval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPollConfig.MaxAttempts
	}
	return p
}

// statusFunc fetches the current state of job.
type statusFunc func(ctx context.Context, job Job) (Job, error)

// poller drives the submit-then-poll state machine shared by polling adapters.
type poller struct {
	provider string
	config   PollConfig
	logger   *infra.Logger
}

// wait returns once job is terminal. Each status check is preceded by one
// interval; the wait ends early when ctx is done.
func (p poller) wait(ctx context.Context, job Job, check statusFunc) (Job, error) {
	if job.Status.Terminal() {
		return job, nil
	}
	timer := time.NewTimer(p.config.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return job, &imagegen.CancellationError{Provider: p.provider, Err: ctx.Err()}
		case <-timer.C:
		}

		next, err := check(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				return job, &imagegen.CancellationError{Provider: p.provider, Err: ctx.Err()}
			}
			return job, err
		}
		if next.ID == "" {
			next.ID = job.ID
		}
		if next.PollURL == "" {
			next.PollURL = job.PollURL
		}
		job = next
		p.logger.Debug().
			Str("provider", p.provider).
			Str("job_id", job.ID).
			Str("status", string(job.Status)).
			Int("attempt", attempt).
			Msg("polled image job")
		if job.Status.Terminal() {
			return job, nil
		}
		timer.Reset(p.config.Interval)
	}

	return job, &imagegen.TimeoutError{
		Provider: p.provider,
		JobID:    job.ID,
		Attempts: p.config.MaxAttempts,
		Interval: p.config.Interval,
	}
}
