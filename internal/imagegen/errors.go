package imagegen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

var (
	// ErrNoProviderAvailable is returned when every provider was filtered out
	// before a single attempt could be made.
	ErrNoProviderAvailable = errors.New("no image provider available")
	// ErrInvalidPrompt rejects requests without prompt text.
	ErrInvalidPrompt = errors.New("invalid prompt")
	// ErrGenerationTimeout matches every *TimeoutError via errors.Is.
	ErrGenerationTimeout = errors.New("image generation timed out")
)

// ConfigurationError reports a missing or unusable provider configuration,
// typically an absent credential.
type ConfigurationError struct {
	Provider string
	Key      string
	Message  string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return prefixed(e.Provider, e.detail())
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) detail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Key != "" {
		return fmt.Sprintf("%s is not set", e.Key)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "provider is not configured"
}

// ProviderError is a single backend rejecting or failing a request.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	return prefixed(e.Provider, e.detail())
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) detail() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("status %d: %s", e.StatusCode, msg)
	}
	return msg
}

// TimeoutError is returned by polling adapters whose job never reached a
// terminal status within the attempt budget.
type TimeoutError struct {
	Provider string
	JobID    string
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return prefixed(e.Provider, e.detail())
}

func (e *TimeoutError) detail() string {
	msg := fmt.Sprintf("image generation timed out after %d status checks every %s", e.Attempts, e.Interval)
	if e.JobID != "" {
		msg += " (job " + e.JobID + ")"
	}
	return msg
}

// Is makes errors.Is(err, ErrGenerationTimeout) hold for every TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrGenerationTimeout
}

// CancellationError is returned as soon as the caller's context is done. It is
// never converted into an attempt failure.
type CancellationError struct {
	Provider string
	Err      error
}

func (e *CancellationError) Error() string {
	msg := "image generation canceled"
	if e.Provider != "" {
		msg += " while waiting on " + e.Provider
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "imagegen: " + msg
}

func (e *CancellationError) Unwrap() error { return e.Err }

// AttemptFailure records one failed provider invocation.
type AttemptFailure struct {
	Provider string
	Message  string
	Class    Class
	Err      error
	Elapsed  time.Duration
}

func (a AttemptFailure) Error() string {
	return a.Provider + ": " + a.Message
}

func (a AttemptFailure) Unwrap() error { return a.Err }

// AllProvidersFailedError is the terminal aggregate returned when every
// candidate provider failed. Attempts are kept in attempt order.
type AllProvidersFailedError struct {
	Attempts []AttemptFailure
	errs     *multierror.Error
}

func newAllProvidersFailedError(attempts []AttemptFailure) *AllProvidersFailedError {
	var merr *multierror.Error
	for _, attempt := range attempts {
		merr = multierror.Append(merr, attempt)
	}
	if merr != nil {
		merr.ErrorFormat = func(es []error) string {
			parts := lo.Map(es, func(err error, _ int) string { return err.Error() })
			return "imagegen: all image generation providers failed: " + strings.Join(parts, "; ")
		}
	}
	return &AllProvidersFailedError{Attempts: attempts, errs: merr}
}

func (e *AllProvidersFailedError) Error() string {
	if e.errs == nil {
		return "imagegen: all image generation providers failed"
	}
	return e.errs.Error()
}

// Unwrap exposes every attempt so errors.Is/As can reach adapter errors.
func (e *AllProvidersFailedError) Unwrap() []error {
	if e.errs == nil {
		return nil
	}
	return e.errs.WrappedErrors()
}

// Class classifies the union of all attempt messages.
func (e *AllProvidersFailedError) Class() Class {
	messages := lo.Map(e.Attempts, func(a AttemptFailure, _ int) string { return a.Message })
	return Classify(strings.Join(messages, "; "))
}

// UserMessage returns the presentable message for the aggregate failure in the
// requested locale. Vendor error text is never included.
func (e *AllProvidersFailedError) UserMessage(locale string) string {
	return UserMessage(e.Class(), locale)
}

// failureMessage extracts the provider-less message of an adapter error.
func failureMessage(err error) string {
	var (
		cfgErr     *ConfigurationError
		providerEr *ProviderError
		timeoutErr *TimeoutError
	)
	switch {
	case errors.As(err, &providerEr):
		return providerEr.detail()
	case errors.As(err, &timeoutErr):
		return timeoutErr.detail()
	case errors.As(err, &cfgErr):
		return cfgErr.detail()
	default:
		return err.Error()
	}
}

func prefixed(provider, msg string) string {
	if provider == "" {
		provider = "imagegen"
	}
	return provider + ": " + msg
}
