package imagegen

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"imagefallback/internal/infra"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Registry    []Descriptor
	Credentials Credentials
	Logger      *infra.Logger
	Recorder    Recorder
}

// Service is the entry point used by callers that want one image generated
// with automatic fallback across the configured providers.
type Service struct {
	registry []Descriptor
	creds    Credentials
	logger   zerolog.Logger
	recorder Recorder
}

// ProviderStatus describes one registry entry for listings.
type ProviderStatus struct {
	Name          string
	CredentialKey string
	Mode          Mode
	Available     bool
}

func NewService(opts ServiceOptions) *Service {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	registry := make([]Descriptor, len(opts.Registry))
	copy(registry, opts.Registry)
	return &Service{
		registry: registry,
		creds:    opts.Credentials,
		logger:   logger,
		recorder: recorder,
	}
}

// GenerateImage selects the candidate providers for req and runs them in
// order until one returns images.
func (s *Service) GenerateImage(ctx context.Context, req Request) (*Result, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		s.observe(ErrInvalidPrompt)
		return nil, ErrInvalidPrompt
	}
	req.Provider = strings.TrimSpace(req.Provider)

	logger := s.logger.With().Str("generation_id", uuid.NewString()).Logger()

	candidates := Select(s.registry, req.Provider, s.creds)
	if req.Provider != "" {
		if d, ok := Lookup(s.registry, req.Provider); ok && !available(d, s.creds) {
			logger.Warn().
				Str("provider", d.Name).
				Str("credential", d.CredentialKey).
				Msg("preferred provider has no credential, skipping")
		}
	}

	result, err := NewDriver(&logger, s.recorder).Run(ctx, candidates, req)
	s.observe(err)
	return result, err
}

// Providers lists the registry in order with current availability.
func (s *Service) Providers() []ProviderStatus {
	return lo.Map(s.registry, func(d Descriptor, _ int) ProviderStatus {
		return ProviderStatus{
			Name:          d.Name,
			CredentialKey: d.CredentialKey,
			Mode:          d.Mode,
			Available:     available(d, s.creds),
		}
	})
}

// Known reports whether name is a registered provider.
func (s *Service) Known(name string) bool {
	_, ok := Lookup(s.registry, name)
	return ok
}

func (s *Service) observe(err error) {
	var (
		failed   *AllProvidersFailedError
		canceled *CancellationError
	)
	switch {
	case err == nil:
		s.recorder.ObserveCall(OutcomeSuccess)
	case errors.As(err, &failed):
		s.recorder.ObserveCall(OutcomeFailure)
	case errors.As(err, &canceled):
		s.recorder.ObserveCall(OutcomeCanceled)
	case errors.Is(err, ErrNoProviderAvailable):
		s.recorder.ObserveCall(OutcomeUnavailable)
	case errors.Is(err, ErrInvalidPrompt):
		s.recorder.ObserveCall(OutcomeInvalid)
	}
}
