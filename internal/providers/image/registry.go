package image

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra"
	"imagefallback/internal/infra/credentials"
)

type factory struct {
	name  string
	key   string
	mode  imagegen.Mode
	build func(Options) imagegen.Generator
}

// builtins is the default fallback order: paid direct providers, then the
// polling ones, then the free provider last.
var builtins = []factory{
	{StabilityName, credentials.KeyStability, imagegen.ModeDirect, func(o Options) imagegen.Generator { return NewStability(o) }},
	{XAIName, credentials.KeyXAI, imagegen.ModeDirect, func(o Options) imagegen.Generator { return NewXAI(o) }},
	{ReplicateName, credentials.KeyReplicate, imagegen.ModePolling, func(o Options) imagegen.Generator { return NewReplicate(o) }},
	{FluxName, credentials.KeyBFL, imagegen.ModePolling, func(o Options) imagegen.Generator { return NewFlux(o) }},
	{HuggingFaceName, credentials.KeyHuggingFace, imagegen.ModeDirect, func(o Options) imagegen.Generator { return NewHuggingFace(o) }},
	{PollinationsName, "", imagegen.ModeDirect, func(o Options) imagegen.Generator { return NewPollinations(o) }},
}

// Names returns the built-in provider names in default order.
func Names() []string {
	return lo.Map(builtins, func(f factory, _ int) string { return f.name })
}

// NewRegistry builds the ordered provider registry. Providers listed in
// cfg.Providers come first in file order; the rest keep the built-in order.
func NewRegistry(cfg *infra.Config, store *credentials.Store, logger *infra.Logger) ([]imagegen.Descriptor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("image registry: config is required")
	}
	overrides := lo.KeyBy(cfg.Providers, func(o infra.ProviderOverride) string {
		return strings.ToLower(strings.TrimSpace(o.Name))
	})

	ordered := make([]factory, 0, len(builtins))
	seen := make(map[string]bool, len(cfg.Providers))
	for _, o := range cfg.Providers {
		name := strings.ToLower(strings.TrimSpace(o.Name))
		if seen[name] {
			return nil, fmt.Errorf("image registry: provider %q listed more than once", o.Name)
		}
		seen[name] = true
		f, ok := lo.Find(builtins, func(f factory) bool { return f.name == name })
		if !ok {
			return nil, fmt.Errorf("image registry: unknown provider %q (known: %s)", o.Name, strings.Join(Names(), ", "))
		}
		ordered = append(ordered, f)
	}
	ordered = append(ordered, lo.Reject(builtins, func(f factory, _ int) bool {
		_, listed := overrides[f.name]
		return listed
	})...)

	registry := make([]imagegen.Descriptor, 0, len(ordered))
	for _, f := range ordered {
		opts := Options{
			APIKey:  store.Token(f.key),
			Timeout: cfg.ProviderHTTPTimeout,
			Logger:  logger,
			Poll:    PollConfig{Interval: cfg.PollInterval, MaxAttempts: cfg.PollMaxAttempts},
		}
		if o, ok := overrides[f.name]; ok {
			if o.Enabled != nil && !*o.Enabled {
				continue
			}
			opts.BaseURL = o.BaseURL
			opts.Model = o.Model
			if o.PollInterval != nil {
				opts.Poll.Interval = *o.PollInterval
			}
			if o.MaxAttempts != nil {
				opts.Poll.MaxAttempts = *o.MaxAttempts
			}
		}
		registry = append(registry, imagegen.Descriptor{
			Name:          f.name,
			CredentialKey: f.key,
			Mode:          f.mode,
			Generator:     f.build(opts),
		})
	}
	return registry, nil
}
