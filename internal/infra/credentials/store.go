package credentials

import (
	"strings"

	"imagefallback/internal/infra"
)

// Environment keys of the provider secrets.
const (
	KeyStability   = "STABLE_API_KEY"
	KeyXAI         = "XAI_API_KEY"
	KeyReplicate   = "REPLICATE_API_TOKEN"
	KeyBFL         = "BFL_API_KEY"
	KeyHuggingFace = "HUGGINGFACE_API_KEY"
)

// Store is an immutable view of provider secrets built once at start-up.
type Store struct {
	tokens map[string]string
}

func NewStore(tokens map[string]string) *Store {
	copied := make(map[string]string, len(tokens))
	for key, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			copied[key] = token
		}
	}
	return &Store{tokens: copied}
}

// FromConfig builds a Store from the loaded configuration.
func FromConfig(cfg *infra.Config) *Store {
	if cfg == nil {
		return NewStore(nil)
	}
	return NewStore(cfg.Credentials())
}

// Token returns the secret for key, or "" when it is not configured.
func (s *Store) Token(key string) string {
	if s == nil {
		return ""
	}
	return s.tokens[key]
}

// HasCredential reports whether key has a non-blank secret.
func (s *Store) HasCredential(key string) bool {
	return s.Token(key) != ""
}
