package imagegen

import (
	"context"
	"encoding/base64"
)

// Message is one turn of the conversation that led to the image request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single logical image generation call.
type Request struct {
	Prompt   string
	Messages []Message
	// Provider names the caller's preferred backend. Empty means registry order.
	Provider string
}

// Image is one generated payload. The bytes are never inspected.
type Image struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Result is returned exactly once per successful call.
type Result struct {
	Provider string
	Images   []Image
}

// Generator is the contract implemented by every provider adapter.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Image, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) ([]Image, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) ([]Image, error) {
	return f(ctx, req)
}

// Mode is the completion model of a provider.
type Mode string

const (
	ModeDirect  Mode = "direct"
	ModePolling Mode = "polling"
)

// Descriptor is a static registry entry. CredentialKey is the environment key the
// provider needs; an empty key means the provider is always available.
type Descriptor struct {
	Name          string
	CredentialKey string
	Mode          Mode
	Generator     Generator
}

// Credentials reports whether a credential key is configured.
type Credentials interface {
	HasCredential(key string) bool
}

// CredentialSet is a static Credentials implementation, mostly useful in tests.
type CredentialSet map[string]bool

// HasCredential reports whether key is present and marked available.
func (s CredentialSet) HasCredential(key string) bool {
	return s[key]
}
