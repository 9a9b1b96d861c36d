package credentials

import (
	"testing"

	"imagefallback/internal/infra"
)

func TestStoreIgnoresBlankTokens(t *testing.T) {
	store := NewStore(map[string]string{
		KeyStability: "  sk-test  ",
		KeyXAI:       "   ",
	})

	if got := store.Token(KeyStability); got != "sk-test" {
		t.Fatalf("unexpected token: %q", got)
	}
	if store.HasCredential(KeyXAI) {
		t.Fatalf("blank token must not count as a credential")
	}
	if store.HasCredential(KeyReplicate) {
		t.Fatalf("missing token must not count as a credential")
	}
}

func TestStoreCopiesInput(t *testing.T) {
	tokens := map[string]string{KeyBFL: "bfl"}
	store := NewStore(tokens)
	delete(tokens, KeyBFL)

	if !store.HasCredential(KeyBFL) {
		t.Fatalf("store must not observe later changes to its input")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &infra.Config{ReplicateAPIToken: "r8_token", HuggingFaceAPIKey: ""}
	store := FromConfig(cfg)

	if !store.HasCredential(KeyReplicate) {
		t.Fatalf("expected replicate credential")
	}
	if store.HasCredential(KeyHuggingFace) {
		t.Fatalf("unexpected huggingface credential")
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if store.HasCredential(KeyStability) {
		t.Fatalf("nil store must report no credentials")
	}
}
