package imagegen

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/samber/lo"
	"pgregory.net/rapid"
)

func TestRunOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "providers")
		// succeedAt == n means every provider fails.
		succeedAt := rapid.IntRange(0, n).Draw(t, "succeedAt")

		stubs := make([]*stubGenerator, n)
		providers := make([]Descriptor, n)
		for i := range stubs {
			stub := &stubGenerator{images: []Image{{Data: []byte{byte(i)}}}}
			if i < succeedAt {
				stub.err = &ProviderError{Provider: fmt.Sprintf("p%d", i), Message: fmt.Sprintf("failure %d", i)}
				stub.images = nil
			}
			stubs[i] = stub
			providers[i] = descriptor(fmt.Sprintf("p%d", i), stub)
		}

		result, err := NewDriver(nil, nil).Run(context.Background(), providers, Request{Prompt: "prop"})

		for i, stub := range stubs {
			want := 0
			if i <= succeedAt {
				want = 1
			}
			if stub.Calls() != want {
				t.Fatalf("provider %d called %d times, want %d", i, stub.Calls(), want)
			}
		}

		if succeedAt < n {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Provider != fmt.Sprintf("p%d", succeedAt) {
				t.Fatalf("result from %s, want p%d", result.Provider, succeedAt)
			}
			return
		}

		var failed *AllProvidersFailedError
		if !errors.As(err, &failed) {
			t.Fatalf("expected AllProvidersFailedError, got %v", err)
		}
		if len(failed.Attempts) != n {
			t.Fatalf("got %d attempts, want %d", len(failed.Attempts), n)
		}
		for i, attempt := range failed.Attempts {
			if attempt.Provider != fmt.Sprintf("p%d", i) {
				t.Fatalf("attempt %d is %s", i, attempt.Provider)
			}
		}
	})
}

func TestSelectProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "providers")
		registry := make([]Descriptor, n)
		creds := CredentialSet{}
		for i := range registry {
			registry[i] = Descriptor{Name: fmt.Sprintf("p%d", i)}
			switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("cred%d", i)) {
			case 0:
				registry[i].CredentialKey = fmt.Sprintf("KEY_%d", i)
				creds[registry[i].CredentialKey] = true
			case 1:
				registry[i].CredentialKey = fmt.Sprintf("KEY_%d", i)
			}
		}
		preferred := fmt.Sprintf("p%d", rapid.IntRange(0, 9).Draw(t, "preferred"))

		got := Select(registry, preferred, creds)

		for _, d := range got {
			if d.CredentialKey != "" && !creds[d.CredentialKey] {
				t.Fatalf("%s selected without credential", d.Name)
			}
		}
		pref, known := Lookup(registry, preferred)
		rest := got
		if known && available(pref, creds) {
			if len(got) == 0 || got[0].Name != preferred {
				t.Fatalf("preferred %s not first in %v", preferred, names(got))
			}
			rest = got[1:]
		}
		want := lo.Filter(registry, func(d Descriptor, _ int) bool {
			return d.Name != preferred && available(d, creds)
		})
		if !slices.Equal(names(rest), names(want)) {
			t.Fatalf("relative order broken: got %v want %v", names(rest), names(want))
		}
	})
}
