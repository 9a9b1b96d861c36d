package imagegen

import (
	"strings"

	"github.com/samber/lo"
)

// Select orders the registry for one call. A matching preferred provider is
// moved to the front with the rest keeping their relative order; afterwards
// providers whose credential is absent are dropped. Filtering runs after
// reordering, so an unavailable preferred provider simply disappears.
func Select(registry []Descriptor, preferred string, creds Credentials) []Descriptor {
	ordered := make([]Descriptor, 0, len(registry))
	preferred = strings.TrimSpace(preferred)
	if idx := indexOf(registry, preferred); idx >= 0 {
		ordered = append(ordered, registry[idx])
		ordered = append(ordered, registry[:idx]...)
		ordered = append(ordered, registry[idx+1:]...)
	} else {
		ordered = append(ordered, registry...)
	}
	return lo.Filter(ordered, func(d Descriptor, _ int) bool {
		return available(d, creds)
	})
}

// Lookup returns the registry entry with the given name.
func Lookup(registry []Descriptor, name string) (Descriptor, bool) {
	return lo.Find(registry, func(d Descriptor) bool { return d.Name == strings.TrimSpace(name) })
}

func indexOf(registry []Descriptor, name string) int {
	if name == "" {
		return -1
	}
	_, idx, ok := lo.FindIndexOf(registry, func(d Descriptor) bool { return d.Name == name })
	if !ok {
		return -1
	}
	return idx
}

func available(d Descriptor, creds Credentials) bool {
	if d.CredentialKey == "" {
		return true
	}
	if creds == nil {
		return false
	}
	return creds.HasCredential(d.CredentialKey)
}
