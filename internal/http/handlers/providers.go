package handlers

import (
	"net/http"

	"github.com/samber/lo"

	"imagefallback/internal/imagegen"
)

type providerResponse struct {
	Name          string `json:"name"`
	CredentialKey string `json:"credential_key,omitempty"`
	Kind          string `json:"kind"`
	Available     bool   `json:"available"`
}

// Providers lists the registry in fallback order. Secrets are never shown,
// only whether they are configured.
func (a *App) Providers(w http.ResponseWriter, r *http.Request) {
	providers := lo.Map(a.Images.Providers(), func(p imagegen.ProviderStatus, _ int) providerResponse {
		return providerResponse{
			Name:          p.Name,
			CredentialKey: p.CredentialKey,
			Kind:          string(p.Mode),
			Available:     p.Available,
		}
	})
	a.json(w, http.StatusOK, map[string]any{"providers": providers})
}
