package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/middleware"
	"imagefallback/pkg/zip"
)

// StatusClientClosedRequest is the non-standard status used when the caller
// went away before generation finished.
const StatusClientClosedRequest = 499

const maxGenerateBody = 1 << 20

type imageGenerateRequest struct {
	Prompt   string             `json:"prompt"`
	Provider string             `json:"provider"`
	Messages []imagegen.Message `json:"messages"`
}

type imagePayload struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mime_type"`
}

type imageGenerateResponse struct {
	Provider string         `json:"provider"`
	Images   []imagePayload `json:"images"`
}

type attemptPayload struct {
	Provider string `json:"provider"`
	Class    string `json:"class"`
}

type generationFailedResponse struct {
	Error    string           `json:"error"`
	Message  string           `json:"message"`
	Attempts []attemptPayload `json:"attempts"`
}

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req imageGenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "invalid_prompt", "prompt is required")
		return
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider != "" && !a.Images.Known(provider) {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported provider")
		return
	}

	ctx := r.Context()
	if a.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.GenerateTimeout)
		defer cancel()
	}

	result, err := a.Images.GenerateImage(ctx, imagegen.Request{
		Prompt:   req.Prompt,
		Messages: req.Messages,
		Provider: provider,
	})
	if err != nil {
		a.generationError(w, r, err)
		return
	}

	if wantsArchive(r) {
		a.archive(w, r, result)
		return
	}

	a.json(w, http.StatusOK, imageGenerateResponse{
		Provider: result.Provider,
		Images: lo.Map(result.Images, func(img imagegen.Image, _ int) imagePayload {
			return imagePayload{Base64: img.Base64(), MIMEType: img.MIMEType}
		}),
	})
}

func (a *App) generationError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	var (
		failed   *imagegen.AllProvidersFailedError
		canceled *imagegen.CancellationError
	)
	switch {
	case errors.Is(err, imagegen.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "invalid_prompt", "prompt is required")
	case errors.Is(err, imagegen.ErrNoProviderAvailable):
		a.error(w, http.StatusServiceUnavailable, "no_provider", "no image provider is configured")
	case errors.As(err, &failed):
		a.json(w, http.StatusBadGateway, generationFailedResponse{
			Error:   string(failed.Class()),
			Message: failed.UserMessage(locale),
			Attempts: lo.Map(failed.Attempts, func(at imagegen.AttemptFailure, _ int) attemptPayload {
				return attemptPayload{Provider: at.Provider, Class: string(at.Class)}
			}),
		})
	case errors.As(err, &canceled) && r.Context().Err() == nil:
		a.Logger.Warn().
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("provider", canceled.Provider).
			Dur("budget", a.GenerateTimeout).
			Msg("image generation ran out of time")
		a.error(w, http.StatusGatewayTimeout, "timeout", imagegen.UserMessage(imagegen.ClassGeneric, locale))
	case errors.As(err, &canceled):
		a.Logger.Info().
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("provider", canceled.Provider).
			Msg("image generation canceled by client")
		a.error(w, StatusClientClosedRequest, "canceled", "request canceled")
	default:
		a.Logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("image generation failed")
		a.error(w, http.StatusInternalServerError, "internal", imagegen.UserMessage(imagegen.ClassGeneric, locale))
	}
}

func wantsArchive(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "zip") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/zip")
}

func (a *App) archive(w http.ResponseWriter, r *http.Request, result *imagegen.Result) {
	assets := lo.Map(result.Images, func(img imagegen.Image, i int) zip.Asset {
		return zip.Asset{Filename: zip.Filename(result.Provider, i+1, img.MIMEType), MIME: img.MIMEType, Data: img.Data}
	})
	data, err := zip.ArchiveAssets(assets, time.Now().UTC())
	if err != nil {
		a.Logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("archive images")
		a.error(w, http.StatusInternalServerError, "internal", "failed to archive images")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="images.zip"`)
	w.Header().Set("X-Image-Provider", result.Provider)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
