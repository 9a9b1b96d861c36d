package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra"
)

// ImageService is the part of imagegen.Service the handlers depend on.
type ImageService interface {
	GenerateImage(ctx context.Context, req imagegen.Request) (*imagegen.Result, error)
	Providers() []imagegen.ProviderStatus
	Known(name string) bool
}

type App struct {
	Images ImageService
	Logger *infra.Logger
	// GenerateTimeout bounds one generation so the response is written
	// before the server's write deadline. Zero disables it.
	GenerateTimeout time.Duration
}

func NewApp(images ImageService, logger *infra.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &App{Images: images, Logger: logger}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}
