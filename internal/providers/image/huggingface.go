package image

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra/credentials"
)

const (
	HuggingFaceName = "huggingface"

	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	defaultHuggingFaceModel   = "black-forest-labs/FLUX.1-schnell"
)

// HuggingFace calls the serverless inference API of a text-to-image model.
type HuggingFace struct {
	client
}

func NewHuggingFace(opts Options) *HuggingFace {
	return &HuggingFace{client: newClient(HuggingFaceName, credentials.KeyHuggingFace, opts, defaultHuggingFaceBaseURL, defaultHuggingFaceModel)}
}

// Generate fulfils imagegen.Generator.
func (h *HuggingFace) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	if err := h.requireKey(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"inputs": req.Prompt})
	if err != nil {
		return nil, h.providerError(0, "encode request: %s", err)
	}
	httpReq, err := h.newRequest(ctx, http.MethodPost, h.baseURL+"/models/"+h.model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	data, header, err := h.do(httpReq)
	if err != nil {
		return nil, err
	}
	return []imagegen.Image{{Data: data, MIMEType: imageMIME(header, "image/webp")}}, nil
}

var _ imagegen.Generator = (*HuggingFace)(nil)
