package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra/credentials"
)

const (
	XAIName = "xai"

	defaultXAIBaseURL = "https://api.x.ai/v1"
	defaultXAIModel   = "grok-2-image"
)

// XAI calls the OpenAI-compatible image endpoint of xAI.
type XAI struct {
	client
}

type xaiRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type xaiResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

func NewXAI(opts Options) *XAI {
	return &XAI{client: newClient(XAIName, credentials.KeyXAI, opts, defaultXAIBaseURL, defaultXAIModel)}
}

// Generate fulfils imagegen.Generator. Entries are returned in response order;
// URL entries are fetched once each.
func (x *XAI) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	if err := x.requireKey(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(xaiRequest{Model: x.model, Prompt: req.Prompt, N: 1, ResponseFormat: "b64_json"})
	if err != nil {
		return nil, x.providerError(0, "encode request: %s", err)
	}
	httpReq, err := x.newRequest(ctx, http.MethodPost, x.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+x.apiKey)

	var decoded xaiResponse
	if err := x.doJSON(httpReq, &decoded); err != nil {
		return nil, err
	}

	images := make([]imagegen.Image, 0, len(decoded.Data))
	for idx, entry := range decoded.Data {
		if encoded := strings.TrimSpace(entry.B64JSON); encoded != "" {
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, x.providerError(0, "decode image %d: %s", idx, err)
			}
			images = append(images, imagegen.Image{Data: data, MIMEType: "image/jpeg"})
			continue
		}
		if link := strings.TrimSpace(entry.URL); link != "" {
			img, err := x.download(ctx, link, "image/jpeg")
			if err != nil {
				return nil, err
			}
			images = append(images, img)
		}
	}
	return images, nil
}

var _ imagegen.Generator = (*XAI)(nil)
