package image

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra/credentials"
)

const (
	StabilityName = "stability"

	defaultStabilityBaseURL = "https://api.stability.ai"
	defaultStabilityModel   = "ultra"
)

// Stability calls the Stable Image API, which answers with the image bytes.
type Stability struct {
	client
}

func NewStability(opts Options) *Stability {
	return &Stability{client: newClient(StabilityName, credentials.KeyStability, opts, defaultStabilityBaseURL, defaultStabilityModel)}
}

// Generate fulfils imagegen.Generator.
func (s *Stability) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	if err := s.requireKey(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, field := range [][2]string{{"prompt", req.Prompt}, {"output_format", "webp"}} {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return nil, s.providerError(0, "encode form: %s", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, s.providerError(0, "encode form: %s", err)
	}

	endpoint := s.baseURL + "/v2beta/stable-image/generate/" + s.model
	httpReq, err := s.newRequest(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Accept", "image/*")

	data, header, err := s.do(httpReq)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("provider", s.name).Int("bytes", len(data)).Msg("image received")
	return []imagegen.Image{{Data: data, MIMEType: imageMIME(header, "image/webp")}}, nil
}

var _ imagegen.Generator = (*Stability)(nil)
