package image

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"imagefallback/internal/imagegen"
)

const (
	PollinationsName = "pollinations"

	defaultPollinationsBaseURL = "https://image.pollinations.ai"
)

// Pollinations is the free fallback. It needs no credential.
type Pollinations struct {
	client
	seed func() int
}

func NewPollinations(opts Options) *Pollinations {
	return &Pollinations{
		client: newClient(PollinationsName, "", opts, defaultPollinationsBaseURL, ""),
		seed:   func() int { return rand.Intn(1_000_000) },
	}
}

// Generate fulfils imagegen.Generator.
func (p *Pollinations) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	query := url.Values{}
	query.Set("width", "1024")
	query.Set("height", "1024")
	query.Set("nologo", "true")
	query.Set("seed", strconv.Itoa(p.seed()))
	if p.model != "" {
		query.Set("model", p.model)
	}
	endpoint := p.baseURL + "/prompt/" + url.PathEscape(req.Prompt) + "?" + query.Encode()

	httpReq, err := p.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	data, header, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}
	return []imagegen.Image{{Data: data, MIMEType: imageMIME(header, "image/jpeg")}}, nil
}

var _ imagegen.Generator = (*Pollinations)(nil)
