package image

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra/credentials"
)

const (
	FluxName = "flux"

	defaultFluxBaseURL = "https://api.bfl.ai"
	defaultFluxModel   = "flux-pro-1.1"
)

// Flux generates images with Black Forest Labs. Tasks are submitted and then
// polled through the returned polling URL.
type Flux struct {
	client
	poll PollConfig
}

type fluxRequest struct {
	Prompt       string `json:"prompt"`
	AspectRatio  string `json:"aspect_ratio,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

type fluxResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PollingURL string `json:"polling_url"`
	Result     *struct {
		Sample string `json:"sample"`
	} `json:"result"`
	Details json.RawMessage `json:"details"`
}

func NewFlux(opts Options) *Flux {
	return &Flux{
		client: newClient(FluxName, credentials.KeyBFL, opts, defaultFluxBaseURL, defaultFluxModel),
		poll:   opts.Poll.withDefaults(),
	}
}

// Generate fulfils imagegen.Generator.
func (f *Flux) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	if err := f.requireKey(); err != nil {
		return nil, err
	}

	job, err := f.submit(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	p := poller{provider: f.name, config: f.poll, logger: f.logger}
	job, err = p.wait(ctx, job, f.status)
	if err != nil {
		return nil, err
	}
	if job.Status == JobFailed {
		return nil, f.providerError(0, "image generation failed: %s", job.Error)
	}
	if job.OutputURL == "" {
		return nil, f.providerError(0, "no image url in response")
	}
	img, err := f.download(ctx, job.OutputURL, "image/jpeg")
	if err != nil {
		return nil, err
	}
	return []imagegen.Image{img}, nil
}

func (f *Flux) submit(ctx context.Context, prompt string) (Job, error) {
	body, err := json.Marshal(fluxRequest{Prompt: prompt, AspectRatio: "1:1", OutputFormat: "jpeg"})
	if err != nil {
		return Job{}, f.providerError(0, "encode request: %s", err)
	}
	httpReq, err := f.newRequest(ctx, http.MethodPost, f.baseURL+"/v1/"+f.model, bytes.NewReader(body))
	if err != nil {
		return Job{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-key", f.apiKey)

	var resp fluxResponse
	if err := f.doJSON(httpReq, &resp); err != nil {
		return Job{}, err
	}
	if resp.ID == "" && resp.PollingURL == "" {
		return Job{}, f.providerError(0, "task id missing in response")
	}
	job := resp.job()
	if job.PollURL == "" {
		job.PollURL = f.baseURL + "/v1/get_result?id=" + url.QueryEscape(job.ID)
	}
	return job, nil
}

func (f *Flux) status(ctx context.Context, job Job) (Job, error) {
	httpReq, err := f.newRequest(ctx, http.MethodGet, job.PollURL, nil)
	if err != nil {
		return job, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-key", f.apiKey)

	var resp fluxResponse
	if err := f.doJSON(httpReq, &resp); err != nil {
		return job, err
	}
	return resp.job(), nil
}

func (r fluxResponse) job() Job {
	job := Job{ID: r.ID, PollURL: strings.TrimSpace(r.PollingURL)}
	status := strings.TrimSpace(r.Status)
	switch {
	case status == "Ready":
		job.Status = JobSucceeded
		if r.Result != nil {
			job.OutputURL = strings.TrimSpace(r.Result.Sample)
		}
	case status == "Error" || status == "Failed" || status == "Task not found" || strings.HasSuffix(status, "Moderated"):
		job.Status = JobFailed
		job.Error = status
		if detail := rawText(r.Details); detail != "" {
			job.Error += ": " + detail
		}
	default:
		job.Status = JobPending
	}
	return job
}

var _ imagegen.Generator = (*Flux)(nil)
