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
	ReplicateName = "replicate"

	defaultReplicateBaseURL = "https://api.replicate.com/v1"
	defaultReplicateModel   = "google/imagen-4"
)

// Replicate generates images through Replicate's predictions API. A
// prediction is created and then polled until it settles.
type Replicate struct {
	client
	poll PollConfig
}

type replicateInput struct {
	Prompt        string `json:"prompt"`
	OutputFormat  string `json:"output_format"`
	OutputQuality int    `json:"output_quality"`
	AspectRatio   string `json:"aspect_ratio"`
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

func NewReplicate(opts Options) *Replicate {
	return &Replicate{
		client: newClient(ReplicateName, credentials.KeyReplicate, opts, defaultReplicateBaseURL, defaultReplicateModel),
		poll:   opts.Poll.withDefaults(),
	}
}

// Generate fulfils imagegen.Generator.
func (r *Replicate) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	if err := r.requireKey(); err != nil {
		return nil, err
	}

	job, err := r.submit(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("provider", r.name).Str("job_id", job.ID).Msg("prediction created")

	p := poller{provider: r.name, config: r.poll, logger: r.logger}
	job, err = p.wait(ctx, job, r.status)
	if err != nil {
		return nil, err
	}
	if job.Status == JobFailed {
		msg := job.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, r.providerError(0, "image generation failed: %s", msg)
	}
	if job.OutputURL == "" {
		return nil, r.providerError(0, "no image url in response")
	}
	img, err := r.download(ctx, job.OutputURL, "image/webp")
	if err != nil {
		return nil, err
	}
	return []imagegen.Image{img}, nil
}

func (r *Replicate) submit(ctx context.Context, prompt string) (Job, error) {
	body, err := json.Marshal(map[string]replicateInput{
		"input": {
			Prompt:        prompt,
			OutputFormat:  "webp",
			OutputQuality: 90,
			AspectRatio:   "1:1",
		},
	})
	if err != nil {
		return Job{}, r.providerError(0, "encode request: %s", err)
	}
	endpoint := r.baseURL + "/models/" + r.model + "/predictions"
	httpReq, err := r.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Job{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	var prediction replicatePrediction
	if err := r.doJSON(httpReq, &prediction); err != nil {
		return Job{}, err
	}
	job := prediction.job()
	if job.ID == "" && !job.Status.Terminal() {
		return Job{}, r.providerError(0, "prediction id missing in response")
	}
	return job, nil
}

func (r *Replicate) status(ctx context.Context, job Job) (Job, error) {
	endpoint := r.baseURL + "/predictions/" + url.PathEscape(job.ID)
	httpReq, err := r.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return job, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	var prediction replicatePrediction
	if err := r.doJSON(httpReq, &prediction); err != nil {
		return job, err
	}
	return prediction.job(), nil
}

func (p replicatePrediction) job() Job {
	job := Job{ID: p.ID, Error: rawText(p.Error)}
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case "succeeded":
		job.Status = JobSucceeded
		job.OutputURL = firstOutput(p.Output)
	case "failed", "canceled", "aborted":
		job.Status = JobFailed
		if job.Error == "" && p.Status != "failed" {
			job.Error = "prediction " + strings.ToLower(p.Status)
		}
	default:
		job.Status = JobPending
	}
	return job
}

// firstOutput accepts either a single URL or a list of URLs.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, candidate := range many {
			if candidate = strings.TrimSpace(candidate); candidate != "" {
				return candidate
			}
		}
	}
	return ""
}

var _ imagegen.Generator = (*Replicate)(nil)
