package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra"
)

const maxErrorBody = 512

// Options configures a provider adapter. Zero values fall back to the
// provider's defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
	Poll       PollConfig
}

// client holds what every adapter needs to talk to its backend.
type client struct {
	name       string
	credential string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

func newClient(name, credential string, opts Options, defaultBaseURL, defaultModel string) client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return client{
		name:       name,
		credential: credential,
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *client) requireKey() error {
	if c.credential == "" || c.apiKey != "" {
		return nil
	}
	return &imagegen.ConfigurationError{
		Provider: c.name,
		Key:      c.credential,
		Message:  c.credential + " is not set",
	}
}

func (c *client) providerError(status int, format string, args ...any) *imagegen.ProviderError {
	return &imagegen.ProviderError{
		Provider:   c.name,
		StatusCode: status,
		Message:    fmt.Sprintf(format, args...),
	}
}

// do sends req and returns the body of a 2xx response. Anything else becomes
// a *imagegen.ProviderError carrying the vendor's message.
func (c *client) do(req *http.Request) ([]byte, http.Header, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, nil, &imagegen.CancellationError{Provider: c.name, Err: ctxErr}
		}
		return nil, nil, &imagegen.ProviderError{
			Provider: c.name,
			Message:  "http request: " + err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &imagegen.ProviderError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    "read response: " + err.Error(),
			Err:        err,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, c.providerError(resp.StatusCode, "%s", vendorMessage(resp.StatusCode, raw))
	}
	return raw, resp.Header, nil
}

func (c *client) doJSON(req *http.Request, out any) error {
	raw, _, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &imagegen.ProviderError{Provider: c.name, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

func (c *client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &imagegen.ProviderError{Provider: c.name, Message: "build request: " + err.Error(), Err: err}
	}
	return req, nil
}

// download fetches a generated image referenced by URL.
func (c *client) download(ctx context.Context, imageURL, fallbackMIME string) (imagegen.Image, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return imagegen.Image{}, c.providerError(0, "invalid image url: %s", imageURL)
	}
	req, err := c.newRequest(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return imagegen.Image{}, err
	}
	data, header, err := c.do(req)
	if err != nil {
		return imagegen.Image{}, err
	}
	return imagegen.Image{Data: data, MIMEType: imageMIME(header, fallbackMIME)}, nil
}

// imageMIME prefers the response Content-Type when it names an image type.
func imageMIME(header http.Header, fallback string) string {
	if header == nil {
		return fallback
	}
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return fallback
	}
	mediaType = strings.ToLower(mediaType)
	if strings.HasPrefix(mediaType, "image/") && mediaType != "image/*" {
		return mediaType
	}
	return fallback
}

// vendorMessage pulls a readable message out of an error body. Vendors use
// several shapes: {"message"}, {"error": "..."}, {"error": {"message"}},
// {"detail"} and {"errors": [...]}.
func vendorMessage(status int, raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   json.RawMessage `json:"error"`
		Name    string          `json:"name"`
		Errors  []string        `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		parts := make([]string, 0, 3)
		if body.Name != "" {
			parts = append(parts, body.Name)
		}
		if msg := rawText(body.Error); msg != "" {
			parts = append(parts, msg)
		}
		if body.Message != "" {
			parts = append(parts, body.Message)
		}
		if msg := rawText(body.Detail); msg != "" {
			parts = append(parts, msg)
		}
		parts = append(parts, body.Errors...)
		if len(parts) > 0 {
			return strings.Join(parts, ": ")
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = http.StatusText(status)
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

// rawText renders a JSON value that is either a string or an object with a
// message field.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		parts := make([]string, 0, 2)
		if obj.Status != "" {
			parts = append(parts, obj.Status)
		} else if obj.Code != "" {
			parts = append(parts, obj.Code)
		}
		if obj.Message != "" {
			parts = append(parts, obj.Message)
		}
		return strings.Join(parts, ": ")
	}
	return strings.TrimSpace(string(raw))
}
