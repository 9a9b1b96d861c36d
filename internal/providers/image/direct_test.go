package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"imagefallback/internal/imagegen"
)

func TestStabilityPostsMultipartAndReturnsBinary(t *testing.T) {
	transport := newCaptureTransport()
	transport.setBinaryResponse("/v2beta/stable-image/generate/ultra", "image/webp", []byte("webp-bytes"))
	gen := NewStability(Options{APIKey: "sk-test", HTTPClient: &http.Client{Transport: transport}})

	images, err := gen.Generate(context.Background(), imagegen.Request{Prompt: "a red fox"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(images) != 1 || string(images[0].Data) != "webp-bytes" || images[0].MIMEType != "image/webp" {
		t.Fatalf("unexpected images: %#v", images)
	}

	req, body := transport.lastRequest()
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("authorization = %q", got)
	}
	if got := req.Header.Get("Accept"); got != "image/*" {
		t.Fatalf("accept = %q", got)
	}
	_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("content type: %v", err)
	}
	form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	if got := form.Value["prompt"]; len(got) != 1 || got[0] != "a red fox" {
		t.Fatalf("prompt field = %v", got)
	}
	if got := form.Value["output_format"]; len(got) != 1 || got[0] != "webp" {
		t.Fatalf("output_format field = %v", got)
	}
}

func TestMissingCredentialFailsBeforeNetwork(t *testing.T) {
	transport := newCaptureTransport()
	client := &http.Client{Transport: transport}
	generators := map[string]imagegen.Generator{
		StabilityName:   NewStability(Options{HTTPClient: client}),
		XAIName:         NewXAI(Options{HTTPClient: client}),
		HuggingFaceName: NewHuggingFace(Options{HTTPClient: client}),
		ReplicateName:   NewReplicate(Options{HTTPClient: client}),
		FluxName:        NewFlux(Options{HTTPClient: client}),
	}
	for name, gen := range generators {
		_, err := gen.Generate(context.Background(), imagegen.Request{Prompt: "x"})
		var cfgErr *imagegen.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected ConfigurationError, got %v", name, err)
		}
		if cfgErr.Provider != name || cfgErr.Key == "" {
			t.Fatalf("%s: unexpected configuration error %#v", name, cfgErr)
		}
	}
	if transport.calls() != 0 {
		t.Fatalf("expected no network calls, got %d", transport.calls())
	}
}

func TestXAIReturnsEveryEntryInOrder(t *testing.T) {
	first := []byte{0x01, 0x02}
	second := []byte{0x03}
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/images/generations", map[string]any{
		"data": []map[string]string{
			{"b64_json": base64.StdEncoding.EncodeToString(first)},
			{"url": "https://cdn.x.ai/generated/2.png"},
			{"b64_json": base64.StdEncoding.EncodeToString(second)},
		},
	})
	transport.setBinaryResponse("/generated/2.png", "image/png", []byte("from-url"))
	gen := NewXAI(Options{APIKey: "xai-test", HTTPClient: &http.Client{Transport: transport}})

	images, err := gen.Generate(context.Background(), imagegen.Request{Prompt: "city at night"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if !bytes.Equal(images[0].Data, first) || images[0].MIMEType != "image/jpeg" {
		t.Fatalf("image 0 mismatch: %#v", images[0])
	}
	if string(images[1].Data) != "from-url" || images[1].MIMEType != "image/png" {
		t.Fatalf("image 1 mismatch: %#v", images[1])
	}
	if !bytes.Equal(images[2].Data, second) {
		t.Fatalf("image 2 mismatch: %#v", images[2])
	}
	for i, img := range images {
		decoded, err := base64.StdEncoding.DecodeString(img.Base64())
		if err != nil || !bytes.Equal(decoded, img.Data) {
			t.Fatalf("image %d does not round trip through base64", i)
		}
	}

	if transport.calls() != 2 {
		t.Fatalf("expected generation call plus one fetch, got %d calls", transport.calls())
	}
	var payload xaiRequest
	if err := json.Unmarshal(transport.bodies[0], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Model != "grok-2-image" || payload.Prompt != "city at night" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestXAIEmptyDataIsSuccess(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/images/generations", map[string]any{"data": []any{}})
	gen := NewXAI(Options{APIKey: "xai-test", HTTPClient: &http.Client{Transport: transport}})

	images, err := gen.Generate(context.Background(), imagegen.Request{Prompt: "nothing"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("expected no images, got %d", len(images))
	}
}

func TestHuggingFaceNonSuccessIsProviderError(t *testing.T) {
	transport := newCaptureTransport()
	transport.setErrorResponse("/models/black-forest-labs/FLUX.1-schnell", http.StatusUnauthorized, `{"error":"Invalid credentials in Authorization header"}`)
	gen := NewHuggingFace(Options{APIKey: "hf-test", HTTPClient: &http.Client{Transport: transport}})

	_, err := gen.Generate(context.Background(), imagegen.Request{Prompt: "x"})
	var providerErr *imagegen.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if providerErr.Provider != HuggingFaceName || providerErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected provider error: %#v", providerErr)
	}
	if !strings.Contains(providerErr.Error(), "Invalid credentials") {
		t.Fatalf("vendor message missing: %v", providerErr)
	}
	if transport.calls() != 1 {
		t.Fatalf("adapters must not retry, got %d calls", transport.calls())
	}

	_, body := transport.lastRequest()
	if string(body) != `{"inputs":"x"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestPollinationsBuildsPromptURL(t *testing.T) {
	transport := newCaptureTransport()
	transport.setBinaryResponse("/prompt/a cat & a dog", "image/jpeg", []byte("jpeg"))
	gen := NewPollinations(Options{HTTPClient: &http.Client{Transport: transport}})
	gen.seed = func() int { return 42 }

	images, err := gen.Generate(context.Background(), imagegen.Request{Prompt: "a cat & a dog"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(images) != 1 || images[0].MIMEType != "image/jpeg" {
		t.Fatalf("unexpected images: %#v", images)
	}

	req, _ := transport.lastRequest()
	if req.Method != http.MethodGet {
		t.Fatalf("method = %s", req.Method)
	}
	query := req.URL.Query()
	if query.Get("seed") != "42" || query.Get("width") != "1024" || query.Get("height") != "1024" || query.Get("nologo") != "true" {
		t.Fatalf("unexpected query: %s", req.URL.RawQuery)
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatalf("pollinations must not send credentials")
	}
}
