package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GoogleProvider implements Provider for Google Gemini via the genai SDK.
type GoogleProvider struct {
	client   *genai.Client
	model    string
	profiles map[TaskType]*genai.GenerateContentConfig
}

type googleOptions struct {
	baseURL    string
	httpClient *http.Client
	model      string
	decoding   map[TaskType]Decoding
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*googleOptions)

// WithGoogleBaseURL sets the base URL (for testing).
func WithGoogleBaseURL(url string) GoogleOption {
	return func(o *googleOptions) {
		o.baseURL = url
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(o *googleOptions) {
		o.httpClient = client
	}
}

// WithGoogleModel sets the model ID.
func WithGoogleModel(model string) GoogleOption {
	return func(o *googleOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithGoogleDecoding replaces the decoding profile of one task.
func WithGoogleDecoding(task TaskType, d Decoding) GoogleOption {
	return func(o *googleOptions) {
		o.decoding[task] = d
	}
}

// blockNone disables content filtering for every harm category.
var blockNone = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// NewGoogleProvider creates a Gemini provider. It fails without an API key.
func NewGoogleProvider(ctx context.Context, apiKey string, opts ...GoogleOption) (*GoogleProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	o := &googleOptions{
		model:    DefaultModel,
		decoding: make(map[TaskType]Decoding),
	}
	for _, task := range []TaskType{TaskShortAnswer, TaskStructured, TaskEssay, TaskLesson} {
		o.decoding[task] = DefaultDecoding(task)
	}
	for _, opt := range opts {
		opt(o)
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	p := &GoogleProvider{
		client:   client,
		model:    o.model,
		profiles: make(map[TaskType]*genai.GenerateContentConfig, len(o.decoding)),
	}
	for task, d := range o.decoding {
		p.profiles[task] = &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(d.Temperature),
			TopP:            genai.Ptr(d.TopP),
			TopK:            genai.Ptr(d.TopK),
			MaxOutputTokens: d.MaxOutputTokens,
			SafetySettings:  blockNone,
		}
	}
	return p, nil
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	cfg, ok := p.profiles[req.Task]
	if !ok {
		cfg = p.profiles[TaskShortAnswer]
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return CompletionResponse{}, classifyGeminiError(err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return CompletionResponse{}, &GenerationError{Kind: KindEmptyResponse, Provider: "gemini", Err: ErrEmptyResponse}
	}

	resp := CompletionResponse{
		Content: text,
		Model:   p.model,
	}
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return resp, nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Kind: KindTransport, Provider: "gemini", Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &GenerationError{
			Kind:     classifyStatus(apiErr.Code, apiErr.Status+" "+apiErr.Message),
			Provider: "gemini",
			Err:      err,
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &GenerationError{
			Kind:     classifyStatus(apiErrPtr.Code, apiErrPtr.Status+" "+apiErrPtr.Message),
			Provider: "gemini",
			Err:      err,
		}
	}
	return &GenerationError{Kind: classifyStatus(0, err.Error()), Provider: "gemini", Err: err}
}

// Model returns the configured model ID.
func (p *GoogleProvider) Model() string {
	return p.model
}

func (p *GoogleProvider) Models() []ModelInfo {
	return []ModelInfo{{ID: p.model, Name: "gemini/" + p.model, MaxTokens: 1048576, Description: "primary generation model"}}
}

func (p *GoogleProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.model, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
