package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Sampling temperatures per call kind. Descriptions tolerate more variety
// than option picks.
const (
	describeTemperature  float32 = 0.3
	classifyTemperature  float32 = 0.1
	normalizeTemperature float32 = 0.2
)

// Gemini serves both oracle roles with the Google Gen AI SDK.
// Calls are paced by a token-bucket limiter shared across goroutines.
type Gemini struct {
	client  *genai.Client
	model   string
	search  bool
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates the oracle backend named by cfg.Provider.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (Oracle, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	case ProviderOllama, ProviderAzure:
		return NewAgent(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// NewGemini creates a Gemini-backed oracle. The API key is read from cfg;
// credentials are expected to be loaded before this is called.
func NewGemini(ctx context.Context, cfg *Config, logger *slog.Logger) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   cfg.Model,
		search:  cfg.Search,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		logger:  logger.With("system", "oracle", "provider", ProviderGemini),
	}, nil
}

// Model returns the model name used for generation.
func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) Describe(ctx context.Context, material string) (string, error) {
	text, err := g.generate(ctx, describeInstruction, material, describeTemperature, false)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty description for %q", ErrMalformedResponse, material)
	}
	return text, nil
}

func (g *Gemini) Classify(ctx context.Context, subject, detail string, options []string) (string, error) {
	return g.pick(ctx, classifyPrompt(options), subjectPrompt(subject, detail), classifyTemperature)
}

func (g *Gemini) Normalize(ctx context.Context, answer string, options []string) (string, error) {
	return g.pick(ctx, normalizePrompt(options), answerPrompt(answer), normalizeTemperature)
}

func (g *Gemini) pick(ctx context.Context, system, user string, temperature float32) (string, error) {
	text, err := g.generate(ctx, system, user, temperature, true)
	if err != nil {
		return "", err
	}

	return candidate(text)
}

func (g *Gemini) generate(ctx context.Context, system, user string, temperature float32, jsonMode bool) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %w", ErrUnavailable, err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
	}

	// Search grounding and JSON response mode are mutually exclusive.
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	} else if g.search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %w", ErrUnavailable, err)
	}

	text := resp.Text()
	g.logger.DebugContext(ctx, "oracle response", "model", g.model, "chars", len(text))
	return text, nil
}
