package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Agent serves both oracle roles through a go-agents provider (Ollama or
// Azure OpenAI). Each call builds its own agent from the shared config.
type Agent struct {
	config  gaconfig.AgentConfig
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewAgent creates an oracle backed by the go-agents provider named by
// cfg.Provider. The agent config is validated by building one agent up front.
func NewAgent(cfg *Config, logger *slog.Logger) (*Agent, error) {
	ac := AgentConfig(cfg)
	if _, err := agent.New(&ac); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	return &Agent{
		config:  ac,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		logger:  logger.With("system", "oracle", "provider", cfg.Provider),
	}, nil
}

// AgentConfig maps the oracle configuration onto a go-agents AgentConfig,
// starting from the library defaults.
func AgentConfig(cfg *Config) gaconfig.AgentConfig {
	options := map[string]any{}
	for key, value := range map[string]string{
		"token":       cfg.APIKey,
		"deployment":  cfg.Deployment,
		"api_version": cfg.APIVersion,
		"auth_type":   cfg.AuthType,
	} {
		if value != "" {
			options[key] = value
		}
	}

	ac := gaconfig.AgentConfig{
		Name: "assay-oracle",
		Provider: &gaconfig.ProviderConfig{
			Name:    cfg.Provider,
			BaseURL: cfg.BaseURL,
			Options: options,
		},
		Model: &gaconfig.ModelConfig{
			Name: cfg.Model,
		},
	}

	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(&ac)
	return defaults
}

func (a *Agent) Describe(ctx context.Context, material string) (string, error) {
	text, err := a.chat(ctx, describeInstruction, material)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty description for %q", ErrMalformedResponse, material)
	}
	return text, nil
}

func (a *Agent) Classify(ctx context.Context, subject, detail string, options []string) (string, error) {
	text, err := a.chat(ctx, classifyPrompt(options), subjectPrompt(subject, detail))
	if err != nil {
		return "", err
	}
	return candidate(text)
}

func (a *Agent) Normalize(ctx context.Context, answer string, options []string) (string, error) {
	text, err := a.chat(ctx, normalizePrompt(options), answerPrompt(answer))
	if err != nil {
		return "", err
	}
	return candidate(text)
}

func (a *Agent) chat(ctx context.Context, instruction, user string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %w", ErrUnavailable, err)
	}

	ag, err := agent.New(&a.config)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrUnavailable, err)
	}

	resp, err := ag.Chat(ctx, instruction+"\n\n"+user)
	if err != nil {
		return "", fmt.Errorf("%w: chat call: %w", ErrUnavailable, err)
	}

	text := resp.Content()
	a.logger.DebugContext(ctx, "oracle response", "model", a.model, "chars", len(text))
	return text, nil
}
