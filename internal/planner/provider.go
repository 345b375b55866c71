package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/arjunsk/max/internal/plan"
	"github.com/arjunsk/max/pkg/config"
)

const maxAttempts = 3

// modelPlanner drives one langchaingo backend through the
// generate → extract → normalize pipeline with bounded retries.
type modelPlanner struct {
	name    string
	model   llms.Model
	timeout time.Duration
	// backoff returns the pause before the next attempt; the remote
	// backend grows it, the local one keeps it fixed.
	backoff func(attempt int) time.Duration
}

// NewOllama builds the local backend. Local inference can be slow, so
// the per-attempt timeout is generous.
func NewOllama(cfg config.OllamaConfig) (*modelPlanner, error) {
	model, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
		ollama.WithFormat("json"),
		ollama.WithRunnerNumCtx(cfg.NumCtx),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama init: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &modelPlanner{
		name:    fmt.Sprintf("Ollama (%s)", cfg.Model),
		model:   model,
		timeout: timeout,
		backoff: func(int) time.Duration { return 500 * time.Millisecond },
	}, nil
}

// NewOpenRouter builds the cloud backend. OpenRouter speaks the OpenAI
// chat API, so the openai client with a custom base URL is enough.
func NewOpenRouter(cfg config.OpenRouterConfig) (*modelPlanner, error) {
	if cfg.APIKey == "" {
		log.Printf("Warning: OPENROUTER_API_KEY not set")
	}
	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("openrouter init: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &modelPlanner{
		name:    fmt.Sprintf("OpenRouter (%s)", cfg.Model),
		model:   model,
		timeout: timeout,
		backoff: func(attempt int) time.Duration {
			d := time.Duration(1<<attempt) * time.Second
			if d > 10*time.Second {
				d = 10 * time.Second
			}
			return d
		},
	}, nil
}

func (p *modelPlanner) Name() string { return p.name }

// Plan runs up to maxAttempts generation attempts, pausing between
// failures. Exhausting the budget yields nil.
func (p *modelPlanner) Plan(ctx context.Context, userText string, history []Turn) (*plan.Plan, []plan.Repair) {
	messages := BuildMessages(userText, history)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome := p.attempt(ctx, messages)
		if outcome.Kind == OutcomeOK {
			return outcome.Plan, outcome.Repairs
		}

		log.Printf("[%s] attempt %d/%d failed (%s): %v",
			p.name, attempt, maxAttempts, outcome.Kind, outcome.Err)

		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			time.Sleep(p.backoff(attempt))
		}
	}

	log.Printf("[%s] all attempts failed", p.name)
	return nil, nil
}

// attempt performs exactly one generation call and maps its result to
// an Outcome variant. Transport timeouts are attempt-scoped.
func (p *modelPlanner) attempt(ctx context.Context, messages []llms.MessageContent) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.model.GenerateContent(callCtx, messages,
		llms.WithTemperature(0),
		llms.WithMaxTokens(1024),
		llms.WithJSONMode(),
	)
	if err != nil {
		return Outcome{Kind: classifyTransportError(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return Outcome{Kind: OutcomeEmptyResponse, Err: errors.New("no choices in response")}
	}

	raw := resp.Choices[0].Content
	if strings.TrimSpace(raw) == "" {
		return Outcome{Kind: OutcomeEmptyResponse, Err: errors.New("empty response")}
	}

	parsed, repairs, err := plan.Normalize(raw)
	if err != nil {
		return Outcome{Kind: OutcomeParseError, Err: err}
	}
	return Outcome{Kind: OutcomeOK, Plan: parsed, Repairs: repairs}
}

func classifyTransportError(err error) OutcomeKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeTransportError
}

// ProbeOllama checks whether the local backend is reachable. Used once
// at process start to pick the primary; never re-run mid-session.
func ProbeOllama(cfg config.OllamaConfig) bool {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimRight(cfg.BaseURL, "/") + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
