package planner

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/arjunsk/max/internal/plan"
	"github.com/arjunsk/max/pkg/config"
)

// FallbackPlanner wraps a primary and a secondary backend. Every call
// tries the primary first; on failure the secondary is tried exactly
// once for that same request. The failure counter is informational;
// it feeds logging, never provider selection, so the fallback decision
// stays per-call rather than adaptive.
type FallbackPlanner struct {
	primary   Planner
	secondary Planner

	consecutivePrimaryFailures atomic.Int64
}

func NewFallback(primary, secondary Planner) *FallbackPlanner {
	return &FallbackPlanner{primary: primary, secondary: secondary}
}

func (f *FallbackPlanner) Name() string {
	return fmt.Sprintf("Fallback(%s → %s)", f.primary.Name(), f.secondary.Name())
}

func (f *FallbackPlanner) Plan(ctx context.Context, userText string, history []Turn) (*plan.Plan, []plan.Repair) {
	if result, repairs := f.primary.Plan(ctx, userText, history); result != nil {
		f.consecutivePrimaryFailures.Store(0)
		return result, repairs
	}

	failures := f.consecutivePrimaryFailures.Add(1)
	log.Printf("%s failed (%d consecutive). Falling back to %s.",
		f.primary.Name(), failures, f.secondary.Name())

	if result, repairs := f.secondary.Plan(ctx, userText, history); result != nil {
		return result, repairs
	}

	log.Printf("Both primary and secondary planners failed.")
	return nil, nil
}

// PrimaryFailures reports the current consecutive-failure count of the
// primary backend, for telemetry.
func (f *FallbackPlanner) PrimaryFailures() int64 {
	return f.consecutivePrimaryFailures.Load()
}

// New builds the planner stack for the configured mode:
// "local" or "cloud" use one backend; "auto" probes the local backend
// once and fixes the primary/secondary order for the process lifetime.
func New(cfg config.ProvidersConfig) (Planner, error) {
	switch cfg.Mode {
	case "local":
		return NewOllama(cfg.Ollama)
	case "cloud":
		return NewOpenRouter(cfg.OpenRouter)
	}

	local, err := NewOllama(cfg.Ollama)
	if err != nil {
		return nil, err
	}
	cloud, err := NewOpenRouter(cfg.OpenRouter)
	if err != nil {
		return nil, err
	}

	if ProbeOllama(cfg.Ollama) {
		log.Printf("Ollama is reachable, using local primary with cloud fallback")
		return NewFallback(local, cloud), nil
	}
	log.Printf("Ollama not reachable, using cloud primary with local fallback")
	return NewFallback(cloud, local), nil
}
