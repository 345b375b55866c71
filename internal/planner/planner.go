// Package planner turns user commands into validated action plans via
// model backends, with bounded retries and per-call provider fallback.
package planner

import (
	"context"

	"github.com/arjunsk/max/internal/plan"
)

// Turn is one prior exchange injected into the prompt for context.
type Turn struct {
	UserText string
	PlanJSON string
}

// Planner is the contract every plan-generation backend implements.
// Plan returns the plan together with any repairs normalization applied
// to the model output, so callers can audit every mutation. A nil plan
// means no valid plan could be produced within the backend's retry
// budget; that is a signal, not a panic-worthy error.
type Planner interface {
	Name() string
	Plan(ctx context.Context, userText string, history []Turn) (*plan.Plan, []plan.Repair)
}

// OutcomeKind classifies the result of a single generation attempt.
// Retries act on these variants, never on thrown errors.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeTimeout
	OutcomeTransportError
	OutcomeParseError
	OutcomeEmptyResponse
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeParseError:
		return "parse_error"
	case OutcomeEmptyResponse:
		return "empty_response"
	}
	return "unknown"
}

// Outcome carries one attempt's result: either a plan or the error
// variant that should drive the retry decision.
type Outcome struct {
	Kind    OutcomeKind
	Plan    *plan.Plan
	Repairs []plan.Repair
	Err     error
}
