// Package dispatch executes validated action plans. It never runs raw
// model output, only structured, validated actions, strictly in plan
// order, stopping at the first failure.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/arjunsk/max/internal/plan"
)

// Result is what a handler reports back for one invocation.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Handler executes one action type's effect. Implementations own their
// resource safety; the dispatcher awaits each call before the next
// action starts.
type Handler interface {
	Execute(ctx context.Context, params map[string]any) Result
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, params map[string]any) Result

func (f HandlerFunc) Execute(ctx context.Context, params map[string]any) Result {
	return f(ctx, params)
}

// ActionResult is the per-action execution record, produced exactly
// once per action index in plan order, including skipped entries.
type ActionResult struct {
	ActionIndex int           `json:"action_index"`
	ActionType  string        `json:"action_type"`
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Elapsed     time.Duration `json:"elapsed"`
	Skipped     bool          `json:"skipped,omitempty"`
}

// Registry maps action types to handlers, resolved before dispatch.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(actionType string, h Handler) {
	r.handlers[actionType] = h
}

func (r *Registry) Get(actionType string) Handler {
	return r.handlers[actionType]
}

// Dispatcher runs plans against the registry.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// ExecutePlan runs the plan's actions in order. Indices in skip are
// recorded as skipped without invoking a handler. The first failing
// action halts the plan; every remaining index is synthesized as
// skipped so the result sequence always covers the whole plan.
func (d *Dispatcher) ExecutePlan(ctx context.Context, p *plan.Plan, skip map[int]bool) []ActionResult {
	results := make([]ActionResult, 0, len(p.Actions))

	log.Printf("Executing plan: %s with %d action(s)", p.TaskType, len(p.Actions))

	for i, action := range p.Actions {
		if skip[i] {
			results = append(results, ActionResult{
				ActionIndex: i,
				ActionType:  action.Type,
				Message:     "Skipped (blocked or denied)",
				Skipped:     true,
			})
			continue
		}

		start := time.Now()
		result := d.run(ctx, action)
		elapsed := time.Since(start)

		results = append(results, ActionResult{
			ActionIndex: i,
			ActionType:  action.Type,
			Success:     result.Success,
			Message:     result.Message,
			Elapsed:     elapsed,
		})

		status := "OK"
		if !result.Success {
			status = "FAIL"
		}
		log.Printf("Action %d/%d (%s): %s (%.2fs): %s",
			i+1, len(p.Actions), action.Type, status, elapsed.Seconds(), result.Message)

		if !result.Success {
			log.Printf("Action %d failed, stopping plan execution", i+1)
			for j := i + 1; j < len(p.Actions); j++ {
				results = append(results, ActionResult{
					ActionIndex: j,
					ActionType:  p.Actions[j].Type,
					Message:     "Skipped (previous action failed)",
					Skipped:     true,
				})
			}
			break
		}
	}

	return results
}

// run invokes the action's handler, converting a missing handler or a
// handler panic into a failure result rather than letting it escape.
func (d *Dispatcher) run(ctx context.Context, action plan.Action) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, Message: fmt.Sprintf("handler panic: %v", r)}
		}
	}()

	handler := d.registry.Get(action.Type)
	if handler == nil {
		return Result{Success: false, Message: fmt.Sprintf("No handler for: %s", action.Type)}
	}
	return handler.Execute(ctx, action.Parameters)
}
