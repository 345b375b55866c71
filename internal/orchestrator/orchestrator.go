// Package orchestrator drives the command pipeline: match or generate a
// plan, validate it, clear it through safety and confirmation, execute
// it, and record the outcome. One command is in flight at a time.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/arjunsk/max/internal/confirm"
	"github.com/arjunsk/max/internal/dispatch"
	"github.com/arjunsk/max/internal/fastpath"
	"github.com/arjunsk/max/internal/observability"
	"github.com/arjunsk/max/internal/plan"
	"github.com/arjunsk/max/internal/planner"
	"github.com/arjunsk/max/internal/safety"
	"github.com/arjunsk/max/internal/store"
)

// Speaker delivers responses back to the user.
type Speaker interface {
	Send(text string) error
}

// ConversationStore is the slice of the memory layer the pipeline needs.
type ConversationStore interface {
	SaveConversation(utteranceID, userText, planJSON, resultJSON string, success bool) error
	GetRecentConversations(limit int) ([]store.Conversation, error)
	SearchConversations(query string, limit int) ([]store.Conversation, error)
	SetPreference(key, value string) error
}

const historyLimit = 5

type Orchestrator struct {
	Planner       planner.Planner
	PlanValidator *plan.Validator
	Safety        *safety.Validator
	Gate          confirm.Gate
	Dispatcher    *dispatch.Dispatcher
	Store         ConversationStore
	Speaker       Speaker
	Logger        *observability.Logger
}

// Run consumes commands until the channel closes or the context ends.
func (o *Orchestrator) Run(ctx context.Context, commands <-chan string) {
	observability.SetStatus(observability.StateListening, "")
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-commands:
			if !ok {
				return
			}
			o.HandleCommand(ctx, text)
			observability.SetStatus(observability.StateListening, "")
		}
	}
}

// HandleCommand runs one command through the full pipeline. A panic
// anywhere in the pipeline is contained to this command.
func (o *Orchestrator) HandleCommand(ctx context.Context, text string) {
	utteranceID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pipeline panic for %q: %v", text, r)
			observability.SetStatus(observability.StateError, text)
			o.say("Something went wrong handling that command.")
			o.record(utteranceID, text, "", "", false)
		}
	}()

	observability.SetStatus(observability.StateProcessing, text)

	if o.handleMeta(text) {
		return
	}

	p, source, repairs := o.makePlan(ctx, text)
	if p == nil {
		o.say("Sorry, I couldn't understand that command.")
		o.Logger.LogOutcome(utteranceID, false, "no plan produced")
		o.record(utteranceID, text, "", "", false)
		return
	}
	for _, r := range repairs {
		o.Logger.LogPlanRepair(utteranceID, r.Field, r.Detail)
	}
	o.Logger.LogPlan(utteranceID, source, p.JSON())

	// Clarify plans carry a question, not work.
	if p.TaskType == plan.TaskClarify {
		o.say(p.ClarifyMessage())
		o.Logger.LogOutcome(utteranceID, true, "clarification requested")
		o.record(utteranceID, text, p.JSON(), "", true)
		return
	}

	complexity, concerns, err := o.PlanValidator.Validate(p)
	if err != nil {
		log.Printf("Plan rejected: %v", err)
		o.say("I can't safely do that.")
		o.Logger.LogOutcome(utteranceID, false, fmt.Sprintf("plan rejected: %v", err))
		o.record(utteranceID, text, p.JSON(), "", false)
		return
	}
	if complexity > plan.ComplexitySimple {
		log.Printf("Plan complexity %d: %s", complexity, strings.Join(concerns, "; "))
	}

	p = plan.Sanitize(p)

	verdict := o.Safety.ValidatePlan(p)
	o.Logger.LogPolicyCheck(utteranceID, verdict.Approved, verdict.NeedsConfirmation, verdict.Reasons)

	if !verdict.Approved {
		o.say("I can't do that: " + strings.Join(verdict.Reasons, "; "))
		o.Logger.LogOutcome(utteranceID, false, "plan blocked by safety policy")
		o.record(utteranceID, text, p.JSON(), "", false)
		return
	}

	if verdict.NeedsConfirmation {
		approved := o.Gate.Request(ctx, safety.ConfirmationMessage(p, verdict))
		o.Logger.LogConfirm(utteranceID, approved)
		if !approved {
			o.say("Okay, I won't do that.")
			o.Logger.LogOutcome(utteranceID, false, "user denied")
			o.record(utteranceID, text, p.JSON(), "", false)
			return
		}
	}

	observability.SetStatus(observability.StateExecuting, text)

	skip := make(map[int]bool)
	for _, idx := range verdict.BlockedIdx {
		skip[idx] = true
	}
	o.Logger.LogDispatch(utteranceID, p.TaskType, len(p.Actions))
	results := o.Dispatcher.ExecutePlan(ctx, p, skip)
	for _, r := range results {
		o.Logger.LogActionResult(utteranceID, r.ActionIndex, r.ActionType, r.Success, r.Skipped, r.Message, r.Elapsed)
	}

	success := allSucceeded(results)
	resultJSON, _ := json.Marshal(results)
	o.say(feedback(p, results))
	o.Logger.LogOutcome(utteranceID, success, summarize(results))
	o.record(utteranceID, text, p.JSON(), string(resultJSON), success)
}

// makePlan tries the fast path first and only then the model planner,
// feeding it recent conversation turns for context.
func (o *Orchestrator) makePlan(ctx context.Context, text string) (*plan.Plan, string, []plan.Repair) {
	if p := fastpath.Match(text); p != nil {
		return p, "fastpath", nil
	}

	var history []planner.Turn
	if recent, err := o.Store.GetRecentConversations(historyLimit); err == nil {
		for _, c := range recent {
			history = append(history, planner.Turn{UserText: c.UserText, PlanJSON: c.PlanJSON})
		}
	}

	p, repairs := o.Planner.Plan(ctx, text, history)
	if p == nil {
		return nil, "", nil
	}
	return p, o.Planner.Name(), repairs
}

// handleMeta intercepts agent-control commands that never become plans:
// toggling safe mode (persisted as a preference) and recalling past
// conversations from memory.
func (o *Orchestrator) handleMeta(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch normalized {
	case "enable safe mode", "turn on safe mode", "safe mode on":
		return o.setSafeMode(true)
	case "disable safe mode", "turn off safe mode", "safe mode off":
		return o.setSafeMode(false)
	}

	if query, ok := strings.CutPrefix(normalized, "recall "); ok {
		o.recall(strings.TrimSpace(query))
		return true
	}
	return false
}

func (o *Orchestrator) setSafeMode(on bool) bool {
	o.Safety.SetSafeMode(on)
	state := "off"
	if on {
		state = "on"
	}
	if err := o.Store.SetPreference("safe_mode", state); err != nil {
		log.Printf("Failed to persist safe mode: %v", err)
	}
	o.say("Safe mode " + state + ".")
	return true
}

func (o *Orchestrator) recall(query string) {
	found, err := o.Store.SearchConversations(query, 3)
	if err != nil || len(found) == 0 {
		o.say(fmt.Sprintf("I don't remember anything about %q.", query))
		return
	}

	var b strings.Builder
	b.WriteString("Here's what I remember:\n")
	for _, c := range found {
		fmt.Fprintf(&b, "  - %s: %q\n", c.Timestamp.Format("Jan 2 15:04"), c.UserText)
	}
	o.say(strings.TrimRight(b.String(), "\n"))
}

func (o *Orchestrator) say(text string) {
	if o.Speaker == nil {
		return
	}
	if err := o.Speaker.Send(text); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (o *Orchestrator) record(utteranceID, userText, planJSON, resultJSON string, success bool) {
	if o.Store == nil {
		return
	}
	if err := o.Store.SaveConversation(utteranceID, userText, planJSON, resultJSON, success); err != nil {
		log.Printf("Failed to save conversation: %v", err)
	}
}

func allSucceeded(results []dispatch.ActionResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return len(results) > 0
}

func summarize(results []dispatch.ActionResult) string {
	done := 0
	for _, r := range results {
		if r.Success {
			done++
		}
	}
	return fmt.Sprintf("%d/%d actions succeeded", done, len(results))
}

// feedback builds the spoken response after execution.
func feedback(p *plan.Plan, results []dispatch.ActionResult) string {
	if allSucceeded(results) {
		if len(results) == 1 {
			if msg := results[0].Message; msg != "" {
				return msg
			}
			return "Done."
		}
		return fmt.Sprintf("Done. Completed all %d steps.", len(results))
	}

	done := 0
	var failed *dispatch.ActionResult
	for i := range results {
		if results[i].Success {
			done++
		} else if !results[i].Skipped && failed == nil {
			failed = &results[i]
		}
	}
	if failed != nil {
		return fmt.Sprintf("I completed %d of %d steps, then %s failed: %s",
			done, len(p.Actions), failed.ActionType, failed.Message)
	}
	return fmt.Sprintf("I completed %d of %d steps.", done, len(p.Actions))
}
