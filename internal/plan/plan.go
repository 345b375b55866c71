// Package plan defines the action-plan data model produced by the
// planners and consumed by the safety validator and dispatcher.
package plan

import "encoding/json"

// Task types carried by a Plan.
const (
	TaskSingleStep = "single_step"
	TaskMultiStep  = "multi_step"
	TaskClarify    = "clarify"
)

// Action is one discrete, typed operation drawn from the closed vocabulary.
type Action struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

// Plan is an ordered sequence of actions for a single utterance.
type Plan struct {
	TaskType             string   `json:"task_type"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
	Actions              []Action `json:"actions"`
}

// AllActionTypes is the closed action vocabulary. Unknown types are
// always rejected, never silently dropped.
var AllActionTypes = map[string]bool{
	"open_app":           true,
	"close_app":          true,
	"open_browser":       true,
	"navigate":           true,
	"click":              true,
	"type_text":          true,
	"press_key":          true,
	"move_mouse":         true,
	"file_create":        true,
	"file_delete":        true,
	"file_move":          true,
	"install_software":   true,
	"system_volume":      true,
	"system_brightness":  true,
	"system_sleep":       true,
	"system_lock":        true,
	"system_shutdown":    true,
	"system_restart":     true,
	"system_wifi":        true,
	"system_bluetooth":   true,
	"system_screensaver": true,
	"system_mute":        true,
	"system_unmute":      true,
	"summarize_screen":   true,
	"read_screen":        true,
	"search_web":         true,
	"wait":               true,
}

// DangerousActions always require confirmation: installs, deletes and
// destructive power actions.
var DangerousActions = map[string]bool{
	"file_delete":      true,
	"file_move":        true,
	"install_software": true,
	"system_shutdown":  true,
	"system_restart":   true,
	"system_sleep":     true,
}

// JSON serializes the plan as a compact JSON string.
func (p *Plan) JSON() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// Clone returns a deep copy of the plan. Parameters maps are copied one
// level deep, which covers every parameter shape in the vocabulary.
func (p *Plan) Clone() *Plan {
	cp := &Plan{
		TaskType:             p.TaskType,
		RequiresConfirmation: p.RequiresConfirmation,
		Actions:              make([]Action, len(p.Actions)),
	}
	for i, a := range p.Actions {
		params := make(map[string]any, len(a.Parameters))
		for k, v := range a.Parameters {
			params[k] = v
		}
		cp.Actions[i] = Action{Type: a.Type, Parameters: params}
	}
	return cp
}

// ClarifyMessage returns the clarification text of a clarify plan, or a
// generic fallback when the wait action carries no message.
func (p *Plan) ClarifyMessage() string {
	if p.TaskType != TaskClarify || len(p.Actions) == 0 {
		return ""
	}
	if msg, ok := p.Actions[0].Parameters["message"].(string); ok && msg != "" {
		return msg
	}
	return "Could you clarify?"
}
