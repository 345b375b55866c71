package plan

import (
	"fmt"
	"strings"
)

// Complexity scores.
const (
	ComplexitySimple   = 0
	ComplexityModerate = 1
	ComplexityComplex  = 2
)

// MaxPowerDelaySeconds caps shutdown/restart delays during sanitization.
const MaxPowerDelaySeconds = 3600

var shellMetachars = []string{";", "|", "&", ">", "<", "`"}

// DetectComplexity scores a plan 0 (simple), 1 (moderate) or 2 (complex)
// and returns the list of concerns that drove the score.
func DetectComplexity(p *Plan) (int, []string) {
	var concerns []string
	score := ComplexitySimple

	if len(p.Actions) > 1 {
		concerns = append(concerns, fmt.Sprintf("Multiple actions (%d)", len(p.Actions)))
		score = ComplexityModerate
	}

	dangerous := 0
	hasWait := false
	for _, a := range p.Actions {
		if DangerousActions[a.Type] {
			dangerous++
		}
		if a.Type == "wait" {
			hasWait = true
		}
	}
	if dangerous > 0 {
		concerns = append(concerns, fmt.Sprintf("Contains %d dangerous action(s)", dangerous))
		score = ComplexityComplex
	}

	// Textual conditional markers anywhere in the serialized plan force
	// the top score: the vocabulary has no branching, so their presence
	// means the model is trying to smuggle control flow in.
	serialized := strings.ToLower(p.JSON())
	for _, word := range []string{"if", "else", "conditional", "condition"} {
		if strings.Contains(serialized, word) {
			concerns = append(concerns, "Contains conditional logic")
			score = ComplexityComplex
			break
		}
	}

	if hasWait && len(p.Actions) > 2 {
		concerns = append(concerns, "Long sequence with waits (potential loop)")
		score = ComplexityComplex
	}

	return score, concerns
}

// Validator combines the schema check with complexity detection.
// Strict mode rejects any plan scoring above simple.
type Validator struct {
	Strict bool
}

// Validate re-checks plan structure and scores complexity.
func (v *Validator) Validate(p *Plan) (complexity int, concerns []string, err error) {
	if err := checkSchema(p); err != nil {
		return 0, nil, err
	}

	complexity, concerns = DetectComplexity(p)
	if v.Strict && complexity > ComplexitySimple {
		return complexity, concerns, fmt.Errorf("complex plans rejected in strict mode")
	}
	return complexity, concerns, nil
}

// checkSchema mirrors the Normalize rejection rules for plans that were
// constructed in code rather than parsed from model output.
func checkSchema(p *Plan) error {
	switch p.TaskType {
	case TaskSingleStep, TaskMultiStep, TaskClarify:
	default:
		return fmt.Errorf("invalid task_type: %q", p.TaskType)
	}
	if len(p.Actions) == 0 {
		return fmt.Errorf("actions list cannot be empty")
	}
	for i, a := range p.Actions {
		if !AllActionTypes[a.Type] {
			return fmt.Errorf("action %d has invalid type: %s", i, a.Type)
		}
		if a.Parameters == nil {
			return fmt.Errorf("action %d missing parameters", i)
		}
	}
	return nil
}

// Sanitize returns a copy of the plan with per-type parameter scrubbing
// applied. Sanitizing twice yields the same plan.
func Sanitize(p *Plan) *Plan {
	cp := p.Clone()
	for i := range cp.Actions {
		cp.Actions[i].Parameters = sanitizeParameters(cp.Actions[i].Type, cp.Actions[i].Parameters)
	}
	return cp
}

func sanitizeParameters(actionType string, params map[string]any) map[string]any {
	switch actionType {
	case "file_delete":
		// An empty or root/drive path neutralizes the whole action.
		path, _ := params["path"].(string)
		switch path {
		case "", "/", `C:\`, "C:":
			return map[string]any{}
		}

	case "install_software":
		if pkg, ok := params["package_id"].(string); ok {
			for _, ch := range shellMetachars {
				if strings.Contains(pkg, ch) {
					params["package_id"] = ""
					break
				}
			}
		}

	case "system_shutdown", "system_restart":
		if delay, ok := numericParam(params, "delay"); ok && delay > MaxPowerDelaySeconds {
			params["delay"] = float64(MaxPowerDelaySeconds)
		}
	}
	return params
}

// numericParam reads an int-valued parameter that may arrive as either a
// JSON float64 or a Go int.
func numericParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
