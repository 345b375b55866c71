package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkBlock matches reasoning-model <think>...</think> delimiters.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ExtractObject pulls the first top-level JSON object out of raw model
// output: reasoning blocks and markdown fences are stripped, then the
// span from the first '{' to the last '}' is returned.
func ExtractObject(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSpace(thinkBlock.ReplaceAllString(cleaned, ""))

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[7:]
	}
	if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[3:]
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = cleaned[:len(cleaned)-3]
	}
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return cleaned[start : end+1], true
}

// Repair describes one normalization applied to a model-produced plan.
// Repairs are surfaced so the audit log shows every mutation.
type Repair struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// Normalize parses raw model output into a Plan, repairing the benign
// omissions local models are prone to (missing task_type, missing
// parameters, missing requires_confirmation) and rejecting everything
// structurally unrecoverable: missing/empty/malformed actions, unknown
// action types, non-object parameters.
func Normalize(raw string) (*Plan, []Repair, error) {
	text, ok := ExtractObject(raw)
	if !ok {
		return nil, nil, fmt.Errorf("no JSON object found in output")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	rawActions, ok := obj["actions"]
	if !ok {
		return nil, nil, fmt.Errorf("missing 'actions' field")
	}
	list, ok := rawActions.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("'actions' must be a list")
	}
	if len(list) == 0 {
		return nil, nil, fmt.Errorf("'actions' list is empty")
	}

	var repairs []Repair
	p := &Plan{Actions: make([]Action, 0, len(list))}

	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("action %d is not an object", i)
		}
		typ, ok := m["type"].(string)
		if !ok || typ == "" {
			return nil, nil, fmt.Errorf("action %d missing 'type'", i)
		}
		if !AllActionTypes[typ] {
			return nil, nil, fmt.Errorf("action %d has invalid type: %s", i, typ)
		}
		var params map[string]any
		if rawParams, present := m["parameters"]; present {
			params, ok = rawParams.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("action %d 'parameters' must be an object", i)
			}
		} else {
			params = map[string]any{}
			repairs = append(repairs, Repair{
				Field:  "parameters",
				Detail: fmt.Sprintf("action %d: defaulted to empty object", i),
			})
		}
		p.Actions = append(p.Actions, Action{Type: typ, Parameters: params})
	}

	// task_type: auto-assign or auto-correct from the action count.
	inferred := TaskSingleStep
	if len(p.Actions) > 1 {
		inferred = TaskMultiStep
	}
	switch tt, _ := obj["task_type"].(string); tt {
	case TaskSingleStep, TaskMultiStep, TaskClarify:
		p.TaskType = tt
	case "":
		p.TaskType = inferred
		repairs = append(repairs, Repair{Field: "task_type", Detail: "auto-assigned " + inferred})
	default:
		p.TaskType = inferred
		repairs = append(repairs, Repair{
			Field:  "task_type",
			Detail: fmt.Sprintf("auto-corrected %q to %q", tt, inferred),
		})
	}

	// requires_confirmation: default from the dangerous-action set.
	if rc, present := obj["requires_confirmation"].(bool); present {
		p.RequiresConfirmation = rc
	} else {
		for _, a := range p.Actions {
			if DangerousActions[a.Type] {
				p.RequiresConfirmation = true
				break
			}
		}
		repairs = append(repairs, Repair{
			Field:  "requires_confirmation",
			Detail: fmt.Sprintf("defaulted to %v", p.RequiresConfirmation),
		})
	}

	return p, repairs, nil
}
