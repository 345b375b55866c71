package plan

import (
	"testing"
)

func TestNormalize_AutoTaskType(t *testing.T) {
	p, repairs, err := Normalize(`{"actions": [{"type": "open_app", "parameters": {"app_name": "notepad"}}]}`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.TaskType != TaskSingleStep {
		t.Errorf("Expected single_step, got %s", p.TaskType)
	}
	if !hasRepair(repairs, "task_type") {
		t.Error("Expected a task_type repair to be recorded")
	}

	p, _, err = Normalize(`{"actions": [{"type": "open_browser", "parameters": {}}, {"type": "navigate", "parameters": {"url": "example.com"}}]}`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.TaskType != TaskMultiStep {
		t.Errorf("Expected multi_step, got %s", p.TaskType)
	}
}

func TestNormalize_CorrectsWrongTaskType(t *testing.T) {
	p, repairs, err := Normalize(`{"task_type": "bogus", "actions": [{"type": "wait", "parameters": {"seconds": 1}}]}`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.TaskType != TaskSingleStep {
		t.Errorf("Expected corrected single_step, got %s", p.TaskType)
	}
	if !hasRepair(repairs, "task_type") {
		t.Error("Expected a task_type repair")
	}
}

func TestNormalize_DefaultsParameters(t *testing.T) {
	p, repairs, err := Normalize(`{"task_type": "single_step", "actions": [{"type": "system_lock"}]}`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.Actions[0].Parameters == nil {
		t.Fatal("Parameters should be defaulted, not nil")
	}
	if !hasRepair(repairs, "parameters") {
		t.Error("Expected a parameters repair")
	}
}

func TestNormalize_ConfirmationDefault(t *testing.T) {
	p, _, err := Normalize(`{"actions": [{"type": "file_delete", "parameters": {"path": "/tmp/x"}}]}`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !p.RequiresConfirmation {
		t.Error("Dangerous action should default requires_confirmation to true")
	}

	p, _, err = Normalize(`{"actions": [{"type": "open_app", "parameters": {"app_name": "calc"}}]}`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.RequiresConfirmation {
		t.Error("Safe action should default requires_confirmation to false")
	}
}

func TestNormalize_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no object", "I cannot help with that."},
		{"missing actions", `{"task_type": "single_step"}`},
		{"empty actions", `{"actions": []}`},
		{"actions not list", `{"actions": "open the app"}`},
		{"action not object", `{"actions": ["open_app"]}`},
		{"missing type", `{"actions": [{"parameters": {}}]}`},
		{"unknown type", `{"actions": [{"type": "rm_rf", "parameters": {}}]}`},
		{"params not object", `{"actions": [{"type": "wait", "parameters": 5}]}`},
	}
	for _, tc := range cases {
		if _, _, err := Normalize(tc.raw); err == nil {
			t.Errorf("%s: expected rejection, got nil error", tc.name)
		}
	}
}

func TestExtractObject_StripsWrapping(t *testing.T) {
	raw := "<think>reason reason</think>\n```json\n{\"actions\": [{\"type\": \"wait\"}]}\n```"
	text, ok := ExtractObject(raw)
	if !ok {
		t.Fatal("Expected an object to be extracted")
	}
	if text[0] != '{' || text[len(text)-1] != '}' {
		t.Errorf("Extracted text is not a bare object: %q", text)
	}

	if _, ok := ExtractObject("no json here"); ok {
		t.Error("Expected extraction to fail on plain prose")
	}
}

func hasRepair(repairs []Repair, field string) bool {
	for _, r := range repairs {
		if r.Field == field {
			return true
		}
	}
	return false
}
