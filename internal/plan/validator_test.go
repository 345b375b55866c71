package plan

import (
	"reflect"
	"testing"
)

func simplePlan() *Plan {
	return &Plan{
		TaskType: TaskSingleStep,
		Actions: []Action{
			{Type: "open_app", Parameters: map[string]any{"app_name": "notepad"}},
		},
	}
}

func TestDetectComplexity(t *testing.T) {
	score, _ := DetectComplexity(simplePlan())
	if score != ComplexitySimple {
		t.Errorf("Expected simple, got %d", score)
	}

	multi := &Plan{
		TaskType: TaskMultiStep,
		Actions: []Action{
			{Type: "open_browser", Parameters: map[string]any{}},
			{Type: "navigate", Parameters: map[string]any{"url": "example.com"}},
		},
	}
	score, _ = DetectComplexity(multi)
	if score != ComplexityModerate {
		t.Errorf("Expected moderate for multi-action plan, got %d", score)
	}

	dangerous := &Plan{
		TaskType: TaskSingleStep,
		Actions: []Action{
			{Type: "file_delete", Parameters: map[string]any{"path": "/tmp/x"}},
		},
	}
	score, concerns := DetectComplexity(dangerous)
	if score != ComplexityComplex {
		t.Errorf("Expected complex for dangerous plan, got %d (%v)", score, concerns)
	}
}

func TestValidate_StrictMode(t *testing.T) {
	v := &Validator{Strict: true}

	if _, _, err := v.Validate(simplePlan()); err != nil {
		t.Errorf("Simple plan should pass strict mode: %v", err)
	}

	dangerous := &Plan{
		TaskType: TaskSingleStep,
		Actions: []Action{
			{Type: "system_shutdown", Parameters: map[string]any{}},
		},
	}
	if _, _, err := v.Validate(dangerous); err == nil {
		t.Error("Complex plan should be rejected in strict mode")
	}

	v.Strict = false
	if _, _, err := v.Validate(dangerous); err != nil {
		t.Errorf("Complex plan should pass without strict mode: %v", err)
	}
}

func TestValidate_SchemaRejections(t *testing.T) {
	v := &Validator{}

	bad := &Plan{TaskType: "nope", Actions: simplePlan().Actions}
	if _, _, err := v.Validate(bad); err == nil {
		t.Error("Invalid task_type should be rejected")
	}

	empty := &Plan{TaskType: TaskSingleStep}
	if _, _, err := v.Validate(empty); err == nil {
		t.Error("Empty actions should be rejected")
	}
}

func TestSanitize_NeutralizesRootDelete(t *testing.T) {
	for _, path := range []string{"", "/", `C:\`, "C:"} {
		p := &Plan{
			TaskType: TaskSingleStep,
			Actions: []Action{
				{Type: "file_delete", Parameters: map[string]any{"path": path}},
			},
		}
		out := Sanitize(p)
		if len(out.Actions[0].Parameters) != 0 {
			t.Errorf("Delete of %q should have its parameters emptied", path)
		}
	}
}

func TestSanitize_ScrubsInstallMetachars(t *testing.T) {
	p := &Plan{
		TaskType: TaskSingleStep,
		Actions: []Action{
			{Type: "install_software", Parameters: map[string]any{"package_id": "vim; rm -rf /"}},
		},
	}
	out := Sanitize(p)
	if out.Actions[0].Parameters["package_id"] != "" {
		t.Error("Package id with shell metacharacters should be emptied")
	}
}

func TestSanitize_CapsPowerDelay(t *testing.T) {
	p := &Plan{
		TaskType: TaskSingleStep,
		Actions: []Action{
			{Type: "system_shutdown", Parameters: map[string]any{"delay": float64(999999)}},
		},
	}
	out := Sanitize(p)
	if out.Actions[0].Parameters["delay"] != float64(MaxPowerDelaySeconds) {
		t.Errorf("Delay should be capped at %d, got %v", MaxPowerDelaySeconds, out.Actions[0].Parameters["delay"])
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	p := &Plan{
		TaskType: TaskMultiStep,
		Actions: []Action{
			{Type: "file_delete", Parameters: map[string]any{"path": "/"}},
			{Type: "system_restart", Parameters: map[string]any{"delay": float64(7200)}},
			{Type: "open_app", Parameters: map[string]any{"app_name": "calc"}},
		},
	}
	once := Sanitize(p)
	twice := Sanitize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("Sanitizing twice should equal sanitizing once")
	}
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	p := &Plan{
		TaskType: TaskSingleStep,
		Actions: []Action{
			{Type: "system_shutdown", Parameters: map[string]any{"delay": float64(7200)}},
		},
	}
	_ = Sanitize(p)
	if p.Actions[0].Parameters["delay"] != float64(7200) {
		t.Error("Sanitize must operate on a copy")
	}
}
