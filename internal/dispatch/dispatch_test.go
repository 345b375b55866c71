package dispatch

import (
	"context"
	"testing"

	"github.com/arjunsk/max/internal/plan"
)

func succeed(msg string) Handler {
	return HandlerFunc(func(ctx context.Context, params map[string]any) Result {
		return Result{Success: true, Message: msg}
	})
}

func fail(msg string) Handler {
	return HandlerFunc(func(ctx context.Context, params map[string]any) Result {
		return Result{Success: false, Message: msg}
	})
}

func testPlan(types ...string) *plan.Plan {
	p := &plan.Plan{TaskType: plan.TaskMultiStep}
	for _, typ := range types {
		p.Actions = append(p.Actions, plan.Action{Type: typ, Parameters: map[string]any{}})
	}
	if len(types) == 1 {
		p.TaskType = plan.TaskSingleStep
	}
	return p
}

func TestExecutePlan_StopsOnFirstFailure(t *testing.T) {
	reg := NewRegistry()
	reg.Register("open_browser", succeed("opened"))
	reg.Register("navigate", fail("no network"))
	reg.Register("click", succeed("clicked"))
	d := NewDispatcher(reg)

	results := d.ExecutePlan(context.Background(), testPlan("open_browser", "navigate", "click"), nil)

	if len(results) != 3 {
		t.Fatalf("Expected a result per action, got %d", len(results))
	}
	if !results[0].Success {
		t.Error("First action should succeed")
	}
	if results[1].Success || results[1].Skipped {
		t.Error("Second action should be a genuine failure")
	}
	if !results[2].Skipped {
		t.Error("Third action should be skipped")
	}
	if results[2].Message != "Skipped (previous action failed)" {
		t.Errorf("Unexpected skip message: %q", results[2].Message)
	}
}

func TestExecutePlan_OrderPreserved(t *testing.T) {
	var order []string
	reg := NewRegistry()
	for _, typ := range []string{"open_browser", "navigate", "click"} {
		typ := typ
		reg.Register(typ, HandlerFunc(func(ctx context.Context, params map[string]any) Result {
			order = append(order, typ)
			return Result{Success: true}
		}))
	}
	d := NewDispatcher(reg)

	d.ExecutePlan(context.Background(), testPlan("open_browser", "navigate", "click"), nil)

	want := []string{"open_browser", "navigate", "click"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Execution order %v, want %v", order, want)
		}
	}
}

func TestExecutePlan_SkipSet(t *testing.T) {
	ran := false
	reg := NewRegistry()
	reg.Register("open_app", HandlerFunc(func(ctx context.Context, params map[string]any) Result {
		ran = true
		return Result{Success: true}
	}))
	reg.Register("wait", succeed("waited"))
	d := NewDispatcher(reg)

	results := d.ExecutePlan(context.Background(), testPlan("open_app", "wait"), map[int]bool{0: true})

	if ran {
		t.Error("Skipped action must not invoke its handler")
	}
	if !results[0].Skipped {
		t.Error("Result for skipped index should be marked skipped")
	}
	if !results[1].Success {
		t.Error("Later actions still run after a skip")
	}
}

func TestExecutePlan_MissingHandlerFails(t *testing.T) {
	d := NewDispatcher(NewRegistry())

	results := d.ExecutePlan(context.Background(), testPlan("open_app"), nil)
	if results[0].Success {
		t.Error("Unregistered type should fail")
	}
	if results[0].Message != "No handler for: open_app" {
		t.Errorf("Unexpected message: %q", results[0].Message)
	}
}

func TestExecutePlan_PanicBecomesFailure(t *testing.T) {
	reg := NewRegistry()
	reg.Register("open_app", HandlerFunc(func(ctx context.Context, params map[string]any) Result {
		panic("boom")
	}))
	reg.Register("wait", succeed("waited"))
	d := NewDispatcher(reg)

	results := d.ExecutePlan(context.Background(), testPlan("open_app", "wait"), nil)

	if results[0].Success {
		t.Error("Panicking handler should yield a failure result")
	}
	if !results[1].Skipped {
		t.Error("Actions after a panic failure should be skipped")
	}
}

func TestExecutePlan_ElapsedRecorded(t *testing.T) {
	reg := NewRegistry()
	reg.Register("wait", succeed("done"))
	d := NewDispatcher(reg)

	results := d.ExecutePlan(context.Background(), testPlan("wait"), nil)
	if results[0].Elapsed < 0 {
		t.Error("Elapsed should be recorded")
	}
}
