package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arjunsk/max/internal/dispatch"
	"github.com/arjunsk/max/internal/observability"
	"github.com/arjunsk/max/internal/plan"
	"github.com/arjunsk/max/internal/planner"
	"github.com/arjunsk/max/internal/safety"
	"github.com/arjunsk/max/internal/store"
)

type fakePlanner struct {
	plan    *plan.Plan
	repairs []plan.Repair
	calls   int
}

func (f *fakePlanner) Name() string { return "fake" }

func (f *fakePlanner) Plan(ctx context.Context, userText string, history []planner.Turn) (*plan.Plan, []plan.Repair) {
	f.calls++
	return f.plan, f.repairs
}

type fakeSpeaker struct {
	said []string
}

func (f *fakeSpeaker) Send(text string) error {
	f.said = append(f.said, text)
	return nil
}

func (f *fakeSpeaker) last() string {
	if len(f.said) == 0 {
		return ""
	}
	return f.said[len(f.said)-1]
}

type fakeStore struct {
	saved   []string
	ok      []bool
	history []store.Conversation
	prefs   map[string]string
}

func (f *fakeStore) SaveConversation(utteranceID, userText, planJSON, resultJSON string, success bool) error {
	f.saved = append(f.saved, userText)
	f.ok = append(f.ok, success)
	return nil
}

func (f *fakeStore) GetRecentConversations(limit int) ([]store.Conversation, error) {
	return nil, nil
}

func (f *fakeStore) SearchConversations(query string, limit int) ([]store.Conversation, error) {
	var found []store.Conversation
	for _, c := range f.history {
		if strings.Contains(c.UserText, query) {
			found = append(found, c)
		}
	}
	return found, nil
}

func (f *fakeStore) SetPreference(key, value string) error {
	if f.prefs == nil {
		f.prefs = make(map[string]string)
	}
	f.prefs[key] = value
	return nil
}

type fakeGate struct {
	approve bool
	asked   int
}

func (f *fakeGate) Request(ctx context.Context, message string) bool {
	f.asked++
	return f.approve
}

type recordingHandler struct {
	calls int
}

func (h *recordingHandler) Execute(ctx context.Context, params map[string]any) dispatch.Result {
	h.calls++
	return dispatch.Result{Success: true, Message: "ok"}
}

type harness struct {
	orch    *Orchestrator
	brain   *fakePlanner
	speaker *fakeSpeaker
	store   *fakeStore
	gate    *fakeGate
	handler *recordingHandler
}

func newHarness(t *testing.T, protectedPaths []string) *harness {
	t.Helper()
	t.Chdir(t.TempDir())

	handler := &recordingHandler{}
	registry := dispatch.NewRegistry()
	for typ := range plan.AllActionTypes {
		registry.Register(typ, handler)
	}

	h := &harness{
		brain:   &fakePlanner{},
		speaker: &fakeSpeaker{},
		store:   &fakeStore{},
		gate:    &fakeGate{},
		handler: handler,
	}
	h.orch = &Orchestrator{
		Planner:       h.brain,
		PlanValidator: &plan.Validator{},
		Safety:        safety.NewValidator(safety.NewPolicy(protectedPaths), false),
		Gate:          h.gate,
		Dispatcher:    dispatch.NewDispatcher(registry),
		Store:         h.store,
		Speaker:       h.speaker,
		Logger:        observability.NewLogger(),
	}
	return h
}

func TestHandleCommand_FastPathSkipsPlanner(t *testing.T) {
	h := newHarness(t, nil)

	h.orch.HandleCommand(context.Background(), "open notepad")

	if h.brain.calls != 0 {
		t.Error("Fast-path command must not reach the planner")
	}
	if h.handler.calls != 1 {
		t.Errorf("Expected one action execution, got %d", h.handler.calls)
	}
	if len(h.store.saved) != 1 || !h.store.ok[0] {
		t.Error("Outcome should be recorded as success")
	}
}

func TestHandleCommand_NoPlanApologizes(t *testing.T) {
	h := newHarness(t, nil)

	h.orch.HandleCommand(context.Background(), "mumble mumble")

	if h.brain.calls != 1 {
		t.Error("Unmatched command should reach the planner")
	}
	if !strings.Contains(h.speaker.last(), "couldn't understand") {
		t.Errorf("Expected an apology, got %q", h.speaker.last())
	}
	if len(h.store.ok) != 1 || h.store.ok[0] {
		t.Error("Outcome should be recorded as failure")
	}
}

func TestHandleCommand_ClarifyShortCircuits(t *testing.T) {
	h := newHarness(t, nil)
	h.brain.plan = &plan.Plan{
		TaskType: plan.TaskClarify,
		Actions: []plan.Action{
			{Type: "wait", Parameters: map[string]any{"message": "Which file do you mean?"}},
		},
	}

	h.orch.HandleCommand(context.Background(), "delete the file")

	if h.handler.calls != 0 {
		t.Error("Clarify plans must not execute")
	}
	if h.speaker.last() != "Which file do you mean?" {
		t.Errorf("Expected the clarification question, got %q", h.speaker.last())
	}
	if len(h.store.ok) != 1 || !h.store.ok[0] {
		t.Error("A clarification exchange is a successful outcome")
	}
}

func TestHandleCommand_DangerousAsksGate(t *testing.T) {
	h := newHarness(t, nil)
	h.brain.plan = &plan.Plan{
		TaskType: plan.TaskSingleStep,
		Actions: []plan.Action{
			{Type: "file_delete", Parameters: map[string]any{"path": "/tmp/old.txt"}},
		},
	}

	h.gate.approve = false
	h.orch.HandleCommand(context.Background(), "delete old.txt")

	if h.gate.asked != 1 {
		t.Fatalf("Expected one confirmation request, got %d", h.gate.asked)
	}
	if h.handler.calls != 0 {
		t.Error("Denied plan must not execute")
	}

	h.gate.approve = true
	h.orch.HandleCommand(context.Background(), "delete old.txt")

	if h.handler.calls != 1 {
		t.Error("Approved plan should execute")
	}
}

func TestHandleCommand_BlockedNeverAsksOrExecutes(t *testing.T) {
	root := t.TempDir()
	h := newHarness(t, []string{root})
	h.brain.plan = &plan.Plan{
		TaskType: plan.TaskSingleStep,
		Actions: []plan.Action{
			{Type: "file_delete", Parameters: map[string]any{"path": root + "/x"}},
		},
	}

	h.orch.HandleCommand(context.Background(), "delete the protected file")

	if h.gate.asked != 0 {
		t.Error("Blocked plans are refused outright, not confirmed")
	}
	if h.handler.calls != 0 {
		t.Error("Blocked plan must not execute")
	}
	if !strings.Contains(h.speaker.last(), "can't") {
		t.Errorf("Expected a refusal, got %q", h.speaker.last())
	}
}

// auditEvents reads back the structured audit file written in the
// test's working directory.
func auditEvents(t *testing.T) map[string]int {
	t.Helper()
	f, err := os.Open(filepath.Join("logs", "audit.jsonl"))
	if err != nil {
		t.Fatalf("Audit log missing: %v", err)
	}
	defer f.Close()

	counts := make(map[string]int)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var evt struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			t.Fatalf("Malformed audit line %q: %v", scanner.Text(), err)
		}
		counts[evt.Type]++
	}
	return counts
}

func TestHandleCommand_AuditTrailCoversRepairsAndDispatch(t *testing.T) {
	h := newHarness(t, nil)
	h.brain.plan = &plan.Plan{
		TaskType: plan.TaskMultiStep,
		Actions: []plan.Action{
			{Type: "open_browser", Parameters: map[string]any{}},
			{Type: "navigate", Parameters: map[string]any{"url": "https://example.com"}},
		},
	}
	h.brain.repairs = []plan.Repair{
		{Field: "task_type", Detail: "auto-assigned multi_step"},
	}

	h.orch.HandleCommand(context.Background(), "open example.com")

	counts := auditEvents(t)
	if counts["plan_repair"] != 1 {
		t.Errorf("Expected 1 plan_repair event, got %d", counts["plan_repair"])
	}
	if counts["plan"] != 1 {
		t.Errorf("Expected 1 plan event, got %d", counts["plan"])
	}
	if counts["dispatch"] != 1 {
		t.Errorf("Expected 1 dispatch event, got %d", counts["dispatch"])
	}
	if counts["action_result"] != 2 {
		t.Errorf("Expected one action_result per action, got %d", counts["action_result"])
	}
	if counts["outcome"] != 1 {
		t.Errorf("Expected 1 outcome event, got %d", counts["outcome"])
	}
}

func TestHandleCommand_SafeModeToggle(t *testing.T) {
	h := newHarness(t, nil)

	h.orch.HandleCommand(context.Background(), "enable safe mode")

	if !h.orch.Safety.SafeMode() {
		t.Error("Safe mode should be on")
	}
	if h.store.prefs["safe_mode"] != "on" {
		t.Errorf("Safe mode should be persisted, prefs=%v", h.store.prefs)
	}
	if h.speaker.last() != "Safe mode on." {
		t.Errorf("Expected a spoken acknowledgement, got %q", h.speaker.last())
	}
	if h.brain.calls != 0 || h.handler.calls != 0 {
		t.Error("A safe-mode toggle must not reach the planner or dispatcher")
	}

	h.orch.HandleCommand(context.Background(), "disable safe mode")
	if h.orch.Safety.SafeMode() {
		t.Error("Safe mode should be off again")
	}
	if h.store.prefs["safe_mode"] != "off" {
		t.Errorf("Toggle off should be persisted, prefs=%v", h.store.prefs)
	}
}

func TestHandleCommand_RecallSearchesMemory(t *testing.T) {
	h := newHarness(t, nil)
	h.store.history = []store.Conversation{
		{UserText: "set volume to 50", Timestamp: time.Now()},
	}

	h.orch.HandleCommand(context.Background(), "recall volume")

	if !strings.Contains(h.speaker.last(), "set volume to 50") {
		t.Errorf("Expected the matching conversation, got %q", h.speaker.last())
	}

	h.orch.HandleCommand(context.Background(), "recall bluetooth")
	if !strings.Contains(h.speaker.last(), "don't remember") {
		t.Errorf("Expected an empty-recall reply, got %q", h.speaker.last())
	}
	if h.brain.calls != 0 {
		t.Error("Recall must not reach the planner")
	}
}

func TestHandleCommand_SafePlanRunsWithoutGate(t *testing.T) {
	h := newHarness(t, nil)
	h.brain.plan = &plan.Plan{
		TaskType: plan.TaskMultiStep,
		Actions: []plan.Action{
			{Type: "open_browser", Parameters: map[string]any{}},
			{Type: "navigate", Parameters: map[string]any{"url": "https://example.com"}},
		},
	}

	h.orch.HandleCommand(context.Background(), "open example.com")

	if h.gate.asked != 0 {
		t.Error("Safe plan should not require confirmation")
	}
	if h.handler.calls != 2 {
		t.Errorf("Expected both actions to run, got %d", h.handler.calls)
	}
}
