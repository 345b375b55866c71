package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan         EventType = "plan"
	EventTypePlanRepair   EventType = "plan_repair"
	EventTypePolicyCheck  EventType = "policy_check"
	EventTypeConfirm      EventType = "confirm"
	EventTypeDispatch     EventType = "dispatch"
	EventTypeActionResult EventType = "action_result"
	EventTypeOutcome      EventType = "outcome"
	EventTypeHeartbeat    EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type        EventType `json:"type"`
	UtteranceID string    `json:"utterance_id,omitempty"`
	Data        any       `json:"data"`
	Timestamp   time.Time `json:"timestamp"`
}

// Logger emits structured events to stdout and mirrors everything but
// heartbeats to an append-only audit file.
type Logger struct {
	auditLogPath string
	maxSize      int64
}

func NewLogger() *Logger {
	return &Logger{
		auditLogPath: filepath.Join("logs", "audit.jsonl"),
		maxSize:      10 * 1024 * 1024, // 10MB
	}
}

func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type != EventTypeHeartbeat {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.auditLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.auditLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.auditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.auditLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.auditLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(utteranceID, source, planJSON string) {
	l.Log(Event{
		Type:        EventTypePlan,
		UtteranceID: utteranceID,
		Data: map[string]string{
			"source": source,
			"plan":   planJSON,
		},
	})
}

func (l *Logger) LogPlanRepair(utteranceID, field, detail string) {
	l.Log(Event{
		Type:        EventTypePlanRepair,
		UtteranceID: utteranceID,
		Data: map[string]string{
			"field":  field,
			"detail": detail,
		},
	})
}

func (l *Logger) LogPolicyCheck(utteranceID string, approved, needsConfirmation bool, reasons []string) {
	l.Log(Event{
		Type:        EventTypePolicyCheck,
		UtteranceID: utteranceID,
		Data: map[string]any{
			"approved":           approved,
			"needs_confirmation": needsConfirmation,
			"reasons":            reasons,
		},
	})
}

func (l *Logger) LogConfirm(utteranceID string, approved bool) {
	l.Log(Event{
		Type:        EventTypeConfirm,
		UtteranceID: utteranceID,
		Data:        map[string]bool{"approved": approved},
	})
}

func (l *Logger) LogDispatch(utteranceID, taskType string, actionCount int) {
	l.Log(Event{
		Type:        EventTypeDispatch,
		UtteranceID: utteranceID,
		Data: map[string]any{
			"task_type":    taskType,
			"action_count": actionCount,
		},
	})
}

func (l *Logger) LogActionResult(utteranceID string, index int, actionType string, success, skipped bool, message string, elapsed time.Duration) {
	l.Log(Event{
		Type:        EventTypeActionResult,
		UtteranceID: utteranceID,
		Data: map[string]any{
			"action_index": index,
			"action_type":  actionType,
			"success":      success,
			"skipped":      skipped,
			"message":      message,
			"elapsed_ms":   elapsed.Milliseconds(),
		},
	})
}

func (l *Logger) LogOutcome(utteranceID string, success bool, summary string) {
	l.Log(Event{
		Type:        EventTypeOutcome,
		UtteranceID: utteranceID,
		Data: map[string]any{
			"success": success,
			"summary": summary,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
