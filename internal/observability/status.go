package observability

import (
	"sync"
	"time"
)

type State string

const (
	StateIdle       State = "IDLE"
	StateListening  State = "LISTENING"
	StateProcessing State = "PROCESSING"
	StateExecuting  State = "EXECUTING"
	StateError      State = "ERROR"
)

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentState  State
	ActiveCommand string
	LastHeartbeat time.Time
}

var globalStatus = &SystemStatus{
	CurrentState:  StateIdle,
	LastHeartbeat: time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(state State, command string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentState = state
	globalStatus.ActiveCommand = command
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() (State, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.CurrentState, globalStatus.ActiveCommand, globalStatus.LastHeartbeat
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}
