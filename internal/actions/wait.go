package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/arjunsk/max/internal/dispatch"
)

// Wait pauses the plan for a number of seconds. Clarify plans also use
// this type as their carrier, but those never reach the dispatcher.
func Wait(ctx context.Context, params map[string]any) dispatch.Result {
	seconds := 1.0
	switch v := params["seconds"].(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	}
	message, _ := params["message"].(string)

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
		return dispatch.Result{Message: "wait cancelled"}
	}

	if message == "" {
		message = fmt.Sprintf("Waited %.1fs", seconds)
	}
	return dispatch.Result{Success: true, Message: message}
}
