package safety

import (
	"fmt"
	"strings"

	"github.com/arjunsk/max/internal/plan"
)

// ConfirmationMessage renders the human-readable approval summary: one
// line per dangerous action, plus the blocked list if any survived to
// this point (blocked already implies non-approval upstream).
func ConfirmationMessage(p *plan.Plan, verdict Verdict) string {
	var b strings.Builder
	b.WriteString("The following actions require your approval:\n")

	for _, i := range verdict.DangerousIdx {
		action := p.Actions[i]
		b.WriteString(fmt.Sprintf("  - %s\n", DescribeAction(action)))
	}

	if len(verdict.BlockedIdx) > 0 {
		b.WriteString("\nThe following actions were BLOCKED:\n")
		for _, i := range verdict.BlockedIdx {
			b.WriteString(fmt.Sprintf("  - %s: violates safety policy\n", p.Actions[i].Type))
		}
	}

	b.WriteString("\nDo you want to proceed?")
	return b.String()
}

// DescribeAction renders a one-line human description of an action.
func DescribeAction(action plan.Action) string {
	params := action.Parameters
	str := func(key, fallback string) string {
		if v, ok := params[key].(string); ok && v != "" {
			return v
		}
		return fallback
	}

	switch action.Type {
	case "file_delete":
		return fmt.Sprintf("Delete file: %s", str("path", "unknown"))
	case "file_move":
		return fmt.Sprintf("Move file from %s to %s", str("source", "?"), str("destination", "?"))
	case "install_software":
		return fmt.Sprintf("Install: %s via %s", str("name", "unknown"), str("method", "unknown"))
	case "system_volume":
		if level, ok := params["level"]; ok {
			return fmt.Sprintf("Change volume to %v", level)
		}
		return fmt.Sprintf("Change volume: %s", str("action", "?"))
	case "system_brightness":
		if level, ok := params["level"]; ok {
			return fmt.Sprintf("Change brightness to %v", level)
		}
		return "Change brightness"
	case "press_key":
		return fmt.Sprintf("Press key: %s", str("key", "?"))
	case "system_shutdown":
		return fmt.Sprintf("Shut down the system (delay %vs)", params["delay"])
	case "system_restart":
		return fmt.Sprintf("Restart the system (delay %vs)", params["delay"])
	}
	return fmt.Sprintf("%s: %v", action.Type, params)
}
