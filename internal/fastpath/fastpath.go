// Package fastpath matches common command phrasings against a fixed
// rule table so the planner backends are never invoked for them. It is
// purely functional over the input text: first rule wins, and rule
// order is significant and fixed.
package fastpath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arjunsk/max/internal/plan"
)

type rule struct {
	re    *regexp.Regexp
	build func(m []string, text string) *plan.Plan
}

func literal(actionType string, params map[string]any) func([]string, string) *plan.Plan {
	return func([]string, string) *plan.Plan {
		return single(actionType, params)
	}
}

func single(actionType string, params map[string]any) *plan.Plan {
	if params == nil {
		params = map[string]any{}
	}
	return &plan.Plan{
		TaskType: plan.TaskSingleStep,
		Actions:  []plan.Action{{Type: actionType, Parameters: params}},
	}
}

var rules = []rule{
	// App and browser launches.
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:google\s+)?chrome(?:\s+browser)?$`),
		literal("open_browser", map[string]any{"browser": "chrome"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:mozilla\s+)?firefox(?:\s+browser)?$`),
		literal("open_app", map[string]any{"name": "firefox"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:microsoft\s+)?edge(?:\s+browser)?$`),
		literal("open_app", map[string]any{"name": "edge"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:ms\s+)?word(?:\s+document)?$`),
		literal("open_app", map[string]any{"name": "winword"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:ms\s+)?excel(?:\s+sheet)?$`),
		literal("open_app", map[string]any{"name": "excel"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+notepad$`),
		literal("open_app", map[string]any{"name": "notepad"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:file\s+)?explorer$`),
		literal("open_app", map[string]any{"name": "explorer"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+(?:task\s+)?manager$`),
		literal("open_app", map[string]any{"name": "taskmgr"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+calculator$`),
		literal("open_app", map[string]any{"name": "calculator"})},
	{regexp.MustCompile(`^(?:open|launch|start)\s+settings$`),
		literal("open_app", map[string]any{"name": "settings"})},

	// Volume.
	{regexp.MustCompile(`^(?:mute|silence)(?:\s+(?:the\s+)?(?:audio|sound|volume))?$`),
		literal("system_volume", map[string]any{"action": "mute"})},
	{regexp.MustCompile(`^unmute(?:\s+(?:the\s+)?(?:audio|sound|volume))?$`),
		literal("system_volume", map[string]any{"action": "unmute"})},
	{regexp.MustCompile(`^set\s+(?:the\s+)?volume\s+to\s+(\d+)(?:\s*%)?$`), volumeLevel},
	{regexp.MustCompile(`^volume\s+(\d+)(?:\s*%)?$`), volumeLevel},

	// Brightness.
	{regexp.MustCompile(`^set\s+(?:the\s+)?brightness\s+to\s+(\d+)(?:\s*%)?$`), brightnessLevel},
	{regexp.MustCompile(`^brightness\s+(\d+)(?:\s*%)?$`), brightnessLevel},

	// Power.
	{regexp.MustCompile(`^(?:lock|lock\s+(?:the\s+)?screen|lock\s+up)$`),
		literal("system_lock", nil)},
	{regexp.MustCompile(`^(?:sleep|put\s+(?:the\s+)?(?:system|computer)\s+to\s+sleep|go\s+to\s+sleep)$`),
		literal("system_sleep", map[string]any{"delay": 0})},
	{regexp.MustCompile(`^(?:shutdown|shut\s+down|power\s+off)(?:\s+in\s+(\d+)\s+(?:seconds?|secs?))?$`),
		delayed("system_shutdown")},
	{regexp.MustCompile(`^(?:restart|reboot)(?:\s+in\s+(\d+)\s+(?:seconds?|secs?))?$`),
		delayed("system_restart")},

	// Radios.
	{regexp.MustCompile(`^(?:turn\s+)?wifi\s+(?:on|off)$`), onOff("system_wifi")},
	{regexp.MustCompile(`^(?:toggle|switch)\s+wifi$`),
		literal("system_wifi", map[string]any{"action": "toggle"})},
	{regexp.MustCompile(`^(?:turn\s+)?bluetooth\s+(?:on|off)$`), onOff("system_bluetooth")},
	{regexp.MustCompile(`^(?:toggle|switch)\s+bluetooth$`),
		literal("system_bluetooth", map[string]any{"action": "toggle"})},
}

func volumeLevel(m []string, _ string) *plan.Plan {
	level, _ := strconv.Atoi(m[1])
	return single("system_volume", map[string]any{"level": level})
}

func brightnessLevel(m []string, _ string) *plan.Plan {
	level, _ := strconv.Atoi(m[1])
	return single("system_brightness", map[string]any{"level": level})
}

// delayed builds shutdown/restart plans with a spoken delay, defaulting
// to 60 seconds so the user has time to change their mind.
func delayed(actionType string) func([]string, string) *plan.Plan {
	return func(m []string, _ string) *plan.Plan {
		delay := 60
		if len(m) > 1 && m[1] != "" {
			delay, _ = strconv.Atoi(m[1])
		}
		return single(actionType, map[string]any{"delay": delay})
	}
}

func onOff(actionType string) func([]string, string) *plan.Plan {
	return func(_ []string, text string) *plan.Plan {
		action := "off"
		if strings.Contains(text, "on") {
			action = "on"
		}
		return single(actionType, map[string]any{"action": action})
	}
}

// Match tries each rule in order against the normalized command text
// and returns the ready-made plan of the first match. A nil return is
// not an error; it defers the command to the planner backends.
func Match(text string) *plan.Plan {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(normalized); m != nil {
			return r.build(m, normalized)
		}
	}
	return nil
}
