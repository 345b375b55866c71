package actions

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/arjunsk/max/internal/dispatch"
)

// System implements desktop and OS control through the usual Linux
// utilities: xdotool for input, amixer for audio, brightnessctl for the
// backlight, nmcli/bluetoothctl for radios, systemctl/shutdown for
// power. Each helper surfaces the tool's own error text on failure.
type System struct{}

func run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(output))
	if err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return "", fmt.Errorf("%s is not installed", name)
		}
		return "", fmt.Errorf("%s failed: %v: %s", name, err, text)
	}
	return text, nil
}

func fail(err error) dispatch.Result {
	return dispatch.Result{Message: err.Error()}
}

func ok(format string, args ...any) dispatch.Result {
	return dispatch.Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// intParam reads an integer that may arrive as a JSON float64.
func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (System) OpenApp(ctx context.Context, params map[string]any) dispatch.Result {
	name, _ := params["name"].(string)
	if name == "" {
		return dispatch.Result{Message: "name parameter is required"}
	}
	cmd := exec.Command(name)
	if err := cmd.Start(); err != nil {
		// Fall back to the desktop launcher for apps not on PATH.
		if _, xdgErr := run(ctx, "gtk-launch", name); xdgErr != nil {
			return dispatch.Result{Message: fmt.Sprintf("could not launch %s: %v", name, err)}
		}
	}
	return ok("Opened %s", name)
}

func (System) CloseApp(ctx context.Context, params map[string]any) dispatch.Result {
	name, _ := params["name"].(string)
	if name == "" {
		return dispatch.Result{Message: "name parameter is required"}
	}
	if _, err := run(ctx, "pkill", "-f", name); err != nil {
		return fail(err)
	}
	return ok("Closed %s", name)
}

func (System) Volume(ctx context.Context, params map[string]any) dispatch.Result {
	if action, _ := params["action"].(string); action != "" {
		switch action {
		case "mute":
			return muteAudio(ctx, true)
		case "unmute":
			return muteAudio(ctx, false)
		default:
			return dispatch.Result{Message: fmt.Sprintf("unknown volume action: %s", action)}
		}
	}

	level := intParam(params, "level", -1)
	if level < 0 || level > 100 {
		return dispatch.Result{Message: "level must be between 0 and 100"}
	}
	if _, err := run(ctx, "amixer", "set", "Master", fmt.Sprintf("%d%%", level)); err != nil {
		return fail(err)
	}
	return ok("Volume set to %d%%", level)
}

func muteAudio(ctx context.Context, mute bool) dispatch.Result {
	arg := "unmute"
	verb := "unmuted"
	if mute {
		arg = "mute"
		verb = "muted"
	}
	if _, err := run(ctx, "amixer", "set", "Master", arg); err != nil {
		return fail(err)
	}
	return ok("Audio %s", verb)
}

func (s System) Mute(ctx context.Context, params map[string]any) dispatch.Result {
	return muteAudio(ctx, true)
}

func (s System) Unmute(ctx context.Context, params map[string]any) dispatch.Result {
	return muteAudio(ctx, false)
}

func (System) Brightness(ctx context.Context, params map[string]any) dispatch.Result {
	level := intParam(params, "level", -1)
	if level < 0 || level > 100 {
		return dispatch.Result{Message: "level must be between 0 and 100"}
	}
	if _, err := run(ctx, "brightnessctl", "set", fmt.Sprintf("%d%%", level)); err != nil {
		return fail(err)
	}
	return ok("Brightness set to %d%%", level)
}

func (System) Sleep(ctx context.Context, params map[string]any) dispatch.Result {
	if delay := intParam(params, "delay", 0); delay > 0 {
		select {
		case <-time.After(time.Duration(delay) * time.Second):
		case <-ctx.Done():
			return dispatch.Result{Message: "cancelled before sleep"}
		}
	}
	if _, err := run(ctx, "systemctl", "suspend"); err != nil {
		return fail(err)
	}
	return ok("System sleeping")
}

func (System) Lock(ctx context.Context, params map[string]any) dispatch.Result {
	if _, err := run(ctx, "loginctl", "lock-session"); err != nil {
		return fail(err)
	}
	return ok("Screen locked")
}

func (System) Shutdown(ctx context.Context, params map[string]any) dispatch.Result {
	delay := intParam(params, "delay", 60)
	minutes := (delay + 59) / 60
	if _, err := run(ctx, "shutdown", "-h", fmt.Sprintf("+%d", minutes)); err != nil {
		return fail(err)
	}
	return ok("Shutdown scheduled in %ds", delay)
}

func (System) Restart(ctx context.Context, params map[string]any) dispatch.Result {
	delay := intParam(params, "delay", 60)
	minutes := (delay + 59) / 60
	if _, err := run(ctx, "shutdown", "-r", fmt.Sprintf("+%d", minutes)); err != nil {
		return fail(err)
	}
	return ok("Restart scheduled in %ds", delay)
}

func (System) Wifi(ctx context.Context, params map[string]any) dispatch.Result {
	action, _ := params["action"].(string)
	switch action {
	case "on", "off":
		if _, err := run(ctx, "nmcli", "radio", "wifi", action); err != nil {
			return fail(err)
		}
		return ok("WiFi turned %s", action)
	case "toggle":
		state, err := run(ctx, "nmcli", "radio", "wifi")
		if err != nil {
			return fail(err)
		}
		next := "on"
		if strings.Contains(state, "enabled") {
			next = "off"
		}
		if _, err := run(ctx, "nmcli", "radio", "wifi", next); err != nil {
			return fail(err)
		}
		return ok("WiFi toggled %s", next)
	}
	return dispatch.Result{Message: "action must be on, off or toggle"}
}

func (System) Bluetooth(ctx context.Context, params map[string]any) dispatch.Result {
	action, _ := params["action"].(string)
	switch action {
	case "on", "off":
		if _, err := run(ctx, "bluetoothctl", "power", action); err != nil {
			return fail(err)
		}
		return ok("Bluetooth turned %s", action)
	case "toggle":
		state, err := run(ctx, "bluetoothctl", "show")
		if err != nil {
			return fail(err)
		}
		next := "on"
		if strings.Contains(state, "Powered: yes") {
			next = "off"
		}
		if _, err := run(ctx, "bluetoothctl", "power", next); err != nil {
			return fail(err)
		}
		return ok("Bluetooth toggled %s", next)
	}
	return dispatch.Result{Message: "action must be on, off or toggle"}
}

func (System) Screensaver(ctx context.Context, params map[string]any) dispatch.Result {
	action, _ := params["action"].(string)
	switch action {
	case "on":
		if _, err := run(ctx, "xdg-screensaver", "activate"); err != nil {
			return fail(err)
		}
		return ok("Screensaver started")
	case "off":
		if _, err := run(ctx, "xdg-screensaver", "reset"); err != nil {
			return fail(err)
		}
		return ok("Screensaver stopped")
	}
	return dispatch.Result{Message: "action must be on or off"}
}

func (System) MoveMouse(ctx context.Context, params map[string]any) dispatch.Result {
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)
	if x < 0 || y < 0 {
		return dispatch.Result{Message: "x and y parameters are required"}
	}
	if _, err := run(ctx, "xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
		return fail(err)
	}
	return ok("Mouse moved to %d,%d", x, y)
}

// ClickAt performs a desktop click at pixel coordinates, optionally
// moving there first.
func (System) ClickAt(ctx context.Context, params map[string]any) dispatch.Result {
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)
	if x >= 0 && y >= 0 {
		if _, err := run(ctx, "xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
			return fail(err)
		}
	}
	if _, err := run(ctx, "xdotool", "click", "1"); err != nil {
		return fail(err)
	}
	return ok("Clicked")
}

// PressKey sends a key or combination. The safety classifier has
// already vetted dangerous combos behind confirmation.
func (System) PressKey(ctx context.Context, params map[string]any) dispatch.Result {
	key, _ := params["key"].(string)
	if key == "" {
		return dispatch.Result{Message: "key parameter is required"}
	}
	if _, err := run(ctx, "xdotool", "key", key); err != nil {
		return fail(err)
	}
	return ok("Pressed %s", key)
}

// TypeText types a string into the focused desktop window.
func (System) TypeText(ctx context.Context, params map[string]any) dispatch.Result {
	text, _ := params["text"].(string)
	if text == "" {
		return dispatch.Result{Message: "text parameter is required"}
	}
	if _, err := run(ctx, "xdotool", "type", text); err != nil {
		return fail(err)
	}
	return ok("Typed text")
}

// Install installs a package. Only the apt method is wired; the
// sanitizer has already blanked package ids with shell metacharacters.
func (System) Install(ctx context.Context, params map[string]any) dispatch.Result {
	name, _ := params["name"].(string)
	pkg, _ := params["package_id"].(string)
	if pkg == "" {
		pkg = name
	}
	if pkg == "" {
		return dispatch.Result{Message: "name or package_id parameter is required"}
	}
	method, _ := params["method"].(string)
	switch method {
	case "", "apt":
		if _, err := run(ctx, "apt-get", "install", "-y", pkg); err != nil {
			return fail(err)
		}
	case "flatpak":
		if _, err := run(ctx, "flatpak", "install", "-y", pkg); err != nil {
			return fail(err)
		}
	default:
		return dispatch.Result{Message: fmt.Sprintf("unsupported install method: %s", method)}
	}
	return ok("Installed %s", pkg)
}
