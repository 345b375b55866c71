package actions

import (
	"context"
	"log"

	"github.com/arjunsk/max/internal/dispatch"
)

// RegisterAll wires every action type in the vocabulary to its handler.
// click, type_text and press_key prefer the live browser page and fall
// back to desktop input when no page is open.
func RegisterAll(registry *dispatch.Registry, browser *Browser) {
	system := System{}
	files := Files{}
	screen := NewScreen(browser)

	registry.Register("open_browser", dispatch.HandlerFunc(browser.Open))
	registry.Register("navigate", dispatch.HandlerFunc(browser.Navigate))

	registry.Register("click", dispatch.HandlerFunc(func(ctx context.Context, params map[string]any) dispatch.Result {
		if _, hasText := params["text"].(string); hasText && browser.Active() {
			if res := browser.Click(ctx, params); res.Success {
				return res
			}
		}
		return system.ClickAt(ctx, params)
	}))
	registry.Register("type_text", dispatch.HandlerFunc(func(ctx context.Context, params map[string]any) dispatch.Result {
		if browser.Active() {
			if res := browser.TypeText(ctx, params); res.Success {
				return res
			}
		}
		return system.TypeText(ctx, params)
	}))
	registry.Register("press_key", dispatch.HandlerFunc(system.PressKey))
	registry.Register("move_mouse", dispatch.HandlerFunc(system.MoveMouse))

	registry.Register("file_create", dispatch.HandlerFunc(files.Create))
	registry.Register("file_delete", dispatch.HandlerFunc(files.Delete))
	registry.Register("file_move", dispatch.HandlerFunc(files.Move))

	registry.Register("open_app", dispatch.HandlerFunc(system.OpenApp))
	registry.Register("close_app", dispatch.HandlerFunc(system.CloseApp))
	registry.Register("system_volume", dispatch.HandlerFunc(system.Volume))
	registry.Register("system_brightness", dispatch.HandlerFunc(system.Brightness))
	registry.Register("system_sleep", dispatch.HandlerFunc(system.Sleep))
	registry.Register("system_lock", dispatch.HandlerFunc(system.Lock))
	registry.Register("system_shutdown", dispatch.HandlerFunc(system.Shutdown))
	registry.Register("system_restart", dispatch.HandlerFunc(system.Restart))
	registry.Register("system_wifi", dispatch.HandlerFunc(system.Wifi))
	registry.Register("system_bluetooth", dispatch.HandlerFunc(system.Bluetooth))
	registry.Register("system_screensaver", dispatch.HandlerFunc(system.Screensaver))
	registry.Register("system_mute", dispatch.HandlerFunc(system.Mute))
	registry.Register("system_unmute", dispatch.HandlerFunc(system.Unmute))
	registry.Register("install_software", dispatch.HandlerFunc(system.Install))

	registry.Register("read_screen", dispatch.HandlerFunc(screen.Read))
	registry.Register("summarize_screen", dispatch.HandlerFunc(screen.Summarize))

	if search, err := NewSearch(); err != nil {
		log.Printf("Warning: search handler unavailable: %v", err)
	} else {
		registry.Register("search_web", search)
	}

	registry.Register("wait", dispatch.HandlerFunc(Wait))
}
