package fastpath

import (
	"testing"

	"github.com/arjunsk/max/internal/plan"
)

func TestMatch_OpenApp(t *testing.T) {
	p := Match("Open Notepad")
	if p == nil {
		t.Fatal("Expected a match for 'Open Notepad'")
	}
	if p.TaskType != plan.TaskSingleStep {
		t.Errorf("Expected single_step, got %s", p.TaskType)
	}
	if p.Actions[0].Type != "open_app" {
		t.Errorf("Expected open_app, got %s", p.Actions[0].Type)
	}
	if p.Actions[0].Parameters["name"] != "notepad" {
		t.Errorf("Expected notepad, got %v", p.Actions[0].Parameters["name"])
	}
}

func TestMatch_ChromeIsBrowser(t *testing.T) {
	p := Match("launch chrome")
	if p == nil || p.Actions[0].Type != "open_browser" {
		t.Fatal("chrome should map to open_browser")
	}
}

func TestMatch_VolumeLevel(t *testing.T) {
	p := Match("set the volume to 70%")
	if p == nil {
		t.Fatal("Expected a match for volume command")
	}
	if p.Actions[0].Type != "system_volume" {
		t.Errorf("Expected system_volume, got %s", p.Actions[0].Type)
	}
	if p.Actions[0].Parameters["level"] != 70 {
		t.Errorf("Expected level 70, got %v", p.Actions[0].Parameters["level"])
	}
}

func TestMatch_ShutdownDelay(t *testing.T) {
	p := Match("shutdown")
	if p == nil {
		t.Fatal("Expected a match for shutdown")
	}
	if p.Actions[0].Parameters["delay"] != 60 {
		t.Errorf("Expected default delay 60, got %v", p.Actions[0].Parameters["delay"])
	}

	p = Match("shut down in 30 seconds")
	if p == nil {
		t.Fatal("Expected a match for delayed shutdown")
	}
	if p.Actions[0].Parameters["delay"] != 30 {
		t.Errorf("Expected delay 30, got %v", p.Actions[0].Parameters["delay"])
	}
}

func TestMatch_WifiOnOff(t *testing.T) {
	p := Match("turn wifi on")
	if p == nil || p.Actions[0].Parameters["action"] != "on" {
		t.Fatal("Expected wifi on")
	}
	p = Match("wifi off")
	if p == nil || p.Actions[0].Parameters["action"] != "off" {
		t.Fatal("Expected wifi off")
	}
	p = Match("toggle bluetooth")
	if p == nil || p.Actions[0].Parameters["action"] != "toggle" {
		t.Fatal("Expected bluetooth toggle")
	}
}

func TestMatch_NoMatchDefersToPlanner(t *testing.T) {
	for _, text := range []string{
		"write a poem about autumn",
		"open notepad and type hello", // compound phrasing is planner territory
		"",
	} {
		if p := Match(text); p != nil {
			t.Errorf("Expected no match for %q, got %s", text, p.Actions[0].Type)
		}
	}
}
