package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeyState_Sequences(t *testing.T) {
	km := DefaultKeymap()
	var ks KeyState

	if action, consumed := ks.HandleKey(runes("g"), km); action != "" || !consumed {
		t.Fatalf("first g: got (%q, %v), want pending", action, consumed)
	}
	if action, _ := ks.HandleKey(runes("g"), km); action != "top" {
		t.Errorf("gg: got %q, want top", action)
	}

	ks.HandleKey(runes("d"), km)
	if action, _ := ks.HandleKey(runes("d"), km); action != "delete" {
		t.Errorf("dd: got %q, want delete", action)
	}

	// An interrupted sequence falls through to the second key's action.
	ks.HandleKey(runes("d"), km)
	if action, _ := ks.HandleKey(runes("x"), km); action != "complete" {
		t.Errorf("dx: got %q, want complete", action)
	}
	if ks.WaitingD {
		t.Error("sequence should be reset")
	}
}

func TestKeyState_Bindings(t *testing.T) {
	km := DefaultKeymap()
	tests := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{runes("n"), "add"},
		{tea.KeyMsg{Type: tea.KeyCtrlK}, "search"},
		{runes("/"), "search"},
		{tea.KeyMsg{Type: tea.KeyEsc}, "back"},
		{tea.KeyMsg{Type: tea.KeyTab}, "switch_pane"},
		{runes("v"), "calendar_view"},
		{runes("K"), "move_up"},
		{runes("2"), "priority2"},
		{tea.KeyMsg{Type: tea.KeyBackspace}, "history_back"},
	}
	for _, tt := range tests {
		var ks KeyState
		got, consumed := ks.HandleKey(tt.msg, km)
		if got != tt.want || !consumed {
			t.Errorf("%s: got (%q, %v), want %q", tt.msg, got, consumed, tt.want)
		}
	}

	var ks KeyState
	if _, consumed := ks.HandleKey(runes("["), km); consumed {
		t.Error("[ belongs to the calendar")
	}
	if action, _ := ks.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n"), Alt: true}, km); action == "add" {
		t.Error("alt+n must not open the editor")
	}
}
