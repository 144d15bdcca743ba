package main

import "testing"

func TestCheckUI(t *testing.T) {
	for _, ui := range []string{"tui", "serve"} {
		if err := checkUI(ui); err != nil {
			t.Fatalf("checkUI(%q)=%v", ui, err)
		}
	}
	for _, ui := range []string{"", "web", "TUI"} {
		if err := checkUI(ui); err == nil {
			t.Fatalf("checkUI(%q) accepted", ui)
		}
	}
}
