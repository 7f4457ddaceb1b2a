package agent

import "testing"

func TestMatchProcess(t *testing.T) {
	cases := []struct {
		exe  string
		game string
		ok   bool
	}{
		{"valorant.exe", "valorant", true},
		{"VALORANT.EXE", "valorant", true},
		{"cs2.exe", "cs2", true},
		{"FortniteClient-Win64-Shipping.exe", "fortnite", true},
		{"Discord.exe", "discord", true},
		{"chrome.exe", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		game, ok := MatchProcess(tc.exe)
		if ok != tc.ok || game != tc.game {
			t.Errorf("MatchProcess(%q) = (%q, %v), want (%q, %v)", tc.exe, game, ok, tc.game, tc.ok)
		}
	}
}
