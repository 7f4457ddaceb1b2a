package agent

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// GameProcesses maps a game key (as the backend knows it) to the executable
// names that identify it. Matching is case-insensitive on the process name.
var GameProcesses = map[string][]string{
	"valorant": {"valorant.exe"},
	"cs2":      {"cs2.exe"},
	"dota2":    {"dota2.exe"},
	"fortnite": {"fortniteclient-win64-shipping.exe"},
	"discord":  {"discord.exe"},
}

// MatchProcess returns the game key for an executable name, if any.
func MatchProcess(exeName string) (string, bool) {
	exeName = strings.ToLower(exeName)
	for game, names := range GameProcesses {
		for _, name := range names {
			if exeName == name {
				return game, true
			}
		}
	}
	return "", false
}

// DetectGame scans the process table for a monitored game, background windows
// included. Returns "" when none is running.
func DetectGame() string {
	procs, err := process.Processes()
	if err != nil {
		return ""
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // process may have exited, or access denied
		}
		if game, ok := MatchProcess(name); ok {
			return game
		}
	}
	return ""
}
