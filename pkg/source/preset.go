package source

import (
	"fmt"
	"strings"
)

// Preset names a known set of upstream lines to drop before parsing.
type Preset string

const (
	PresetNone Preset = ""

	// PresetSpigot drops lines the spigot BuildData tables get wrong, and
	// every constructor line.
	PresetSpigot Preset = "spigot"
)

var spigotBrokenLines = map[string]bool{
	"IDispenseBehavior a(LISourceBlock;LItemStack;)LItemStack; dispense": true,
	"nv ServerStatisticManager#":                                         true,
	"ql ServerStatisticManager#":                                         true,
	"qn ServerStatisticManager#":                                         true,
}

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetNone, PresetSpigot:
		return p, nil
	default:
		return "", fmt.Errorf("unknown preset %q (expected spigot or none)", s)
	}
}

// filterLines drops the preset's lines and any line listed in exclude. Lines
// are compared after trimming surrounding whitespace.
func filterLines(lines []string, preset Preset, exclude []string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[strings.TrimSpace(e)] = true
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if skip[trimmed] {
			continue
		}
		if preset == PresetSpigot && (spigotBrokenLines[trimmed] || strings.Contains(line, "<init>")) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}
