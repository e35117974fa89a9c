package compose

import "strings"

// MergeEnv overlays KEY=VALUE entries on base. A key keeps the position of
// its first occurrence and the value of its last.
func MergeEnv(base, overlay []string) []string {
	merged := make([]string, 0, len(base)+len(overlay))
	seen := map[string]int{}
	add := func(entry string) {
		key := entry
		if idx := strings.Index(entry, "="); idx >= 0 {
			key = entry[:idx]
		}
		if key == "" {
			return
		}
		if existing, ok := seen[key]; ok {
			merged[existing] = entry
			return
		}
		seen[key] = len(merged)
		merged = append(merged, entry)
	}
	for _, entry := range base {
		add(entry)
	}
	for _, entry := range overlay {
		add(entry)
	}
	return merged
}

