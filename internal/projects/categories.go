package projects

import (
	"encoding/json"
	"strings"
)

// ParseCategories parses the categories form field. Clients send either a
// JSON-encoded array of strings or a plain comma-separated string; the JSON
// form is tried first and any parse failure falls back to comma splitting
// with trimmed segments. It never fails.
func ParseCategories(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	var cats []string
	if err := json.Unmarshal([]byte(raw), &cats); err == nil {
		if cats == nil {
			return []string{}
		}
		return cats
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
