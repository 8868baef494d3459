package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Static is a deterministic narrator for tests and offline demo runs. It
// renders the fact payload verbatim as labelled lines, so every monetary
// figure in its output is grounded by construction.
type Static struct{}

var _ Narrator = (*Static)(nil)

func (Static) Narrate(_ context.Context, req Request) (string, error) {
	if len(req.Facts) == 0 {
		return "I don't have any figures for that yet. Could you tell me a bit more about what you'd like to look at?", nil
	}

	var payload any
	if err := json.Unmarshal(req.Facts, &payload); err != nil {
		return "", fmt.Errorf("narrator: decode facts: %w", err)
	}

	var b strings.Builder
	b.WriteString("Here's what I found in your data:\n")
	renderValue(&b, "", payload)
	return strings.TrimRight(b.String(), "\n"), nil
}

func renderValue(b *strings.Builder, label string, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			renderValue(b, joinLabel(label, k), val[k])
		}
	case []any:
		for i, item := range val {
			renderValue(b, fmt.Sprintf("%s[%d]", label, i+1), item)
		}
	case bool:
		fmt.Fprintf(b, "- %s: %t\n", label, val)
	case float64:
		if val == float64(int64(val)) {
			fmt.Fprintf(b, "- %s: %d\n", label, int64(val))
		} else {
			fmt.Fprintf(b, "- %s: %g\n", label, val)
		}
	case nil:
		fmt.Fprintf(b, "- %s: n/a\n", label)
	default:
		fmt.Fprintf(b, "- %s: %v\n", label, val)
	}
}

func joinLabel(prefix, key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	if prefix == "" {
		return key
	}
	return prefix + " " + key
}
