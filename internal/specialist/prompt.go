package specialist

import (
	"fmt"
	"sort"
	"strings"
)

// renderInput formats the task input as the user message: workspace
// document first, then resolved knowledge matches, then the triggering
// message.
func renderInput(input Input) (string, error) {
	var b strings.Builder

	if input.Workspace != nil {
		doc, err := input.Workspace.Render()
		if err != nil {
			return "", err
		}
		b.WriteString("# Workspace\n\n")
		b.Write(doc)
		b.WriteString("\n")
	}

	if len(input.Retrieved) > 0 {
		b.WriteString("# Retrieved Knowledge\n\n")
		for _, r := range input.Retrieved {
			fmt.Fprintf(&b, "- [%s] (score %.2f) %s\n", r.ID, r.Score, r.Content)
			if len(r.Metadata) > 0 {
				fmt.Fprintf(&b, "  metadata: %s\n", renderMetadata(r.Metadata))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("# Message\n\n")
	if strings.TrimSpace(input.Message) == "" {
		b.WriteString("(none)")
	} else {
		b.WriteString(input.Message)
	}
	return b.String(), nil
}

func renderMetadata(metadata map[string]any) string {
	pairs := make([]string, 0, len(metadata))
	for k, v := range metadata {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	// Stable ordering keeps prompts reproducible across runs.
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}
