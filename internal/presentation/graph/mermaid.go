package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/guidepost/pkg/domain"
)

// Overlay highlights the step a run is waiting in.
type Overlay struct {
	CurrentStep string
}

// GenerateMermaid produces a Mermaid flowchart of the tutorial. Shapes:
//   - start: ((Circle))
//   - end: (((Double circle)))
//   - steps with side effects: [[Subroutine]]
//   - other steps: [Rectangle]
//
// Edges are labelled with the interaction kind that triggers them.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range g.Steps() {
		safeID := sanitizeMermaidID(step.Name)

		opener, closer := "[", "]"
		switch {
		case step.IsFirst():
			opener, closer = "((", "))"
		case step.IsLast():
			opener, closer = "(((", ")))"
		case len(step.Setup)+len(step.Teardown) > 0:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(step.Name), closer)

		for _, t := range step.Transitions() {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n",
				safeID, escapeLabel(t.Kind), sanitizeMermaidID(t.Target.Name))
		}
	}

	if overlay != nil && overlay.CurrentStep != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on both light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_", " ", "_")
	s := r.Replace(id)
	// "end" is a Mermaid keyword.
	if s == "end" {
		return "end_"
	}
	return s
}
