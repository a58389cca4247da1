package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/graph"
)

// Overlay marks dynamic session data on the rendered graph.
type Overlay struct {
	CurrentNode string
}

// GenerateMermaid produces a Mermaid flowchart for a graph definition.
// Shapes:
// - Entry: ((Circle))
// - Interrupt-before (waits for input): [/Parallelogram/]
// - Default: [Rectangle]
// Conditional edges are labelled with the outcomes that select them.
func GenerateMermaid(def *graph.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range def.Nodes() {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		switch {
		case node.Name == def.Entry():
			opener, closer = "((", "))"
		case node.InterruptBefore:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, node.Name, closer))

		edge, ok := def.Edge(node.Name)
		if !ok {
			continue
		}
		if !edge.Conditional() {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(edge.To)))
			continue
		}

		// Group outcomes by target so each arrow is drawn once.
		byTarget := make(map[string][]string)
		for _, outcome := range edge.Router.Outcomes() {
			to := edge.Routes[outcome]
			byTarget[to] = append(byTarget[to], outcome)
		}
		for _, to := range edge.Targets() {
			outcomes := byTarget[to]
			sort.Strings(outcomes)
			label := strings.ReplaceAll(strings.Join(outcomes, " / "), "\"", "'")
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(to)))
		}
	}
	sb.WriteString(fmt.Sprintf("    %s(((\"end\")))\n", sanitizeMermaidID(graph.End)))

	if overlay != nil && overlay.CurrentNode != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	if id == graph.End {
		return "END"
	}
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
