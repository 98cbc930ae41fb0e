package graph

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExportName is the diagnostic file written after a successful load.
const DefaultExportName = "module_graph.dot"

// WriteDOT renders the full required-edge graph in Graphviz DOT form.
// Identical graphs always produce identical bytes.
func WriteDOT(w io.Writer, g *Graph) error {
	buf := bufio.NewWriter(w)
	fmt.Fprintln(buf, "digraph modules {")
	for _, key := range g.sortedKeys() {
		deps := g.required[key]
		if len(deps) == 0 {
			fmt.Fprintf(buf, "  %s;\n", quote(g.names[key]))
			continue
		}
		for _, dep := range deps {
			fmt.Fprintf(buf, "  %s -> %s;\n", quote(g.names[key]), quote(g.names[dep]))
		}
	}
	fmt.Fprintln(buf, "}")
	return buf.Flush()
}

// DOT returns the DOT rendering as a string.
func DOT(g *Graph) string {
	var b bytes.Buffer
	_ = WriteDOT(&b, g)
	return b.String()
}

// ExportDOT writes the DOT rendering to path, creating parent directories.
func ExportDOT(path string, g *Graph) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("graph: export path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("graph: ensure %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(DOT(g)), 0o644); err != nil {
		return fmt.Errorf("graph: write %s: %w", path, err)
	}
	return nil
}

func quote(name string) string {
	escaped := strings.ReplaceAll(name, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
