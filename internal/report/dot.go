package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/comalice/gametestx"
)

var stateColors = map[gametestx.State]string{
	gametestx.Succeeded: "lightgreen",
	gametestx.Failed:    "salmon",
	gametestx.TimedOut:  "orange",
	gametestx.Skipped:   "lightgrey",
}

// ExportDOT renders a finished run as a Graphviz digraph. Each batch becomes
// a cluster whose members are chained in the order they started; nodes are
// filled by outcome and optional tests are drawn dashed.
func ExportDOT(rep *gametestx.Report) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Run {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box style=filled];\n")
	fmt.Fprintf(&buf, "  label=%q;\n\n", fmt.Sprintf("run %s: %d ticks", rep.RunID, rep.Ticks))

	batches, order := groupByBatch(rep.Results)
	for _, name := range order {
		members := batches[name]
		if name == "" {
			for _, r := range members {
				renderResult(&buf, r, "  ")
			}
			continue
		}
		fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+name)
		fmt.Fprintf(&buf, "    label=%q;\n", name)
		for _, r := range members {
			renderResult(&buf, r, "    ")
		}
		buf.WriteString("  }\n")
	}

	for _, name := range order {
		if name == "" {
			continue
		}
		for _, e := range batchEdges(batches[name]) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e[0], e[1])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// groupByBatch keeps batches in first-appearance order.
func groupByBatch(results []gametestx.Result) (map[string][]gametestx.Result, []string) {
	batches := make(map[string][]gametestx.Result)
	var order []string
	for _, r := range results {
		if _, ok := batches[r.Batch]; !ok {
			order = append(order, r.Batch)
		}
		batches[r.Batch] = append(batches[r.Batch], r)
	}
	return batches, order
}

// batchEdges links members that actually ran, by start tick.
func batchEdges(members []gametestx.Result) [][2]string {
	var ran []gametestx.Result
	for _, r := range members {
		if r.State != gametestx.Skipped {
			ran = append(ran, r)
		}
	}
	sort.SliceStable(ran, func(i, j int) bool { return ran[i].StartTick < ran[j].StartTick })
	var edges [][2]string
	for i := 1; i < len(ran); i++ {
		edges = append(edges, [2]string{ran[i-1].ID, ran[i].ID})
	}
	return edges
}

func renderResult(buf *bytes.Buffer, r gametestx.Result, indent string) {
	label := fmt.Sprintf("%s\\n%s", r.ID, r.State)
	if r.State != gametestx.Skipped {
		label += fmt.Sprintf(" @%d+%d", r.StartTick, r.ElapsedTicks)
	}
	style := ""
	if !r.Required {
		style = ` style="filled,dashed"`
	}
	color := stateColors[r.State]
	if color == "" {
		color = "white"
	}
	fmt.Fprintf(buf, "%s%q [label=\"%s\" fillcolor=%s%s];\n", indent, r.ID, label, color, style)
}

// DOTWriter writes ExportDOT output to a file.
type DOTWriter struct {
	path string
}

// NewDOTWriter creates a DOTWriter, ensuring the parent directory exists.
func NewDOTWriter(path string) (*DOTWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return &DOTWriter{path: path}, nil
}

func (w *DOTWriter) Write(rep *gametestx.Report) error {
	if err := os.WriteFile(w.path, []byte(ExportDOT(rep)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}
