package main

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"graphview/dataset"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	info   = color.New(color.FgCyan)
	warn   = color.New(color.FgYellow)
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset>",
	Short: "Summarise a dataset",
	Long: `Summarise a dataset without laying it out.

Prints the node and edge counts, node types, the extent of any positions
given in the file and the nodes without an edge.

Examples:
  graphview inspect graph.json
  graphview inspect graph.yaml --no-color`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectNoColor bool

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectNoColor, "no-color", false, "Disable colour output")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectNoColor {
		color.NoColor = true
	}
	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), args[0], summarize(ds))
	return nil
}

// summary is what inspect reports about a dataset.
type summary struct {
	Nodes, Edges int
	// Types counts nodes per type; untyped nodes count under "".
	Types map[string]int
	// Placed is how many nodes carry both x and y.
	Placed                 int
	MinX, MaxX, MinY, MaxY float64
	Isolated               []string
	SelfLoops              int
}

func summarize(ds *dataset.Dataset) summary {
	s := summary{
		Nodes: len(ds.Nodes),
		Edges: len(ds.Edges),
		Types: make(map[string]int),
		MinX:  math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}

	degree := make(map[string]int, len(ds.Nodes))
	for _, e := range ds.Edges {
		src, dst := e.String("source"), e.String("target")
		if src == dst {
			s.SelfLoops++
		}
		degree[src]++
		degree[dst]++
	}

	for _, n := range ds.Nodes {
		s.Types[n.String("type")]++
		x, okX := n.Float("x")
		y, okY := n.Float("y")
		if okX && okY {
			s.Placed++
			s.MinX, s.MaxX = math.Min(s.MinX, x), math.Max(s.MaxX, x)
			s.MinY, s.MaxY = math.Min(s.MinY, y), math.Max(s.MaxY, y)
		}
		if id := n.ID(); id != "" && degree[id] == 0 {
			s.Isolated = append(s.Isolated, id)
		}
	}
	sort.Strings(s.Isolated)
	return s
}

func printSummary(w io.Writer, name string, s summary) {
	fmt.Fprintf(w, "%s %s\n\n", brand.Sprint("graphview"), subtle.Sprint(name))
	fmt.Fprintf(w, "  nodes  %s\n", info.Sprint(s.Nodes))
	fmt.Fprintf(w, "  edges  %s\n", info.Sprint(s.Edges))

	types := make([]string, 0, len(s.Types))
	for t := range s.Types {
		types = append(types, t)
	}
	sort.Strings(types)
	if len(types) > 1 || (len(types) == 1 && types[0] != "") {
		fmt.Fprintln(w, "\n  types")
		for _, t := range types {
			label := t
			if label == "" {
				label = "(none)"
			}
			fmt.Fprintf(w, "    %-16s %d\n", label, s.Types[t])
		}
	}

	if s.Placed > 0 {
		fmt.Fprintf(w, "\n  placed %d of %d, x %g..%g, y %g..%g\n",
			s.Placed, s.Nodes, s.MinX, s.MaxX, s.MinY, s.MaxY)
	}
	if s.SelfLoops > 0 {
		fmt.Fprintf(w, "  %s\n", warn.Sprintf("%d self loops", s.SelfLoops))
	}
	if len(s.Isolated) > 0 {
		fmt.Fprintf(w, "  %s %v\n", warn.Sprintf("%d isolated:", len(s.Isolated)), s.Isolated)
	}
}
