package main

import (
	"fmt"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphview/dataset"
	"graphview/graph"
	"graphview/logging"
	"graphview/simulation"
	"graphview/terminal"
	"graphview/thumbnail"
)

var viewLogFile string

var viewCmd = &cobra.Command{
	Use:   "view <dataset>",
	Short: "Explore a dataset in the terminal",
	Long: `Explore a dataset in the terminal.

Drag nodes with the mouse, pan by dragging empty space and zoom with the
wheel. Press ? for the key bindings and q to quit.

The terminal is taken over while the viewer runs, so logs go to a file.

Examples:
  graphview view graph.json
  graphview view graph.yaml --log-file view.log --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().StringVar(&viewLogFile, "log-file", "", "Write logs to this file instead of discarding them")
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Anything written to stderr would draw over the screen.
	logger := zap.NewNop()
	if viewLogFile != "" {
		logger, err = logging.NewFile(cfg.Log.Level, viewLogFile)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}
	collector, stop := serveMetrics(cfg, logger)
	defer stop()

	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.Clear()

	sim := simulation.NewForce(cfg.SimulationParams(), simulation.WithLogger(logger))
	v, err := terminal.New(screen,
		[]graph.Option{
			graph.WithOptions(cfg.GraphOptions()),
			graph.WithLogger(logger),
			graph.WithMetrics(collector),
			graph.WithSimulation(sim),
		},
		terminal.WithLogger(logger),
		terminal.WithTitle(filepath.Base(args[0])),
		terminal.WithThumbnail(terminal.DefaultThumbnailSize, thumbnail.WithZoomRatio(cfg.Thumbnail.ZoomRatio)),
	)
	if err != nil {
		return err
	}
	if err := v.Graph().SetData(ds.Nodes, ds.Edges, cfg.Graph.Center); err != nil {
		return err
	}
	if cfg.Thumbnail.Open {
		v.ToggleThumbnail()
	}

	ctx, cancel := signalContext()
	defer cancel()
	return v.Run(ctx)
}
