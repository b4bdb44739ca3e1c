package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/forcelayout/internal/core"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	dims          int
	threads       int
	maxIter       int
	writeInterval int
	runs          int
	seed          int64
	timeStep      float64
	radius        float64
	nodeRadius    float64
	spring        float64
	noise         float64
	forceLimit    float64
	voxelEdge     float64
	outerRadius   float64
	threshold     float64
	mass          float64
	ellipse       string
	positionsFile string
	massesFile    string
	anchorsFile   string
	noEdges       bool

	outCoords   string
	pngOut      string
	svgOut      string
	noStore     bool
	watch       bool
	interactive bool
	frameRate   int

	graphFile string
	snapIter  int
	logScale  bool
	asciiOut  bool
	axes      []int
	maxEdges  int
	jsonOut   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err, followed by the particle and grid state when a
// placement failed.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, "error:", err)
	var geo *core.GeometryError
	if errors.As(err, &geo) {
		fmt.Fprintln(w, "diagnostic dump:")
		fmt.Fprintln(w, geo.Dump())
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "forcelayout",
		Short:         "force directed layout for large graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".forcelayout", "run store directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [graph]",
		Short: "lay out a graph (.ncol or .lgl)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLayoutCmd,
	}
	f := runCmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml or toml)")
	f.StringVar(&preset, "preset", "", "preset as group/name, e.g. 3d/quick")
	f.IntVarP(&dims, "dims", "d", 3, "dimensions (2 or 3)")
	f.IntVarP(&threads, "threads", "t", 0, "worker threads, 0 for all cores")
	f.IntVarP(&maxIter, "iters", "i", 250000, "maximum iterations")
	f.IntVar(&writeInterval, "write-interval", 0, "snapshot every n iterations, 0 to disable")
	f.IntVar(&runs, "runs", 1, "independent seeds to run, keeping the best")
	f.Int64Var(&seed, "seed", 0, "random seed, 0 for time based")
	f.Float64Var(&timeStep, "dt", 0.001, "time step")
	f.Float64VarP(&radius, "radius", "r", 1.0, "interaction radius and equilibrium distance")
	f.Float64Var(&nodeRadius, "node-radius", 0.01, "collision radius")
	f.Float64Var(&spring, "spring", 10.0, "spring constant")
	f.Float64Var(&noise, "noise", 1.0, "collision noise amplitude")
	f.Float64Var(&forceLimit, "force-limit", 0, "cap on each force component, 0 for none")
	f.Float64Var(&voxelEdge, "voxel-edge", 0, "voxel edge length, 0 for the interaction radius")
	f.Float64Var(&outerRadius, "outer-radius", 0, "initial extent, 0 to derive from node count")
	f.Float64Var(&threshold, "converge", 0, "stop when mean displacement drops below this")
	f.Float64Var(&mass, "mass", 1.0, "default node mass")
	f.StringVarP(&ellipse, "ellipse", "e", "", "ellipse factors, e.g. 1,2")
	f.StringVar(&positionsFile, "positions", "", "initial positions file")
	f.StringVar(&massesFile, "masses", "", "node masses file")
	f.StringVar(&anchorsFile, "anchors", "", "fixed node positions file")
	f.BoolVar(&noEdges, "no-edges", false, "repulsion only, ignore edge springs")
	f.StringVarP(&outCoords, "out", "o", "", "write final coordinates here")
	f.StringVar(&pngOut, "png", "", "render the final layout to this image")
	f.BoolVar(&noStore, "no-store", false, "do not record the run")
	f.BoolVarP(&watch, "watch", "w", false, "redraw the layout while running")
	f.BoolVar(&interactive, "tui", false, "interactive full screen viewer")
	f.IntVar(&frameRate, "fps", 10, "frame rate for --watch")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "chart convergence of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&logScale, "log", true, "log scale displacement")
	plotCmd.Flags().StringVar(&pngOut, "png", "", "also write the chart as an image")

	renderCmd := &cobra.Command{
		Use:   "render [run_id|coords]",
		Short: "draw a stored layout or coords file",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&graphFile, "graph", "g", "", "graph for edges")
	renderCmd.Flags().IntVar(&snapIter, "iter", -1, "snapshot iteration, -1 for final")
	renderCmd.Flags().StringVar(&pngOut, "png", "", "image output path")
	renderCmd.Flags().StringVar(&svgOut, "svg", "", "vector image output path")
	renderCmd.Flags().BoolVar(&asciiOut, "ascii", false, "draw in the terminal")
	renderCmd.Flags().IntSliceVar(&axes, "axes", []int{0, 1}, "coordinates drawn as x,y")
	renderCmd.Flags().IntVar(&maxEdges, "max-edges", 200000, "cap on drawn edges, 0 for all")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored layout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&graphFile, "graph", "g", "", "graph for edges")
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "-", "output path, - for stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule [graph]",
		Short: "show the grid and voxel schedule without running",
		Args:  cobra.ExactArgs(1),
		RunE:  showSchedule,
	}
	sf := scheduleCmd.Flags()
	sf.StringVar(&configFile, "config", "", "config file (yaml or toml)")
	sf.StringVar(&preset, "preset", "", "preset as group/name")
	sf.IntVarP(&dims, "dims", "d", 3, "dimensions (2 or 3)")
	sf.IntVarP(&threads, "threads", "t", 0, "worker threads, 0 for all cores")
	sf.Float64VarP(&radius, "radius", "r", 1.0, "interaction radius")
	sf.Float64Var(&voxelEdge, "voxel-edge", 0, "voxel edge length")
	sf.Float64Var(&outerRadius, "outer-radius", 0, "initial extent")

	convertCmd := &cobra.Command{
		Use:   "convert [in] [out]",
		Short: "convert between .ncol and .lgl graph files",
		Args:  cobra.ExactArgs(2),
		RunE:  convertGraph,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, renderCmd, exportJSONCmd, presetsCmd, scheduleCmd, convertCmd)
	return rootCmd
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
