package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/forcelayout/internal/config"
	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/nodeio"
	"github.com/san-kum/forcelayout/internal/sim"
	"github.com/san-kum/forcelayout/internal/storage"
	"github.com/san-kum/forcelayout/internal/viz"
)

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	return st, st.Init()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			filepath.Base(r.Graph),
			fmt.Sprintf("%dD", r.Dimensions),
			fmt.Sprintf("%d", r.Nodes),
			fmt.Sprintf("%d", r.Edges),
			r.State,
			fmt.Sprintf("%d", r.Iterations),
			r.Elapsed.Round(time.Millisecond).String(),
			r.Timestamp.Format("2006-01-02 15:04"),
		})
	}
	fmt.Print(viz.Table([]string{"id", "graph", "dims", "nodes", "edges", "state", "iters", "elapsed", "time"}, rows))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	id, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(id)
	if err != nil {
		return err
	}
	fmt.Println(viz.ConvergencePlot(history, 80, 15, logScale))

	if pngOut != "" {
		if err := viz.RenderHistoryPNG(pngOut, history); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngOut)
	}
	return nil
}

// orderedPoints lines coordinates up with ids. Missing nodes sit at the
// origin of the first node's dimensionality.
func orderedPoints(ids []string, pos map[string]core.Vec) []core.Vec {
	dim := 0
	for _, x := range pos {
		dim = len(x)
		break
	}
	out := make([]core.Vec, len(ids))
	for i, id := range ids {
		if x, ok := pos[id]; ok {
			out[i] = x
		} else {
			out[i] = core.NewVec(dim)
		}
	}
	return out
}

// loadLayout reads coordinates from a coords file or a stored run, plus the
// optional graph for edges.
func loadLayout(arg string) ([]string, map[string]core.Vec, *nodeio.Graph, error) {
	var pos map[string]core.Vec
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		if pos, err = nodeio.ReadPositionsFile(arg, 0); err != nil {
			return nil, nil, nil, err
		}
	} else {
		st, err := openStore()
		if err != nil {
			return nil, nil, nil, err
		}
		id, err := st.Resolve(arg)
		if err != nil {
			return nil, nil, nil, err
		}
		if pos, err = st.LoadCoords(id, snapIter); err != nil {
			return nil, nil, nil, err
		}
		if graphFile == "" {
			if meta, err := st.Load(id); err == nil {
				if _, err := os.Stat(meta.Graph); err == nil {
					graphFile = meta.Graph
				}
			}
		}
	}

	if graphFile == "" {
		ids := make([]string, 0, len(pos))
		for id := range pos {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return ids, pos, nil, nil
	}
	g, err := nodeio.ReadGraphFile(graphFile)
	if err != nil {
		return nil, nil, nil, err
	}
	return g.IDs, pos, g, nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	ids, pos, g, err := loadLayout(args[0])
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return fmt.Errorf("%s: no coordinates", args[0])
	}
	if len(axes) != 2 {
		return fmt.Errorf("--axes wants two indices, got %v", axes)
	}
	pts := orderedPoints(ids, pos)
	var edges []sim.Edge
	if g != nil {
		edges = g.Edges
	}

	if svgOut != "" {
		opts := viz.DefaultSVGOptions()
		opts.Axes = [2]int{axes[0], axes[1]}
		if err := viz.WriteSVGFile(svgOut, pts, edges, opts); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	if asciiOut || (pngOut == "" && svgOut == "") {
		c := viz.NewCanvas(80, 30)
		viz.DrawLayout(c, pts, edges, viz.NewCamera())
		fmt.Print(viz.Panel.Render(strings.TrimRight(c.String(), "\n")))
		fmt.Println()
	}
	if pngOut != "" {
		opts := viz.DefaultPNGOptions()
		opts.Title = filepath.Base(args[0])
		opts.Axes = [2]int{axes[0], axes[1]}
		opts.MaxEdges = maxEdges
		if err := viz.RenderPNG(pngOut, pts, edges, opts); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngOut)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	id, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	ids, pos, g, err := loadLayout(id)
	if err != nil {
		return err
	}

	data := nodeio.NewExport(ids, pos, g, nil)
	data.State = meta.State
	data.Iterations = meta.Iterations
	data.Metrics = meta.Metrics

	if jsonOut == "-" {
		return nodeio.ExportJSON(os.Stdout, data)
	}
	if err := nodeio.ExportJSONFile(jsonOut, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", jsonOut)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) == 1 {
		groups = []string{args[0]}
	}
	for _, group := range groups {
		presets := config.ListPresets(group)
		if len(presets) == 0 {
			fmt.Printf("no presets for group: %s\n", group)
			continue
		}
		fmt.Printf("%s:\n", group)
		for _, p := range presets {
			c := config.GetPreset(group, p)
			fmt.Printf("  %-16s iters=%-7d dt=%-6g converge=%g\n", p, c.MaxIter, c.Layout.TimeStep, c.Layout.ConvergenceThreshold)
		}
	}
	return nil
}

func showSchedule(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	l, err := prepare(cfg, args[0], logger)
	if err != nil {
		return err
	}
	s, err := l.newSimulator()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Init(); err != nil {
		return err
	}

	g, sched := s.Grid(), s.Schedule()
	fmt.Println(viz.Title.Render("grid"))
	fmt.Println(viz.Row("counts", g.Counts().String()))
	fmt.Println(viz.Row("voxels", fmt.Sprintf("%d (%d occupied)", g.Size(), g.Occupied())))
	fmt.Println(viz.Row("edge", fmt.Sprintf("%g", g.EdgeLength())))
	fmt.Println(viz.Row("min", g.Min().String()))
	fmt.Println(viz.Row("max", g.Max().String()))
	fmt.Println()
	fmt.Println(viz.Title.Render("schedule"))
	fmt.Println(viz.Row("threads", fmt.Sprintf("%d", sched.Threads())))
	passes := sched.Passes()
	fmt.Println(viz.Row("passes", fmt.Sprintf("%d", max(len(passes)-1, 0))))
	for i := 0; i+1 < len(passes) && i < 16; i++ {
		fmt.Println(viz.Row(fmt.Sprintf("  pass %d", i), fmt.Sprintf("%d voxels", passes[i+1]-passes[i])))
	}
	fmt.Println(viz.Row("batches", fmt.Sprintf("%d", len(sched.Batches()))))
	return nil
}

func convertGraph(cmd *cobra.Command, args []string) error {
	g, err := nodeio.ReadGraphFile(args[0])
	if err != nil {
		return err
	}
	if err := nodeio.WriteGraphFile(args[1], g); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%s)\n", args[0], args[1], g)
	return nil
}
