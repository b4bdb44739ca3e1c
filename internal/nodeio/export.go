package nodeio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/sim"
)

type ExportNode struct {
	ID string    `json:"id"`
	X  []float64 `json:"x"`
}

type ExportEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type ExportData struct {
	Dimensions int                `json:"dimensions"`
	State      string             `json:"state,omitempty"`
	Iterations int                `json:"iterations,omitempty"`
	Nodes      []ExportNode       `json:"nodes"`
	Edges      []ExportEdge       `json:"edges"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewExport collects a layout for JSON output. g and result may be nil.
func NewExport(ids []string, pos map[string]core.Vec, g *Graph, result *sim.Result) *ExportData {
	data := &ExportData{
		Nodes: make([]ExportNode, 0, len(ids)),
		Edges: []ExportEdge{},
	}
	for _, id := range ids {
		x, ok := pos[id]
		if !ok {
			continue
		}
		data.Dimensions = len(x)
		data.Nodes = append(data.Nodes, ExportNode{ID: id, X: x})
	}
	if g != nil {
		for _, e := range g.Edges {
			data.Edges = append(data.Edges, ExportEdge{Source: g.IDs[e.A], Target: g.IDs[e.B], Weight: e.Weight})
		}
	}
	if result != nil {
		data.State = result.State.String()
		data.Iterations = result.Iterations
		data.Metrics = result.Metrics
	}
	return data
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, data)
}
