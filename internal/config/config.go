package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/interact"
	"github.com/san-kum/forcelayout/internal/sim"
)

const (
	DefaultDimensions        = 3
	DefaultMaxIter           = 250000
	DefaultTimeStep          = 0.001
	DefaultInteractionRadius = 1.0
	DefaultNodeRadius        = 0.01
	DefaultSpringConstant    = 10.0
	DefaultNoiseAmplitude    = 1.0
	DefaultMass              = 1.0
	DefaultBoundsPadding     = 0.5
)

type Config struct {
	Dimensions    int    `yaml:"dimensions" toml:"dimensions"`
	Threads       int    `yaml:"threads" toml:"threads"`
	MaxIter       int    `yaml:"max_iter" toml:"max_iter"`
	WriteInterval int    `yaml:"write_interval" toml:"write_interval"`
	Seed          int64  `yaml:"seed" toml:"seed"`
	Input         Input  `yaml:"input" toml:"input"`
	Layout        Layout `yaml:"layout" toml:"layout"`
	Output        Output `yaml:"output" toml:"output"`
}

type Input struct {
	Graph     string  `yaml:"graph" toml:"graph"`
	Positions string  `yaml:"positions" toml:"positions"`
	Masses    string  `yaml:"masses" toml:"masses"`
	Anchors   string  `yaml:"anchors" toml:"anchors"`
	Mass      float64 `yaml:"mass" toml:"mass"`
}

type Layout struct {
	InteractionRadius    float64 `yaml:"interaction_radius" toml:"interaction_radius"`
	NodeRadius           float64 `yaml:"node_radius" toml:"node_radius"`
	TimeStep             float64 `yaml:"time_step" toml:"time_step"`
	SpringConstant       float64 `yaml:"spring_constant" toml:"spring_constant"`
	NoiseAmplitude       float64 `yaml:"noise_amplitude" toml:"noise_amplitude"`
	ForceLimit           float64 `yaml:"force_limit" toml:"force_limit"`
	EllipseFactors       string  `yaml:"ellipse_factors" toml:"ellipse_factors"`
	VoxelEdge            float64 `yaml:"voxel_edge" toml:"voxel_edge"`
	OuterRadius          float64 `yaml:"outer_radius" toml:"outer_radius"`
	BoundsPadding        float64 `yaml:"bounds_padding" toml:"bounds_padding"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold" toml:"convergence_threshold"`
	UseEdgeSprings       bool    `yaml:"edge_springs" toml:"edge_springs"`
}

type Output struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Coords string `yaml:"coords" toml:"coords"`
	PNG    string `yaml:"png" toml:"png"`
}

func DefaultConfig() *Config {
	return &Config{
		Dimensions: DefaultDimensions,
		MaxIter:    DefaultMaxIter,
		Input:      Input{Mass: DefaultMass},
		Layout: Layout{
			InteractionRadius: DefaultInteractionRadius,
			NodeRadius:        DefaultNodeRadius,
			TimeStep:          DefaultTimeStep,
			SpringConstant:    DefaultSpringConstant,
			NoiseAmplitude:    DefaultNoiseAmplitude,
			BoundsPadding:     DefaultBoundsPadding,
			UseEdgeSprings:    true,
		},
		Output: Output{Dir: ".forcelayout"},
	}
}

// Load reads a YAML file, or TOML when the extension is .toml, over the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseEllipseFactors parses a comma separated list such as "1,1.5".
func ParseEllipseFactors(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, &core.ConfigError{
				Field:   "ellipse_factors",
				Wrapped: fmt.Errorf("%w: %q", core.ErrEllipseFactors, p),
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// Validate checks the values a run cannot start without.
func (c *Config) Validate() error {
	if c.Dimensions != 2 && c.Dimensions != 3 {
		return &core.ConfigError{
			Field:   "dimensions",
			Wrapped: fmt.Errorf("%w: want 2 or 3, got %d", core.ErrUnsupportedDimension, c.Dimensions),
		}
	}
	l := c.Layout
	switch {
	case c.MaxIter <= 0:
		return core.Invalid("max_iter", "must be positive, got %d", c.MaxIter)
	case c.WriteInterval < 0:
		return core.Invalid("write_interval", "must not be negative, got %d", c.WriteInterval)
	case !(l.InteractionRadius > 0):
		return core.Invalid("interaction_radius", "must be positive, got %g", l.InteractionRadius)
	case !(l.TimeStep > 0):
		return core.Invalid("time_step", "must be positive, got %g", l.TimeStep)
	case l.NodeRadius < 0:
		return core.Invalid("node_radius", "must not be negative, got %g", l.NodeRadius)
	case l.VoxelEdge != 0 && l.VoxelEdge < l.InteractionRadius:
		return core.Invalid("voxel_edge", "%g is smaller than interaction_radius %g", l.VoxelEdge, l.InteractionRadius)
	case !(c.Input.Mass > 0):
		return core.Invalid("mass", "must be positive, got %g", c.Input.Mass)
	}
	factors, err := ParseEllipseFactors(l.EllipseFactors)
	if err != nil {
		return err
	}
	if _, err := interact.NormalizeEllipse(factors, c.Dimensions); err != nil {
		return err
	}
	return nil
}

// DefaultOuterRadius grows with the number of nodes so that a uniform
// packing at the interaction radius fits inside.
func DefaultOuterRadius(nodes, dim int, radius float64) float64 {
	if nodes < 1 {
		nodes = 1
	}
	return 2 * radius * math.Ceil(math.Pow(float64(nodes), 1/float64(dim)))
}

// SimConfig converts the file configuration into simulator parameters for a
// graph with the given number of nodes.
func (c *Config) SimConfig(nodes int) (sim.Config, error) {
	if err := c.Validate(); err != nil {
		return sim.Config{}, err
	}
	factors, _ := ParseEllipseFactors(c.Layout.EllipseFactors)

	outer := c.Layout.OuterRadius
	if outer <= 0 {
		outer = DefaultOuterRadius(nodes, c.Dimensions, c.Layout.InteractionRadius)
	}

	return sim.Config{
		Dimensions:           c.Dimensions,
		Threads:              c.Threads,
		MaxIter:              c.MaxIter,
		WriteInterval:        c.WriteInterval,
		VoxelEdge:            c.Layout.VoxelEdge,
		OuterRadius:          outer,
		BoundsPadding:        c.Layout.BoundsPadding,
		ConvergenceThreshold: c.Layout.ConvergenceThreshold,
		NodeRadius:           c.Layout.NodeRadius,
		Seed:                 c.Seed,
		Interact: interact.Params{
			TimeStep:       c.Layout.TimeStep,
			SpringConstant: c.Layout.SpringConstant,
			EqDistance:     c.Layout.InteractionRadius,
			NoiseAmplitude: c.Layout.NoiseAmplitude,
			ForceLimit:     c.Layout.ForceLimit,
			EllipseFactors: factors,
		},
	}, nil
}
