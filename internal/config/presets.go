package config

import "sort"

// Presets are named starting points keyed by dimensionality.
var Presets = map[string]map[string]*Config{
	"2d": {
		"quick": {
			Dimensions: 2, MaxIter: 2000, WriteInterval: 500,
			Input: Input{Mass: DefaultMass},
			Layout: Layout{
				InteractionRadius: 1, NodeRadius: 0.01, TimeStep: 0.01, SpringConstant: 10,
				NoiseAmplitude: 1, BoundsPadding: 1, ConvergenceThreshold: 1e-4, UseEdgeSprings: true,
			},
		},
		"standard": {
			Dimensions: 2, MaxIter: 50000, WriteInterval: 5000,
			Input: Input{Mass: DefaultMass},
			Layout: Layout{
				InteractionRadius: 1, NodeRadius: 0.01, TimeStep: 0.001, SpringConstant: 10,
				NoiseAmplitude: 1, BoundsPadding: 1, ConvergenceThreshold: 1e-5, UseEdgeSprings: true,
			},
		},
		"wide": {
			Dimensions: 2, MaxIter: 50000, WriteInterval: 5000,
			Input: Input{Mass: DefaultMass},
			Layout: Layout{
				InteractionRadius: 1, NodeRadius: 0.01, TimeStep: 0.001, SpringConstant: 10,
				NoiseAmplitude: 1, BoundsPadding: 1, EllipseFactors: "1,2", UseEdgeSprings: true,
			},
		},
	},
	"3d": {
		"quick": {
			Dimensions: 3, MaxIter: 2000, WriteInterval: 500,
			Input: Input{Mass: DefaultMass},
			Layout: Layout{
				InteractionRadius: 1, NodeRadius: 0.01, TimeStep: 0.01, SpringConstant: 10,
				NoiseAmplitude: 1, BoundsPadding: 1, ConvergenceThreshold: 1e-4, UseEdgeSprings: true,
			},
		},
		"standard": {
			Dimensions: 3, MaxIter: DefaultMaxIter, WriteInterval: 10000,
			Input: Input{Mass: DefaultMass},
			Layout: Layout{
				InteractionRadius: 1, NodeRadius: 0.01, TimeStep: 0.001, SpringConstant: 10,
				NoiseAmplitude: 1, BoundsPadding: 1, ConvergenceThreshold: 1e-5, UseEdgeSprings: true,
			},
		},
		"repulsion_only": {
			Dimensions: 3, MaxIter: 20000, WriteInterval: 2000,
			Input: Input{Mass: DefaultMass},
			Layout: Layout{
				InteractionRadius: 1, NodeRadius: 0.01, TimeStep: 0.001, SpringConstant: 10,
				NoiseAmplitude: 1, BoundsPadding: 1,
			},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.Output = DefaultConfig().Output
	return &c
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
