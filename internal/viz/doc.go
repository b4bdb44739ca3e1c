// Package viz draws layouts and run summaries.
//
// Terminal output uses a Braille [Canvas] with an orbiting [Camera] for
// three dimensional layouts, lipgloss styles for panels and asciigraph for
// convergence curves. [RenderPNG] writes a static image with gonum/plot.
package viz
