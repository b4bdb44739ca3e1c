package grid

import (
	"fmt"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/particle"
)

// Place inserts p into the voxel containing its position.
func (g *Grid) Place(p *particle.Particle) error {
	if p.Placed() {
		return g.fail("place", p, core.ErrAlreadyPlaced)
	}
	v, ok := g.VoxelAt(p.X)
	if !ok {
		return g.fail("place", p, fmt.Errorf("%w: %s", core.ErrOutsideGrid, p.X))
	}
	v.mu.Lock()
	v.insert(p.Index)
	p.SetContainer(v.index)
	v.mu.Unlock()
	return nil
}

// Remove takes p out of its voxel.
func (g *Grid) Remove(p *particle.Particle) error {
	if !p.Placed() {
		return g.fail("remove", p, core.ErrNotPlaced)
	}
	v := &g.voxels[p.Container()]
	v.mu.Lock()
	ok := v.remove(p.Index)
	p.SetContainer(-1)
	v.mu.Unlock()
	if !ok {
		return g.fail("remove", p, fmt.Errorf("%w: missing from voxel %d", core.ErrNotPlaced, v.index))
	}
	return nil
}

// Shift moves p to the voxel holding its current position. It is a no-op
// while the old voxel still fuzzy-contains p.
func (g *Grid) Shift(p *particle.Particle) (bool, error) {
	if p.Placed() && g.voxels[p.Container()].ContainsFuzzy(p.X, FuzzyEpsilon) {
		return false, nil
	}
	if err := g.Remove(p); err != nil {
		return false, err
	}
	if err := g.Place(p); err != nil {
		return false, err
	}
	return true, nil
}

// PlaceAll places every particle of s, stopping at the first failure.
func (g *Grid) PlaceAll(s *particle.Set) error {
	for i := 0; i < s.Len(); i++ {
		if err := g.Place(s.At(i)); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grid) fail(op string, p *particle.Particle, err error) error {
	return &core.GeometryError{
		Op:       op,
		Particle: p.String(),
		Grid:     g.String(),
		Wrapped:  err,
	}
}
