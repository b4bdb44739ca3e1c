package nodeio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/forcelayout/internal/core"
)

// ReadPositions reads "id x y [z]" lines. When dim is zero the width of the
// first record fixes it for the rest of the file. Duplicate IDs are rejected.
func ReadPositions(r io.Reader, name string, dim int) (map[string]core.Vec, error) {
	out := make(map[string]core.Vec)
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		f := fields(sc.Text())
		if f == nil || f[0] == "#" {
			continue
		}
		if dim == 0 {
			dim = len(f) - 1
			if err := core.CheckDimensions(dim); err != nil {
				return nil, parseErr(name, n, "%v", err)
			}
		}
		if len(f) != dim+1 {
			return nil, parseErr(name, n, "want id and %d coordinates, got %d fields", dim, len(f))
		}
		if _, dup := out[f[0]]; dup {
			return nil, parseErr(name, n, "duplicate node %q", f[0])
		}
		x := make(core.Vec, dim)
		for d := range x {
			v, err := strconv.ParseFloat(f[d+1], 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, parseErr(name, n, "bad coordinate %q", f[d+1])
			}
			x[d] = v
		}
		out[f[0]] = x
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadMasses reads "id mass" lines. Masses must be positive.
func ReadMasses(r io.Reader, name string) (map[string]float64, error) {
	out := make(map[string]float64)
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		f := fields(sc.Text())
		if f == nil || f[0] == "#" {
			continue
		}
		if len(f) != 2 {
			return nil, parseErr(name, n, "want id and mass, got %d fields", len(f))
		}
		if _, dup := out[f[0]]; dup {
			return nil, parseErr(name, n, "duplicate node %q", f[0])
		}
		m, err := strconv.ParseFloat(f[1], 64)
		if err != nil || !(m > 0) || math.IsInf(m, 0) {
			return nil, parseErr(name, n, "bad mass %q", f[1])
		}
		out[f[0]] = m
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteCoords writes one "id x y [z]" line per node in ids order. Nodes
// missing from pos are skipped.
func WriteCoords(w io.Writer, ids []string, pos map[string]core.Vec) error {
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		x, ok := pos[id]
		if !ok {
			continue
		}
		bw.WriteString(id)
		for _, v := range x {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(v, 'g', 10, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func ReadPositionsFile(path string, dim int) (map[string]core.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPositions(f, path, dim)
}

func ReadMassesFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMasses(f, path)
}

func WriteCoordsFile(path string, ids []string, pos map[string]core.Vec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCoords(f, ids, pos); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
