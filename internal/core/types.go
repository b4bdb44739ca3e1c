package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDimensions is the largest dimensionality the grid can index.
const MaxDimensions = 3

type Vec []float64

func NewVec(dim int) Vec { return make(Vec, dim) }

func (v Vec) Dim() int { return len(v) }

func (v Vec) Clone() Vec {
	c := make(Vec, len(v))
	copy(c, v)
	return c
}

func (v Vec) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vec) Add(other Vec) Vec {
	result := make(Vec, len(v))
	for i := range v {
		result[i] = v[i] + other[i]
	}
	return result
}

func (v Vec) Sub(other Vec) Vec {
	result := make(Vec, len(v))
	for i := range v {
		result[i] = v[i] - other[i]
	}
	return result
}

func (v Vec) Scale(factor float64) Vec {
	result := make(Vec, len(v))
	for i := range v {
		result[i] = v[i] * factor
	}
	return result
}

// AddInPlace adds other into v without allocating.
func (v Vec) AddInPlace(other Vec) {
	for i := range v {
		v[i] += other[i]
	}
}

func (v Vec) ScaleInPlace(factor float64) {
	for i := range v {
		v[i] *= factor
	}
}

// Fill sets every component to x.
func (v Vec) Fill(x float64) {
	for i := range v {
		v[i] = x
	}
}

func (v Vec) Dot(other Vec) float64 {
	sum := 0.0
	for i := range v {
		sum += v[i] * other[i]
	}
	return sum
}

func (v Vec) MagnitudeSquared() float64 { return v.Dot(v) }

func (v Vec) Norm() float64 { return math.Sqrt(v.MagnitudeSquared()) }

func (v Vec) DistanceSquared(other Vec) float64 {
	sum := 0.0
	for i := range v {
		d := v[i] - other[i]
		sum += d * d
	}
	return sum
}

func (v Vec) Distance(other Vec) float64 { return math.Sqrt(v.DistanceSquared(other)) }

// Product multiplies all components together.
func (v Vec) Product() float64 {
	p := 1.0
	for _, x := range v {
		p *= x
	}
	return p
}

func (v Vec) Equal(other Vec) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

func (v Vec) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 6, 64)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Coord is an integer voxel coordinate.
type Coord []int

func NewCoord(dim int) Coord { return make(Coord, dim) }

func (c Coord) Clone() Coord {
	out := make(Coord, len(c))
	copy(out, c)
	return out
}

// Dot returns the flat index of c under the given stride vector.
func (c Coord) Dot(stride Coord) int {
	sum := 0
	for i := range c {
		sum += c[i] * stride[i]
	}
	return sum
}

func (c Coord) Product() int {
	p := 1
	for _, x := range c {
		p *= x
	}
	return p
}

func (c Coord) Equal(other Coord) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

func (c Coord) String() string {
	parts := make([]string, len(c))
	for i, x := range c {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// CheckDimensions rejects dimensionalities the grid cannot index.
func CheckDimensions(dim int) error {
	if dim < 1 || dim > MaxDimensions {
		return &ConfigError{
			Field:   "dimensions",
			Wrapped: fmt.Errorf("%w: got %d", ErrUnsupportedDimension, dim),
		}
	}
	return nil
}
