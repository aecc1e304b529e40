// lattice contains the 3d occupancy grid on which walkers move, plus the
// walker and position-log bookkeeping owned by a single run.
package lattice

import "fmt"

// Coord is an integer lattice coordinate. A walker is identified by the
// Coord of the cell it currently sits in.
type Coord struct {
	X, Y, Z int
}

// Add returns the coordinate offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Lattice is a cubic grid of binary occupancy flags, stored flat in x-major order.
// Valid indices on every axis are [0, Size).
type Lattice struct {
	Size  int
	cells []uint8
}

// New allocates an empty lattice of size^3 cells.
// Note there is no error checking on size; callers validate configuration first.
func New(size int) *Lattice {
	return &Lattice{
		Size:  size,
		cells: make([]uint8, size*size*size),
	}
}

// Center returns the middle cell, using integer division per axis.
func (lat *Lattice) Center() Coord {
	mid := lat.Size / 2
	return Coord{X: mid, Y: mid, Z: mid}
}

// InBounds reports whether every component of c lies in [0, Size).
// The upper bound is exclusive: a coordinate equal to Size has no backing cell.
func (lat *Lattice) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < lat.Size &&
		c.Y >= 0 && c.Y < lat.Size &&
		c.Z >= 0 && c.Z < lat.Size
}

// index maps c to its flat offset. Out of range access is a programming defect,
// not a runtime condition, so it panics rather than aliasing some other cell.
func (lat *Lattice) index(c Coord) int {
	if !lat.InBounds(c) {
		panic(fmt.Sprintf("lattice: coordinate %v outside [0,%d)", c, lat.Size))
	}
	return (c.X*lat.Size+c.Y)*lat.Size + c.Z
}

// IsOccupied reads the occupancy flag of c.
func (lat *Lattice) IsOccupied(c Coord) bool {
	return lat.cells[lat.index(c)] == 1
}

// Claim marks c as occupied. Claim does not check prior occupancy; that is the caller's job.
func (lat *Lattice) Claim(c Coord) {
	lat.cells[lat.index(c)] = 1
}

// Release marks c as empty.
func (lat *Lattice) Release(c Coord) {
	lat.cells[lat.index(c)] = 0
}

// Count returns the number of occupied cells.
func (lat *Lattice) Count() (n int) {
	for _, v := range lat.cells {
		n += int(v)
	}
	return
}

// Visit calls fn for every occupied cell, in x-major order.
func (lat *Lattice) Visit(fn func(c Coord)) {
	for x := 0; x < lat.Size; x++ {
		for y := 0; y < lat.Size; y++ {
			for z := 0; z < lat.Size; z++ {
				c := Coord{X: x, Y: y, Z: z}
				if lat.cells[lat.index(c)] == 1 {
					fn(c)
				}
			}
		}
	}
}

// Occupied returns all occupied coordinates in x-major order.
func (lat *Lattice) Occupied() (coords []Coord) {
	lat.Visit(func(c Coord) { coords = append(coords, c) })
	return
}

// ZCounts returns the number of occupied cells per z layer, indexed by z.
func (lat *Lattice) ZCounts() []int {
	counts := make([]int, lat.Size)
	lat.Visit(func(c Coord) { counts[c.Z]++ })
	return counts
}
