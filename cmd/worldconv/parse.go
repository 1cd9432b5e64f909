package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/seatcraft/server/internal/data"
)

// maxFill caps the volume of one fill line.
const maxFill = 32768

type blockKey struct {
	dim     string
	x, y, z int
}

// parseScript reads console lines:
//
//	spawn <dim> x y z
//	setblock <dim> x y z <type> [state=value ...]
//	fill <dim> x1 y1 z1 x2 y2 z2 <type> [state=value ...]
//
// Blank lines and lines starting with # are skipped. A later placement at
// the same position replaces an earlier one.
func parseScript(r io.Reader) (*data.WorldFixture, error) {
	placed := make(map[blockKey]data.FixtureBlock)
	f := &data.WorldFixture{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "spawn":
			err = parseSpawn(fields[1:], &f.Spawn)
		case "setblock":
			err = parsePlacement(fields[1:], 1, placed)
		case "fill":
			err = parsePlacement(fields[1:], 2, placed)
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, b := range placed {
		f.Blocks = append(f.Blocks, b)
	}
	// Sort by dimension, y, z, x so floors come out row by row
	sort.Slice(f.Blocks, func(i, j int) bool {
		a, b := f.Blocks[i], f.Blocks[j]
		if a.Dimension != b.Dimension {
			return a.Dimension < b.Dimension
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return f, nil
}

func parseSpawn(args []string, sp *data.SpawnPoint) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: spawn <dim> x y z")
	}
	var v [3]float64
	for i := range v {
		n, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return fmt.Errorf("bad coordinate %q", args[i+1])
		}
		v[i] = n
	}
	*sp = data.SpawnPoint{Dimension: args[0], X: v[0], Y: v[1], Z: v[2]}
	return nil
}

// parsePlacement handles setblock (corners=1) and fill (corners=2).
func parsePlacement(args []string, corners int, placed map[blockKey]data.FixtureBlock) error {
	nCoords := 3 * corners
	if len(args) < nCoords+2 {
		return fmt.Errorf("need <dim>, %d coordinates and a block type", nCoords)
	}
	dim := args[0]
	coords := make([]int, nCoords)
	for i := range coords {
		n, err := strconv.Atoi(args[1+i])
		if err != nil {
			return fmt.Errorf("bad coordinate %q", args[1+i])
		}
		coords[i] = n
	}
	typeID := args[1+nCoords]
	var states map[string]string
	for _, kv := range args[2+nCoords:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("bad state %q, want name=value", kv)
		}
		if states == nil {
			states = make(map[string]string)
		}
		states[k] = v
	}

	lo, hi := coords[:3], coords[:3]
	if corners == 2 {
		lo = []int{min(coords[0], coords[3]), min(coords[1], coords[4]), min(coords[2], coords[5])}
		hi = []int{max(coords[0], coords[3]), max(coords[1], coords[4]), max(coords[2], coords[5])}
	}
	// Bound each axis before multiplying so huge corners cannot wrap the product.
	volume := 1
	for i := range lo {
		span := hi[i] - lo[i] + 1
		if span <= 0 || span > maxFill/volume {
			return fmt.Errorf("fill exceeds %d blocks", maxFill)
		}
		volume *= span
	}

	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				placed[blockKey{dim, x, y, z}] = data.FixtureBlock{
					Dimension: dim, X: x, Y: y, Z: z, Type: typeID, States: states,
				}
			}
		}
	}
	return nil
}
