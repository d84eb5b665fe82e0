package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridFromRows builds a grid from layout characters ('.', '~', '#')
func gridFromRows(t *testing.T, rows ...string) *Grid {
	t.Helper()
	g := NewGrid(len(rows[0]), len(rows), DefaultTerrainCosts())
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			p := Point{X: x, Y: y}
			switch row[x] {
			case '~':
				require.NoError(t, g.SetTerrain(p, Rough))
			case '#':
				require.NoError(t, g.SetTerrain(p, Wall))
			}
		}
	}
	return g
}

// bruteForceCost relaxes every edge until nothing improves
func bruteForceCost(g *Grid, start, end Point) (float64, bool) {
	dist := make(map[Point]float64)
	dist[start] = 0
	for changed := true; changed; {
		changed = false
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				p := Point{X: x, Y: y}
				d, ok := dist[p]
				if !ok {
					continue
				}
				for _, n := range g.OpenNeighbors(p) {
					cost, _ := g.Cost(n)
					if old, seen := dist[n]; !seen || d+cost < old-1e-9 {
						dist[n] = d + cost
						changed = true
					}
				}
			}
		}
	}
	d, ok := dist[end]
	return d, ok
}

func assertContiguous(t *testing.T, g *Grid, path []Point) {
	t.Helper()
	for i, p := range path {
		if i > 0 {
			assert.True(t, g.Passable(p), "path point %s must be passable", p)
			assert.Equal(t, 1, ManhattanDistance(path[i-1], p), "step %d is not 4-directional", i)
		}
	}
}

func TestFindPath_OpenGrid(t *testing.T) {
	g := NewGrid(3, 3, DefaultTerrainCosts())

	path, ok := FindPath(g, Point{0, 0}, Point{2, 2})
	require.True(t, ok)
	assert.Len(t, path, 5)
	assert.Equal(t, Point{0, 0}, path[0])
	assert.Equal(t, Point{2, 2}, path[len(path)-1])
	assert.Equal(t, 4.0, Route(path).Cost(g))
	assertContiguous(t, g, path)
}

func TestFindPath_SamePoint(t *testing.T) {
	g := NewGrid(2, 2, DefaultTerrainCosts())
	path, ok := FindPath(g, Point{1, 1}, Point{1, 1})
	require.True(t, ok)
	assert.Equal(t, []Point{{1, 1}}, path)
}

func TestFindPath_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		rows  []string
		start Point
		end   Point
	}{
		{"wall between start and end", []string{".#."}, Point{0, 0}, Point{2, 0}},
		{"end is a wall", []string{"..#"}, Point{0, 0}, Point{2, 0}},
		{"end enclosed", []string{"...#.", "...#.", "...##", "....."}, Point{0, 0}, Point{4, 0}},
		{"end out of bounds", []string{"..."}, Point{0, 0}, Point{5, 0}},
		{"start out of bounds", []string{"..."}, Point{-1, 0}, Point{2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gridFromRows(t, tt.rows...)
			path, ok := FindPath(g, tt.start, tt.end)
			assert.False(t, ok)
			assert.Nil(t, path)
		})
	}
}

func TestFindPath_AvoidsRough(t *testing.T) {
	g := gridFromRows(t,
		".~.",
		".~.",
		"...",
	)
	path, ok := FindPath(g, Point{0, 0}, Point{2, 0})
	require.True(t, ok)
	// Rough shortcut and bottom detour both cost 6
	assert.Equal(t, 6.0, Route(path).Cost(g))
	assertContiguous(t, g, path)
}

func TestFindPath_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	terrains := []Terrain{Plain, Plain, Plain, Rough, Wall}

	for i := 0; i < 200; i++ {
		w, h := 2+rng.Intn(6), 2+rng.Intn(6)
		g := NewGrid(w, h, TerrainCosts{Plain: 1, Rough: 3.5})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				require.NoError(t, g.SetTerrain(Point{x, y}, terrains[rng.Intn(len(terrains))]))
			}
		}
		start := Point{rng.Intn(w), rng.Intn(h)}
		end := Point{rng.Intn(w), rng.Intn(h)}
		require.NoError(t, g.SetTerrain(start, Plain))
		require.NoError(t, g.SetTerrain(end, Plain))

		want, reachable := bruteForceCost(g, start, end)
		path, ok := FindPath(g, start, end)
		require.Equal(t, reachable, ok, "grid %d: %v", i, g.Render())
		if !ok {
			continue
		}
		assert.Equal(t, start, path[0])
		assert.Equal(t, end, path[len(path)-1])
		assertContiguous(t, g, path)
		assert.InDelta(t, want, Route(path).Cost(g), 1e-9, "grid %d: %v", i, g.Render())
	}
}

func TestFindPath_FractionalCosts(t *testing.T) {
	g := NewGrid(4, 4, TerrainCosts{Plain: 0.25, Rough: 0.5})
	g.at(Point{1, 0}).Minutes = 10

	path, ok := FindPath(g, Point{0, 0}, Point{3, 0})
	require.True(t, ok)
	want, _ := bruteForceCost(g, Point{0, 0}, Point{3, 0})
	assert.InDelta(t, want, Route(path).Cost(g), 1e-9)
}

func TestManhattanDistance(t *testing.T) {
	assert.Equal(t, 0, ManhattanDistance(Point{3, 3}, Point{3, 3}))
	assert.Equal(t, 7, ManhattanDistance(Point{0, 0}, Point{3, 4}))
	assert.Equal(t, 7, ManhattanDistance(Point{3, 4}, Point{0, 0}))
}
