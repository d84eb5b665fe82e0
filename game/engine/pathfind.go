package engine

import "container/heap"

var neighborOffsets = [4]Point{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// FindPath finds a cheapest 4-directional path from start to end using A*.
// Entering a cell costs that cell's minutes. The returned slice includes both
// endpoints; false means end cannot be reached.
func FindPath(g *Grid, start, end Point) ([]Point, bool) {
	if !g.InBounds(start) || !g.Passable(end) {
		return nil, false
	}
	if start == end {
		return []Point{start}, true
	}

	// Manhattan distance scaled by the cheapest step keeps the estimate
	// admissible for sub-unit costs.
	scale := g.MinCost()
	h := func(p Point) float64 {
		return float64(ManhattanDistance(p, end)) * scale
	}

	open := &openSet{}
	pending := make(map[Point]*openNode)
	came := make(map[Point]Point)
	gScore := map[Point]float64{start: 0}
	seq := 0

	push := func(p Point, f float64) {
		n := &openNode{p: p, f: f, seq: seq}
		seq++
		heap.Push(open, n)
		pending[p] = n
	}
	push(start, h(start))

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openNode)
		delete(pending, cur.p)
		if cur.p == end {
			return reconstructPath(came, end), true
		}

		for _, np := range g.OpenNeighbors(cur.p) {
			cost, _ := g.Cost(np)
			tentG := gScore[cur.p] + cost
			if old, seen := gScore[np]; seen && tentG >= old {
				continue
			}
			gScore[np] = tentG
			came[np] = cur.p
			f := tentG + h(np)
			if n, ok := pending[np]; ok {
				n.f = f
				heap.Fix(open, n.index)
				continue
			}
			push(np, f)
		}
	}
	return nil, false
}

func reconstructPath(came map[Point]Point, goal Point) []Point {
	path := []Point{goal}
	cur := goal
	for {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// Reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type openNode struct {
	p     Point
	f     float64
	seq   int
	index int
}

// openSet orders nodes by f, then by insertion sequence
type openSet []*openNode

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}
func (s *openSet) Push(x interface{}) {
	n := x.(*openNode)
	n.index = len(*s)
	*s = append(*s, n)
}
func (s *openSet) Pop() interface{} {
	old := *s
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*s = old[:n-1]
	return item
}
