package nav

import (
	"container/heap"
	"math"

	"siegeline/server/internal/grid"
)

type navNeighbor struct {
	dx       int
	dz       int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navNeighbor{
	{dx: 0, dz: -1, cost: 1, diagonal: false},
	{dx: 1, dz: 0, cost: 1, diagonal: false},
	{dx: 0, dz: 1, cost: 1, diagonal: false},
	{dx: -1, dz: 0, cost: 1, diagonal: false},
	{dx: 1, dz: -1, cost: math.Sqrt2, diagonal: true},
	{dx: 1, dz: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dz: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dz: -1, cost: math.Sqrt2, diagonal: true},
}

func heuristic(a, b grid.Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dz := math.Abs(float64(a.Z - b.Z))
	if dx > dz {
		return dx + (math.Sqrt2-1)*dz
	}
	return dz + (math.Sqrt2-1)*dx
}

type pathNode struct {
	point  grid.Point
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// canTraverseDiagonal forbids cutting a corner past a blocked orthogonal
// neighbor.
func (e *Engine) canTraverseDiagonal(current grid.Point, delta navNeighbor) bool {
	if !delta.diagonal {
		return true
	}
	if !e.walkableLocked(current.X+delta.dx, current.Z) {
		return false
	}
	return e.walkableLocked(current.X, current.Z+delta.dz)
}

// astar searches start→goal over walkable cells. The returned path includes
// the start cell. Callers must hold the grid read lock.
func (e *Engine) astar(start, goal grid.Point) ([]grid.Point, bool) {
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: start, g: 0, f: heuristic(start, goal)})
	gScore := map[int]float64{e.index(start.X, start.Z): 0}
	closed := make(map[int]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := e.index(current.point.X, current.point.Z)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructPath(current), true
		}

		for _, delta := range navNeighborOffsets {
			if delta.diagonal && !e.canTraverseDiagonal(current.point, delta) {
				continue
			}
			nx := current.point.X + delta.dx
			nz := current.point.Z + delta.dz
			if !e.walkableLocked(nx, nz) {
				continue
			}
			idx := e.index(nx, nz)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentativeG := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			next := grid.Point{X: nx, Z: nz}
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentativeG,
				f:      tentativeG + heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *pathNode) []grid.Point {
	if end == nil {
		return nil
	}
	path := make([]grid.Point, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}
