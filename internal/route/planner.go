// Package route plans drone delivery paths over an implicit geospatial grid.
package route

import (
	"container/heap"
	"math"
	"time"

	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/weather"
)

const (
	// gridSize is the planning cell edge in degrees, roughly 200 m.
	gridSize = 0.002

	// noFlyRadiusKM is the hard exclusion radius around the restricted center.
	noFlyRadiusKM = 0.5

	// hardRejectFactor scales the radius below which points are never expanded.
	hardRejectFactor = 0.8
	// steerFactor scales the radius inside which the heuristic and altitude
	// profile push the search away from the center.
	steerFactor = 1.5
	// fallbackOffsetFactor scales the radius inside which a fallback midpoint
	// is shifted laterally.
	fallbackOffsetFactor = 1.2

	// maxIterations bounds the A* expansion count. The budget, not wall
	// clock, is the planner's timeout policy.
	maxIterations = 1000

	safetyMarginM = 50.0

	// PointInterval is the fixed spacing between consecutive route points.
	PointInterval = 2 * time.Minute
)

// Point is one step of a planned route.
type Point struct {
	Position geo.Position `json:"position"`
	Altitude float64      `json:"altitude"`
	Time     time.Time    `json:"time"`
}

// ConditionSource supplies current weather for edge-cost and altitude
// adjustments. *weather.Field satisfies it.
type ConditionSource interface {
	ConditionsAt(p geo.Position) (weather.Condition, error)
}

// Planner runs A* over an implicit grid with no-fly avoidance and
// weather-adjusted costs.
//
// The heuristic is intentionally not admissible: it is scaled down away
// from the restricted center and doubled near it, steering the search
// around the no-fly zone at the cost of guaranteed-shortest paths.
type Planner struct {
	bounds      geo.Bounds
	center      geo.Position
	minAltitude float64
	maxAltitude float64
}

// NewPlanner creates a planner for the region with the given restricted
// center (the base) and altitude envelope.
func NewPlanner(bounds geo.Bounds, center geo.Position, minAltitude, maxAltitude float64) *Planner {
	return &Planner{
		bounds:      bounds,
		center:      center,
		minAltitude: minAltitude,
		maxAltitude: maxAltitude,
	}
}

// MaxAltitude returns the planner's altitude ceiling.
func (p *Planner) MaxAltitude() float64 { return p.maxAltitude }

// Plan returns a route from start to end departing at departAt. Planning
// never fails: if the search exhausts its budget, the guaranteed 3-point
// fallback path is returned instead. wx may be nil.
func (p *Planner) Plan(start, end geo.Position, departAt time.Time, wx ConditionSource) []Point {
	path := p.search(start, end, wx)
	if len(path) == 0 {
		path = p.fallbackPath(start, end)
	}
	if len(path) < 3 {
		path = p.insertMidpoint(path, start, end)
	}
	points := make([]Point, len(path))
	for i, pos := range path {
		points[i] = Point{
			Position: pos,
			Altitude: p.altitudeFor(pos, wx),
			Time:     departAt.Add(time.Duration(i) * PointInterval),
		}
	}
	return points
}

type cell struct {
	i, j int
}

func toCell(p geo.Position) cell {
	return cell{i: int(math.Round(p.Lat / gridSize)), j: int(math.Round(p.Lon / gridSize))}
}

func (c cell) position() geo.Position {
	return geo.Position{Lat: float64(c.i) * gridSize, Lon: float64(c.j) * gridSize}
}

// neighborOffsets are the 16 expansion vectors: the 8 unit moves for fine
// adjustment, axis moves at twice the cell size, and diagonal jumps at
// three times the cell size for coarse progress.
var neighborOffsets = [16]cell{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	{2, 0}, {-2, 0}, {0, 2}, {0, -2},
	{3, 3}, {3, -3}, {-3, 3}, {-3, -3},
}

func (p *Planner) valid(pos geo.Position) bool {
	if !p.bounds.Contains(pos) {
		return false
	}
	return geo.Distance(pos, p.center) >= hardRejectFactor*noFlyRadiusKM
}

// heuristic under-weights open space and over-weights the vicinity of the
// restricted center. See the Planner doc comment.
func (p *Planner) heuristic(pos, goal geo.Position) float64 {
	h := geo.DegreeDistance(pos, goal) * 0.9
	if geo.Distance(pos, p.center) < steerFactor*noFlyRadiusKM {
		h *= 2
	}
	return h
}

// weatherCost raises edge costs in wind, poor visibility, and near the
// restricted center, making the grid non-uniform in cost.
func (p *Planner) weatherCost(pos geo.Position, wx ConditionSource) float64 {
	cost := 0.0
	if wx != nil {
		if c, err := wx.ConditionsAt(pos); err == nil {
			if c.WindSpeed > 8 {
				cost += (c.WindSpeed - 8) * 0.1
			}
			if c.Visibility < 5 {
				cost += (5 - c.Visibility) * 0.1
			}
		}
	}
	if d := geo.Distance(pos, p.center); d < steerFactor*noFlyRadiusKM {
		cost += (steerFactor*noFlyRadiusKM - d) * 0.1
	}
	return cost
}

type searchNode struct {
	cell  cell
	f     float64
	index int
}

type nodeQueue []*searchNode

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(a, b int) bool  { return q[a].f < q[b].f }
func (q nodeQueue) Swap(a, b int)       { q[a], q[b] = q[b], q[a]; q[a].index = a; q[b].index = b }
func (q *nodeQueue) Push(x any)         { n := x.(*searchNode); n.index = len(*q); *q = append(*q, n) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// search runs bounded A* and returns the grid path, or nil when the goal
// is unreachable within the iteration budget.
func (p *Planner) search(start, end geo.Position, wx ConditionSource) []geo.Position {
	startCell := toCell(start)
	goalCell := toCell(end)

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &searchNode{cell: startCell, f: p.heuristic(start, end)})

	gScore := map[cell]float64{startCell: 0}
	cameFrom := map[cell]cell{}
	closed := map[cell]bool{}

	for iter := 0; open.Len() > 0 && iter < maxIterations; iter++ {
		current := heap.Pop(open).(*searchNode)
		if closed[current.cell] {
			continue
		}
		closed[current.cell] = true
		curPos := current.cell.position()

		if geo.DegreeDistance(curPos, end) < gridSize || current.cell == goalCell {
			return p.reconstruct(cameFrom, current.cell, start, end)
		}

		for _, off := range neighborOffsets {
			next := cell{i: current.cell.i + off.i, j: current.cell.j + off.j}
			if closed[next] {
				continue
			}
			nextPos := next.position()
			if !p.valid(nextPos) {
				continue
			}
			step := geo.DegreeDistance(curPos, nextPos) * (1 + p.weatherCost(nextPos, wx))
			tentative := gScore[current.cell] + step
			if g, ok := gScore[next]; ok && tentative >= g {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = current.cell
			heap.Push(open, &searchNode{cell: next, f: tentative + p.heuristic(nextPos, end)})
		}
	}
	return nil
}

func (p *Planner) reconstruct(cameFrom map[cell]cell, last cell, start, end geo.Position) []geo.Position {
	cells := []cell{last}
	for {
		prev, ok := cameFrom[cells[len(cells)-1]]
		if !ok {
			break
		}
		cells = append(cells, prev)
	}
	path := make([]geo.Position, 0, len(cells)+1)
	path = append(path, start)
	for i := len(cells) - 2; i >= 1; i-- {
		path = append(path, cells[i].position())
	}
	path = append(path, end)
	return path
}

// fallbackPath is the guaranteed 3-point route: start, an offset midpoint,
// end. The midpoint shifts laterally away from the restricted center when
// the raw midpoint falls too close to it, so the fallback never crosses
// the hard no-fly radius.
func (p *Planner) fallbackPath(start, end geo.Position) []geo.Position {
	mid := p.offsetMidpoint(start, end)
	return []geo.Position{start, mid, end}
}

func (p *Planner) insertMidpoint(path []geo.Position, start, end geo.Position) []geo.Position {
	mid := p.offsetMidpoint(start, end)
	return []geo.Position{start, mid, end}
}

func (p *Planner) offsetMidpoint(start, end geo.Position) geo.Position {
	mid := geo.Midpoint(start, end)
	if geo.Distance(mid, p.center) >= fallbackOffsetFactor*noFlyRadiusKM {
		return mid
	}
	// Shift ~1 km along the direction from the center through the midpoint.
	dLat := mid.Lat - p.center.Lat
	dLon := mid.Lon - p.center.Lon
	norm := math.Hypot(dLat, dLon)
	if norm == 0 {
		dLat, dLon, norm = 1, 0, 1
	}
	const offsetKM = 1.0
	latShift := (dLat / norm) * offsetKM / 111.0
	lonShift := (dLon / norm) * offsetKM / (111.0 * math.Cos(mid.Lat*math.Pi/180))
	return geo.Position{Lat: mid.Lat + latShift, Lon: mid.Lon + lonShift}
}

// altitudeFor assigns the cruise altitude for one route point: minimum
// altitude plus a safety margin, ramped up near the no-fly boundary and in
// strong wind, clamped to the drone envelope.
func (p *Planner) altitudeFor(pos geo.Position, wx ConditionSource) float64 {
	alt := p.minAltitude + safetyMarginM
	if d := geo.Distance(pos, p.center); d < steerFactor*noFlyRadiusKM {
		alt += (1 - d/(steerFactor*noFlyRadiusKM)) * 2 * safetyMarginM
	}
	if wx != nil {
		if c, err := wx.ConditionsAt(pos); err == nil && c.WindSpeed > 8 {
			alt += (c.WindSpeed - 8) * 10
		}
	}
	return math.Max(p.minAltitude, math.Min(p.maxAltitude, alt))
}

// TotalDistance sums the great-circle length of the route in kilometers.
func TotalDistance(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += geo.Distance(points[i-1].Position, points[i].Position)
	}
	return total
}

// Positions extracts the bare positions of a route, for risk assessment.
func Positions(points []Point) []geo.Position {
	out := make([]geo.Position, len(points))
	for i, pt := range points {
		out[i] = pt.Position
	}
	return out
}
