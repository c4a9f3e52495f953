package history

import (
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/groundstation/internal/timeutil"
)

const (
	// TrajectoryCapacity bounds the retained points.
	TrajectoryCapacity = 1000
	// MinPointSpacing is the smallest distance from the last retained point
	// that a new point must cover to be accepted.
	MinPointSpacing = 0.5
)

// Point is one trajectory sample in the planner's local frame.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Timestamp int64   `json:"timestamp"`
}

func (p Point) vec() []float64 { return []float64{p.X, p.Y, p.Z} }

// Trajectory is a decimated, bounded path of the vehicle.
type Trajectory struct {
	clock  timeutil.Clock
	points *Ring[Point]
}

func NewTrajectory(clock timeutil.Clock) *Trajectory {
	return &Trajectory{
		clock:  timeutil.OrReal(clock),
		points: NewRing[Point](TrajectoryCapacity),
	}
}

// Add appends (x, y, z) when the trajectory is empty or the point lies at
// least MinPointSpacing from the last retained point. It reports whether the
// point was kept.
func (t *Trajectory) Add(x, y, z float64) bool {
	p := Point{X: x, Y: y, Z: z, Timestamp: timeutil.UnixMillis(t.clock.Now())}
	if last, ok := t.points.Last(); ok && floats.Distance(last.vec(), p.vec(), 2) < MinPointSpacing {
		return false
	}
	t.points.Push(p)
	return true
}

func (t *Trajectory) Points() []Point { return t.points.Items() }

func (t *Trajectory) Len() int { return t.points.Len() }

func (t *Trajectory) Clear() { t.points.Clear() }

// Length returns the summed distance between consecutive retained points.
func (t *Trajectory) Length() float64 {
	pts := t.points.Items()
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += floats.Distance(pts[i-1].vec(), pts[i].vec(), 2)
	}
	return total
}
