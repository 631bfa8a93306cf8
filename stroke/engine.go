package stroke

import (
	"math"

	"github.com/theochan/humangen/models"
)

// Point is one outline vertex. Vertex order is significant: the fill rule
// depends on the winding of the polygon, so callers must not reorder.
type Point struct {
	X float64
	Y float64
}

const (
	// Number of vertices used to approximate a full circle (single-tap dot).
	dotSegments = 16
	// Number of arc steps used for each round end cap.
	capSegments = 8
)

// Outline converts a sequence of raw pointer samples into a single closed
// polygon that, when filled, renders the stroke as a continuous ribbon of
// width size along the sampled path.
//
// The pen is fixed to the "raw" feel: no pressure thinning, no smoothing,
// no streamlining. Fewer than two distinct points produce a filled dot of
// radius size/2. Input containing NaN coordinates is undefined behavior.
//
// Joint normals are averaged, not miter-scaled, so a sharp interior corner
// can fold the outline into a local self-overlap. Consumers must fill with
// the nonzero winding rule, under which the overlap still paints as one
// solid ribbon.
func Outline(points []models.StrokePoint, size float64) []Point {
	radius := size / 2

	path := dedupe(points)
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 {
		return dot(path[0], radius)
	}
	return ribbon(path, radius)
}

// dedupe drops consecutive coincident samples; they carry no direction and
// would produce degenerate normals.
func dedupe(points []models.StrokePoint) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		q := Point{X: p.X, Y: p.Y}
		if len(out) > 0 && out[len(out)-1] == q {
			continue
		}
		out = append(out, q)
	}
	return out
}

// dot approximates a filled circle centered on p.
func dot(p Point, radius float64) []Point {
	if radius <= 0 {
		radius = 0.5
	}
	out := make([]Point, 0, dotSegments)
	for i := 0; i < dotSegments; i++ {
		theta := 2 * math.Pi * float64(i) / dotSegments
		out = append(out, Point{
			X: p.X + radius*math.Cos(theta),
			Y: p.Y + radius*math.Sin(theta),
		})
	}
	return out
}

// ribbon traces the left side of the path offset by radius, a round cap at
// the far end, the right side in reverse, and a round cap back at the start.
// Interior vertices use the averaged normal of their adjacent segments so
// both sides stay parallel to the path through joins.
func ribbon(path []Point, radius float64) []Point {
	n := len(path)

	segNormals := make([]Point, n-1)
	for i := 0; i < n-1; i++ {
		segNormals[i] = normal(path[i], path[i+1])
	}

	normals := make([]Point, n)
	normals[0] = segNormals[0]
	normals[n-1] = segNormals[n-2]
	for i := 1; i < n-1; i++ {
		avg := Point{
			X: segNormals[i-1].X + segNormals[i].X,
			Y: segNormals[i-1].Y + segNormals[i].Y,
		}
		length := math.Hypot(avg.X, avg.Y)
		if length < 1e-9 {
			// Hairpin turn: the normals cancel, fall back to the
			// incoming segment's normal.
			normals[i] = segNormals[i-1]
			continue
		}
		normals[i] = Point{X: avg.X / length, Y: avg.Y / length}
	}

	out := make([]Point, 0, 2*n+2*capSegments)

	// Left side, start to end.
	for i := 0; i < n; i++ {
		out = append(out, Point{
			X: path[i].X + normals[i].X*radius,
			Y: path[i].Y + normals[i].Y*radius,
		})
	}

	// Round cap around the last point, sweeping from +normal to -normal
	// through the direction of travel.
	out = append(out, arcCap(path[n-1], normals[n-1], radius)...)

	// Right side, end back to start.
	for i := n - 1; i >= 0; i-- {
		out = append(out, Point{
			X: path[i].X - normals[i].X*radius,
			Y: path[i].Y - normals[i].Y*radius,
		})
	}

	// Round cap back around the first point.
	start := Point{X: -normals[0].X, Y: -normals[0].Y}
	out = append(out, arcCap(path[0], start, radius)...)

	return out
}

// normal returns the unit normal of the segment a->b, rotated 90 degrees
// counterclockwise from the direction of travel.
func normal(a, b Point) Point {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	return Point{X: -dy / length, Y: dx / length}
}

// arcCap emits the interior vertices of a half-circle arc around center,
// rotating the given start vector clockwise by pi. The arc endpoints are
// omitted; the adjacent side vertices already supply them.
func arcCap(center, from Point, radius float64) []Point {
	out := make([]Point, 0, capSegments-1)
	for k := 1; k < capSegments; k++ {
		theta := math.Pi * float64(k) / capSegments
		cos, sin := math.Cos(theta), math.Sin(theta)
		// Clockwise rotation of the start vector by theta.
		vx := from.X*cos + from.Y*sin
		vy := -from.X*sin + from.Y*cos
		out = append(out, Point{X: center.X + vx*radius, Y: center.Y + vy*radius})
	}
	return out
}
