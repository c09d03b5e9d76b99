package state

import (
	"math"
)

// Rect is an axis-aligned box on the canvas.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Overlaps reports whether r and o share any area, edges included.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.X+r.W < o.X || o.X+o.W < r.X || r.Y+r.H < o.Y || o.Y+o.H < r.Y)
}

// Union returns the smallest box holding both r and o.
func (r Rect) Union(o Rect) Rect {
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX, maxY := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Inset grows r by d on every side (shrinks for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

func boundsOf(ox, oy float64, pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{X: ox, Y: oy}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Rect{X: ox + minX, Y: oy + minY, W: maxX - minX, H: maxY - minY}
}

// StarVertices returns the 2*spikes vertices of a star centered on the
// local origin. Vertex i sits at angle i*(π/spikes) - π/2, on the outer
// radius for even i and the inner radius for odd i.
func StarVertices(spikes int, outer, inner float64) []Point {
	if spikes < 2 {
		return nil
	}
	step := math.Pi / float64(spikes)
	pts := make([]Point, 2*spikes)
	for i := range pts {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*step - math.Pi/2
		pts[i] = Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}

// HexagonVertices returns the six vertices of a hexagon of circumradius
// size centered on the local origin, vertex i at i*60° - 30°.
func HexagonVertices(size float64) []Point {
	pts := make([]Point, 6)
	for i := range pts {
		a := (float64(i)*60 - 30) * math.Pi / 180
		pts[i] = Point{X: size * math.Cos(a), Y: size * math.Sin(a)}
	}
	return pts
}

// TriangleVertices returns the apex-up triangle inscribed in a w by h box
// whose top-left corner is (x, y).
func TriangleVertices(x, y, w, h float64) []Point {
	return []Point{{x + w/2, y}, {x + w, y + h}, {x, y + h}}
}

// Outline returns the closed outline of o in canvas coordinates, before
// rotation, or nil for kinds that are not polygons.
func (o Object) Outline() []Point {
	switch o.Kind {
	case KindTriangle:
		return TriangleVertices(o.X, o.Y, o.Width, o.Height)
	case KindPolygon:
		return o.absolute(o.Points)
	}
	return nil
}

// Polyline returns the open stroke of a line or path in canvas coordinates.
func (o Object) Polyline() []Point {
	switch o.Kind {
	case KindLine:
		if o.Line == nil {
			return nil
		}
		return o.absolute([]Point{{o.Line.X1, o.Line.Y1}, {o.Line.X2, o.Line.Y2}})
	case KindPath:
		return o.absolute(o.Points)
	}
	return nil
}

func (o Object) absolute(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: o.X + p.X, Y: o.Y + p.Y}
	}
	return out
}

// Contains reports whether canvas point p falls on o, accounting for its
// rotation about the center of its bounds. Strokes count within tolerance
// of the line.
func (o Object) Contains(p Point, tolerance float64) bool {
	b := o.Bounds()
	if o.Rotation != 0 {
		p = rotateAbout(p, b.Center(), -o.Rotation)
	}
	switch o.Kind {
	case KindCircle:
		c := b.Center()
		return math.Hypot(p.X-c.X, p.Y-c.Y) <= o.Radius+o.StrokeWidth/2
	case KindTriangle, KindPolygon:
		return insidePolygon(p, o.Outline())
	case KindLine, KindPath:
		line := o.Polyline()
		reach := math.Max(o.StrokeWidth/2, tolerance)
		if len(line) == 1 {
			return math.Hypot(p.X-line[0].X, p.Y-line[0].Y) <= reach
		}
		for i := 1; i < len(line); i++ {
			if distToSegment(p, line[i-1], line[i]) <= reach {
				return true
			}
		}
		return false
	default:
		return b.Contains(p)
	}
}

// WithinBox is Contains for an object whose unrotated box b was measured
// elsewhere, such as text laid out with real font metrics.
func (o Object) WithinBox(p Point, b Rect) bool {
	if o.Rotation != 0 {
		p = rotateAbout(p, b.Center(), -o.Rotation)
	}
	return b.Contains(p)
}

// rotateAbout rotates p by deg degrees clockwise on screen around c.
func rotateAbout(p, c Point, deg float64) Point {
	a := deg * math.Pi / 180
	s, k := math.Sin(a), math.Cos(a)
	dx, dy := p.X-c.X, p.Y-c.Y
	return Point{X: c.X + dx*k - dy*s, Y: c.Y + dx*s + dy*k}
}

func insidePolygon(p Point, poly []Point) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := math.Max(0, math.Min(1, ((p.X-a.X)*dx+(p.Y-a.Y)*dy)/l2))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
