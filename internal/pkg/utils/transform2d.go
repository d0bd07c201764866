package utils

import (
	"image"
	"math"
)

// Vec is a 2D vector in screen pixel space (y grows downward).
type Vec struct {
	X float64
	Y float64
}

// North points to the top of the screen.
var North = Vec{X: 0, Y: -1}

func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

func FromPoint(p image.Point) Vec {
	return Vec{X: float64(p.X), Y: float64(p.Y)}
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec) Scale(k float64) Vec {
	return Vec{X: v.X * k, Y: v.Y * k}
}

func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross is the z component of v × o.
func (v Vec) Cross(o Vec) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec) Point() image.Point {
	return image.Pt(int(math.Round(v.X)), int(math.Round(v.Y)))
}

func GetCenter(rect image.Rectangle) image.Point {
	centerX := rect.Min.X + (rect.Max.X-rect.Min.X)/2
	centerY := rect.Min.Y + (rect.Max.Y-rect.Min.Y)/2
	return image.Point{X: centerX, Y: centerY}
}

func ToGlobalPoint(offset image.Point, local image.Point) image.Point {
	return image.Point{X: offset.X + local.X, Y: offset.Y + local.Y}
}

// RectFromXYWH converts an [x, y, w, h] config array into a rectangle.
func RectFromXYWH(a []int) (image.Rectangle, bool) {
	if len(a) != 4 || a[2] <= 0 || a[3] <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(a[0], a[1], a[0]+a[2], a[1]+a[3]), true
}

// Bearing is the clockwise angle from ref to v, in [0, 2π).
// Zero vectors have no direction and yield 0.
func Bearing(v Vec, ref Vec) float64 {
	n := v.Norm() * ref.Norm()
	if n == 0 {
		return 0
	}
	cos := v.Dot(ref) / n
	cos = math.Max(-1, math.Min(1, cos))
	theta := math.Acos(cos)
	if ref.Cross(v) < 0 {
		theta = -theta
	}
	return NormalizeAngle(theta)
}

// NormalizeAngle maps a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// AngleDiff returns a-b wrapped into (-π, π].
func AngleDiff(a, b float64) float64 {
	d := NormalizeAngle(a - b)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// FitDirection fits y = m·x + b through points by least squares and returns (1, m).
// A near-vertical set returns (0, 1). Fewer than two distinct points has no direction.
func FitDirection(points []Vec) (Vec, bool) {
	if len(points) < 2 {
		return Vec{}, false
	}
	var mx, my float64
	for _, p := range points {
		mx += p.X
		my += p.Y
	}
	n := float64(len(points))
	mx /= n
	my /= n

	var sxx, sxy, syy float64
	for _, p := range points {
		dx, dy := p.X-mx, p.Y-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	const eps = 1e-9
	if sxx < eps && syy < eps {
		return Vec{}, false
	}
	if sxx < eps*syy || sxx < eps {
		return Vec{X: 0, Y: 1}, true
	}
	return Vec{X: 1, Y: sxy / sxx}, true
}

// Orient flips dir so it points from `from` toward `toward`.
func Orient(dir Vec, from Vec, toward Vec) Vec {
	if dir.Dot(toward.Sub(from)) < 0 {
		return dir.Scale(-1)
	}
	return dir
}
