package math

import "math"

// Triangle2 is a triangle in UV space with its barycentric denominator
// precomputed.
type Triangle2 struct {
	P1, P2, P3 Vec2

	// det is the signed double area of the triangle.
	det float64
}

// NewTriangle2 prepares a triangle for repeated barycentric queries.
func NewTriangle2(p1, p2, p3 Vec2) Triangle2 {
	return Triangle2{
		P1:  p1,
		P2:  p2,
		P3:  p3,
		det: (p2.Y-p3.Y)*(p1.X-p3.X) + (p3.X-p2.X)*(p1.Y-p3.Y),
	}
}

// Det returns the signed double area used as the Cramer's rule denominator.
func (t Triangle2) Det() float64 {
	return t.det
}

// Degenerate reports whether the triangle is too thin to solve against.
// NaN areas count as degenerate.
func (t Triangle2) Degenerate(eps float64) bool {
	return !(math.Abs(t.det) >= eps)
}

// Weights returns barycentric weights (a, b, c) of p so that
// p = a*P1 + b*P2 + c*P3 and a+b+c = 1.
func (t Triangle2) Weights(p Vec2) (a, b, c float64) {
	dx := p.X - t.P3.X
	dy := p.Y - t.P3.Y
	a = ((t.P2.Y-t.P3.Y)*dx + (t.P3.X-t.P2.X)*dy) / t.det
	b = ((t.P3.Y-t.P1.Y)*dx + (t.P1.X-t.P3.X)*dy) / t.det
	c = 1 - a - b
	return a, b, c
}

// Inside reports whether barycentric weights describe a point inside the
// triangle or on its boundary, allowing tol of floating error.
func Inside(a, b, c, tol float64) bool {
	return a >= -tol && b >= -tol && c >= -tol && a+b+c <= 1+tol
}
