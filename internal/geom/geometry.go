/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom provides the 2D primitives and the tolerance kernel for the
// drawing core. All coordinates are float64 drawing units. Coordinates
// originate from parsed drawing files and carry rounding error, so point
// comparisons go through the tolerance predicates here, never through ==.
package geom

import "math"

// Tolerance constants. Every distance/equality decision in the core uses one
// of these; keeping them in one place prevents subtly different cutoffs in
// different packages.
const (
	// Epsilon is the generic floating point comparison tolerance.
	Epsilon = 1e-9
	// CoincidentTol is the tight tolerance for "this is the same point".
	CoincidentTol = 1e-3
	// GapTol is the loose tolerance for "these were obviously meant to
	// connect" when chaining segments from imprecise drawings.
	GapTol = 0.5
	// RadiusTol is the tolerance for treating two arc radii as equal.
	RadiusTol = 0.01
	// DegenerateTol drops consecutive near-duplicate tessellation points.
	DegenerateTol = 1e-6
)

// Point is a 2D point in drawing units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is an ordered endpoint pair. Direction is irrelevant for matching;
// a segment may be consumed reversed.
type Segment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Polyline is an ordered point sequence.
type Polyline []Point

// ApproxEqual reports whether a and b differ by at most tol.
func ApproxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// Distance returns the Euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// SamePoint reports coincidence under the tight tolerance.
func (p Point) SamePoint(other Point) bool {
	return p.Distance(other) <= CoincidentTol
}

// NearPoint reports proximity under the loose gap tolerance.
func (p Point) NearPoint(other Point) bool {
	return p.Distance(other) <= GapTol
}

// Minus returns p - other.
func (p Point) Minus(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Add returns p + other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Scale returns the point scaled by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// CrossZ returns the Z component of the cross product p × other.
func (p Point) CrossZ(other Point) float64 {
	return p.X*other.Y - p.Y*other.X
}

// Collinear reports whether a, b, c lie on one line, via the cross product of
// b-a and c-a within tolerance. The tolerance scales with CoincidentTol so
// short chains from file data do not fail on rounding noise.
func Collinear(a, b, c Point) bool {
	return math.Abs(b.Minus(a).CrossZ(c.Minus(a))) <= CoincidentTol
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Reversed returns the segment with swapped endpoints.
func (s Segment) Reversed() Segment {
	return Segment{Start: s.End, End: s.Start}
}

// First returns the first point, or a zero point for an empty polyline.
func (pl Polyline) First() Point {
	if len(pl) == 0 {
		return Point{}
	}
	return pl[0]
}

// Last returns the last point, or a zero point for an empty polyline.
func (pl Polyline) Last() Point {
	if len(pl) == 0 {
		return Point{}
	}
	return pl[len(pl)-1]
}

// Closed reports whether the polyline starts and ends at the same point
// under the tight tolerance.
func (pl Polyline) Closed() bool {
	return len(pl) >= 3 && pl.First().SamePoint(pl.Last())
}

// Segments decomposes the polyline into consecutive segments.
func (pl Polyline) Segments() []Segment {
	if len(pl) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(pl)-1)
	for i := 1; i < len(pl); i++ {
		segs = append(segs, Segment{Start: pl[i-1], End: pl[i]})
	}
	return segs
}
