/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// DefaultArcSegments is the tessellation step count used everywhere an arc
// has to be approximated by a polyline. Chaining and rendering feedback must
// share the same count, otherwise their results diverge at arc endpoints.
const DefaultArcSegments = 24

// Arc is a circular arc with angles in degrees, counter-clockwise.
type Arc struct {
	Center   Point   `json:"center"`
	Radius   float64 `json:"radius"`
	StartDeg float64 `json:"startDeg"`
	EndDeg   float64 `json:"endDeg"`
}

// PointAt returns the point on the arc's circle at the given angle (degrees).
func (a Arc) PointAt(deg float64) Point {
	rad := deg * math.Pi / 180
	return Point{
		X: a.Center.X + a.Radius*math.Cos(rad),
		Y: a.Center.Y + a.Radius*math.Sin(rad),
	}
}

// SpanDeg returns the positive angular span of the arc in degrees. A raw
// end-start of zero or less wraps once around (a 350°..10° arc spans 20°).
func (a Arc) SpanDeg() float64 {
	span := a.EndDeg - a.StartDeg
	if span <= 0 {
		span += 360
	}
	return span
}

// Tessellate approximates the arc by a polyline with the given number of
// steps (DefaultArcSegments when segments <= 0). The angular span is
// normalized into [start, start+2π) so the end angle is always reachable
// going counter-clockwise. Consecutive points closer than DegenerateTol are
// dropped so degenerate arcs cannot feed zero-length segments downstream.
func (a Arc) Tessellate(segments int) Polyline {
	if segments <= 0 {
		segments = DefaultArcSegments
	}
	start := a.StartDeg * math.Pi / 180
	end := a.EndDeg * math.Pi / 180
	for end <= start {
		end += 2 * math.Pi
	}

	step := (end - start) / float64(segments)
	points := make(Polyline, 0, segments+1)
	for i := 0; i <= segments; i++ {
		theta := start + step*float64(i)
		p := Point{
			X: a.Center.X + a.Radius*math.Cos(theta),
			Y: a.Center.Y + a.Radius*math.Sin(theta),
		}
		if n := len(points); n > 0 && points[n-1].Distance(p) < DegenerateTol {
			continue
		}
		points = append(points, p)
	}
	return points
}
