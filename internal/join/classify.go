/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package join merges loosely connected drawing entities into one entity,
// following the drafting-tool JOIN convention: collinear lines collapse to a
// single line, arcs on one circle fuse to an arc or a full circle, and
// everything else becomes a polyline along the assembled path.
package join

import (
	"math"

	"draftcad/internal/domain"
	"draftcad/internal/geom"
)

// circleCloseTol is how close (degrees) the summed arc spans must be to a
// full turn for the fused result to become a circle.
const circleCloseTol = 1.0

// Classify decides the most specific shape the joined entities collapse to.
// The cascade prefers compact representations: line, then arc/circle, then a
// generic polyline along the chain. The chain must have at least 2 points.
func Classify(entities []domain.Entity, chainPts geom.Polyline) domain.Shape {
	if s, ok := classifyLines(entities, chainPts); ok {
		return s
	}
	if s, ok := classifyArcs(entities, chainPts); ok {
		return s
	}
	return domain.Polyline{
		Vertices: chainPts,
		Close:    chainPts.First().SamePoint(chainPts.Last()),
	}
}

// classifyLines collapses all-line selections whose chain is straight.
// A 2-point chain is trivially collinear.
func classifyLines(entities []domain.Entity, chainPts geom.Polyline) (domain.Shape, bool) {
	for _, e := range entities {
		if _, ok := e.Shape.(domain.Line); !ok {
			return nil, false
		}
	}
	for i := 2; i < len(chainPts); i++ {
		if !geom.Collinear(chainPts[i-2], chainPts[i-1], chainPts[i]) {
			return nil, false
		}
	}
	return domain.Line{Start: chainPts.First(), End: chainPts.Last()}, true
}

// classifyArcs fuses all-arc selections sharing one circle. When the summed
// spans amount to a full turn the result is a circle; otherwise it is an arc
// whose angles are recomputed from the chain ends around the shared center.
func classifyArcs(entities []domain.Entity, chainPts geom.Polyline) (domain.Shape, bool) {
	arcs := make([]domain.Arc, 0, len(entities))
	for _, e := range entities {
		a, ok := e.Shape.(domain.Arc)
		if !ok {
			return nil, false
		}
		arcs = append(arcs, a)
	}
	first := arcs[0]
	for _, a := range arcs[1:] {
		if !a.Center.SamePoint(first.Center) {
			return nil, false
		}
		if !geom.ApproxEqual(a.Radius, first.Radius, geom.RadiusTol) {
			return nil, false
		}
	}

	total := 0.0
	for _, a := range arcs {
		total += a.Geom().SpanDeg()
	}
	if math.Abs(total-360) <= circleCloseTol {
		return domain.Circle{Center: first.Center, Radius: first.Radius}, true
	}

	return domain.Arc{
		Center:     first.Center,
		Radius:     first.Radius,
		StartAngle: angleAround(first.Center, chainPts.First()),
		EndAngle:   angleAround(first.Center, chainPts.Last()),
	}, true
}

// angleAround returns the [0,360) degree angle of p as seen from center.
func angleAround(center, p geom.Point) float64 {
	d := p.Minus(center)
	deg := math.Atan2(d.Y, d.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
