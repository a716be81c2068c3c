/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap provides the grid and snap-point helpers of the drawing core:
// grid/ruler tick generation for viewport rendering and a quadtree index over
// entity anchor points for cursor snapping. All helpers are UI-agnostic and
// deterministic.
package snap

import (
	"math"

	"draftcad/internal/geom"
)

// Tick is one ruler mark. Major ticks carry a label in the host UI.
type Tick struct {
	Value float64
	Major bool
}

// GridTicks returns the grid line positions covering [min,max], aligned to
// multiples of spacing. A non-positive spacing or an empty interval yields
// nil.
func GridTicks(min, max, spacing float64) []float64 {
	if spacing <= 0 || max < min {
		return nil
	}
	first := math.Ceil(min/spacing-geom.Epsilon) * spacing
	var out []float64
	for v := first; v <= max+geom.Epsilon; v += spacing {
		out = append(out, v)
	}
	return out
}

// RulerTicks returns minor ticks at spacing intervals with every majorEvery-th
// tick marked major, counted from the zero origin so major marks stay stable
// while the viewport pans.
func RulerTicks(min, max, spacing float64, majorEvery int) []Tick {
	if majorEvery <= 0 {
		majorEvery = 1
	}
	vs := GridTicks(min, max, spacing)
	out := make([]Tick, 0, len(vs))
	for _, v := range vs {
		n := int(math.Round(v / spacing))
		if n < 0 {
			n = -n
		}
		out = append(out, Tick{Value: v, Major: n%majorEvery == 0})
	}
	return out
}

// SnapToGrid rounds both coordinates to the nearest grid intersection.
// A non-positive spacing returns the point unchanged.
func SnapToGrid(p geom.Point, spacing float64) geom.Point {
	if spacing <= 0 {
		return p
	}
	return geom.Point{
		X: math.Round(p.X/spacing) * spacing,
		Y: math.Round(p.Y/spacing) * spacing,
	}
}
