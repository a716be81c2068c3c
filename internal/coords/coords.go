/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package coords holds the pure coordinate conversions shared by the
// constraint engine and the rendering feedback. Every angle or distance
// computation in the core goes through these functions; duplicating the math
// elsewhere would let the engine and its visual feedback drift apart.
//
// Angles are degrees throughout, normalized to [0,360).
package coords

import (
	"math"

	"draftcad/internal/geom"
)

// Polar is a distance/angle pair relative to some base point and base angle.
type Polar struct {
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// NormalizeAngle maps any degree value into [0,360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// CartesianToPolar expresses p relative to base and baseAngle.
func CartesianToPolar(p, base geom.Point, baseAngle float64) Polar {
	d := p.Minus(base)
	angle := math.Atan2(d.Y, d.X) * 180 / math.Pi
	return Polar{
		Distance: base.Distance(p),
		Angle:    NormalizeAngle(NormalizeAngle(angle) - baseAngle),
	}
}

// PolarToCartesian is the exact inverse of CartesianToPolar.
func PolarToCartesian(pc Polar, base geom.Point, baseAngle float64) geom.Point {
	rad := NormalizeAngle(pc.Angle+baseAngle) * math.Pi / 180
	return geom.Point{
		X: base.X + pc.Distance*math.Cos(rad),
		Y: base.Y + pc.Distance*math.Sin(rad),
	}
}

// SnapAngleToStep rounds angle to the nearest multiple of step and accepts
// the snap when the deviation is within tolerance degrees, including the
// wraparound case where the nearest multiple is 360 and the result is 0.
// The step must be positive; a non-positive step never snaps.
func SnapAngleToStep(angle, step, tolerance float64) (float64, bool) {
	if step <= 0 {
		return angle, false
	}
	angle = NormalizeAngle(angle)
	snapped := math.Round(angle/step) * step
	dev := math.Abs(angle - snapped)
	// Near 360 the closest multiple may sit on the other side of the wrap.
	if wrapDev := math.Abs(angle - 360); wrapDev < dev && math.Mod(360, step) == 0 {
		snapped, dev = 360, wrapDev
	}
	if dev > tolerance {
		return angle, false
	}
	return NormalizeAngle(snapped), true
}

// SnapDistanceToStep rounds distance to the nearest multiple of step within
// tolerance. Distances are non-negative; a zero snap target is allowed.
func SnapDistanceToStep(distance, step, tolerance float64) (float64, bool) {
	if step <= 0 {
		return distance, false
	}
	snapped := math.Round(distance/step) * step
	if math.Abs(distance-snapped) > tolerance {
		return distance, false
	}
	return snapped, true
}

// compassNames are the 8-way direction names, one per 45° sector starting
// east and going counter-clockwise.
var compassNames = [8]string{"E", "NE", "N", "NW", "W", "SW", "S", "SE"}

// CompassDirection names the 45° sector the angle falls into.
func CompassDirection(deg float64) string {
	sector := int(math.Round(NormalizeAngle(deg)/45)) % 8
	return compassNames[sector]
}
