/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package constraint

// Preset bundles a named pair of ortho/polar settings. Presets are plain
// data loaded into an engine at session start; the engine itself knows
// nothing about preset names.
type Preset struct {
	Name  string        `json:"name"`
	Label string        `json:"label"`
	Ortho OrthoSettings `json:"ortho"`
	Polar PolarSettings `json:"polar"`
}

// Presets returns the built-in preset table.
func Presets() []Preset {
	ortho := DefaultOrtho()
	ortho.Enabled = true

	orthoDiag := ortho
	orthoDiag.Diagonal = true
	orthoDiag.SnapToDiagonal = true

	polar15 := DefaultPolar()
	polar15.Enabled = true

	polar30 := polar15
	polar30.AngleStep = 30

	isoPolar := polar15
	isoPolar.AngleStep = 30
	isoPolar.BaseAngle = 30

	fine := polar15
	fine.AngleStep = 5
	fine.AngleTolerance = 1
	fine.LockDistance = true
	fine.DistanceStep = 1
	fine.DistanceTolerance = 0.25

	return []Preset{
		{Name: "ortho", Label: "Orthogonal", Ortho: ortho, Polar: DefaultPolar()},
		{Name: "ortho-diagonal", Label: "Orthogonal + diagonals", Ortho: orthoDiag, Polar: DefaultPolar()},
		{Name: "polar-15", Label: "Polar tracking 15°", Ortho: DefaultOrtho(), Polar: polar15},
		{Name: "polar-30", Label: "Polar tracking 30°", Ortho: DefaultOrtho(), Polar: polar30},
		{Name: "isometric", Label: "Isometric 30°", Ortho: DefaultOrtho(), Polar: isoPolar},
		{Name: "fine", Label: "Fine polar grid", Ortho: DefaultOrtho(), Polar: fine},
	}
}

// PresetByName looks up a preset from the built-in table.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
