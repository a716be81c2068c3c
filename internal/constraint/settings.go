/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package constraint applies drafting constraints (ortho axis lock, polar
// angle/distance lock, registered custom constraints) to raw cursor points
// during interactive point entry, and produces the guide glyphs the
// rendering layer draws as feedback.
//
// Settings are explicit immutable values handed to the engine, never ambient
// state; an engine plus one Context per interactive operation is the whole
// mutable surface.
package constraint

import (
	"fmt"

	"draftcad/internal/geom"
)

// OrthoMode selects how hard the axis lock bites.
type OrthoMode string

const (
	OrthoStrict OrthoMode = "strict"
	OrthoAssist OrthoMode = "assist"
	OrthoLock   OrthoMode = "lock"
)

// PolarMode selects the polar tracking reference.
type PolarMode string

const (
	PolarAbsolute    PolarMode = "absolute"
	PolarRelative    PolarMode = "relative"
	PolarIncremental PolarMode = "incremental"
)

// OrthoSettings configures the orthogonal (axis lock) constraint.
// AngleStep is the generic snap step in degrees, valid in (0,180];
// Tolerance is the maximum angular deviation (degrees) that still snaps.
type OrthoSettings struct {
	Enabled   bool      `json:"enabled"`
	Mode      OrthoMode `json:"mode"`
	AngleStep float64   `json:"angleStep"`
	Tolerance float64   `json:"tolerance"`

	// Axis locks.
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
	Diagonal   bool `json:"diagonal"`

	// Behavior flags.
	SnapToCardinal   bool   `json:"snapToCardinal"`
	SnapToDiagonal   bool   `json:"snapToDiagonal"`
	InheritDirection bool   `json:"inheritDirection"`
	OverrideModifier string `json:"overrideModifier,omitempty"`
}

// DefaultOrtho returns the shipped ortho defaults: horizontal/vertical lock
// with a 5° snap window, disabled until the user toggles it.
func DefaultOrtho() OrthoSettings {
	return OrthoSettings{
		Mode:             OrthoStrict,
		AngleStep:        90,
		Tolerance:        5,
		Horizontal:       true,
		Vertical:         true,
		SnapToCardinal:   true,
		OverrideModifier: "shift",
	}
}

// Validate checks the invariants the engine relies on.
func (s OrthoSettings) Validate() error {
	if s.AngleStep <= 0 || s.AngleStep > 180 {
		return fmt.Errorf("ortho angle step %v out of range (0,180]", s.AngleStep)
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("ortho tolerance %v must be non-negative", s.Tolerance)
	}
	return nil
}

// PolarSettings configures polar tracking: angle (and optionally distance)
// snapping on a grid anchored at BasePoint/BaseAngle.
type PolarSettings struct {
	Enabled           bool       `json:"enabled"`
	Mode              PolarMode  `json:"mode"`
	AngleStep         float64    `json:"angleStep"`
	DistanceStep      float64    `json:"distanceStep"`
	AngleTolerance    float64    `json:"angleTolerance"`
	DistanceTolerance float64    `json:"distanceTolerance"`
	BasePoint         geom.Point `json:"basePoint"`
	BaseAngle         float64    `json:"baseAngle"`

	// Behavior flags.
	Tracking     bool `json:"tracking"`
	InfiniteRays bool `json:"infiniteRays"`
	DynamicAngle bool `json:"dynamicAngle"`
	LockDistance bool `json:"lockDistance"`
	LockAngle    bool `json:"lockAngle"`
}

// DefaultPolar returns the shipped polar defaults: 15° tracking without
// distance lock, disabled until toggled.
func DefaultPolar() PolarSettings {
	return PolarSettings{
		Mode:              PolarAbsolute,
		AngleStep:         15,
		DistanceStep:      10,
		AngleTolerance:    2,
		DistanceTolerance: 0.5,
		Tracking:          true,
		LockAngle:         true,
	}
}

// Validate checks the invariants the engine relies on.
func (s PolarSettings) Validate() error {
	if s.AngleStep <= 0 || s.AngleStep > 180 {
		return fmt.Errorf("polar angle step %v out of range (0,180]", s.AngleStep)
	}
	if s.AngleTolerance < 0 || s.DistanceTolerance < 0 {
		return fmt.Errorf("polar tolerances must be non-negative")
	}
	if s.DistanceStep < 0 {
		return fmt.Errorf("polar distance step %v must be non-negative", s.DistanceStep)
	}
	return nil
}
