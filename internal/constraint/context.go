/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package constraint

import "draftcad/internal/geom"

// Context is the ephemeral per-interaction state of one drawing operation
// (a multi-click draw, a drag). It is created by Engine.Begin, mutated on
// every cursor move and committed click, and discarded on End/Cancel.
type Context struct {
	// Reference is the previous committed point; ortho locks relative to it.
	Reference *geom.Point
	// Prior holds all committed points of the operation, oldest first.
	Prior []geom.Point
	// BaseAngle overrides the polar base angle when non-zero.
	BaseAngle float64
	// Cursor is the live (unconstrained) cursor position.
	Cursor geom.Point
	// Modifiers are the currently held keyboard modifiers ("shift", ...).
	Modifiers []string
	// SnapSpacing is the active grid spacing, if the host snaps to grid.
	SnapSpacing float64
	// Customs are extra constraint definitions active for this operation
	// only, on top of those registered with the engine.
	Customs []Custom
}

// HasModifier reports whether the named modifier key is held.
func (c Context) HasModifier(name string) bool {
	for _, m := range c.Modifiers {
		if m == name {
			return true
		}
	}
	return false
}

// lastDirection returns the direction (degrees) of the most recent committed
// segment, used for inherit-direction and dynamic polar base angles.
func (c Context) lastDirection() (float64, bool) {
	if len(c.Prior) < 2 {
		return 0, false
	}
	a := c.Prior[len(c.Prior)-2]
	b := c.Prior[len(c.Prior)-1]
	if a.SamePoint(b) {
		return 0, false
	}
	return angleBetween(a, b), true
}

// merged overlays the non-zero fields of o onto c.
func (c Context) merged(o *Context) Context {
	if o == nil {
		return c
	}
	out := c
	if o.Reference != nil {
		out.Reference = o.Reference
	}
	if o.Prior != nil {
		out.Prior = o.Prior
	}
	if o.BaseAngle != 0 {
		out.BaseAngle = o.BaseAngle
	}
	if o.Modifiers != nil {
		out.Modifiers = o.Modifiers
	}
	if o.SnapSpacing != 0 {
		out.SnapSpacing = o.SnapSpacing
	}
	if o.Customs != nil {
		out.Customs = o.Customs
	}
	return out
}

// Custom is a host-registered constraint. Apply receives the point after
// ortho/polar and any higher-priority customs ran. A nil Validate accepts
// every point. A custom that returns the point unchanged is not recorded as
// applied.
type Custom struct {
	Name     string
	Priority int
	Validate func(p geom.Point, ctx *Context) bool
	Apply    func(p geom.Point, ctx *Context) geom.Point
}
