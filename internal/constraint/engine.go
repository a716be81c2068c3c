/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package constraint

import (
	"log/slog"
	"math"
	"sort"

	"draftcad/internal/coords"
	"draftcad/internal/geom"
	applog "draftcad/internal/log"
)

// State is the engine's interaction state.
type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// Result is what one constraint application produces: the constrained point,
// which constraints actually moved it, the feedback glyphs to render, and
// measurement metadata relative to the reference point. Accuracy is 100 when
// the raw point needed no correction and approaches 0 as the correction
// grows relative to the reference distance.
type Result struct {
	Point     geom.Point `json:"point"`
	Applied   []string   `json:"applied,omitempty"`
	Feedback  []Glyph    `json:"feedback,omitempty"`
	Angle     float64    `json:"angle"`
	Distance  float64    `json:"distance"`
	Direction string     `json:"direction"`
	Accuracy  float64    `json:"accuracy"`
}

// Engine applies ortho, polar and custom constraints to raw cursor points.
// One engine serves one interactive session; it is single-threaded by
// contract (spec'd for exactly one drawing operation at a time).
type Engine struct {
	ortho   OrthoSettings
	polar   PolarSettings
	customs []Custom
	ctx     *Context
	log     *slog.Logger
}

// NewEngine validates the settings and returns an idle engine.
func NewEngine(ortho OrthoSettings, polar PolarSettings) (*Engine, error) {
	if err := ortho.Validate(); err != nil {
		return nil, err
	}
	if err := polar.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		ortho: ortho,
		polar: polar,
		log:   applog.WithComponent("constraint"),
	}, nil
}

// Ortho returns the current ortho settings.
func (e *Engine) Ortho() OrthoSettings { return e.ortho }

// Polar returns the current polar settings.
func (e *Engine) Polar() PolarSettings { return e.polar }

// SetOrtho replaces the ortho settings after validation.
func (e *Engine) SetOrtho(s OrthoSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.ortho = s
	return nil
}

// SetPolar replaces the polar settings after validation.
func (e *Engine) SetPolar(s PolarSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.polar = s
	return nil
}

// Per-family toggles. Key bindings live with the host; the engine only
// exposes the switch.
func (e *Engine) EnableOrtho()       { e.ortho.Enabled = true }
func (e *Engine) DisableOrtho()      { e.ortho.Enabled = false }
func (e *Engine) ToggleOrtho()       { e.ortho.Enabled = !e.ortho.Enabled }
func (e *Engine) OrthoEnabled() bool { return e.ortho.Enabled }
func (e *Engine) EnablePolar()       { e.polar.Enabled = true }
func (e *Engine) DisablePolar()      { e.polar.Enabled = false }
func (e *Engine) TogglePolar()       { e.polar.Enabled = !e.polar.Enabled }
func (e *Engine) PolarEnabled() bool { return e.polar.Enabled }

// RegisterCustom adds a custom constraint for the lifetime of the engine.
func (e *Engine) RegisterCustom(c Custom) {
	e.customs = append(e.customs, c)
}

// State reports whether an interactive operation is in progress.
func (e *Engine) State() State {
	if e.ctx == nil {
		return StateIdle
	}
	return StateTracking
}

// Begin starts an interactive operation anchored at ref and returns the live
// context. Any previous operation is discarded.
func (e *Engine) Begin(ref geom.Point) *Context {
	r := ref
	e.ctx = &Context{Reference: &r, Prior: []geom.Point{ref}, Cursor: ref}
	e.log.Debug("tracking started", slog.Float64("x", ref.X), slog.Float64("y", ref.Y))
	return e.ctx
}

// Commit records a clicked point: it becomes the new reference and joins the
// prior points. No-op while idle.
func (e *Engine) Commit(p geom.Point) {
	if e.ctx == nil {
		return
	}
	q := p
	e.ctx.Reference = &q
	e.ctx.Prior = append(e.ctx.Prior, p)
}

// Move updates the cursor and applies the active constraints. While idle it
// returns the raw point untouched.
func (e *Engine) Move(cursor geom.Point) Result {
	if e.ctx == nil {
		return Result{Point: cursor, Accuracy: 100}
	}
	e.ctx.Cursor = cursor
	return e.Apply(cursor, nil)
}

// End finishes the operation normally.
func (e *Engine) End() { e.ctx = nil }

// Cancel aborts the operation; identical cleanup, kept separate for intent.
func (e *Engine) Cancel() { e.ctx = nil }

// Apply constrains raw: ortho first (the coarser, more frequently desired
// lock), then polar on the possibly ortho-adjusted point, then the custom
// constraints in descending priority. Overrides are merged into the live
// context for this call only.
func (e *Engine) Apply(raw geom.Point, overrides *Context) Result {
	var ctx Context
	if e.ctx != nil {
		ctx = *e.ctx
	}
	ctx = ctx.merged(overrides)

	p := raw
	var applied []string
	var feedback []Glyph

	if e.orthoActive(ctx) && ctx.Reference != nil {
		if snapped, angle, ok := e.orthoSnap(p, *ctx.Reference, ctx); ok {
			feedback = append(feedback, axisGuide(*ctx.Reference, angle, orthoGuideColor, false))
			if snapped.Distance(p) > geom.Epsilon {
				applied = append(applied, "ortho")
			}
			p = snapped
		}
	}

	if e.polar.Enabled && e.polar.Tracking {
		if snapped, pc, base, baseAngle, ok := e.polarSnap(p, ctx); ok {
			feedback = append(feedback,
				axisGuide(base, pc.Angle+baseAngle, polarGuideColor, e.polar.InfiniteRays),
				polarTickArc(base, pc.Distance, pc.Angle+baseAngle))
			if snapped.Distance(p) > geom.Epsilon {
				applied = append(applied, "polar")
			}
			p = snapped
		}
	}

	for _, c := range orderedCustoms(e.customs, ctx.Customs) {
		if c.Apply == nil {
			continue
		}
		if c.Validate != nil && !c.Validate(p, &ctx) {
			continue
		}
		np := c.Apply(p, &ctx)
		if np.Distance(p) > geom.Epsilon {
			applied = append(applied, c.Name)
			p = np
		}
	}

	res := e.finish(raw, p, ctx, applied, feedback)
	return res
}

// orthoActive folds the momentary override modifier into the enabled flag:
// holding the modifier inverts the current state.
func (e *Engine) orthoActive(ctx Context) bool {
	enabled := e.ortho.Enabled
	if e.ortho.OverrideModifier != "" && ctx.HasModifier(e.ortho.OverrideModifier) {
		enabled = !enabled
	}
	return enabled
}

// orthoSnap checks the cardinal axes, the diagonals, an inherited previous
// direction, and finally the generic angle step, in that order, and returns
// the point recomputed at the original distance on the first within-
// tolerance angle. Ortho never alters the distance.
func (e *Engine) orthoSnap(p, ref geom.Point, ctx Context) (geom.Point, float64, bool) {
	s := e.ortho
	pc := coords.CartesianToPolar(p, ref, 0)
	if pc.Distance <= geom.Epsilon {
		return p, 0, false
	}

	var candidates []float64
	if s.SnapToCardinal {
		if s.Horizontal {
			candidates = append(candidates, 0, 180)
		}
		if s.Vertical {
			candidates = append(candidates, 90, 270)
		}
	}
	if s.Diagonal || s.SnapToDiagonal {
		candidates = append(candidates, 45, 135, 225, 315)
	}
	if s.InheritDirection {
		if dir, ok := ctx.lastDirection(); ok {
			candidates = append(candidates, dir)
		}
	}
	for _, cand := range candidates {
		if angularDiff(pc.Angle, cand) <= s.Tolerance {
			return coords.PolarToCartesian(coords.Polar{Distance: pc.Distance, Angle: cand}, ref, 0), cand, true
		}
	}

	if a, ok := coords.SnapAngleToStep(pc.Angle, s.AngleStep, s.Tolerance); ok {
		return coords.PolarToCartesian(coords.Polar{Distance: pc.Distance, Angle: a}, ref, 0), a, true
	}
	return p, 0, false
}

// polarSnap converts p to polar coordinates around the effective base,
// snaps angle (when the angle lock is on) and distance (only when the
// distance lock is on), and converts back. ok reports whether any snap hit.
func (e *Engine) polarSnap(p geom.Point, ctx Context) (geom.Point, coords.Polar, geom.Point, float64, bool) {
	s := e.polar
	base, baseAngle := e.polarBase(ctx)
	pc := coords.CartesianToPolar(p, base, baseAngle)
	if pc.Distance <= geom.Epsilon {
		return p, pc, base, baseAngle, false
	}

	hit := false
	if s.LockAngle {
		if a, ok := coords.SnapAngleToStep(pc.Angle, s.AngleStep, s.AngleTolerance); ok {
			pc.Angle = a
			hit = true
		}
	}
	if s.LockDistance {
		if d, ok := coords.SnapDistanceToStep(pc.Distance, s.DistanceStep, s.DistanceTolerance); ok {
			pc.Distance = d
			hit = true
		}
	}
	if !hit {
		return p, pc, base, baseAngle, false
	}
	return coords.PolarToCartesian(pc, base, baseAngle), pc, base, baseAngle, true
}

// polarBase resolves the effective base point and angle for the configured
// polar mode. Relative and incremental modes track from the current
// reference point; incremental mode can additionally derive the base angle
// from the previous segment.
func (e *Engine) polarBase(ctx Context) (geom.Point, float64) {
	s := e.polar
	base := s.BasePoint
	angle := s.BaseAngle
	switch s.Mode {
	case PolarRelative, PolarIncremental:
		if ctx.Reference != nil {
			base = *ctx.Reference
		}
		if s.Mode == PolarIncremental && s.DynamicAngle {
			if dir, ok := ctx.lastDirection(); ok {
				angle = dir
			}
		}
	}
	if ctx.BaseAngle != 0 {
		angle = ctx.BaseAngle
	}
	return base, angle
}

// finish computes the result metadata relative to the original reference
// point (falling back to the polar base when the operation has none).
func (e *Engine) finish(raw, p geom.Point, ctx Context, applied []string, feedback []Glyph) Result {
	anchor := e.polar.BasePoint
	if ctx.Reference != nil {
		anchor = *ctx.Reference
	}
	pc := coords.CartesianToPolar(p, anchor, 0)
	if len(applied) > 0 {
		feedback = append(feedback, snapMarker(p), measurementLabel(p, pc.Distance, pc.Angle))
	}
	return Result{
		Point:     p,
		Applied:   applied,
		Feedback:  feedback,
		Angle:     pc.Angle,
		Distance:  pc.Distance,
		Direction: coords.CompassDirection(pc.Angle),
		Accuracy:  accuracy(raw, p, anchor),
	}
}

// accuracy maps the correction displacement into [0,100]: 100 for an
// untouched point, shrinking linearly with the displacement relative to the
// anchor distance.
func accuracy(raw, constrained, anchor geom.Point) float64 {
	moved := raw.Distance(constrained)
	if moved <= geom.Epsilon {
		return 100
	}
	span := anchor.Distance(raw)
	if span <= geom.Epsilon {
		return 0
	}
	frac := moved / span
	if frac > 1 {
		frac = 1
	}
	return math.Round((1-frac)*1000) / 10
}

// angleBetween returns the direction of the vector from a to b in degrees,
// normalized to [0, 360).
func angleBetween(a, b geom.Point) float64 {
	d := b.Minus(a)
	return coords.NormalizeAngle(math.Atan2(d.Y, d.X) * 180 / math.Pi)
}

// angularDiff returns the smallest angular distance between two degree
// values, accounting for wraparound.
func angularDiff(a, b float64) float64 {
	d := math.Abs(coords.NormalizeAngle(a) - coords.NormalizeAngle(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// orderedCustoms merges engine-level and context-level customs, highest
// priority first. Stable so equal priorities keep registration order.
func orderedCustoms(engineCustoms, ctxCustoms []Custom) []Custom {
	out := make([]Custom, 0, len(engineCustoms)+len(ctxCustoms))
	out = append(out, engineCustoms...)
	out = append(out, ctxCustoms...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
