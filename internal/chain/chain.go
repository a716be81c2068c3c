/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package chain assembles unordered 2D segments into one continuous path.
//
// Drawing files routinely contain endpoints that are meant to touch but do
// not, so the engine degrades gracefully: exact endpoint matches first, then
// gap-tolerant matches, and finally a forced nearest-endpoint connection
// under an escalating distance ceiling. Only when the forced pass cannot
// attach the remaining segments does the whole operation fail.
package chain

import (
	"math"

	"draftcad/internal/geom"
)

// forceCeilings are the escalating distance ceilings tried by the forced
// connection pass, in drawing units.
var forceCeilings = []float64{0.2, 0.5, 1.0, 2.0}

// Build connects the given segments into a single ordered point path.
// It returns nil when the segments cannot be assembled even with forced
// connection, or when fewer than two points result. A nil result is the
// recoverable "cannot join" condition, not an error.
//
// Cost is O(n²) per pass in the number of unused segments; callers are
// expected to offer tens of segments, not thousands.
func Build(segs []geom.Segment) geom.Polyline {
	if len(segs) == 0 {
		return nil
	}

	b := &builder{
		points: geom.Polyline{segs[0].Start, segs[0].End},
		used:   make([]bool, len(segs)),
		left:   len(segs) - 1,
		segs:   segs,
	}
	b.used[0] = true

	// Tolerant passes: keep sweeping until a full pass extends nothing.
	for b.left > 0 {
		if !b.pass() {
			break
		}
	}

	// Whatever is still unused gets force-connected or the build fails.
	for b.left > 0 {
		if !b.forceAttach() {
			return nil
		}
	}

	if len(b.points) < 2 {
		return nil
	}
	return b.points
}

type builder struct {
	points geom.Polyline
	used   []bool
	left   int
	segs   []geom.Segment
}

func (b *builder) head() geom.Point { return b.points[0] }
func (b *builder) tail() geom.Point { return b.points[len(b.points)-1] }

func (b *builder) pushBack(ps ...geom.Point)  { b.points = append(b.points, ps...) }
func (b *builder) pushFront(ps ...geom.Point) {
	// ps arrives ordered outward from the chain head; prepend preserving
	// path order.
	b.points = append(append(geom.Polyline{}, ps...), b.points...)
}

func (b *builder) consume(i int) {
	b.used[i] = true
	b.left--
}

// pass sweeps all unused segments once, extending the tail and head by exact
// matches first and gap-tolerant matches second. Reports whether anything
// was attached.
func (b *builder) pass() bool {
	extended := false
	for i, s := range b.segs {
		if b.used[i] {
			continue
		}
		if b.tryExact(i, s) || b.tryGap(i, s) {
			extended = true
		}
	}
	return extended
}

func (b *builder) tryExact(i int, s geom.Segment) bool {
	switch {
	case s.Start.SamePoint(b.tail()):
		b.pushBack(s.End)
	case s.End.SamePoint(b.tail()):
		b.pushBack(s.Start)
	case s.Start.SamePoint(b.head()):
		b.pushFront(s.End)
	case s.End.SamePoint(b.head()):
		b.pushFront(s.Start)
	default:
		return false
	}
	b.consume(i)
	return true
}

// tryGap attaches a segment whose endpoint lies within the gap tolerance of
// a chain end. Both segment endpoints are appended so the small jump becomes
// an explicit part of the path.
func (b *builder) tryGap(i int, s geom.Segment) bool {
	switch {
	case s.Start.NearPoint(b.tail()):
		b.pushBack(s.Start, s.End)
	case s.End.NearPoint(b.tail()):
		b.pushBack(s.End, s.Start)
	case s.Start.NearPoint(b.head()):
		b.pushFront(s.End, s.Start)
	case s.End.NearPoint(b.head()):
		b.pushFront(s.Start, s.End)
	default:
		return false
	}
	b.consume(i)
	return true
}

// forceAttach finds the single globally closest pairing between an unused
// segment endpoint and either chain end, and attaches it if the pair
// distance fits under one of the escalating ceilings. Reports failure when
// even the largest ceiling finds no pair.
func (b *builder) forceAttach() bool {
	type candidate struct {
		seg     int
		dist    float64
		atTail  bool
		reverse bool // matched endpoint is the segment's End
	}
	best := candidate{seg: -1, dist: math.Inf(1)}

	for i, s := range b.segs {
		if b.used[i] {
			continue
		}
		for _, c := range []candidate{
			{seg: i, dist: s.Start.Distance(b.tail()), atTail: true},
			{seg: i, dist: s.End.Distance(b.tail()), atTail: true, reverse: true},
			{seg: i, dist: s.Start.Distance(b.head())},
			{seg: i, dist: s.End.Distance(b.head()), reverse: true},
		} {
			if c.dist < best.dist {
				best = c
			}
		}
	}
	if best.seg < 0 {
		return false
	}

	within := false
	for _, ceiling := range forceCeilings {
		if best.dist <= ceiling {
			within = true
			break
		}
	}
	if !within {
		return false
	}

	s := b.segs[best.seg]
	near, far := s.Start, s.End
	if best.reverse {
		near, far = s.End, s.Start
	}
	if best.atTail {
		b.pushBack(near, far)
	} else {
		b.pushFront(far, near)
	}
	b.consume(best.seg)
	return true
}
