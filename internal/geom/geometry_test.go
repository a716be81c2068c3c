/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"testing"
)

func TestSamePointAndNearPoint(t *testing.T) {
	p := Point{X: 1, Y: 2}
	if !p.SamePoint(Point{X: 1.0005, Y: 2}) {
		t.Fatalf("points within coincident tolerance should match")
	}
	if p.SamePoint(Point{X: 1.01, Y: 2}) {
		t.Fatalf("points beyond coincident tolerance must not match")
	}
	if !p.NearPoint(Point{X: 1.4, Y: 2}) {
		t.Fatalf("points within gap tolerance should be near")
	}
	if p.NearPoint(Point{X: 1.6, Y: 2}) {
		t.Fatalf("points beyond gap tolerance must not be near")
	}
}

func TestDistanceAndVectorOps(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	if d := a.Distance(b); d != 5 {
		t.Fatalf("distance = %v, want 5", d)
	}
	if v := b.Minus(a); v != (Point{X: 3, Y: 4}) {
		t.Fatalf("unexpected minus result: %+v", v)
	}
	if z := (Point{X: 1, Y: 0}).CrossZ(Point{X: 0, Y: 1}); z != 1 {
		t.Fatalf("cross z = %v, want 1", z)
	}
}

func TestCollinear(t *testing.T) {
	if !Collinear(Point{0, 0}, Point{1, 0}, Point{2, 0}) {
		t.Fatalf("points on the x axis are collinear")
	}
	if !Collinear(Point{0, 0}, Point{1, 1.0001}, Point{2, 2}) {
		t.Fatalf("near-collinear points within tolerance should pass")
	}
	if Collinear(Point{0, 0}, Point{1, 1}, Point{2, 0}) {
		t.Fatalf("a proper triangle is not collinear")
	}
}

func TestPolylineClosedAndSegments(t *testing.T) {
	pl := Polyline{{0, 0}, {1, 0}, {1, 1}, {0.0004, 0.0002}}
	if !pl.Closed() {
		t.Fatalf("polyline ending at its start (within tolerance) is closed")
	}
	segs := pl.Segments()
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0] != (Segment{Start: Point{0, 0}, End: Point{1, 0}}) {
		t.Fatalf("unexpected first segment: %+v", segs[0])
	}
}

func TestArcTessellateQuarter(t *testing.T) {
	a := Arc{Center: Point{0, 0}, Radius: 10, StartDeg: 0, EndDeg: 90}
	pl := a.Tessellate(0)
	if len(pl) != DefaultArcSegments+1 {
		t.Fatalf("expected %d points, got %d", DefaultArcSegments+1, len(pl))
	}
	if !pl.First().SamePoint(Point{X: 10, Y: 0}) {
		t.Fatalf("arc should start at (10,0), got %+v", pl.First())
	}
	if !pl.Last().SamePoint(Point{X: 0, Y: 10}) {
		t.Fatalf("arc should end at (0,10), got %+v", pl.Last())
	}
	for _, p := range pl {
		if r := p.Distance(a.Center); math.Abs(r-10) > 1e-9 {
			t.Fatalf("tessellated point %+v off circle, r=%v", p, r)
		}
	}
}

func TestArcTessellateWrapAround(t *testing.T) {
	// End angle numerically below start; the span must wrap CCW.
	a := Arc{Center: Point{0, 0}, Radius: 5, StartDeg: 270, EndDeg: 90}
	pl := a.Tessellate(24)
	if !pl.First().SamePoint(Point{X: 0, Y: -5}) {
		t.Fatalf("arc should start at (0,-5), got %+v", pl.First())
	}
	if !pl.Last().SamePoint(Point{X: 0, Y: 5}) {
		t.Fatalf("arc should end at (0,5), got %+v", pl.Last())
	}
}

func TestArcSpanDeg(t *testing.T) {
	if s := (Arc{StartDeg: 0, EndDeg: 180}).SpanDeg(); s != 180 {
		t.Fatalf("span = %v, want 180", s)
	}
	if s := (Arc{StartDeg: 180, EndDeg: 0}).SpanDeg(); s != 180 {
		t.Fatalf("wrapped span = %v, want 180", s)
	}
	if s := (Arc{StartDeg: 350, EndDeg: 10}).SpanDeg(); s != 20 {
		t.Fatalf("wrapped span = %v, want 20", s)
	}
}

func TestFullCircleTessellation(t *testing.T) {
	a := Arc{Center: Point{2, 3}, Radius: 1, StartDeg: 0, EndDeg: 360}
	pl := a.Tessellate(24)
	if !pl.Closed() {
		t.Fatalf("full-circle tessellation should be closed")
	}
}
