/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package join

import (
	"strings"
	"testing"

	"draftcad/internal/domain"
	"draftcad/internal/geom"
)

func lineEntity(id string, x1, y1, x2, y2 float64) domain.Entity {
	return domain.Entity{
		ID:      id,
		Layer:   "default",
		Visible: true,
		Color:   "#000000",
		Shape:   domain.Line{Start: geom.Point{X: x1, Y: y1}, End: geom.Point{X: x2, Y: y2}},
	}
}

func arcEntity(id string, cx, cy, r, start, end float64) domain.Entity {
	return domain.Entity{
		ID:      id,
		Visible: true,
		Shape:   domain.Arc{Center: geom.Point{X: cx, Y: cy}, Radius: r, StartAngle: start, EndAngle: end},
	}
}

func sceneWith(entities ...domain.Entity) domain.Scene {
	return domain.Scene{Name: "test", Entities: entities}
}

func TestJoinCollinearLinesToLine(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		lineEntity("a", 0, 0, 1, 0),
		lineEntity("b", 1, 0, 2, 0),
		lineEntity("c", 2, 0, 3, 0),
	)
	res := s.Join(scene, []string{"a", "b", "c"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	joined, ok := res.Scene.FindEntity(res.NewEntityID)
	if !ok {
		t.Fatalf("joined entity missing from result scene")
	}
	line, ok := joined.Shape.(domain.Line)
	if !ok {
		t.Fatalf("expected a line, got %T", joined.Shape)
	}
	endpoints := [2]geom.Point{line.Start, line.End}
	wantA, wantB := geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 0}
	ok = (endpoints[0].SamePoint(wantA) && endpoints[1].SamePoint(wantB)) ||
		(endpoints[0].SamePoint(wantB) && endpoints[1].SamePoint(wantA))
	if !ok {
		t.Fatalf("line should span (0,0)..(3,0), got %+v", line)
	}
	if len(res.Scene.Entities) != 1 {
		t.Fatalf("inputs should be removed, scene has %d entities", len(res.Scene.Entities))
	}
	if len(res.Scene.Selection) != 1 || res.Scene.Selection[0] != res.NewEntityID {
		t.Fatalf("joined entity should be selected, got %+v", res.Scene.Selection)
	}
}

func TestJoinNonCollinearLinesToPolyline(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		lineEntity("a", 0, 0, 1, 0),
		lineEntity("b", 1, 0, 1, 1),
	)
	res := s.Join(scene, []string{"a", "b"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	joined, _ := res.Scene.FindEntity(res.NewEntityID)
	p, ok := joined.Shape.(domain.Polyline)
	if !ok {
		t.Fatalf("expected a polyline, got %T", joined.Shape)
	}
	if p.Close {
		t.Fatalf("open corner should not produce a closed polyline")
	}
}

func TestJoinHalfCirclesToCircle(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		arcEntity("a", 0, 0, 5, 0, 180),
		arcEntity("b", 0, 0, 5, 180, 360),
	)
	res := s.Join(scene, []string{"a", "b"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	joined, _ := res.Scene.FindEntity(res.NewEntityID)
	c, ok := joined.Shape.(domain.Circle)
	if !ok {
		t.Fatalf("expected a circle, got %T", joined.Shape)
	}
	if !c.Center.SamePoint(geom.Point{}) || c.Radius != 5 {
		t.Fatalf("unexpected circle: %+v", c)
	}
}

func TestJoinPartialArcsToArc(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		arcEntity("a", 0, 0, 5, 0, 90),
		arcEntity("b", 0, 0, 5, 90, 180),
	)
	res := s.Join(scene, []string{"a", "b"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	joined, _ := res.Scene.FindEntity(res.NewEntityID)
	a, ok := joined.Shape.(domain.Arc)
	if !ok {
		t.Fatalf("expected an arc, got %T", joined.Shape)
	}
	if a.Radius != 5 || !a.Center.SamePoint(geom.Point{}) {
		t.Fatalf("unexpected arc: %+v", a)
	}
	span := a.Geom().SpanDeg()
	if span < 179 || span > 181 {
		t.Fatalf("fused arc should span about 180°, got %v", span)
	}
}

func TestJoinLineAndArcToOpenPolyline(t *testing.T) {
	s := NewService()
	// Arc from (5,0) to (0,5) around the origin; line touches its start.
	scene := sceneWith(
		lineEntity("l", -5, 0, 5, 0),
		arcEntity("a", 0, 0, 5, 0, 90),
	)
	res := s.Join(scene, []string{"l", "a"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	joined, _ := res.Scene.FindEntity(res.NewEntityID)
	p, ok := joined.Shape.(domain.Polyline)
	if !ok {
		t.Fatalf("expected a polyline, got %T", joined.Shape)
	}
	if p.Close {
		t.Fatalf("line+arc with distinct free ends must stay open")
	}
}

func TestJoinRejectsCircle(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		lineEntity("l", 0, 0, 1, 0),
		domain.Entity{ID: "c", Visible: true, Shape: domain.Circle{Center: geom.Point{}, Radius: 2}},
	)
	res := s.Join(scene, []string{"l", "c"})
	if res.Success {
		t.Fatalf("join with a circle must fail")
	}
	if res.Message != msgClosed {
		t.Fatalf("message = %q, want %q", res.Message, msgClosed)
	}
}

func TestJoinRejectsText(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		lineEntity("l", 0, 0, 1, 0),
		domain.Entity{ID: "t", Visible: true, Shape: domain.NonGeometric{K: domain.KindText, Text: "note"}},
	)
	res := s.Join(scene, []string{"l", "t"})
	if res.Success {
		t.Fatalf("join with a text entity must fail")
	}
	if !strings.Contains(res.Message, "text") {
		t.Fatalf("message should name the offending kind, got %q", res.Message)
	}
	if res.Message == msgClosed {
		t.Fatalf("text rejection must be distinguishable from the closed-entity rejection")
	}
}

func TestJoinRejectsMeasurement(t *testing.T) {
	s := NewService()
	m := lineEntity("m", 0, 0, 1, 0)
	m.Measurement = true
	scene := sceneWith(lineEntity("l", 1, 0, 2, 0), m)
	res := s.Join(scene, []string{"l", "m"})
	if res.Success || res.Message != msgMeasurement {
		t.Fatalf("expected measurement rejection, got %+v", res)
	}
}

func TestJoinNeedsTwoEntities(t *testing.T) {
	s := NewService()
	scene := sceneWith(lineEntity("l", 0, 0, 1, 0))
	res := s.Join(scene, []string{"l"})
	if res.Success || res.Message != msgTooFew {
		t.Fatalf("expected too-few rejection, got %+v", res)
	}
	// Unknown ids resolve to nothing and count as too few as well.
	res = s.Join(scene, []string{"l", "ghost"})
	if res.Success || res.Message != msgTooFew {
		t.Fatalf("expected too-few rejection for unresolved id, got %+v", res)
	}
}

func TestJoinDisconnectedFails(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		lineEntity("a", 0, 0, 1, 0),
		lineEntity("b", 10, 10, 11, 10),
	)
	res := s.Join(scene, []string{"a", "b"})
	if res.Success || res.Message != msgNotConnected {
		t.Fatalf("expected not-connected failure, got %+v", res)
	}
}

func TestJoinSurfacesSkippedMalformed(t *testing.T) {
	s := NewService()
	// Zero-radius arc produces no segments and is reported as skipped.
	scene := sceneWith(
		lineEntity("a", 0, 0, 1, 0),
		lineEntity("b", 1, 0, 2, 0),
		arcEntity("bad", 0, 0, 0, 0, 90),
	)
	res := s.Join(scene, []string{"a", "b", "bad"})
	if !res.Success {
		t.Fatalf("join should survive a malformed entity: %s", res.Message)
	}
	if res.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", res.Skipped)
	}
}

func TestJoinInheritsPresentationFromFirst(t *testing.T) {
	s := NewService()
	a := lineEntity("a", 0, 0, 1, 0)
	a.Layer = "walls"
	a.Color = "#ff0000"
	a.LineWeight = 0.35
	a.LineStyle = "dashed"
	scene := sceneWith(a, lineEntity("b", 1, 0, 1, 1))
	res := s.Join(scene, []string{"a", "b"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	joined, _ := res.Scene.FindEntity(res.NewEntityID)
	if joined.Layer != "walls" || joined.Color != "#ff0000" || joined.LineWeight != 0.35 || joined.LineStyle != "dashed" {
		t.Fatalf("presentation attrs not inherited: %+v", joined)
	}
	if joined.ID == "a" || joined.ID == "b" || joined.ID == "" {
		t.Fatalf("joined entity needs a fresh id, got %q", joined.ID)
	}
}

func TestPreviewDoesNotMutate(t *testing.T) {
	s := NewService()
	scene := sceneWith(
		lineEntity("a", 0, 0, 1, 0),
		lineEntity("b", 1, 0, 2, 0),
	)
	pv := s.Preview(scene, []string{"a", "b"})
	if !pv.OK || pv.Kind != domain.KindLine {
		t.Fatalf("unexpected preview: %+v", pv)
	}
	if len(scene.Entities) != 2 {
		t.Fatalf("preview must not touch the scene")
	}
	pv = s.Preview(scene, []string{"a"})
	if pv.OK || pv.Reason != msgTooFew {
		t.Fatalf("single-entity preview should fail with too-few, got %+v", pv)
	}
}

func TestJoinEmitsSelectionEvent(t *testing.T) {
	var got []string
	s := NewService(WithSelectionListener(func(ids []string) { got = ids }))
	scene := sceneWith(
		lineEntity("a", 0, 0, 1, 0),
		lineEntity("b", 1, 0, 2, 0),
	)
	res := s.Join(scene, []string{"a", "b"})
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	if len(got) != 1 || got[0] != res.NewEntityID {
		t.Fatalf("selection event = %+v, want [%s]", got, res.NewEntityID)
	}
}
