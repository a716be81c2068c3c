/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"

	"draftcad/internal/geom"

	"github.com/google/go-cmp/cmp"
)

func TestEntityJSONRoundTrip(t *testing.T) {
	in := Entity{
		ID:      NewID(),
		Name:    "Wall segment",
		Layer:   "walls",
		Visible: true,
		Color:   "#336699",
		Shape:   Line{Start: geom.Point{X: 1, Y: 2}, End: geom.Point{X: 3, Y: 4}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Entity
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityJSONUnknownKindKeepsEnvelope(t *testing.T) {
	raw := []byte(`{"id":"e1","layer":"notes","visible":true,"kind":"mtext","shape":{"text":"hello","at":{"x":5,"y":6}}}`)
	var e Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ng, ok := e.Shape.(NonGeometric)
	if !ok {
		t.Fatalf("expected NonGeometric shape, got %T", e.Shape)
	}
	if ng.K != KindMText || ng.Text != "hello" {
		t.Fatalf("unexpected shape: %+v", ng)
	}
}

func TestLWPolylineKindPreserved(t *testing.T) {
	e := Entity{ID: "p1", Visible: true, Shape: Polyline{
		Vertices:    geom.Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}},
		Lightweight: true,
	}}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Entity
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Kind() != KindLWPolyline {
		t.Fatalf("kind = %s, want lwpolyline", out.Kind())
	}
}

func TestClosedVariants(t *testing.T) {
	closed := []Shape{
		Circle{Center: geom.Point{}, Radius: 1},
		Ellipse{RadiusX: 2, RadiusY: 1},
		Rectangle{Width: 2, Height: 1},
		Polyline{Vertices: geom.Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, Close: true},
	}
	for _, s := range closed {
		if !s.Closed() {
			t.Fatalf("%s should be closed", s.Kind())
		}
	}
	open := []Shape{
		Line{},
		Arc{Radius: 1, EndAngle: 90},
		Polyline{Vertices: geom.Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}}},
	}
	for _, s := range open {
		if s.Closed() {
			t.Fatalf("%s should be open", s.Kind())
		}
	}
}

func TestSceneCloneIsolation(t *testing.T) {
	s := Scene{
		Name: "test",
		Entities: []Entity{{
			ID:      "p1",
			Visible: true,
			Shape:   Polyline{Vertices: geom.Polyline{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		}},
		Selection: []string{"p1"},
	}
	c := s.Clone()
	pv := c.Entities[0].Shape.(Polyline)
	pv.Vertices[0].X = 99
	if s.Entities[0].Shape.(Polyline).Vertices[0].X == 99 {
		t.Fatalf("clone must not share polyline vertex storage")
	}
}

func TestSceneRemoveAndAppend(t *testing.T) {
	s := Scene{Entities: []Entity{
		{ID: "a", Visible: true, Shape: Line{}},
		{ID: "b", Visible: true, Shape: Line{}},
	}}
	out := s.RemoveEntities([]string{"a"}).AppendEntity(Entity{ID: "c", Visible: true, Shape: Line{}})
	if len(out.Entities) != 2 || out.Entities[0].ID != "b" || out.Entities[1].ID != "c" {
		t.Fatalf("unexpected entities after remove/append: %+v", out.Entities)
	}
	if len(s.Entities) != 2 || s.Entities[0].ID != "a" {
		t.Fatalf("original scene mutated")
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" || seen[id] {
			t.Fatalf("duplicate or empty id %q", id)
		}
		seen[id] = true
	}
}
