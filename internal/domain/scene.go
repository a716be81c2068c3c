/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Layer groups entities for visibility and styling.
type Layer struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Color   string `json:"color,omitempty"`
	Locked  bool   `json:"locked,omitempty"`
}

// Scene is the drawing document the core operates on. Operations that modify
// a scene work on a clone and return the replacement value; the host
// application owns the authoritative copy and serializes concurrent edits.
type Scene struct {
	Name      string   `json:"name"`
	Entities  []Entity `json:"entities"`
	Layers    []Layer  `json:"layers,omitempty"`
	Selection []string `json:"selection,omitempty"`
}

// FindEntity returns the entity with the given id.
func (s Scene) FindEntity(id string) (Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// Clone returns a deep copy. Shape values are immutable by convention except
// for polyline vertex slices, which are copied.
func (s Scene) Clone() Scene {
	out := s
	out.Entities = make([]Entity, len(s.Entities))
	for i, e := range s.Entities {
		if p, ok := e.Shape.(Polyline); ok {
			cp := p
			cp.Vertices = append(cp.Vertices[:0:0], p.Vertices...)
			e.Shape = cp
		}
		out.Entities[i] = e
	}
	out.Layers = append([]Layer(nil), s.Layers...)
	out.Selection = append([]string(nil), s.Selection...)
	return out
}

// RemoveEntities returns the scene without the listed entity ids.
func (s Scene) RemoveEntities(ids []string) Scene {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := s
	out.Entities = make([]Entity, 0, len(s.Entities))
	for _, e := range s.Entities {
		if !drop[e.ID] {
			out.Entities = append(out.Entities, e)
		}
	}
	return out
}

// AppendEntity returns the scene with the entity appended.
func (s Scene) AppendEntity(e Entity) Scene {
	out := s
	out.Entities = append(append([]Entity(nil), s.Entities...), e)
	return out
}
