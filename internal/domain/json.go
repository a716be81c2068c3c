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
	"fmt"
)

// Entities serialize as the common attributes plus a kind tag and a nested
// shape object, so scene manifests stay human-readable and diff-friendly:
//
//	{"id": "...", "layer": "walls", "kind": "arc", "shape": {"center": ...}}

type entityJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Layer       string          `json:"layer,omitempty"`
	Visible     bool            `json:"visible"`
	Color       string          `json:"color,omitempty"`
	LineWeight  float64         `json:"lineWeight,omitempty"`
	Opacity     float64         `json:"opacity,omitempty"`
	LineStyle   string          `json:"lineStyle,omitempty"`
	Measurement bool            `json:"measurement,omitempty"`
	Kind        Kind            `json:"kind,omitempty"`
	Shape       json.RawMessage `json:"shape,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Entity) MarshalJSON() ([]byte, error) {
	ej := entityJSON{
		ID:          e.ID,
		Name:        e.Name,
		Layer:       e.Layer,
		Visible:     e.Visible,
		Color:       e.Color,
		LineWeight:  e.LineWeight,
		Opacity:     e.Opacity,
		LineStyle:   e.LineStyle,
		Measurement: e.Measurement,
		Kind:        e.Kind(),
	}
	if e.Shape != nil {
		raw, err := json.Marshal(e.Shape)
		if err != nil {
			return nil, fmt.Errorf("marshal shape %s: %w", e.Kind(), err)
		}
		ej.Shape = raw
	}
	return json.Marshal(ej)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown annotation kinds decode
// into NonGeometric so foreign drawing data round-trips without loss of the
// envelope; a geometric kind with an undecodable shape is an error.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var ej entityJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}
	e.ID = ej.ID
	e.Name = ej.Name
	e.Layer = ej.Layer
	e.Visible = ej.Visible
	e.Color = ej.Color
	e.LineWeight = ej.LineWeight
	e.Opacity = ej.Opacity
	e.LineStyle = ej.LineStyle
	e.Measurement = ej.Measurement
	if ej.Kind == "" {
		e.Shape = nil
		return nil
	}
	shape, err := decodeShape(ej.Kind, ej.Shape)
	if err != nil {
		return err
	}
	e.Shape = shape
	return nil
}

func decodeShape(kind Kind, raw json.RawMessage) (Shape, error) {
	if raw == nil {
		raw = json.RawMessage("{}")
	}
	unmarshal := func(dst any) error {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decode %s shape: %w", kind, err)
		}
		return nil
	}
	switch kind {
	case KindLine:
		var s Line
		return s, unmarshal(&s)
	case KindArc:
		var s Arc
		return s, unmarshal(&s)
	case KindCircle:
		var s Circle
		return s, unmarshal(&s)
	case KindEllipse:
		var s Ellipse
		return s, unmarshal(&s)
	case KindRectangle:
		var s Rectangle
		return s, unmarshal(&s)
	case KindPolyline, KindLWPolyline:
		var s Polyline
		if err := unmarshal(&s); err != nil {
			return nil, err
		}
		s.Lightweight = kind == KindLWPolyline
		return s, nil
	case KindPoint:
		var s Marker
		return s, unmarshal(&s)
	default:
		var s NonGeometric
		if err := unmarshal(&s); err != nil {
			return nil, err
		}
		s.K = kind
		return s, nil
	}
}
