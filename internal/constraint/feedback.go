/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package constraint

import (
	"fmt"

	"draftcad/internal/coords"
	"draftcad/internal/geom"
)

// GlyphType names a feedback primitive the rendering layer knows how to draw.
type GlyphType string

const (
	GlyphLine   GlyphType = "line"
	GlyphArc    GlyphType = "arc"
	GlyphMarker GlyphType = "marker"
	GlyphLabel  GlyphType = "label"
)

// Glyph is a drawable feedback primitive in scene coordinates. The rendering
// layer owns device-pixel mapping; the engine only describes what to draw.
// Which fields are meaningful depends on Type: lines use From/To, arcs use
// Center/Radius/StartDeg/EndDeg, markers and labels use At (labels also
// Text).
type Glyph struct {
	Type     GlyphType  `json:"type"`
	From     geom.Point `json:"from,omitempty"`
	To       geom.Point `json:"to,omitempty"`
	Center   geom.Point `json:"center,omitempty"`
	Radius   float64    `json:"radius,omitempty"`
	StartDeg float64    `json:"startDeg,omitempty"`
	EndDeg   float64    `json:"endDeg,omitempty"`
	At       geom.Point `json:"at,omitempty"`
	Text     string     `json:"text,omitempty"`
	Color    string     `json:"color,omitempty"`
	Width    float64    `json:"width,omitempty"`
	Style    string     `json:"style,omitempty"`
}

// Guide styling shared by both constraint families. The ray length is used
// when infinite rays are off; rendering clips infinite rays itself.
const (
	orthoGuideColor = "#4a90d9"
	polarGuideColor = "#2fa86b"
	markerColor     = "#d97f4a"
	guideStyle      = "dashed"
	guideWidth      = 1.0
	guideRayLength  = 1e4
)

// axisGuide builds the dashed guide line through ref along the snapped
// angle, extended symmetrically so the user sees the full lock axis.
func axisGuide(ref geom.Point, angleDeg float64, color string, infinite bool) Glyph {
	length := guideRayLength
	if !infinite {
		length = 50
	}
	fwd := coords.PolarToCartesian(coords.Polar{Distance: length, Angle: angleDeg}, ref, 0)
	back := coords.PolarToCartesian(coords.Polar{Distance: length, Angle: angleDeg + 180}, ref, 0)
	return Glyph{
		Type:  GlyphLine,
		From:  back,
		To:    fwd,
		Color: color,
		Width: guideWidth,
		Style: guideStyle,
	}
}

// snapMarker highlights the constrained point.
func snapMarker(at geom.Point) Glyph {
	return Glyph{Type: GlyphMarker, At: at, Color: markerColor, Width: 2}
}

// measurementLabel annotates the constrained point with distance and angle.
func measurementLabel(at geom.Point, distance, angleDeg float64) Glyph {
	return Glyph{
		Type:  GlyphLabel,
		At:    at,
		Text:  fmt.Sprintf("%.2f < %.1f°", distance, angleDeg),
		Color: markerColor,
	}
}

// polarTickArc draws a short arc at the base point indicating the snapped
// polar sector.
func polarTickArc(base geom.Point, radius, angleDeg float64) Glyph {
	return Glyph{
		Type:     GlyphArc,
		Center:   base,
		Radius:   radius,
		StartDeg: angleDeg - 5,
		EndDeg:   angleDeg + 5,
		Color:    polarGuideColor,
		Width:    guideWidth,
		Style:    guideStyle,
	}
}
