/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the entity model of the drawing core: the geometric
// shape variants, the entity envelope with its presentation attributes, and
// the scene that owns both. Shapes form a closed sum type; code that derives
// segments or classifies joins switches over the concrete types so a new
// variant cannot be half-supported silently.
package domain

import (
	"draftcad/internal/geom"

	"github.com/google/uuid"
)

// Kind identifies an entity variant by its drawing-file name.
type Kind string

const (
	KindLine       Kind = "line"
	KindPolyline   Kind = "polyline"
	KindLWPolyline Kind = "lwpolyline"
	KindArc        Kind = "arc"
	KindCircle     Kind = "circle"
	KindEllipse    Kind = "ellipse"
	KindRectangle  Kind = "rectangle"
	KindText       Kind = "text"
	KindMText      Kind = "mtext"
	KindDimension  Kind = "dimension"
	KindLeader     Kind = "leader"
	KindHatch      Kind = "hatch"
	KindBlock      Kind = "block"
	KindPoint      Kind = "point"
	KindXLine      Kind = "xline"
	KindRay        Kind = "ray"
)

// Shape is the closed set of geometric variants an entity can carry.
// Closed() reports whether the shape is a closed loop; closed shapes are
// excluded from joins per drafting convention.
type Shape interface {
	Kind() Kind
	Closed() bool
	sealed()
}

// Line is a straight segment between two points.
type Line struct {
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

func (Line) Kind() Kind   { return KindLine }
func (Line) Closed() bool { return false }
func (Line) sealed()      {}

// Arc is a circular arc; angles are degrees, counter-clockwise.
type Arc struct {
	Center     geom.Point `json:"center"`
	Radius     float64    `json:"radius"`
	StartAngle float64    `json:"startAngle"`
	EndAngle   float64    `json:"endAngle"`
}

func (Arc) Kind() Kind   { return KindArc }
func (Arc) Closed() bool { return false }
func (Arc) sealed()      {}

// Geom converts the entity arc into the geometry kernel's arc value.
func (a Arc) Geom() geom.Arc {
	return geom.Arc{Center: a.Center, Radius: a.Radius, StartDeg: a.StartAngle, EndDeg: a.EndAngle}
}

// Circle is a full circle.
type Circle struct {
	Center geom.Point `json:"center"`
	Radius float64    `json:"radius"`
}

func (Circle) Kind() Kind   { return KindCircle }
func (Circle) Closed() bool { return true }
func (Circle) sealed()      {}

// Ellipse is an axis-aligned ellipse optionally rotated around its center.
type Ellipse struct {
	Center   geom.Point `json:"center"`
	RadiusX  float64    `json:"radiusX"`
	RadiusY  float64    `json:"radiusY"`
	Rotation float64    `json:"rotation,omitempty"`
}

func (Ellipse) Kind() Kind   { return KindEllipse }
func (Ellipse) Closed() bool { return true }
func (Ellipse) sealed()      {}

// Rectangle is a rectangle defined by its origin corner, optionally rotated
// around it. Rectangles drawn by the tool are closed loops.
type Rectangle struct {
	Origin   geom.Point `json:"origin"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Rotation float64    `json:"rotation,omitempty"`
}

func (Rectangle) Kind() Kind   { return KindRectangle }
func (Rectangle) Closed() bool { return true }
func (Rectangle) sealed()      {}

// Polyline is an ordered vertex sequence, open or closed. LWPolyline from
// drawing files maps onto the same variant with Lightweight set.
type Polyline struct {
	Vertices    geom.Polyline `json:"vertices"`
	Close       bool          `json:"closed"`
	Lightweight bool          `json:"lightweight,omitempty"`
}

func (p Polyline) Kind() Kind {
	if p.Lightweight {
		return KindLWPolyline
	}
	return KindPolyline
}
func (p Polyline) Closed() bool { return p.Close }
func (Polyline) sealed()        {}

// Marker is a point entity (a drafting node marker, not drawable geometry).
type Marker struct {
	At geom.Point `json:"at"`
}

func (Marker) Kind() Kind   { return KindPoint }
func (Marker) Closed() bool { return false }
func (Marker) sealed()      {}

// NonGeometric covers annotation kinds the geometric core never derives
// segments from: text, mtext, dimension, leader, hatch, block, xline, ray.
// The payload stays opaque; only the anchor matters for snapping.
type NonGeometric struct {
	K    Kind       `json:"kind"`
	At   geom.Point `json:"at,omitempty"`
	Text string     `json:"text,omitempty"`
}

func (n NonGeometric) Kind() Kind { return n.K }
func (NonGeometric) Closed() bool { return false }
func (NonGeometric) sealed()      {}

// Entity is a drawable object in a scene: a shape plus presentation
// attributes shared by all variants.
type Entity struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Layer       string  `json:"layer,omitempty"`
	Visible     bool    `json:"visible"`
	Color       string  `json:"color,omitempty"`
	LineWeight  float64 `json:"lineWeight,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	LineStyle   string  `json:"lineStyle,omitempty"`
	Measurement bool    `json:"measurement,omitempty"`
	Shape       Shape   `json:"-"`
}

// Kind returns the variant tag of the entity's shape. An entity without a
// shape has no kind; callers treat it as malformed.
func (e Entity) Kind() Kind {
	if e.Shape == nil {
		return ""
	}
	return e.Shape.Kind()
}

// NewID returns a fresh collision-resistant entity identifier.
func NewID() string { return uuid.NewString() }
