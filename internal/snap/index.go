/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"math"
	"sort"

	"github.com/asim/quadtree"

	"draftcad/internal/domain"
	"draftcad/internal/geom"
)

// AnchorKind names the feature an anchor point was derived from.
type AnchorKind string

const (
	AnchorEndpoint AnchorKind = "endpoint"
	AnchorMidpoint AnchorKind = "midpoint"
	AnchorCenter   AnchorKind = "center"
	AnchorVertex   AnchorKind = "vertex"
	AnchorQuadrant AnchorKind = "quadrant"
	AnchorNode     AnchorKind = "node"
)

// Anchor is one snappable point of an entity.
type Anchor struct {
	Point    geom.Point
	Kind     AnchorKind
	EntityID string
}

var zeroPoint = quadtree.NewPoint(0, 0, nil)

// Index is a spatial lookup over the anchor points of a scene. Build once per
// scene revision; the index does not track later entity edits.
type Index struct {
	tree  *quadtree.QuadTree
	count int
}

// NewIndex collects the anchor points of every visible entity and loads them
// into a quadtree sized to the scene's extent.
func NewIndex(scene *domain.Scene) *Index {
	var anchors []Anchor
	if scene != nil {
		for _, e := range scene.Entities {
			if !e.Visible {
				continue
			}
			anchors = append(anchors, entityAnchors(e)...)
		}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, a := range anchors {
		minX = math.Min(minX, a.Point.X)
		minY = math.Min(minY, a.Point.Y)
		maxX = math.Max(maxX, a.Point.X)
		maxY = math.Max(maxY, a.Point.Y)
	}
	if len(anchors) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}

	midX := (maxX + minX) / 2
	midY := (maxY + minY) / 2
	// Margin keeps anchors on the extent boundary inside the tree.
	halfWidth := maxX - midX + 10
	halfHeight := maxY - midY + 10

	aabb := quadtree.NewAABB(
		quadtree.NewPoint(midX, midY, nil),
		quadtree.NewPoint(halfWidth, halfHeight, nil))
	ix := &Index{tree: quadtree.New(aabb, 0, nil)}
	for _, a := range anchors {
		ix.insert(a)
	}
	return ix
}

// Len reports the number of distinct anchor locations in the index.
func (ix *Index) Len() int { return ix.count }

// insert merges anchors at identical coordinates into one tree point so a
// shared endpoint of two lines is a single location with both anchors.
func (ix *Index) insert(a Anchor) {
	probe := quadtree.NewPoint(a.Point.X, a.Point.Y, nil)
	points := ix.tree.KNearest(quadtree.NewAABB(probe, zeroPoint), 1, nil)
	if len(points) > 0 {
		x, y := points[0].Coordinates()
		if x == a.Point.X && y == a.Point.Y {
			bucket := points[0].Data().(*[]Anchor)
			*bucket = append(*bucket, a)
			return
		}
	}
	bucket := &[]Anchor{a}
	ix.tree.Insert(quadtree.NewPoint(a.Point.X, a.Point.Y, bucket))
	ix.count++
}

// Nearest returns the closest anchor within radius of p. Anchors at the same
// location rank endpoint before midpoint before the rest, matching what a
// drafter expects the cursor to catch.
func (ix *Index) Nearest(p geom.Point, radius float64) (Anchor, bool) {
	all := ix.Within(p, radius)
	if len(all) == 0 {
		return Anchor{}, false
	}
	return all[0], true
}

// Within returns every anchor within radius of p, closest first.
func (ix *Index) Within(p geom.Point, radius float64) []Anchor {
	if radius <= 0 {
		return nil
	}
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(p.X, p.Y, nil),
		quadtree.NewPoint(radius, radius, nil))
	var out []Anchor
	for _, pt := range ix.tree.Search(aabb) {
		x, y := pt.Coordinates()
		loc := geom.Point{X: x, Y: y}
		if loc.Distance(p) > radius {
			continue
		}
		out = append(out, *pt.Data().(*[]Anchor)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Point.Distance(p), out[j].Point.Distance(p)
		if di != dj {
			return di < dj
		}
		return kindRank(out[i].Kind) < kindRank(out[j].Kind)
	})
	return out
}

func kindRank(k AnchorKind) int {
	switch k {
	case AnchorEndpoint:
		return 0
	case AnchorVertex:
		return 1
	case AnchorMidpoint:
		return 2
	case AnchorCenter:
		return 3
	case AnchorQuadrant:
		return 4
	default:
		return 5
	}
}

// entityAnchors derives the snappable points of one entity: endpoints and
// midpoints of linear features, centers and quadrants of circular ones,
// vertices of polylines, and the bare anchor of annotations.
func entityAnchors(e domain.Entity) []Anchor {
	mk := func(p geom.Point, k AnchorKind) Anchor {
		return Anchor{Point: p, Kind: k, EntityID: e.ID}
	}
	switch s := e.Shape.(type) {
	case domain.Line:
		mid := geom.Point{X: (s.Start.X + s.End.X) / 2, Y: (s.Start.Y + s.End.Y) / 2}
		return []Anchor{mk(s.Start, AnchorEndpoint), mk(s.End, AnchorEndpoint), mk(mid, AnchorMidpoint)}
	case domain.Arc:
		g := s.Geom()
		if g.Radius <= 0 {
			return nil
		}
		midAngle := g.StartDeg + g.SpanDeg()/2
		return []Anchor{
			mk(g.PointAt(g.StartDeg), AnchorEndpoint),
			mk(g.PointAt(g.EndDeg), AnchorEndpoint),
			mk(g.PointAt(midAngle), AnchorMidpoint),
			mk(g.Center, AnchorCenter),
		}
	case domain.Circle:
		if s.Radius <= 0 {
			return nil
		}
		out := []Anchor{mk(s.Center, AnchorCenter)}
		for _, deg := range []float64{0, 90, 180, 270} {
			g := geom.Arc{Center: s.Center, Radius: s.Radius}
			out = append(out, mk(g.PointAt(deg), AnchorQuadrant))
		}
		return out
	case domain.Ellipse:
		return []Anchor{mk(s.Center, AnchorCenter)}
	case domain.Rectangle:
		// Rotation is ignored for snapping; rotated rectangles are rare and
		// their corners still act as coarse anchors.
		o := s.Origin
		corners := []geom.Point{
			o,
			{X: o.X + s.Width, Y: o.Y},
			{X: o.X + s.Width, Y: o.Y + s.Height},
			{X: o.X, Y: o.Y + s.Height},
		}
		out := make([]Anchor, 0, 5)
		for _, c := range corners {
			out = append(out, mk(c, AnchorVertex))
		}
		out = append(out, mk(geom.Point{X: o.X + s.Width/2, Y: o.Y + s.Height/2}, AnchorCenter))
		return out
	case domain.Polyline:
		out := make([]Anchor, 0, len(s.Vertices)*2)
		for _, v := range s.Vertices {
			out = append(out, mk(v, AnchorVertex))
		}
		for _, seg := range s.Vertices.Segments() {
			mid := geom.Point{X: (seg.Start.X + seg.End.X) / 2, Y: (seg.Start.Y + seg.End.Y) / 2}
			out = append(out, mk(mid, AnchorMidpoint))
		}
		return out
	case domain.Marker:
		return []Anchor{mk(s.At, AnchorNode)}
	case domain.NonGeometric:
		return []Anchor{mk(s.At, AnchorNode)}
	default:
		return nil
	}
}
