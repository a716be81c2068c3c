/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package join

import (
	"draftcad/internal/domain"
	"draftcad/internal/geom"
)

// extractSegments derives the matching segments for one entity. Arcs go
// through the shared tessellation so chaining sees the same approximation as
// rendering. A malformed entity (degenerate line, zero-radius arc, too few
// vertices) yields no segments; the caller surfaces the skip count instead
// of failing hard.
//
// The switch is exhaustive over the shape sum type: closed and non-geometric
// variants yield nil here because validation rejects them before extraction.
func extractSegments(e domain.Entity, arcSteps int) []geom.Segment {
	switch s := e.Shape.(type) {
	case domain.Line:
		if s.Start.SamePoint(s.End) {
			return nil
		}
		return []geom.Segment{{Start: s.Start, End: s.End}}
	case domain.Arc:
		if s.Radius <= 0 {
			return nil
		}
		return s.Geom().Tessellate(arcSteps).Segments()
	case domain.Polyline:
		segs := s.Vertices.Segments()
		if s.Close && len(s.Vertices) >= 3 {
			segs = append(segs, geom.Segment{Start: s.Vertices.Last(), End: s.Vertices.First()})
		}
		return segs
	case domain.Circle, domain.Ellipse, domain.Rectangle:
		// Closed shapes never reach extraction; the join preconditions
		// reject them first.
		return nil
	case domain.Marker, domain.NonGeometric:
		return nil
	case nil:
		return nil
	}
	return nil
}
