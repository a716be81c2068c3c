/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package join

import (
	"fmt"
	"log/slog"

	"draftcad/internal/chain"
	"draftcad/internal/domain"
	"draftcad/internal/geom"
	applog "draftcad/internal/log"
)

// Failure messages are part of the service contract; the UI matches on them
// to drive hints, so each precondition gets its own stable wording.
const (
	msgTooFew       = "need at least 2 entities to join"
	msgBadKind      = "entity kind %q cannot be joined"
	msgMeasurement  = "measurement entities cannot be joined"
	msgClosed       = "closed entities cannot be joined"
	msgNotConnected = "selected entities are not geometrically connected"
)

// mergeable lists the entity kinds allowed into a join; everything else is
// rejected before any geometry runs.
var mergeable = map[domain.Kind]bool{
	domain.KindLine:       true,
	domain.KindPolyline:   true,
	domain.KindLWPolyline: true,
	domain.KindArc:        true,
	domain.KindCircle:     true,
	domain.KindEllipse:    true,
	domain.KindRectangle:  true,
}

// excluded lists annotation kinds that never participate, regardless of the
// whitelist.
var excluded = map[domain.Kind]bool{
	domain.KindText:      true,
	domain.KindMText:     true,
	domain.KindDimension: true,
	domain.KindLeader:    true,
	domain.KindHatch:     true,
	domain.KindBlock:     true,
	domain.KindPoint:     true,
	domain.KindXLine:     true,
	domain.KindRay:       true,
}

// Result is the outcome of a join. On success Scene is the full replacement
// scene with the inputs removed, the joined entity appended and selected.
// Skipped counts malformed entities that contributed no segments.
type Result struct {
	Scene       domain.Scene `json:"scene"`
	NewEntityID string       `json:"newEntityId,omitempty"`
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Skipped     int          `json:"skipped,omitempty"`
}

// Preview is the read-only counterpart of Result, used by the UI to
// enable/disable the join action and show a live hint.
type Preview struct {
	Kind    domain.Kind `json:"kind,omitempty"`
	OK      bool        `json:"ok"`
	Reason  string      `json:"reason,omitempty"`
	Skipped int         `json:"skipped,omitempty"`
}

// Service performs entity joins on scene snapshots. The scene passed in is
// treated as immutable; a modified clone comes back in the Result. Safe to
// share, carries no per-operation state.
type Service struct {
	arcSteps    int
	log         *slog.Logger
	onSelection func(ids []string)
}

// Option configures a Service.
type Option func(*Service)

// WithArcSteps overrides the arc tessellation step count. Chaining and
// rendering must agree on it, so changing this changes both.
func WithArcSteps(n int) Option {
	return func(s *Service) { s.arcSteps = n }
}

// WithSelectionListener registers the selection-boundary callback invoked
// with the new entity id after a successful join.
func WithSelectionListener(fn func(ids []string)) Option {
	return func(s *Service) { s.onSelection = fn }
}

// NewService returns a join service with default tessellation.
func NewService(opts ...Option) *Service {
	s := &Service{
		arcSteps: geom.DefaultArcSegments,
		log:      applog.WithComponent("join"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Join merges the identified entities into one. Every failure mode comes
// back as a structured result, never a panic or error: validation failures
// carry their precondition message, geometric failure carries
// msgNotConnected.
func (s *Service) Join(scene domain.Scene, ids []string) Result {
	l := applog.WithOperation(s.log, "join")
	entities, res := s.validate(scene, ids)
	if res != nil {
		l.Debug("join rejected", slog.String("reason", res.Message))
		return Result{Scene: scene, Message: res.Message}
	}

	chainPts, skipped := s.assemble(entities)
	if chainPts == nil {
		l.Debug("join failed", slog.String("reason", msgNotConnected), slog.Int("skipped", skipped))
		return Result{Scene: scene, Message: msgNotConnected, Skipped: skipped}
	}

	shape := Classify(entities, chainPts)
	first := entities[0]
	joined := domain.Entity{
		ID:         domain.NewID(),
		Name:       fmt.Sprintf("Joined %s", shape.Kind()),
		Layer:      first.Layer,
		Visible:    first.Visible,
		Color:      first.Color,
		LineWeight: first.LineWeight,
		Opacity:    first.Opacity,
		LineStyle:  first.LineStyle,
		Shape:      shape,
	}

	out := scene.Clone().RemoveEntities(ids).AppendEntity(joined)
	out.Selection = []string{joined.ID}
	if s.onSelection != nil {
		s.onSelection([]string{joined.ID})
	}

	l.Info("entities joined",
		slog.Int("inputs", len(entities)),
		slog.String("result_kind", string(shape.Kind())),
		slog.String("id", joined.ID),
		slog.Int("skipped", skipped))
	return Result{Scene: out, NewEntityID: joined.ID, Success: true, Skipped: skipped}
}

// Preview runs the same checks as Join without mutating anything and
// reports the would-be result kind.
func (s *Service) Preview(scene domain.Scene, ids []string) Preview {
	entities, res := s.validate(scene, ids)
	if res != nil {
		return Preview{Reason: res.Message}
	}
	chainPts, skipped := s.assemble(entities)
	if chainPts == nil {
		return Preview{Reason: msgNotConnected, Skipped: skipped}
	}
	kind := Classify(entities, chainPts).Kind()
	return Preview{Kind: kind, OK: true, Skipped: skipped,
		Reason: fmt.Sprintf("join produces one %s", kind)}
}

// validate resolves the ids and checks the join preconditions in order.
// A non-nil result carries the failure message of the first violated check.
func (s *Service) validate(scene domain.Scene, ids []string) ([]domain.Entity, *Result) {
	entities := make([]domain.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := scene.FindEntity(id); ok {
			entities = append(entities, e)
		}
	}
	if len(entities) < 2 {
		return nil, &Result{Message: msgTooFew}
	}
	for _, e := range entities {
		kind := e.Kind()
		if excluded[kind] || !mergeable[kind] {
			return nil, &Result{Message: fmt.Sprintf(msgBadKind, string(kind))}
		}
		if e.Measurement {
			return nil, &Result{Message: msgMeasurement}
		}
	}
	for _, e := range entities {
		if e.Shape.Closed() {
			return nil, &Result{Message: msgClosed}
		}
	}
	return entities, nil
}

// assemble extracts segments from all entities and chains them. It returns
// the chain (nil on geometric failure) and the count of entities that
// produced no segments.
func (s *Service) assemble(entities []domain.Entity) (geom.Polyline, int) {
	var segs []geom.Segment
	skipped := 0
	for _, e := range entities {
		es := extractSegments(e, s.arcSteps)
		if len(es) == 0 {
			skipped++
			continue
		}
		segs = append(segs, es...)
	}
	return chain.Build(segs), skipped
}
