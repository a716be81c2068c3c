/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package settings persists the constraint configuration between sessions and
// imports externally produced settings documents. Imports are validated
// against an embedded JSON schema and merged defensively so a malformed or
// partial document can never corrupt the in-memory settings.
package settings

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"draftcad/internal/constraint"
)

//go:embed settings.schema.json
var schemaBytes []byte

// Persisted is the on-disk settings document. Customs holds the names of the
// registered custom constraints the user has switched on; the constraint
// functions themselves live in code.
type Persisted struct {
	Version int                      `json:"version"`
	Ortho   constraint.OrthoSettings `json:"ortho"`
	Polar   constraint.PolarSettings `json:"polar"`
	Customs []string                 `json:"customs,omitempty"`
}

// CurrentVersion is bumped when the document structure changes in a
// backward-incompatible way.
const CurrentVersion = 1

// Defaults returns the shipped settings document.
func Defaults() Persisted {
	return Persisted{
		Version: CurrentVersion,
		Ortho:   constraint.DefaultOrtho(),
		Polar:   constraint.DefaultPolar(),
	}
}

// DefaultPath returns the per-user settings file path.
func DefaultPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Draftcad")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Draftcad")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "draftcad")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "settings.json"), nil
}

// Store reads and writes one settings file. Concurrent writers follow
// last-writer-wins; the tool runs one interactive session at a time.
type Store struct {
	path string
}

// NewStore returns a store bound to path. An empty path resolves to the
// per-user default location.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// Path returns the file the store is bound to.
func (s *Store) Path() string { return s.path }

// Load reads the settings file, falling back to defaults when it is missing.
// A file that fails validation is reported as an error with the defaults
// returned so the caller can keep running.
func (s *Store) Load() (Persisted, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read settings: %w", err)
	}
	p, err := Import(data)
	if err != nil {
		return Defaults(), fmt.Errorf("settings file %s: %w", s.path, err)
	}
	return p, nil
}

// Save writes the document atomically (temp file plus rename).
func (s *Store) Save(p Persisted) error {
	if err := validateSemantics(p); err != nil {
		return err
	}
	if p.Version == 0 {
		p.Version = CurrentVersion
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// ImportError reports why a settings document was rejected. Issues lists the
// individual schema or semantic violations.
type ImportError struct {
	Issues []string
}

func (e *ImportError) Error() string {
	if len(e.Issues) == 0 {
		return "settings import rejected"
	}
	return "settings import rejected: " + strings.Join(e.Issues, "; ")
}

// Import validates data against the settings schema and merges it over the
// defaults. It either returns a fully valid document or an *ImportError; it
// never returns a partially applied one.
func Import(data []byte) (Persisted, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Persisted{}, &ImportError{Issues: []string{err.Error()}}
	}
	if !result.Valid() {
		var issues []string
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return Persisted{}, &ImportError{Issues: issues}
	}

	// The schema pass guarantees shape and ranges; the merge below fills in
	// everything the document omits from the defaults.
	doc := struct {
		Version *int                      `json:"version"`
		Ortho   *constraint.OrthoSettings `json:"ortho"`
		Polar   *constraint.PolarSettings `json:"polar"`
		Customs []string                  `json:"customs"`
	}{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Persisted{}, &ImportError{Issues: []string{err.Error()}}
	}

	out := Defaults()
	if doc.Version != nil {
		out.Version = *doc.Version
	}
	if doc.Ortho != nil {
		out.Ortho = mergeOrtho(out.Ortho, data)
	}
	if doc.Polar != nil {
		out.Polar = mergePolar(out.Polar, data)
	}
	if doc.Customs != nil {
		out.Customs = append([]string(nil), doc.Customs...)
	}

	if err := validateSemantics(out); err != nil {
		return Persisted{}, &ImportError{Issues: []string{err.Error()}}
	}
	return out, nil
}

// mergeOrtho unmarshals the document's ortho object over the defaults so
// absent keys keep their default values.
func mergeOrtho(base constraint.OrthoSettings, data []byte) constraint.OrthoSettings {
	var sub struct {
		Ortho constraint.OrthoSettings `json:"ortho"`
	}
	sub.Ortho = base
	if err := json.Unmarshal(data, &sub); err != nil {
		return base
	}
	return sub.Ortho
}

func mergePolar(base constraint.PolarSettings, data []byte) constraint.PolarSettings {
	var sub struct {
		Polar constraint.PolarSettings `json:"polar"`
	}
	sub.Polar = base
	if err := json.Unmarshal(data, &sub); err != nil {
		return base
	}
	return sub.Polar
}

func validateSemantics(p Persisted) error {
	if err := p.Ortho.Validate(); err != nil {
		return err
	}
	return p.Polar.Validate()
}
