// Package schema validates create and update payloads against the
// Tag Manager resource shapes.
//
// Each resource kind has one canonical JSON Schema embedded from
// schemas/. The canonical schema describes the resource as the API
// returns it, including the path-derived identifiers. Payload schemas
// are compiled from it with those identifiers removed, because callers
// pass them as tool arguments, not inside config.
package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

//go:embed schemas/*.json
var files embed.FS

// Fingerprint is the server-assigned version marker excluded from payloads.
const Fingerprint = "fingerprint"

// Schema is a compiled payload schema for one resource kind.
type Schema struct {
	omitted  []string
	required []string
	resolved *jsonschema.Resolved
}

// Kinds lists the resource kinds that have a canonical schema.
func Kinds() []string {
	entries, err := files.ReadDir("schemas")
	if err != nil {
		return nil
	}
	kinds := make([]string, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(kinds)
	return kinds
}

// Canonical returns a fresh copy of the full schema for kind.
func Canonical(kind string) (*jsonschema.Schema, error) {
	data, err := files.ReadFile("schemas/" + kind + ".json")
	if err != nil {
		return nil, fmt.Errorf("no schema for resource kind %q", kind)
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse %s schema: %w", kind, err)
	}
	return &s, nil
}

// Compile builds the payload schema for kind with the omit properties
// removed from both the property set and the required list.
func Compile(kind string, omit ...string) (*Schema, error) {
	s, err := Canonical(kind)
	if err != nil {
		return nil, err
	}

	for _, name := range omit {
		delete(s.Properties, name)
	}
	s.Required = slices.DeleteFunc(s.Required, func(name string) bool {
		return slices.Contains(omit, name)
	})

	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s schema: %w", kind, err)
	}

	return &Schema{
		omitted:  slices.Clone(omit),
		required: slices.Clone(s.Required),
		resolved: resolved,
	}, nil
}

// Required lists the fields a payload must carry.
func (s *Schema) Required() []string { return slices.Clone(s.required) }

// Validate checks config against the payload schema. Omitted fields
// present in config are ignored here; the remote API takes them from the
// path.
func (s *Schema) Validate(config map[string]any) error {
	if config == nil {
		return errors.New("config must be an object")
	}
	body := make(map[string]any, len(config))
	for k, v := range config {
		if slices.Contains(s.omitted, k) {
			continue
		}
		body[k] = v
	}
	if err := s.resolved.Validate(body); err != nil {
		return err
	}
	return nil
}
