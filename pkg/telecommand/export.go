// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

// Formats lists the supported export formats.
var Formats = []string{FormatJSON, FormatYAML, FormatCBOR}

// CatalogDocument is the serializable view of a catalog.
type CatalogDocument struct {
	Root         string               `json:"root,omitempty" yaml:"root,omitempty" cbor:"root,omitempty"`
	BuiltAt      time.Time            `json:"built_at" yaml:"built_at" cbor:"built_at"`
	Telecommands []DefinitionDocument `json:"telecommands" yaml:"telecommands" cbor:"telecommands"`
}

// DefinitionDocument is the serializable view of a definition. Arguments is
// nil when the docstring does not document arguments, and an empty list when
// it documents zero.
type DefinitionDocument struct {
	Index          int            `json:"index" yaml:"index" cbor:"index"`
	Name           string         `json:"name" yaml:"name" cbor:"name"`
	Handler        string         `json:"handler" yaml:"handler" cbor:"handler"`
	ArgumentCount  int            `json:"number_of_args" yaml:"number_of_args" cbor:"number_of_args"`
	ReadinessLevel string         `json:"readiness_level" yaml:"readiness_level" cbor:"readiness_level"`
	Docstring      *string        `json:"docstring" yaml:"docstring" cbor:"docstring"`
	Arguments      []string       `json:"arguments" yaml:"arguments" cbor:"arguments"`
	Problems       []FieldProblem `json:"problems,omitempty" yaml:"problems,omitempty" cbor:"problems,omitempty"`
}

// Document returns the serializable view of the catalog.
func (c *Catalog) Document() CatalogDocument {
	doc := CatalogDocument{
		Root:         c.root,
		BuiltAt:      c.builtAt.UTC(),
		Telecommands: make([]DefinitionDocument, 0, len(c.defs)),
	}
	for _, d := range c.defs {
		d = d.clone()
		entry := DefinitionDocument{
			Index:          d.Index,
			Name:           d.Name,
			Handler:        d.HandlerSymbol,
			ArgumentCount:  d.ArgumentCount,
			ReadinessLevel: d.ReadinessLevel,
			Problems:       d.Problems,
		}
		if d.HasDocstring {
			docstring := d.Docstring
			entry.Docstring = &docstring
		}
		if d.ArgumentsDocumented {
			entry.Arguments = d.ArgumentDescriptions
		}
		doc.Telecommands = append(doc.Telecommands, entry)
	}
	return doc
}

// Marshal encodes the document in the named format.
func (d CatalogDocument) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog as YAML: %w", err)
		}
		return data, nil
	case FormatCBOR:
		data, err := cbor.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog as CBOR: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}
