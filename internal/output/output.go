// Package output renders an ordered concept list as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/concept"
)

// Format selects a rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format '%s' (want text, json or yaml)", s)
	}
}

// Member is one member value. Ref holds the key of the referenced concept.
type Member struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Ref   string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// Concept is one concept of the ordered list.
type Concept struct {
	Key     string   `json:"key" yaml:"key"`
	Type    string   `json:"type" yaml:"type"`
	Origin  string   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Members []Member `json:"members" yaml:"members"`
}

// Document is the ordered concept list of one compilation.
type Document struct {
	Concepts []Concept `json:"concepts" yaml:"concepts"`
}

// Build converts a compilation result, keeping its dependency order.
func Build(r *compiler.Result) *Document {
	doc := &Document{Concepts: make([]Concept, 0, len(r.Order))}
	for _, c := range r.Ordered() {
		oc := Concept{Key: c.Key(), Type: c.Type(), Origin: c.Origin}
		for i, m := range c.Desc.AllMembers() {
			v := c.Values[i]
			om := Member{Name: m.Name, Value: v.Text}
			if m.IsReference() && v.Ref != concept.NoHandle {
				om.Ref = r.Graph.Instance(v.Ref).Key()
			}
			oc.Members = append(oc.Members, om)
		}
		doc.Concepts = append(doc.Concepts, oc)
	}
	return doc
}

// Write renders doc to w.
func Write(w io.Writer, doc *Document, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return writeText(w, doc)
	default:
		return fmt.Errorf("unknown output format '%s'", f)
	}
}

func writeText(w io.Writer, doc *Document) error {
	var b strings.Builder
	for _, c := range doc.Concepts {
		b.WriteString(c.Key)
		b.WriteByte('\n')
		for _, m := range c.Members {
			if m.Ref != "" {
				fmt.Fprintf(&b, "    %s -> %s\n", m.Name, m.Ref)
				continue
			}
			fmt.Fprintf(&b, "    %s = %q\n", m.Name, m.Value)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
