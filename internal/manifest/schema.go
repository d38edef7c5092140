package manifest

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks of a manifest file.
type fileRoot struct {
	Concepts []*conceptBlock `hcl:"concept,block"`
	Macros   []*macroBlock   `hcl:"macro,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

type conceptBlock struct {
	Name         string         `hcl:"name,label"`
	Keyword      string         `hcl:"keyword,optional"`
	Base         string         `hcl:"base,optional"`
	Capabilities []string       `hcl:"capabilities,optional"`
	Members      []*memberBlock `hcl:"member,block"`
}

type memberBlock struct {
	Name     string `hcl:"name,label"`
	Kind     string `hcl:"kind,optional"`
	Type     string `hcl:"type,optional"`
	Key      bool   `hcl:"key,optional"`
	Parsable *bool  `hcl:"parsable,optional"`
}

type macroBlock struct {
	Name       string         `hcl:"name,label"`
	On         string         `hcl:"on,optional"`
	Capability string         `hcl:"capability,optional"`
	When       hcl.Expression `hcl:"when,optional"`
	Emits      []*emitBlock   `hcl:"emit,block"`
}

type emitBlock struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

// attributes returns the member assignments of an emit block.
func (e *emitBlock) attributes() (hcl.Attributes, hcl.Diagnostics) {
	if e.Body == nil {
		return nil, nil
	}
	return e.Body.JustAttributes()
}
