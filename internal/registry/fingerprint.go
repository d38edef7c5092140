package registry

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the frozen grammar and rule set. Builds cached under one
// fingerprint are reused only by a registry with the same fingerprint.
func (r *Registry) Fingerprint() uint64 {
	r.mustBeFrozen()
	h := xxh3.New()
	field := func(parts ...string) {
		h.WriteString(strings.Join(parts, "\x1f"))
		h.WriteString("\x1e")
	}
	for _, d := range r.types {
		field("type", d.Name, d.Keyword, d.Base, strings.Join(d.Capabilities, ","),
			strconv.FormatBool(d.Initialize != nil), strconv.FormatBool(d.Validate != nil))
		for _, m := range d.Members {
			field("member", m.Name, m.Kind.String(), m.Type, strconv.FormatBool(m.Key), strconv.FormatBool(m.NotParsable))
		}
	}
	for _, rule := range r.rules {
		field("rule", rule.Name, strings.Join(rule.Types, ","), strings.Join(rule.Capabilities, ","), rule.Version)
	}
	return h.Sum64()
}
