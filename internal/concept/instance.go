package concept

import (
	"fmt"
	"strings"
	"unicode"
)

// Handle addresses a concept inside a graph arena.
type Handle int32

// NoHandle marks an instance or reference that is not bound yet.
const NoHandle Handle = -1

// Value is the content of one member. For references Text holds the path of
// the target and Ref the bound handle.
type Value struct {
	Text string
	Ref  Handle
}

// Instance is one concept.
type Instance struct {
	Desc   *Descriptor
	Values []Value
	// Handle is assigned when the instance enters a graph.
	Handle Handle
	// Origin tells where the instance came from: a source location or the
	// name of the macro rule that emitted it.
	Origin string
}

// Type returns the concrete type name.
func (c *Instance) Type() string { return c.Desc.Name }

// Get returns a member's text, i.e. the value of a string member or the
// target path of a reference. Unknown members panic.
func (c *Instance) Get(member string) string {
	return c.Values[c.mustIndex(member)].Text
}

// Set assigns a string value or a reference path and returns c, so emitted
// concepts can be built in one expression.
func (c *Instance) Set(member, text string) *Instance {
	i := c.mustIndex(member)
	if c.Values[i].Ref != NoHandle {
		panic(fmt.Sprintf("member '%s' of '%s' is already bound", member, c.Key()))
	}
	c.Values[i].Text = text
	return c
}

// Bind sets the handle of reference member i. A reference is bound once;
// binding it again to another handle panics.
func (c *Instance) Bind(i int, h Handle) {
	if !c.Desc.members[i].IsReference() {
		panic(fmt.Sprintf("member '%s' of '%s' is not a reference", c.Desc.members[i].Name, c.Type()))
	}
	if cur := c.Values[i].Ref; cur != NoHandle && cur != h {
		panic(fmt.Sprintf("member '%s' of '%s' is already bound", c.Desc.members[i].Name, c.Key()))
	}
	c.Values[i].Ref = h
}

// Pending returns the indexes of reference members that are not bound yet.
func (c *Instance) Pending() []int {
	var out []int
	for i, m := range c.Desc.members {
		if m.IsReference() && c.Values[i].Ref == NoHandle {
			out = append(out, i)
		}
	}
	return out
}

// Resolved reports whether every reference member is bound.
func (c *Instance) Resolved() bool {
	for i, m := range c.Desc.members {
		if m.IsReference() && c.Values[i].Ref == NoHandle {
			return false
		}
	}
	return true
}

// Path joins the key members with ".".
func (c *Instance) Path() string {
	keys := c.Desc.KeyMembers()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = c.Values[k].Text
	}
	return strings.Join(parts, ".")
}

// Key is the concrete type name followed by the path.
func (c *Instance) Key() string { return joinKey(c.Desc.Name, c.Path()) }

// Identity is the root type name followed by the path.
func (c *Instance) Identity() string { return joinKey(c.Desc.Root().Name, c.Path()) }

// Description renders the type and every member value.
func (c *Instance) Description() string {
	var sb strings.Builder
	sb.WriteString(c.Desc.Name)
	for i, m := range c.Desc.members {
		sb.WriteByte(' ')
		sb.WriteString(m.Name)
		sb.WriteByte('=')
		if m.IsReference() {
			sb.WriteString(renderPath(c.Values[i].Text))
		} else {
			sb.WriteString(Quote(c.Values[i].Text))
		}
	}
	return sb.String()
}

// Clone copies the instance without its graph handle.
func (c *Instance) Clone() *Instance {
	out := *c
	out.Values = append([]Value(nil), c.Values...)
	out.Handle = NoHandle
	return &out
}

func (c *Instance) mustIndex(member string) int {
	i := c.Desc.MemberIndex(member)
	if i < 0 {
		panic(fmt.Sprintf("concept type '%s' has no member '%s'", c.Type(), member))
	}
	return i
}

// IdentityOf builds the identity a reference to typ with the given path
// binds to.
func IdentityOf(typ *Descriptor, path string) string {
	return joinKey(typ.Root().Name, path)
}

func joinKey(typeName, path string) string {
	if path == "" {
		return typeName
	}
	return typeName + " " + path
}

func renderPath(p string) string {
	if p == "" {
		return `""`
	}
	return p
}

// Quote leaves plain identifiers alone and wraps anything else in double
// quotes, doubling embedded quotes the way scripts escape them.
func Quote(s string) string {
	if s != "" && isIdentifier(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isIdentifier(s string) bool {
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
