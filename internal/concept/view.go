package concept

// View is read-only access to a concept inside a graph.
type View interface {
	Handle() Handle
	Type() string
	Descriptor() *Descriptor
	Is(typeName string) bool
	Key() string
	Identity() string
	Path() string
	Description() string
	// Get returns a string value or a reference's target path.
	Get(member string) string
	// Ref returns the bound target of a reference member.
	Ref(member string) (View, bool)
	// Origin tells where the concept came from.
	Origin() string
}

// GraphView is read-only access to a whole graph.
type GraphView interface {
	Len() int
	At(h Handle) View
	// Lookup finds a concept by key.
	Lookup(key string) (View, bool)
	// LookupIdentity finds a concept by identity.
	LookupIdentity(identity string) (View, bool)
	// OfType lists the concepts that are, or derive from, the type, in
	// handle order.
	OfType(typeName string) []View
	// Referencing lists the concepts with a reference member bound to h.
	Referencing(h Handle) []View
	// Descriptor returns a registered concept type, so rules can build new
	// instances.
	Descriptor(typeName string) (*Descriptor, bool)
}
