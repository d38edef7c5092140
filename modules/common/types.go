package common

import (
	"github.com/vk/conceptc/internal/concept"
)

// Concept type names.
const (
	TypeModule        = "Module"
	TypeDataStructure = "DataStructure"
	TypeEntity        = "Entity"
	TypeBrowse        = "Browse"
	TypeProperty      = "Property"
	TypeShortString   = "ShortString"
	TypeInteger       = "Integer"
	TypeGuid          = "Guid"
	TypeReference     = "Reference"
	TypeHierarchy     = "Hierarchy"
	TypeItemFilter    = "ItemFilter"
	TypeDenySave      = "DenySave"
	TypeSqlIndex      = "SqlIndex"
	TypeMaxLength     = "MaxLength"
)

// CapabilityWritable marks data structures that store their own records.
const CapabilityWritable = "Writable"

func key(name string) concept.Member { return concept.Member{Name: name, Key: true} }

func ref(name, typeName string, isKey bool) concept.Member {
	return concept.Member{Name: name, Kind: concept.Reference, Type: typeName, Key: isKey}
}

// Types returns fresh descriptors of every standard concept type.
func Types() []*concept.Descriptor {
	return []*concept.Descriptor{
		{Name: TypeModule, Keyword: "Module", Members: []concept.Member{key("Name")}},
		{Name: TypeDataStructure, Members: []concept.Member{ref("Module", TypeModule, true), key("Name")}},
		{Name: TypeEntity, Keyword: "Entity", Base: TypeDataStructure, Capabilities: []string{CapabilityWritable}},
		{Name: TypeBrowse, Keyword: "Browse", Base: TypeDataStructure, Members: []concept.Member{ref("Source", TypeDataStructure, false)}},

		{Name: TypeProperty, Members: []concept.Member{ref("DataStructure", TypeDataStructure, true), key("Name")}},
		{Name: TypeShortString, Keyword: "ShortString", Base: TypeProperty},
		{Name: TypeInteger, Keyword: "Integer", Base: TypeProperty},
		{Name: TypeGuid, Keyword: "Guid", Base: TypeProperty},
		{Name: TypeReference, Keyword: "Reference", Base: TypeProperty, Members: []concept.Member{ref("Referenced", TypeDataStructure, false)}},
		{
			Name:    TypeHierarchy,
			Keyword: "Hierarchy",
			Members: []concept.Member{
				ref("DataStructure", TypeDataStructure, true),
				key("Name"),
				{Name: "Target", Kind: concept.Reference, Type: TypeDataStructure, NotParsable: true},
			},
			Initialize: initHierarchy,
			Expand:     expandHierarchy,
		},

		{Name: TypeItemFilter, Keyword: "ItemFilter", Members: []concept.Member{ref("DataStructure", TypeDataStructure, true), key("Name"), {Name: "Expression"}}},
		{
			Name:    TypeDenySave,
			Keyword: "DenySave",
			Members: []concept.Member{
				{Name: "Filter", Kind: concept.Embedded, Type: TypeItemFilter, Key: true},
				ref("DataStructure", TypeDataStructure, false),
				{Name: "Message"},
			},
		},

		{Name: TypeSqlIndex, Keyword: "SqlIndex", Members: []concept.Member{ref("Property", TypeProperty, true)}},
		{
			Name:     TypeMaxLength,
			Keyword:  "MaxLength",
			Members:  []concept.Member{ref("Property", TypeProperty, true), {Name: "Length"}},
			Validate: validateMaxLength,
		},
	}
}
