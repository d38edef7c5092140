// Package concept holds the data model of the compiler.
//
// A Descriptor is the static description of a concept type: its keyword,
// single base type, ordered members and optional capability functions. An
// Instance is one concept built from a descriptor. Reference members store
// the target's path as text until the graph binds them to a Handle.
//
// Three renderings identify an instance:
//
//	Key          "Integer M.E.I"   concrete type + key path
//	Identity     "Property M.E.I"  root base type + key path
//	Description  "Integer DataStructure=M.E Name=I"
//
// Identity drives deduplication and reference binding, Description is used
// for duplicate checks and error messages.
package concept
