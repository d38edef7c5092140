// Package registry provides the central "glue" for the module system.
//
// The Registry stores the concept types that make up the script grammar and
// the macro rules that expand concepts. Modules, written in Go or declared in
// HCL manifests, populate it through Register. Freeze then links the type
// hierarchy, validates every rule binding and builds the static tables the
// parser and the macro engine use: keyword → descriptors, and concept type →
// applicable rules and validators. A frozen registry is read-only and safe to
// share between compilations.
package registry
