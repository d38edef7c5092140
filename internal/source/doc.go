// Package source holds the named script texts fed to the compiler.
//
// A Set concatenates its texts with a fixed Separator so that the tokenizer
// can scan one contiguous string while every offset still maps back to the
// originating source name, line and column.
package source
