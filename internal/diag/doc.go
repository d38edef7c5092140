// Package diag defines the error kinds raised while compiling DSL scripts.
//
// Every kind is fatal for the compilation unit. Lexical and syntax errors
// carry the source location of the fault; graph-level errors carry the full
// rendered description of the offending concepts.
package diag
