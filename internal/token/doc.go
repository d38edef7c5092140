// Package token turns a source.Set into a flat stream of tokens.
//
// Scanning is a single forward pass over the joined text. External includes
// (`<file>`) are read on the spot and their content becomes the token value,
// so downstream stages never touch the file system.
package token
