// Package parser builds concept instances from a token stream.
//
// There is no grammar besides the registered concept types. For every
// statement the parser looks up the types registered under the leading
// keyword, runs an independent trial parse for each of them and keeps the
// one that consumed the most tokens. Two trials of equal maximal length make
// the statement ambiguous.
//
// Members are read in declaration order:
//
//   - a string member takes one text, quoted string or include token;
//   - a reference member as first member takes the enclosing block's concept
//     when its type fits;
//   - a reference member right after an embedded member takes that embedded
//     concept's parent when its type fits;
//   - any other reference is read as the key of the referenced type, and a
//     '.' separates it from the next key member;
//   - an embedded member is read in full and becomes a concept of its own.
package parser
