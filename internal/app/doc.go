// Package app wires configuration, logging, the registry, the compiler, the
// cache and the outputs into one runnable application.
package app
