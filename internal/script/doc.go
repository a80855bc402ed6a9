// Package script implements the interpreter for the restricted statement and
// expression subset found in serialized module code.
//
// The interpreter has two entry points. Structural calls (Invoke, Construct,
// Exec, Package) propagate every error. Trace runs a module's forward method
// symbolically and turns recoverable failures into an untraced result.
//
// Packages are loaded lazily through a Source on first reference and
// memoized by dotted name. A package whose body fails is not memoized.
package script
