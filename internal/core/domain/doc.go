// Package domain defines the core entities of the MarkBear conversion engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: the format-neutral intermediate representation (IR)
//   - Block / Span: structural and inline nodes of the IR tree
//   - Format: the closed set of external document formats
//   - ConversionError: the single error surface of the engine
//   - Warning: a non-fatal, best-effort repair notice
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
