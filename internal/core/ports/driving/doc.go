// Package driving defines interfaces that external actors (the CLI, or an
// embedding editor) use to drive the conversion engine. Implementations of
// these interfaces live in internal/core/services.
package driving
