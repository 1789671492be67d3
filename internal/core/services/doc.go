// Package services implements the driving port interfaces.
//
// Conversion orchestrates one import or export end to end: it picks the
// format converter, runs the Markdown codec, and wraps failures with
// conversion context. Dispatch runs conversions on a bounded worker pool
// for callers that batch many files.
package services
