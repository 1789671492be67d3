package driving

import (
	"context"

	"github.com/markbear/markbear/internal/core/domain"
)

// ConversionService is the engine's entire external surface: two
// operations, each addressable by a format. Both are synchronous per call;
// callers that need the conversion off their own goroutine submit through
// a Dispatcher instead.
type ConversionService interface {
	// Import reads the document at path and returns UTF-8 Markdown text.
	Import(ctx context.Context, format domain.Format, path string) (string, []domain.Warning, error)

	// Export writes the Markdown text as format to destination path,
	// creating intermediate directories. On failure no file is written and
	// any prior file at the path is untouched.
	Export(ctx context.Context, format domain.Format, markdown, path string) ([]domain.Warning, error)
}

// Job describes one conversion request submitted to a Dispatcher.
// SourcePath is read for imports; Markdown and DestPath are used for
// exports.
type Job struct {
	Direction  domain.Direction
	Format     domain.Format
	SourcePath string
	Markdown   string
	DestPath   string
}

// Result is the single completion value delivered for a Job. Markdown is
// populated for imports.
type Result struct {
	JobID    string
	Markdown string
	Warnings []domain.Warning
	Err      error
}

// Dispatcher runs conversions on a bounded worker pool, away from the
// caller's (interactive) goroutine. There is no cooperative cancellation
// mid-conversion: a caller that stops waiting simply abandons the result
// channel and the in-flight worker runs to completion.
type Dispatcher interface {
	// Start launches the worker pool.
	Start()

	// Submit enqueues a job and returns a channel that delivers exactly
	// one Result. The returned id matches Result.JobID.
	Submit(ctx context.Context, job Job) (string, <-chan Result, error)

	// Stop drains queued jobs and waits for in-flight workers.
	Stop()
}
