package driven

import (
	"context"

	"github.com/markbear/markbear/internal/core/domain"
)

// Converter translates between one external document format and the IR.
// Implementations are stateless; every call owns its IR tree exclusively,
// so converters are safe for concurrent use.
type Converter interface {
	// Format returns the external format this converter handles.
	Format() domain.Format

	// Import opens the container at path and maps its native structure to
	// the IR. Unmappable native constructs are flattened or dropped with a
	// warning; only an unreadable or corrupt container is an error.
	Import(ctx context.Context, path string) (*domain.Document, []domain.Warning, error)

	// Export builds the native container from the IR at path, applying the
	// styling defaults in styles. Partial output is never left behind:
	// implementations write to a temporary file and rename on success.
	Export(ctx context.Context, doc *domain.Document, styles *domain.StyleContext, path string) ([]domain.Warning, error)
}
