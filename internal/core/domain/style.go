package domain

// StyleContext carries presentational defaults applied while exporting into
// formats with rich styling. Markdown has no native styling to preserve, so
// the context is built per export call from format defaults; Markdown import
// never populates one beyond what Markdown syntax itself implies.
type StyleContext struct {
	// BaseFont and MonoFont are font family hints for body text and code.
	BaseFont string
	MonoFont string

	// BaseSize is the body text size in points.
	BaseSize float64

	// HeadingSizes maps heading level 1-6 to a size in points.
	HeadingSizes [6]float64

	// HeadingStyleIDs maps heading level 1-6 to a word-processor style id.
	HeadingStyleIDs [6]string

	// TableBorders enables default table borders.
	TableBorders bool
}

// DefaultStyles returns the export styling defaults for a format.
// Formats without rich styling (spreadsheets) get a minimal context.
func DefaultStyles(f Format) *StyleContext {
	ctx := &StyleContext{
		BaseFont:     "Helvetica",
		MonoFont:     "Courier",
		BaseSize:     11,
		HeadingSizes: [6]float64{24, 18, 14, 12, 11, 10.5},
		TableBorders: true,
	}
	switch f {
	case FormatDOCX:
		ctx.BaseFont = "Calibri"
		ctx.MonoFont = "Consolas"
		ctx.HeadingStyleIDs = [6]string{"Heading1", "Heading2", "Heading3", "Heading4", "Heading5", "Heading6"}
	case FormatPPTX:
		// Slide bodies read better slightly larger than print.
		ctx.BaseSize = 18
		ctx.HeadingSizes = [6]float64{40, 32, 28, 24, 20, 18}
	case FormatXLSX:
		ctx.TableBorders = false
	}
	return ctx
}

// HeadingSize returns the size for a heading level, clamping out-of-range
// levels into 1-6.
func (s *StyleContext) HeadingSize(level int) float64 {
	return s.HeadingSizes[clampLevel(level)-1]
}

// HeadingStyleID returns the word-processor style id for a heading level.
func (s *StyleContext) HeadingStyleID(level int) string {
	return s.HeadingStyleIDs[clampLevel(level)-1]
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}
