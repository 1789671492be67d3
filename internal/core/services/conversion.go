package services

import (
	"context"
	"fmt"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/core/ports/driven"
	"github.com/markbear/markbear/internal/core/ports/driving"
	"github.com/markbear/markbear/internal/markdown"
)

// Ensure Conversion implements the driving port.
var _ driving.ConversionService = (*Conversion)(nil)

// Conversion dispatches imports and exports to the format adapters and
// the Markdown codec. It holds no per-call state; each operation builds
// its document tree fresh and discards it.
type Conversion struct {
	codec      *markdown.Codec
	converters map[domain.Format]driven.Converter
}

// NewConversion wires the service with one adapter per format.
func NewConversion(converters ...driven.Converter) *Conversion {
	byFormat := make(map[domain.Format]driven.Converter, len(converters))
	for _, c := range converters {
		byFormat[c.Format()] = c
	}
	return &Conversion{
		codec:      markdown.NewCodec(),
		converters: byFormat,
	}
}

func (s *Conversion) converter(format domain.Format) (driven.Converter, error) {
	c, ok := s.converters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	return c, nil
}

// Import reads the document at path and returns canonical Markdown.
func (s *Conversion) Import(ctx context.Context, format domain.Format, path string) (string, []domain.Warning, error) {
	conv, err := s.converter(format)
	if err != nil {
		return "", nil, domain.WrapConversion(format, domain.DirectionImport, path, err)
	}

	doc, warnings, err := conv.Import(ctx, path)
	if err != nil {
		return "", nil, domain.WrapConversion(format, domain.DirectionImport, path, err)
	}

	text, err := s.codec.Serialize(doc)
	if err != nil {
		return "", nil, domain.WrapConversion(format, domain.DirectionImport, path, err)
	}
	return text, warnings, nil
}

// Export writes the Markdown text to path as format, styled with the
// format's defaults.
func (s *Conversion) Export(ctx context.Context, format domain.Format, markdownText, path string) ([]domain.Warning, error) {
	conv, err := s.converter(format)
	if err != nil {
		return nil, domain.WrapConversion(format, domain.DirectionExport, path, err)
	}

	doc, warnings, err := s.codec.Parse(markdownText)
	if err != nil {
		return nil, domain.WrapConversion(format, domain.DirectionExport, path, err)
	}

	exportWarnings, err := conv.Export(ctx, doc, domain.DefaultStyles(format), path)
	warnings = append(warnings, exportWarnings...)
	if err != nil {
		return warnings, domain.WrapConversion(format, domain.DirectionExport, path, err)
	}
	return warnings, nil
}
