// Package markdown is the Markdown codec: it parses Markdown text into the
// document IR and serialises the IR back to canonical Markdown.
//
// Parsing is recoverable by design. Unmatched delimiters degrade to literal
// text and an unterminated code fence auto-closes at end of input, so Parse
// never fails on real-world input. Serialise emits one canonical form
// (ATX headings, dash bullets, four-space list indents, fenced code,
// single-space table padding) and the round-trip contract holds:
// Parse(Serialize(ir)) is structurally equal to ir for any IR this codec
// produces.
package markdown
