// Package chunker provides fixed-size and paragraph text splitters.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Placeholder is the single chunk produced for empty text.
const Placeholder = " "

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// Processor splits text into fixed-size rune windows.
// Consecutive chunks share exactly overlap runes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "fixed"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split cuts text into windows of chunkSize runes stepping chunkSize-overlap.
// chunks[0] + chunks[i][overlap:] for i > 0 rebuilds the text.
func (p *Processor) Split(text string) []string {
	if text == "" {
		return []string{Placeholder}
	}

	runes := []rune(text)
	n := len(runes)
	step := p.chunkSize - p.overlap

	chunks := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + p.chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks
}

// Paragraph splits text on blank lines and packs paragraphs into chunks of
// at most chunkSize characters, carrying trailing paragraphs of up to overlap
// characters into the next chunk. A single paragraph longer than chunkSize
// becomes its own chunk.
type Paragraph struct {
	chunkSize int
	overlap   int
	separator string
}

// Ensure Paragraph implements the interface.
var _ driven.Splitter = (*Paragraph)(nil)

// NewParagraph creates a paragraph splitter with the same options as New.
func NewParagraph(opts ...Option) *Paragraph {
	p := New(opts...)
	return &Paragraph{chunkSize: p.chunkSize, overlap: p.overlap, separator: "\n\n"}
}

// Name returns the processor name.
func (p *Paragraph) Name() string {
	return "paragraph"
}

// Split packs paragraphs into chunks.
func (p *Paragraph) Split(text string) []string {
	var pieces []string
	for _, s := range strings.Split(text, p.separator) {
		if s = strings.TrimSpace(s); s != "" {
			pieces = append(pieces, s)
		}
	}
	if len(pieces) == 0 {
		return []string{Placeholder}
	}

	sepLen := utf8.RuneCountInString(p.separator)
	var chunks []string
	var window []string
	total := 0

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		joined := total + n
		if len(window) > 0 {
			joined += sepLen
		}
		if joined > p.chunkSize && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, p.separator))
			// Drop from the front until the carried tail fits the overlap
			// and leaves room for the next piece.
			for len(window) > 0 && (total > p.overlap || total+n+sepLen > p.chunkSize) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, piece)
		total += n
	}
	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, p.separator))
	}
	return chunks
}
