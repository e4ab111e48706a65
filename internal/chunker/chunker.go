package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the target token count per chunk
	DefaultChunkSize = 512

	// DefaultChunkOverlap is the token count carried between adjacent
	// chunks to preserve context
	DefaultChunkOverlap = 50

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

var (
	paragraphPattern = regexp.MustCompile(`\n\n+`)
	sentencePattern  = regexp.MustCompile(`(?:[.!?])\s+`)
)

// TextChunk is one chunk of document text with position metadata
type TextChunk struct {
	Content      string
	ChunkIndex   int
	TokenCount   int
	PageNumber   *int
	SectionTitle *string
}

// Page is one page of extracted document text
type Page struct {
	Content      string
	PageNumber   int
	SectionTitle string
}

// Chunker splits document text into embedding-sized chunks that
// respect paragraph and sentence boundaries
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a Chunker with the given token budget per chunk and
// overlap between chunks. Non-positive values fall back to defaults.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ChunkText splits text into chunks. Paragraphs are packed up to the
// token budget; paragraphs over budget are split at sentence
// boundaries, and single oversized sentences are force-split by
// character count. Page number and section title are attached to
// every produced chunk.
func (c *Chunker) ChunkText(text string, pageNumber *int, sectionTitle *string) []TextChunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var paragraphs []string
	for _, p := range paragraphPattern.Split(trimmed, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []TextChunk
	var current []string
	currentTokens := 0

	finalize := func() {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, "\n\n")
		chunks = append(chunks, TextChunk{
			Content:      content,
			ChunkIndex:   len(chunks),
			TokenCount:   EstimateTokenCount(content),
			PageNumber:   pageNumber,
			SectionTitle: sectionTitle,
		})
	}

	for _, para := range paragraphs {
		paraTokens := EstimateTokenCount(para)

		switch {
		case paraTokens > c.chunkSize:
			finalize()
			current = nil
			currentTokens = 0
			for _, sc := range c.chunkLargeParagraph(para, pageNumber, sectionTitle) {
				sc.ChunkIndex = len(chunks)
				chunks = append(chunks, sc)
			}

		case currentTokens+paraTokens > c.chunkSize:
			finalize()
			overlap := c.overlapTail(current)
			current = append(overlap, para)
			currentTokens = EstimateTokenCount(strings.Join(current, "\n\n"))

		default:
			current = append(current, para)
			currentTokens += paraTokens
		}
	}
	finalize()

	return chunks
}

// ChunkPages chunks each page separately so no chunk spans a page
// boundary, assigning chunk indexes globally across the document
func (c *Chunker) ChunkPages(pages []Page) []TextChunk {
	var all []TextChunk
	for i := range pages {
		page := pages[i]
		pageNum := page.PageNumber
		var title *string
		if page.SectionTitle != "" {
			title = &page.SectionTitle
		}
		for _, chunk := range c.ChunkText(page.Content, &pageNum, title) {
			chunk.ChunkIndex = len(all)
			all = append(all, chunk)
		}
	}
	return all
}

// chunkLargeParagraph splits an over-budget paragraph at sentence
// boundaries
func (c *Chunker) chunkLargeParagraph(paragraph string, pageNumber *int, sectionTitle *string) []TextChunk {
	var sentences []string
	for _, s := range splitSentences(paragraph) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	var chunks []TextChunk
	var current []string
	currentTokens := 0

	finalize := func() {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, " ")
		chunks = append(chunks, TextChunk{
			Content:      content,
			TokenCount:   EstimateTokenCount(content),
			PageNumber:   pageNumber,
			SectionTitle: sectionTitle,
		})
	}

	for _, sentence := range sentences {
		sentenceTokens := EstimateTokenCount(sentence)

		switch {
		case sentenceTokens > c.chunkSize:
			finalize()
			current = nil
			currentTokens = 0
			chunks = append(chunks, c.forceSplit(sentence, pageNumber, sectionTitle)...)

		case currentTokens+sentenceTokens > c.chunkSize:
			finalize()
			overlap := c.overlapTail(current)
			current = append(overlap, sentence)
			currentTokens = EstimateTokenCount(strings.Join(current, " "))

		default:
			current = append(current, sentence)
			currentTokens += sentenceTokens
		}
	}
	finalize()

	return chunks
}

// forceSplit cuts text that has no usable sentence boundaries into
// fixed-size windows with overlap
func (c *Chunker) forceSplit(text string, pageNumber *int, sectionTitle *string) []TextChunk {
	chunkChars := c.chunkSize * TokensPerChar
	stepChars := (c.chunkSize - c.chunkOverlap) * TokensPerChar

	runes := []rune(text)
	var chunks []TextChunk
	for start := 0; start < len(runes); start += stepChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		content := string(runes[start:end])
		chunks = append(chunks, TextChunk{
			Content:      content,
			TokenCount:   EstimateTokenCount(content),
			PageNumber:   pageNumber,
			SectionTitle: sectionTitle,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// overlapTail returns trailing segments from the previous chunk up to
// the overlap token budget
func (c *Chunker) overlapTail(segments []string) []string {
	var overlap []string
	overlapTokens := 0
	for i := len(segments) - 1; i >= 0; i-- {
		segTokens := EstimateTokenCount(segments[i])
		if overlapTokens+segTokens > c.chunkOverlap {
			break
		}
		overlap = append([]string{segments[i]}, overlap...)
		overlapTokens += segTokens
	}
	return overlap
}

// splitSentences splits text at sentence-ending punctuation followed
// by whitespace, keeping the punctuation with the preceding sentence
func splitSentences(text string) []string {
	bounds := sentencePattern.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}
	var out []string
	prev := 0
	for _, b := range bounds {
		// b[0]+1 keeps the terminator with its sentence.
		out = append(out, text[prev:b[0]+1])
		prev = b[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}
