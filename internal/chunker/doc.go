// Package chunker splits extracted planning document text into
// embedding-sized chunks.
//
// Chunking works top-down: paragraphs pack into chunks up to a token
// budget, over-budget paragraphs split at sentence boundaries, and a
// sentence that alone exceeds the budget is force-split by character
// windows. Adjacent chunks share a small overlap so context survives
// the cut. Token counts are estimated at four characters per token.
//
//	c := chunker.New(512, 50)
//	chunks := c.ChunkPages(pages)
//
// ChunkPages never lets a chunk span a page boundary, so every chunk
// keeps an unambiguous page number for citation.
package chunker
