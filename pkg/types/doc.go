// Package types provides shared type definitions for the planrag engine.
//
// This package defines the domain types used across the retrieval core:
// documents, chunks, and search results.
//
// # Core Types
//
// Document represents an ingested planning document scoped to a borough
// and category:
//
//	doc := &types.Document{
//	    ID:       uuid.NewString(),
//	    Name:     "Camden Local Plan 2017",
//	    Borough:  types.BoroughCamden,
//	    Category: types.CategoryLocalPlan,
//	    IsActive: true,
//	}
//
// Chunk is the atomic unit of retrieval, a bounded span of document text
// with a fixed-dimension embedding:
//
//	chunk := &types.Chunk{
//	    DocumentID: doc.ID,
//	    Content:    sectionText,
//	    Embedding:  vector,
//	}
//
// SearchResult combines a chunk with its vector, text, and combined
// relevance scores. Vector scores are cosine similarities in [0, 1];
// combined scores are the fusion of both under caller-supplied weights.
//
// # Validation
//
// Domain types implement Validate methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
