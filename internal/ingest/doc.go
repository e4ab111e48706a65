// Package ingest loads planning documents into the store.
//
// The pipeline chunks each document's pages, embeds the chunk text in
// concurrent batches, and commits the document with all its chunks in
// one transaction. Cached queries for affected boroughs are
// invalidated after a successful run.
//
// Seed files are JSON arrays of documents with pre-extracted page
// text:
//
//	[{
//	  "name": "Camden Basement SPD",
//	  "borough": "Camden",
//	  "category": "basement",
//	  "pages": [{"page_number": 1, "content": "..."}]
//	}]
package ingest
