// Package embedder generates vector embeddings for planning document
// chunks and search queries.
//
// Two providers are available:
//
//   - openai: text-embedding-3-large via the OpenAI API (3072
//     dimensions), with exponential backoff retry
//   - local: deterministic hash-derived vectors for offline
//     development and tests
//
// Provider selection reads PLANRAG_EMBEDDING_PROVIDER, falling back
// to openai when OPENAI_API_KEY is set and local otherwise:
//
//	emb, err := embedder.NewFromEnv(cfg.EmbeddingDim)
//
//	e, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "basement extension guidance",
//	})
//
// Embeddings are cached in-process by content hash, so re-embedding
// identical chunk text during ingest costs nothing.
package embedder
