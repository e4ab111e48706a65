// Package engine implements hybrid retrieval over planning guidance,
// combining vector similarity and trigram text matching.
//
// # Basic Usage
//
//	eng := engine.New(store, queryCache, engine.Options{})
//
//	resp, err := eng.Search(ctx, engine.SearchRequest{
//	    QueryText:      "basement extension in camden",
//	    QueryEmbedding: embedding,
//	    Limit:          20,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("%.3f %s (%s p.%v)\n",
//	        r.CombinedScore, r.DocumentName, r.Borough, r.PageNumber)
//	}
//
// # Score Fusion
//
// Both rankers run concurrently, each over-fetching twice the
// requested limit so chunks present in only one ranking still have a
// chance to place. Their scores merge by weighted sum:
//
//	combined = vectorWeight*vectorScore + textWeight*textScore
//
// A chunk missing from one ranking contributes zero for that score.
// Default weights are 0.7 vector, 0.3 text; a request may override
// both. Ordering is combined score descending with chunk ID as the
// tie-break, so equal scores always list in a stable order.
//
// # Filtering
//
// Requests may scope results by borough and category:
//
//	resp, _ := eng.Search(ctx, engine.SearchRequest{
//	    QueryText:      "roof windows",
//	    QueryEmbedding: embedding,
//	    Borough:        "Camden",
//	    Category:       "conservation_area",
//	})
//
// DetectFilters derives these from free text when the caller has
// none, recognizing borough names, neighbourhoods, postcode districts
// and planning topics.
//
// # Caching
//
// Fused result sets are cached under a fingerprint of the normalized
// query and borough scope. Repeat queries are served from cache until
// the entry expires, with results marked FromCache. BypassCache
// forces a fresh search without disturbing the cached entry.
package engine
