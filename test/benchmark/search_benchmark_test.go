package benchmark

import (
	"fmt"
	"testing"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/tokenizer"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
)

// buildCorpus indexes numDocs synthetic documents drawn from a small rotating
// vocabulary so posting lists overlap the way real corpora do.
func buildCorpus(numDocs int) index.Inverted {
	topics := []string{
		"distributed vector retrieval with cosine similarity ranking",
		"inverted index structures for full text search engines",
		"term frequency weighting and inverse document frequency",
		"caching layers reduce latency for repeated search queries",
		"kafka pipelines stream documents into the memory index",
	}
	mi := index.NewMemoryIndex()
	for i := 0; i < numDocs; i++ {
		body := topics[i%len(topics)]
		mi.Add(i, fmt.Sprintf("document %d", i), body)
	}
	return mi.Snapshot()
}

// BenchmarkRank measures end-to-end ranking latency for each weighting scheme
// at different corpus sizes. Ranking scans the whole index to compute
// document norms, so this grows with corpus size rather than result count.
func BenchmarkRank(b *testing.B) {
	schemes := []retrieval.Scheme{
		retrieval.Binary,
		retrieval.TermFrequency,
		retrieval.TFIDF,
	}
	sizes := []int{100, 1000, 10000}
	query := tokenizer.Vector("vector retrieval ranking")

	for _, scheme := range schemes {
		for _, numDocs := range sizes {
			b.Run(fmt.Sprintf("%s/docs_%d", scheme, numDocs), func(b *testing.B) {
				engine, err := retrieval.New(buildCorpus(numDocs), scheme)
				if err != nil {
					b.Fatalf("New: %v", err)
				}
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					ranked := engine.Rank(query)
					_ = ranked
				}
			})
		}
	}
}

// BenchmarkForQuery measures the id-only entry point, which shares the full
// ranking path with Rank but allocates only the result slice.
func BenchmarkForQuery(b *testing.B) {
	engine, err := retrieval.New(buildCorpus(10000), retrieval.TFIDF)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	query := tokenizer.Vector("inverted index search")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ids := engine.ForQuery(query)
		_ = ids
	}
}

// BenchmarkRankParallel measures concurrent query throughput against a shared
// engine, the steady-state shape of the search service.
func BenchmarkRankParallel(b *testing.B) {
	engine, err := retrieval.New(buildCorpus(10000), retrieval.TFIDF)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	query := tokenizer.Vector("cosine similarity weighting")
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ranked := engine.Rank(query)
			_ = ranked
		}
	})
}

// BenchmarkCollectionSizeCached verifies that repeated ranking under tf-idf
// reuses the cached collection size instead of rescanning the index.
func BenchmarkCollectionSizeCached(b *testing.B) {
	engine, err := retrieval.New(buildCorpus(10000), retrieval.TFIDF)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := engine.CollectionSize()
		_ = n
	}
}
