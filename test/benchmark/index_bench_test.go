// Package benchmark contains Go benchmarks for the memory index, tokenizer,
// and retrieval engine, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
)

// BenchmarkMemoryIndexAdd measures per-document insert throughput into the
// in-memory inverted index.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	mi := index.NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mi.Add(i, "benchmark title", "this is a benchmark document with several terms for testing the indexing performance of our memory index")
	}
}

// BenchmarkMemoryIndexSnapshot measures deep-copy cost at different corpus
// sizes. Snapshots are taken on every refresh tick, so this bounds how often
// the engine can pick up new documents.
func BenchmarkMemoryIndexSnapshot(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			mi := index.NewMemoryIndex()
			for i := 0; i < numDocs; i++ {
				mi.Add(i, "vector retrieval", fmt.Sprintf("document %d about cosine similarity ranking and inverted index structures", i))
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				snap := mi.Snapshot()
				_ = snap
			}
		})
	}
}

// BenchmarkMemoryIndexAddParallelReads measures snapshot reads racing with
// ongoing writes.
func BenchmarkMemoryIndexAddParallelReads(b *testing.B) {
	mi := index.NewMemoryIndex()
	for i := 0; i < 1000; i++ {
		mi.Add(i, "seed", "seed document for concurrent read benchmark")
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = mi.DocCount()
			_ = mi.TermCount()
		}
	})
}

// BenchmarkCollectionSize measures the full-index scan that computes the
// number of distinct documents.
func BenchmarkCollectionSize(b *testing.B) {
	mi := index.NewMemoryIndex()
	for i := 0; i < 10000; i++ {
		mi.Add(i, "vector retrieval", "cosine similarity ranking over an inverted index")
	}
	snap := mi.Snapshot()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := snap.CollectionSize()
		_ = n
	}
}
