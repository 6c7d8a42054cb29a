package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Vector space retrieval ranks documents by the cosine of the angle
        between the query vector and each document vector. The inverted index maps
        each term to the documents containing it along with its raw frequency.
        Candidate documents are selected by boolean union over the query terms and
        scored under a configurable weighting scheme.`,
	"long": strings.Repeat(`Information retrieval systems form the backbone of modern
        search infrastructure. These systems combine tokenization, stemming, and stop
        word removal to normalize text into searchable terms. The inverted index maps
        each term to the documents containing it together with term frequencies.
        Cosine similarity under binary, term frequency, or tf-idf weighting produces
        relevance scores, and caching layers reduce latency for repeated queries. `, 20),
}

func BenchmarkTerms(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				terms := tokenizer.Terms(text)
				_ = terms
			}
		})
	}
}

func BenchmarkVector(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		vec := tokenizer.Vector(text)
		_ = vec
	}
}

func BenchmarkTermsParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			terms := tokenizer.Terms(text)
			_ = terms
		}
	})
}

func BenchmarkTermsVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "vector retrieval cosine similarity weighting indexing "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				terms := tokenizer.Terms(text)
				_ = terms
			}
		})
	}
}
