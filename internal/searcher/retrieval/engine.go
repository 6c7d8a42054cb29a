// Package retrieval implements the vector-space retrieval engine: given an
// inverted index and a term-frequency query, it ranks documents by cosine
// similarity under a binary, term-frequency, or TF-IDF weighting scheme.
//
// The engine holds the index by reference and never mutates it. Concurrent
// calls to ForQuery and Rank are safe against an index that is not being
// mutated; mutating the index during an in-flight call is a precondition
// violation the caller must prevent. The services in this repo satisfy the
// precondition by only ever publishing immutable snapshots via SetIndex.
package retrieval

import (
	"math"
	"sort"
	"sync"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
)

// Query is a single retrieval request: term → frequency.
type Query map[string]int

// ScoredDoc pairs a document ID with its cosine similarity to the query.
type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Engine ranks documents against queries under a fixed weighting scheme.
type Engine struct {
	mu     sync.RWMutex
	index  index.Inverted
	scheme Scheme
	weigh  weightFunc
	stats  collectionStats
}

// New creates an Engine over idx using the given weighting scheme. It fails
// with ErrUnknownScheme for a scheme outside the closed set.
func New(idx index.Inverted, scheme Scheme) (*Engine, error) {
	weigh, err := weightFuncFor(scheme)
	if err != nil {
		return nil, err
	}
	return &Engine{
		index:  idx,
		scheme: scheme,
		weigh:  weigh,
	}, nil
}

// Scheme returns the weighting scheme the engine was constructed with.
func (e *Engine) Scheme() Scheme {
	return e.scheme
}

// SetIndex swaps the engine onto a new index instance. The identity change
// invalidates the collection-size cache on next use. Not safe to call
// concurrently with in-flight queries unless the old index stays unmutated.
func (e *Engine) SetIndex(idx index.Inverted) {
	e.mu.Lock()
	e.index = idx
	e.mu.Unlock()
}

// ResetCollectionSize invalidates the lazy collection-size cache. Callers
// that mutate the current index in place must invoke this before the next
// TF-IDF query; swapping indexes via SetIndex does not require it.
func (e *Engine) ResetCollectionSize() {
	e.stats.reset()
}

// CollectionSize returns the number of distinct documents in the current
// index, computing and caching it if necessary.
func (e *Engine) CollectionSize() int {
	return e.stats.collectionSize(e.currentIndex())
}

// ForQuery ranks the documents matching the query and returns their IDs in
// descending order of similarity. An empty result is a valid outcome, never
// an error.
func (e *Engine) ForQuery(query Query) []int {
	ranked := e.Rank(query)
	ids := make([]int, len(ranked))
	for i, doc := range ranked {
		ids[i] = doc.DocID
	}
	return ids
}

// Rank computes cosine similarity between the query and every candidate
// document, returning candidates in descending score order. Ties are broken
// by ascending document ID, so output order is deterministic.
//
// The similarity denominator needs the full document magnitude, so the whole
// index is scanned once per call to accumulate candidate norms. Dot products
// then only touch the query's own posting lists.
func (e *Engine) Rank(query Query) []ScoredDoc {
	idx := e.currentIndex()

	candidates := selectCandidates(idx, query)
	if len(candidates) == 0 {
		return []ScoredDoc{}
	}

	// Sum of squared weights per candidate, over every term the document
	// contains, not just query terms.
	norms := make(map[int]float64, len(candidates))
	for term, postings := range idx {
		for docID, freq := range postings {
			if _, ok := candidates[docID]; !ok {
				continue
			}
			w := e.weigh(e, idx, term, freq)
			norms[docID] += w * w
		}
	}

	ranked := make([]ScoredDoc, 0, len(candidates))
	for docID := range candidates {
		var dot float64
		for term, queryFreq := range query {
			postings, ok := idx[term]
			if !ok {
				continue
			}
			docFreq, ok := postings[docID]
			if !ok {
				continue
			}
			dot += e.weigh(e, idx, term, queryFreq) * e.weigh(e, idx, term, docFreq)
		}
		score := 0.0
		// A zero norm is reachable under TF-IDF when every term of the
		// document occurs in all documents (idf 0). Score it 0 instead of
		// dividing by zero.
		if norm := norms[docID]; norm > 0 {
			score = dot / math.Sqrt(norm)
		}
		ranked = append(ranked, ScoredDoc{DocID: docID, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	return ranked
}

// selectCandidates returns the set of documents sharing at least one term
// with the query. Query terms absent from the index contribute nothing.
func selectCandidates(idx index.Inverted, query Query) map[int]struct{} {
	candidates := make(map[int]struct{})
	for term := range query {
		for docID := range idx[term] {
			candidates[docID] = struct{}{}
		}
	}
	return candidates
}

func (e *Engine) currentIndex() index.Inverted {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}
