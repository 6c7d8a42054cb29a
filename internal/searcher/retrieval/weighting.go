package retrieval

import (
	"fmt"
	"math"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/errors"
)

// Scheme selects how raw term frequencies are mapped into vector-space
// weights. The set is closed; an Engine is bound to one Scheme at
// construction and never changes it.
type Scheme int

const (
	// Binary weights every present term as 1, ignoring frequency.
	Binary Scheme = iota
	// TermFrequency uses the raw frequency as the weight.
	TermFrequency
	// TFIDF scales frequency by the inverse document frequency of the term.
	TFIDF
)

// String returns the config-file name of the scheme.
func (s Scheme) String() string {
	switch s {
	case Binary:
		return "binary"
	case TermFrequency:
		return "tf"
	case TFIDF:
		return "tfidf"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme maps a config string to a Scheme. Unrecognised names fail with
// ErrUnknownScheme rather than silently defaulting.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "binary":
		return Binary, nil
	case "tf":
		return TermFrequency, nil
	case "tfidf":
		return TFIDF, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownScheme, name)
	}
}

// weightFunc computes the weight of a term occurrence. idx is the snapshot
// the surrounding computation runs against, so TF-IDF document frequencies
// are consistent with the norms and dot products built from it.
type weightFunc func(e *Engine, idx index.Inverted, term string, freq int) float64

func binaryWeight(_ *Engine, _ index.Inverted, _ string, _ int) float64 {
	return 1
}

func tfWeight(_ *Engine, _ index.Inverted, _ string, freq int) float64 {
	return float64(freq)
}

// tfidfWeight requires term to be present in idx; calling it on an unindexed
// term is a programming error in the caller, not a recoverable condition.
func tfidfWeight(e *Engine, idx index.Inverted, term string, freq int) float64 {
	df := idx.DocumentFrequency(term)
	if df == 0 {
		panic("retrieval: tf-idf weighting invoked for term absent from index: " + term)
	}
	idf := math.Log(float64(e.stats.collectionSize(idx)) / float64(df))
	return float64(freq) * idf
}

func weightFuncFor(scheme Scheme) (weightFunc, error) {
	switch scheme {
	case Binary:
		return binaryWeight, nil
	case TermFrequency:
		return tfWeight, nil
	case TFIDF:
		return tfidfWeight, nil
	default:
		return nil, fmt.Errorf("%w: %d", errors.ErrUnknownScheme, int(scheme))
	}
}
