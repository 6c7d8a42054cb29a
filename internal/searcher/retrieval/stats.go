package retrieval

import (
	"reflect"
	"sync"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
)

// collectionStats caches the collection size (distinct documents in the
// index) for TF-IDF. The cached value is tagged with the identity of the
// index map it was derived from, so swapping in a different index instance
// recomputes automatically. Mutating the same instance in place does not
// change its identity; callers doing that must call reset explicitly.
type collectionStats struct {
	mu    sync.Mutex
	token uintptr
	size  int
	valid bool
}

// collectionSize returns the cached size for idx, computing and publishing it
// on first use or after the index identity changed.
func (s *collectionStats) collectionSize(idx index.Inverted) int {
	token := indexToken(idx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid && s.token == token {
		return s.size
	}
	s.size = idx.CollectionSize()
	s.token = token
	s.valid = true
	return s.size
}

func (s *collectionStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
}

// indexToken is the identity marker of an index instance. Two structurally
// identical maps have distinct tokens; the same map mutated in place keeps
// its token.
func indexToken(idx index.Inverted) uintptr {
	return reflect.ValueOf(idx).Pointer()
}
