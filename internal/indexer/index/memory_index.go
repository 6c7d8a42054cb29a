package index

import (
	"sync"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/tokenizer"
)

// MemoryIndex accumulates term postings from ingested documents under a
// read-write lock. It is the mutable side of the index; queries never touch
// it directly but run against immutable Inverted snapshots.
type MemoryIndex struct {
	mu         sync.RWMutex
	postings   Inverted
	docs       map[int]struct{}
	generation uint64
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		postings: make(Inverted),
		docs:     make(map[int]struct{}),
	}
}

// Add tokenises the document text and records its term frequencies in the
// index under the given document ID. Kafka delivers at least once, so the
// same event can arrive again after a crash between process and commit;
// frequencies are assigned rather than merged, making re-adds idempotent.
func (m *MemoryIndex) Add(docID int, title string, body string) {
	freqs := tokenizer.Vector(title + " " + body)

	m.mu.Lock()
	defer m.mu.Unlock()
	for term, freq := range freqs {
		if _, exists := m.postings[term]; !exists {
			m.postings[term] = make(map[int]int)
		}
		m.postings[term][docID] = freq
	}
	m.docs[docID] = struct{}{}
	m.generation++
}

// Snapshot returns a deep copy of the current postings. The copy is safe to
// hand to a retrieval engine while Add continues on the live index.
func (m *MemoryIndex) Snapshot() Inverted {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(Inverted, len(m.postings))
	for term, docs := range m.postings {
		copied := make(map[int]int, len(docs))
		for docID, freq := range docs {
			copied[docID] = freq
		}
		snapshot[term] = copied
	}
	return snapshot
}

// DocCount returns the number of distinct documents added so far.
func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// TermCount returns the number of distinct terms in the index.
func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings)
}

// Generation returns a counter incremented on every Add. The refresher uses
// it to detect when a new snapshot is worth publishing.
func (m *MemoryIndex) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Reset discards all postings.
func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = make(Inverted)
	m.docs = make(map[int]struct{})
	m.generation++
}
