package index

// Inverted is the inverted index consumed by the retrieval engine: a mapping
// from term to posting list, where each posting list maps a document ID to
// the term's raw frequency in that document.
//
// The retrieval engine holds an Inverted by reference and never mutates it.
// Callers that mutate an Inverted in place after handing it to an engine must
// invalidate the engine's collection-size cache; swapping in a fresh snapshot
// (the pattern the services use) makes invalidation automatic.
type Inverted map[string]map[int]int

// DocumentFrequency returns the number of documents containing term.
func (inv Inverted) DocumentFrequency(term string) int {
	return len(inv[term])
}

// CollectionSize counts the distinct documents appearing anywhere in the
// index. This is a full scan; the retrieval engine caches the result.
func (inv Inverted) CollectionSize() int {
	docs := make(map[int]struct{})
	for _, postings := range inv {
		for docID := range postings {
			docs[docID] = struct{}{}
		}
	}
	return len(docs)
}
