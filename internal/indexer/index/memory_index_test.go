package index

import (
	"sync"
	"testing"
)

func TestAddAccumulatesFrequencies(t *testing.T) {
	mi := NewMemoryIndex()
	mi.Add(1, "cats and dogs", "the cat chased the dog")
	mi.Add(2, "dogs", "dog dog dog")

	snapshot := mi.Snapshot()
	if df := snapshot.DocumentFrequency("dog"); df != 2 {
		t.Errorf("df(dog) = %d, want 2", df)
	}
	if freq := snapshot["dog"][2]; freq != 4 {
		t.Errorf("freq(dog, doc 2) = %d, want 4", freq)
	}
	if mi.DocCount() != 2 {
		t.Errorf("doc count = %d, want 2", mi.DocCount())
	}
}

func TestAddIsIdempotentOnRedelivery(t *testing.T) {
	mi := NewMemoryIndex()
	mi.Add(1, "cat", "cat chased dog")
	mi.Add(1, "cat", "cat chased dog")

	snapshot := mi.Snapshot()
	if freq := snapshot["cat"][1]; freq != 2 {
		t.Errorf("freq(cat, doc 1) = %d after redelivery, want 2", freq)
	}
	if freq := snapshot["dog"][1]; freq != 1 {
		t.Errorf("freq(dog, doc 1) = %d after redelivery, want 1", freq)
	}
	if mi.DocCount() != 1 {
		t.Errorf("doc count = %d after redelivery, want 1", mi.DocCount())
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	mi := NewMemoryIndex()
	mi.Add(1, "cat", "cat")

	snapshot := mi.Snapshot()
	before := snapshot.CollectionSize()

	mi.Add(2, "dog", "dog")
	if got := snapshot.CollectionSize(); got != before {
		t.Errorf("snapshot changed after Add: %d -> %d", before, got)
	}

	fresh := mi.Snapshot()
	if got := fresh.CollectionSize(); got != 2 {
		t.Errorf("fresh snapshot collection size = %d, want 2", got)
	}
}

func TestGenerationAdvances(t *testing.T) {
	mi := NewMemoryIndex()
	g0 := mi.Generation()
	mi.Add(1, "cat", "cat")
	if mi.Generation() == g0 {
		t.Error("generation did not advance after Add")
	}
}

func TestResetClearsIndex(t *testing.T) {
	mi := NewMemoryIndex()
	mi.Add(1, "cat", "cat")
	mi.Reset()
	if mi.DocCount() != 0 || mi.TermCount() != 0 {
		t.Errorf("reset left docs=%d terms=%d", mi.DocCount(), mi.TermCount())
	}
}

func TestConcurrentAddAndSnapshot(t *testing.T) {
	mi := NewMemoryIndex()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(docID int) {
			defer wg.Done()
			mi.Add(docID, "concurrent", "concurrent indexing test document")
			_ = mi.Snapshot()
		}(i)
	}
	wg.Wait()
	if mi.DocCount() != 8 {
		t.Errorf("doc count = %d, want 8", mi.DocCount())
	}
}

func TestCollectionSizeCountsDistinctDocs(t *testing.T) {
	inv := Inverted{
		"cat": {1: 2, 2: 1},
		"dog": {2: 3, 3: 1},
	}
	if got := inv.CollectionSize(); got != 3 {
		t.Errorf("collection size = %d, want 3", got)
	}
	if got := inv.DocumentFrequency("absent"); got != 0 {
		t.Errorf("df(absent) = %d, want 0", got)
	}
}
