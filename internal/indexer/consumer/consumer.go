// Package consumer reads ingest events from Kafka and feeds them into the
// in-memory inverted index, updating document status in the store.
package consumer

import (
	"context"
	"log/slog"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/docstore"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/kafka"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/metrics"
)

// HandleIngest returns a Kafka MessageHandler that indexes every ingest
// event into the memory index. If store is non-nil, the document's status is
// moved from PENDING to INDEXED afterwards; if m is non-nil, the indexed
// counter is incremented.
func HandleIngest(mi *index.MemoryIndex, store *docstore.Store, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			// Malformed payloads are logged and skipped; retrying cannot fix them.
			logger.Error("failed to decode ingest event", "key", string(key), "error", err)
			return nil
		}

		mi.Add(event.DocumentID, event.Title, event.Body)
		if m != nil {
			m.DocsIndexedTotal.Inc()
		}

		if store != nil {
			if err := store.UpdateStatus(ctx, event.DocumentID, docstore.StatusIndexed); err != nil {
				logger.Error("failed to update document status",
					"doc_id", event.DocumentID,
					"error", err,
				)
			}
		}

		logger.Debug("document indexed", "doc_id", event.DocumentID)
		return nil
	}
}
