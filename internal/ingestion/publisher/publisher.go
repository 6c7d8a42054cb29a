// Package publisher emits ingest events to the document-ingest Kafka topic.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/kafka"
)

// Publisher wraps the Kafka producer for ingest events.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher over the given producer.
func New(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "ingest-publisher"),
	}
}

// PublishDocument emits an IngestEvent for a freshly persisted document. The
// document ID keys the message so re-ingests of the same document land on
// the same partition.
func (p *Publisher) PublishDocument(ctx context.Context, docID int, title, body string) error {
	event := ingestion.IngestEvent{
		DocumentID: docID,
		Title:      title,
		Body:       body,
		IngestedAt: time.Now().UTC(),
	}
	if err := p.producer.Publish(ctx, kafka.Event{
		Key:   strconv.Itoa(docID),
		Value: event,
	}); err != nil {
		return fmt.Errorf("publishing ingest event for document %d: %w", docID, err)
	}
	p.logger.Debug("ingest event published", "doc_id", docID)
	return nil
}

// Close flushes and closes the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
