// Package handler serves the ingestion HTTP API: documents are validated,
// persisted to the document store, and announced on Kafka for indexing.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/docstore"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion/publisher"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion/validator"
	pkgerrors "github.com/nishanth-tharma/vector-retrieval-platform/pkg/errors"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/logger"
)

// Handler accepts document ingestion requests.
type Handler struct {
	store     *docstore.Store
	publisher *publisher.Publisher
	logger    *slog.Logger
}

// New creates a Handler over the given store and publisher.
func New(store *docstore.Store, pub *publisher.Publisher) *Handler {
	return &Handler{
		store:     store,
		publisher: pub,
		logger:    slog.Default().With("component", "ingest-handler"),
	}
}

// Ingest handles POST /documents. The document is durable once stored in
// Postgres; indexing happens asynchronously, so the response is 202.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ingestion.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validator.ValidateIngestRequest(&req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	docID, err := h.store.Insert(ctx, req.Title, req.Body)
	if err != nil {
		log.Error("document insert failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	if err := h.publisher.PublishDocument(ctx, docID, req.Title, req.Body); err != nil {
		log.Error("ingest event publish failed", "doc_id", docID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to queue document for indexing")
		return
	}

	log.Info("document accepted", "doc_id", docID)
	h.writeJSON(w, http.StatusAccepted, ingestion.IngestResponse{
		DocumentID: docID,
		Status:     docstore.StatusPending,
	})
}

// GetDocument handles GET /documents?id=N.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	doc, err := h.store.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("document lookup failed", "doc_id", id, "error", err)
		h.writeError(w, statusFor(err), "document lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest, "invalid document id")
	}
	return id, nil
}

func statusFor(err error) int {
	return pkgerrors.HTTPStatusCode(err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
