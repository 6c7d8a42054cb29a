package analytics

import (
	"encoding/json"
	"net/http"
)

// StatsHandler serves the aggregator's rollup as JSON.
func StatsHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(agg.Stats())
	}
}
