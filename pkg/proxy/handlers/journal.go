package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/RichardSufliarsky/apikeywall/pkg/journal"
)

const defaultJournalLimit = 50

// JournalLister lists reload journal entries.
type JournalLister interface {
	List(ctx context.Context, q journal.Query) ([]journal.Entry, error)
}

// JournalHandler serves recent reload attempts as JSON.
//
// Query parameters:
//   - limit: maximum number of entries (default 50)
//   - outcome: only entries with this outcome
//   - since: RFC 3339 lower bound on the entry time
type JournalHandler struct {
	lister JournalLister
}

// NewJournalHandler creates a journal handler.
func NewJournalHandler(lister JournalLister) *JournalHandler {
	return &JournalHandler{lister: lister}
}

// ServeHTTP implements http.Handler.
func (h *JournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := journal.Query{Limit: defaultJournalLimit, Outcome: r.URL.Query().Get("outcome")}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		q.Limit = n
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		q.Since = since
	}

	entries, err := h.lister.List(r.Context(), q)
	if err != nil {
		http.Error(w, "failed to read journal", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
	})
}
