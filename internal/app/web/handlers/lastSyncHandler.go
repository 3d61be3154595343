package handlers

import (
	"encoding/json"
	"net/http"

	"gomuzikstore_api/internal/store"
)

// LastSyncHandler отдаёт итог последнего запуска синхронизации.
type LastSyncHandler struct {
	syncLogs *store.SyncLogRepository
}

func NewLastSyncHandler(syncLogs *store.SyncLogRepository) *LastSyncHandler {
	return &LastSyncHandler{syncLogs: syncLogs}
}

func (h *LastSyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entry, err := h.syncLogs.Last(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch last sync log", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "No syncs recorded yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
