package handlers

import (
	"encoding/json"
	"net/http"

	appsync "gomuzikstore_api/internal/sync"
)

// SyncHandler — триггер синхронизации фида из админки.
// Отвечает контрактом {success, count, error?}.
type SyncHandler struct {
	service *appsync.Service
}

func NewSyncHandler(service *appsync.Service) *SyncHandler {
	return &SyncHandler{service: service}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.service.Run(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !report.Success {
		w.WriteHeader(http.StatusBadGateway)
	}
	if err := json.NewEncoder(w).Encode(report); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
