package models

import "time"

// SyncLog — запись об одном запуске синхронизации фида.
// Хранится в store.sync_logs, используется админкой для отчёта "N of M synced".
type SyncLog struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"` // пусто при успешном запуске
}
