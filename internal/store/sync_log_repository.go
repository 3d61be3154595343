package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gomuzikstore_api/internal/models"
)

// SyncLogRepository — доступ к журналу запусков синхронизации.
type SyncLogRepository struct {
	db *sql.DB
}

func NewSyncLogRepository(db *sql.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Insert записывает итог одного запуска и проставляет ID.
func (r *SyncLogRepository) Insert(ctx context.Context, entry *models.SyncLog) error {
	query := `
		INSERT INTO store.sync_logs (started_at, finished_at, attempted, succeeded, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.StartedAt, entry.FinishedAt, entry.Attempted, entry.Succeeded, entry.Failed, entry.Error,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// Last возвращает последний по времени запуск, (nil, nil) если запусков не было.
func (r *SyncLogRepository) Last(ctx context.Context) (*models.SyncLog, error) {
	query := `
		SELECT id, started_at, finished_at, attempted, succeeded, failed, COALESCE(error, '')
		FROM store.sync_logs
		ORDER BY id DESC
		LIMIT 1
	`
	var entry models.SyncLog
	err := r.db.QueryRowContext(ctx, query).Scan(
		&entry.ID, &entry.StartedAt, &entry.FinishedAt,
		&entry.Attempted, &entry.Succeeded, &entry.Failed, &entry.Error,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last sync log: %w", err)
	}
	return &entry, nil
}
