package sync

import (
	"context"
	stdsync "sync"
	"time"

	"gomuzikstore_api/internal/feed"
	"gomuzikstore_api/internal/models"
	"gomuzikstore_api/metrics"
	"gomuzikstore_api/pkg/logger"
)

// SyncLogStore — журнал запусков со стороны сервиса.
type SyncLogStore interface {
	Insert(ctx context.Context, entry *models.SyncLog) error
}

// Report — контракт сервиса перед вызывающей стороной (кнопка в админке
// или планировщик): {success, count, error?} плюс диагностика по товарам.
type Report struct {
	Success   bool        `json:"success"`
	Count     int         `json:"count"`
	Error     string      `json:"error,omitempty"`
	Attempted int         `json:"attempted"`
	Errors    []ItemError `json:"item_errors,omitempty"`
}

// Service — конвейер синхронизации фида: fetch -> parse -> normalize -> reconcile.
// Ошибки fetch/parse фатальны для запуска (без документа спасать нечего),
// ошибки normalize/reconcile — попозиционные.
type Service struct {
	feedURL      string
	fetchTimeout time.Duration

	fetcher    feed.Fetcher
	parser     *feed.Parser
	normalizer *feed.Normalizer
	reconciler *Reconciler
	syncLogs   SyncLogStore
	log        logger.Logger

	mu stdsync.Mutex // защита от перекрывающихся запусков в одном процессе
}

func NewService(
	feedURL string,
	fetchTimeout time.Duration,
	fetcher feed.Fetcher,
	parser *feed.Parser,
	normalizer *feed.Normalizer,
	reconciler *Reconciler,
	syncLogs SyncLogStore,
	log logger.Logger,
) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = 2 * time.Minute
	}
	return &Service{
		feedURL:      feedURL,
		fetchTimeout: fetchTimeout,
		fetcher:      fetcher,
		parser:       parser,
		normalizer:   normalizer,
		reconciler:   reconciler,
		syncLogs:     syncLogs,
		log:          log,
	}
}

// Run выполняет один запуск синхронизации целиком.
func (s *Service) Run(ctx context.Context) Report {
	if !s.mu.TryLock() {
		return Report{Success: false, Error: "sync already running"}
	}
	defer s.mu.Unlock()

	startedAt := time.Now()
	s.log.Log("sync started, feed url: %s", s.feedURL)

	report := s.run(ctx)

	duration := time.Since(startedAt)
	status := "success"
	if !report.Success {
		status = "failure"
	}
	failed := report.Attempted - report.Count
	metrics.RecordSyncRun(status, duration, report.Count, failed)

	s.writeSyncLog(ctx, startedAt, report)

	if report.Success {
		stats := s.reconciler.Stats()
		s.log.Log("sync finished: %d of %d products in %v (total processed=%d upserted=%d errors=%d)",
			report.Count, report.Attempted, duration,
			stats.ProcessedCount.Load(), stats.UpsertedCount.Load(), stats.ErroredProducts.Load())
	} else {
		s.log.Log("sync failed after %v: %s", duration, report.Error)
	}
	return report
}

func (s *Service) run(ctx context.Context) Report {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	raw, err := s.fetcher.Fetch(fetchCtx, s.feedURL)
	if err != nil {
		return Report{Success: false, Error: err.Error()}
	}

	root, err := s.parser.Parse(raw)
	if err != nil {
		return Report{Success: false, Error: err.Error()}
	}

	nodes := feed.ProductNodes(root)

	products := make([]models.Product, 0, len(nodes))
	var invalid []ItemError
	for i, node := range nodes {
		product, err := s.normalizer.Normalize(node)
		if err != nil {
			s.log.Log("skip feed item #%d: %v", i, err)
			invalid = append(invalid, ItemError{Reason: err.Error()})
			continue
		}
		products = append(products, product)
	}

	summary := s.reconciler.Reconcile(ctx, products)

	return Report{
		Success:   true,
		Count:     summary.Succeeded,
		Attempted: len(nodes),
		Errors:    append(invalid, summary.Errors...),
	}
}

func (s *Service) writeSyncLog(ctx context.Context, startedAt time.Time, report Report) {
	if s.syncLogs == nil {
		return
	}
	entry := &models.SyncLog{
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Attempted:  report.Attempted,
		Succeeded:  report.Count,
		Failed:     report.Attempted - report.Count,
		Error:      report.Error,
	}
	if err := s.syncLogs.Insert(ctx, entry); err != nil {
		// Журнал — диагностика, его недоступность не валит запуск.
		s.log.Log("failed to write sync log: %v", err)
	}
}
