package sync

import (
	"context"
	"fmt"
	stdsync "sync"

	"golang.org/x/time/rate"

	"gomuzikstore_api/internal/models"
	"gomuzikstore_api/metrics"
	"gomuzikstore_api/pkg/logger"
)

// ProductStore — контракт хранилища со стороны сверки.
type ProductStore interface {
	Upsert(ctx context.Context, product models.Product) error
}

// PersistenceError — ошибка записи одного товара в хранилище.
// Не фатальна для пакета: товар пропускается, остальные продолжаются.
type PersistenceError struct {
	ExternalID string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist product %s: %v", e.ExternalID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ItemError — диагностика по одному неудачному товару в итоге запуска.
type ItemError struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// Summary — агрегированный итог сверки пакета.
type Summary struct {
	Attempted int         `json:"attempted"`
	Succeeded int         `json:"succeeded"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// Reconciler выполняет идемпотентный create-or-update пакета товаров
// по external_id. Ошибка одного товара логируется и не прерывает остальные.
type Reconciler struct {
	store   ProductStore
	log     logger.Logger
	workers int
	limiter *rate.Limiter

	// stats — накопительные счётчики за время жизни процесса.
	stats metrics.SyncMetrics
}

const defaultWorkers = 4

func NewReconciler(store ProductStore, log logger.Logger, workers int, limiter *rate.Limiter) *Reconciler {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Reconciler{
		store:   store,
		log:     log,
		workers: workers,
		limiter: limiter,
	}
}

// Reconcile прогоняет пакет через upsert хранилища.
// Перед параллельной фазой пакет дедуплицируется по external_id
// (последнее вхождение в порядке фида побеждает), поэтому два upsert
// по одному ключу никогда не гонятся между собой.
func (r *Reconciler) Reconcile(ctx context.Context, products []models.Product) Summary {
	summary := Summary{Attempted: len(products)}

	var valid []models.Product
	for i, product := range products {
		if product.ExternalID == "" {
			r.log.Log("skip product #%d: empty external id (name=%q)", i, product.Name)
			summary.Errors = append(summary.Errors, ItemError{
				ExternalID: "",
				Reason:     "empty external id",
			})
			continue
		}
		valid = append(valid, product)
	}

	// Схлопнутые дубликаты разделяют судьбу выжившего вхождения:
	// успех upsert засчитывает все вхождения ключа, отказ — ни одного.
	occurrences := make(map[string]int, len(valid))
	for _, product := range valid {
		occurrences[product.ExternalID]++
	}
	deduplicated := dedupeByExternalID(valid)

	var mu stdsync.Mutex
	var wg stdsync.WaitGroup

	r.stats.WorkersCount.Store(int32(r.workers))
	jobs := make(chan models.Product)

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for product := range jobs {
				err := r.upsert(ctx, product)
				r.stats.ProcessedCount.Add(1)
				if err == nil {
					r.stats.UpsertedCount.Add(1)
				} else {
					r.stats.ErroredProducts.Add(1)
				}

				mu.Lock()
				if err != nil {
					r.log.Log("reconcile error: %v", err)
					summary.Errors = append(summary.Errors, ItemError{
						ExternalID: product.ExternalID,
						Reason:     err.Error(),
					})
				} else {
					summary.Succeeded += occurrences[product.ExternalID]
				}
				mu.Unlock()
			}
		}()
	}

	for _, product := range deduplicated {
		jobs <- product
	}
	close(jobs)
	wg.Wait()

	return summary
}

// Stats возвращает накопительные счётчики сверки.
func (r *Reconciler) Stats() *metrics.SyncMetrics {
	return &r.stats
}

func (r *Reconciler) upsert(ctx context.Context, product models.Product) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return &PersistenceError{ExternalID: product.ExternalID, Err: err}
		}
	}
	if err := r.store.Upsert(ctx, product); err != nil {
		return &PersistenceError{ExternalID: product.ExternalID, Err: err}
	}
	return nil
}

// dedupeByExternalID оставляет по одному товару на external_id,
// побеждает последнее вхождение. Порядок остальных сохраняется.
func dedupeByExternalID(products []models.Product) []models.Product {
	seen := make(map[string]int, len(products))
	var result []models.Product

	for _, product := range products {
		if idx, ok := seen[product.ExternalID]; ok {
			result[idx] = product
			continue
		}
		seen[product.ExternalID] = len(result)
		result = append(result, product)
	}
	return result
}
