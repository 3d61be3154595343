package sync

import (
	"context"
	"errors"
	"io"
	"strconv"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomuzikstore_api/internal/models"
	"gomuzikstore_api/pkg/logger"
)

// memStore — хранилище в памяти для тестов сверки.
type memStore struct {
	mu      stdsync.Mutex
	rows    map[string]models.Product
	failIDs map[string]bool
	upserts int
}

func newMemStore() *memStore {
	return &memStore{
		rows:    make(map[string]models.Product),
		failIDs: make(map[string]bool),
	}
}

func (s *memStore) Upsert(ctx context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts++
	if s.failIDs[product.ExternalID] {
		return errors.New("constraint violation")
	}
	s.rows[product.ExternalID] = product
	return nil
}

func (s *memStore) snapshot() map[string]models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(map[string]models.Product, len(s.rows))
	for k, v := range s.rows {
		copied[k] = v
	}
	return copied
}

func testLogger() logger.Logger {
	return logger.NewLogger(io.Discard, "[test]")
}

func product(id, name string, price float64) models.Product {
	return models.Product{ExternalID: id, Name: name, Price: price, Currency: "TRY"}
}

func TestReconcileCreatesAndCounts(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, testLogger(), 2, nil)

	summary := r.Reconcile(context.Background(), []models.Product{
		product("1", "Gitar", 100),
		product("2", "Keman", 200),
		product("3", "Ukulele", 300),
	})

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Empty(t, summary.Errors)
	assert.Len(t, store.snapshot(), 3)
}

func TestReconcileIdempotent(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, testLogger(), 2, nil)

	batch := []models.Product{
		product("1", "Gitar", 100),
		product("2", "Keman", 200),
	}

	first := r.Reconcile(context.Background(), batch)
	afterFirst := store.snapshot()

	second := r.Reconcile(context.Background(), batch)
	afterSecond := store.snapshot()

	// Повторный прогон того же пакета не меняет состояние хранилища.
	assert.Equal(t, first.Succeeded, second.Succeeded)
	assert.Equal(t, afterFirst, afterSecond)
	assert.Len(t, afterSecond, 2)
}

func TestReconcileEmptyExternalIDIsolated(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, testLogger(), 2, nil)

	summary := r.Reconcile(context.Background(), []models.Product{
		product("1", "Gitar", 100),
		product("", "Kayıp kimlik", 50),
		product("3", "Ukulele", 300),
	})

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Errors, 1)
	assert.Empty(t, summary.Errors[0].ExternalID)
	assert.Contains(t, summary.Errors[0].Reason, "empty external id")

	// Невалидная запись не попала в хранилище и не сорвала остальные.
	assert.Len(t, store.snapshot(), 2)
}

func TestReconcilePersistenceFailureIsolated(t *testing.T) {
	store := newMemStore()
	store.failIDs["2"] = true
	r := NewReconciler(store, testLogger(), 3, nil)

	summary := r.Reconcile(context.Background(), []models.Product{
		product("1", "Gitar", 100),
		product("2", "Keman", 200),
		product("3", "Ukulele", 300),
		product("4", "Bağlama", 400),
	})

	assert.Equal(t, 4, summary.Attempted)
	assert.Equal(t, 3, summary.Succeeded)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "2", summary.Errors[0].ExternalID)
	assert.Contains(t, summary.Errors[0].Reason, "constraint violation")
}

func TestReconcileDuplicateIDsLastWriteWins(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, testLogger(), 4, nil)

	summary := r.Reconcile(context.Background(), []models.Product{
		product("1", "Eski isim", 100),
		product("2", "Keman", 200),
		product("1", "Yeni isim", 150),
	})

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Empty(t, summary.Errors)

	rows := store.snapshot()
	require.Len(t, rows, 2)
	assert.Equal(t, "Yeni isim", rows["1"].Name)
	assert.Equal(t, 150.0, rows["1"].Price)

	// Дубликат схлопнут до параллельной фазы: по ключу один upsert.
	assert.Equal(t, 2, store.upserts)
}

func TestReconcileDuplicateIDsFailureNotCounted(t *testing.T) {
	store := newMemStore()
	store.failIDs["1"] = true
	r := NewReconciler(store, testLogger(), 1, nil)

	summary := r.Reconcile(context.Background(), []models.Product{
		product("1", "Eski isim", 100),
		product("1", "Yeni isim", 150),
	})

	// Оба вхождения ключа схлопнуты в один upsert; его отказ не должен
	// засчитывать ни одно из них как успешное.
	assert.Equal(t, 2, summary.Attempted)
	assert.Zero(t, summary.Succeeded)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "1", summary.Errors[0].ExternalID)
	assert.Empty(t, store.snapshot())
}

func TestReconcileDuplicateIDsMixedOutcomes(t *testing.T) {
	store := newMemStore()
	store.failIDs["2"] = true
	r := NewReconciler(store, testLogger(), 2, nil)

	summary := r.Reconcile(context.Background(), []models.Product{
		product("1", "Gitar", 100),
		product("2", "Keman", 200),
		product("1", "Gitar v2", 120),
		product("2", "Keman v2", 220),
	})

	// Ключ "1" прошёл — оба его вхождения засчитаны; ключ "2" упал —
	// ни одно из его вхождений не засчитано.
	assert.Equal(t, 4, summary.Attempted)
	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "2", summary.Errors[0].ExternalID)
	assert.Len(t, store.snapshot(), 1)
}

func TestReconcileStatsAccumulate(t *testing.T) {
	store := newMemStore()
	store.failIDs["2"] = true
	r := NewReconciler(store, testLogger(), 2, nil)

	r.Reconcile(context.Background(), []models.Product{
		product("1", "Gitar", 100),
		product("2", "Keman", 200),
	})
	r.Reconcile(context.Background(), []models.Product{
		product("3", "Ukulele", 300),
	})

	stats := r.Stats()
	assert.Equal(t, int32(3), stats.ProcessedCount.Load())
	assert.Equal(t, int32(2), stats.UpsertedCount.Load())
	assert.Equal(t, int32(1), stats.ErroredProducts.Load())
}

func TestReconcileEmptyBatch(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, testLogger(), 2, nil)

	summary := r.Reconcile(context.Background(), nil)
	assert.Zero(t, summary.Attempted)
	assert.Zero(t, summary.Succeeded)
	assert.Empty(t, summary.Errors)
}

func TestReconcileLargeBatchConcurrent(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, testLogger(), 8, nil)

	var batch []models.Product
	for i := 0; i < 500; i++ {
		batch = append(batch, product(strconv.Itoa(i), "Ürün", float64(i)))
	}

	summary := r.Reconcile(context.Background(), batch)
	assert.Equal(t, 500, summary.Succeeded)
	assert.Len(t, store.snapshot(), 500)
}
