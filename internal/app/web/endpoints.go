package web

import (
	"log"
	"net/http"
	"time"

	"gomuzikstore_api/internal/app/web/handlers"
	"gomuzikstore_api/metrics"
	"gomuzikstore_api/pkg/middleware"
)

// SetupRoutes собирает маршруты админского API и обвешивает их
// метриками, логированием и CORS.
func SetupRoutes(
	syncHandler *handlers.SyncHandler,
	lastSyncHandler *handlers.LastSyncHandler,
	productHandler *handlers.ProductHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/api/v1/sync", middleware.PrometheusMiddleware(syncHandler))
	mux.Handle("/api/v1/sync/last", middleware.PrometheusMiddleware(lastSyncHandler))
	mux.Handle("/api/v1/products", middleware.PrometheusMiddleware(productHandler))

	mux.Handle("/metrics", metrics.MetricsHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handlerWithLogging := loggingMiddleware(mux)
	return enableCORS(handlerWithLogging)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}
