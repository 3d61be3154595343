package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"gomuzikstore_api/config"
	"gomuzikstore_api/internal/app/web"
	"gomuzikstore_api/internal/app/web/handlers"
	"gomuzikstore_api/internal/feed"
	"gomuzikstore_api/internal/store"
	appsync "gomuzikstore_api/internal/sync"
	"gomuzikstore_api/pkg/dbconnect"
	"gomuzikstore_api/pkg/logger"
)

// SyncServer — админский сервер синхронизации фида: миграции хранилища,
// сборка конвейера и HTTP поверхность триггера.
type SyncServer struct {
	dbconnect.DbConnector
	config *config.AppConfig
	writer io.Writer
}

func NewSyncServer(dbCon dbconnect.DbConnector, cfg *config.AppConfig, writer io.Writer) *SyncServer {
	return &SyncServer{DbConnector: dbCon, config: cfg, writer: writer}
}

// Run поднимает сервер и блокируется до его остановки.
func (s *SyncServer) Run() error {
	service, repos, err := s.buildPipeline()
	if err != nil {
		return err
	}
	defer repos.close()

	handler := web.SetupRoutes(
		handlers.NewSyncHandler(service),
		handlers.NewLastSyncHandler(repos.syncLogs),
		handlers.NewProductHandler(repos.products),
	)

	log.Printf("Запущен сервис синхронизации фида на %s", s.config.Server.Addr)
	return http.ListenAndServe(s.config.Server.Addr, handler)
}

// RunOnce выполняет одну синхронизацию без HTTP поверхности (режим -once).
func (s *SyncServer) RunOnce(ctx context.Context) error {
	service, repos, err := s.buildPipeline()
	if err != nil {
		return err
	}
	defer repos.close()

	report := service.Run(ctx)
	if !report.Success {
		return fmt.Errorf("sync failed: %s", report.Error)
	}
	log.Printf("Synced %d of %d products", report.Count, report.Attempted)
	return nil
}

type repositories struct {
	products *store.ProductRepository
	syncLogs *store.SyncLogRepository
	closeFn  func() error
}

func (r *repositories) close() {
	if r.closeFn != nil {
		if err := r.closeFn(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}

func (s *SyncServer) buildPipeline() (*appsync.Service, *repositories, error) {
	db, err := s.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	for _, m := range store.Migrations() {
		if err := m.UpMigration(db); err != nil {
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	log.Println("Store migrations applied successfully!")

	feedCfg := s.config.Feed

	baseLog := logger.NewLogger(s.writer, "[sync]")

	// Один лимит на исходящие запросы и на upsert-ы в хранилище.
	var limiter *rate.Limiter
	if feedCfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(feedCfg.RateLimit), feedCfg.RateLimit)
	}

	fetcher := feed.NewHTTPFetcher().
		SetNewMaxAttempts(feedCfg.RedirectLimit).
		SetNewClient(&http.Client{Timeout: time.Duration(feedCfg.FetchTimeoutSeconds) * time.Second}).
		SetNewLimiter(limiter)

	parser := feed.NewParser().SetNewCharset(feedCfg.Charset)
	normalizer := feed.NewNormalizer(feedCfg.FallbackCurrency)

	productRepo := store.NewProductRepository(db)
	syncLogRepo := store.NewSyncLogRepository(db)

	reconciler := appsync.NewReconciler(productRepo, baseLog.WithPrefix("[reconcile]"), feedCfg.Workers, limiter)

	service := appsync.NewService(
		feedCfg.URL,
		time.Duration(feedCfg.FetchTimeoutSeconds)*time.Second,
		fetcher,
		parser,
		normalizer,
		reconciler,
		syncLogRepo,
		baseLog,
	)

	repos := &repositories{
		products: productRepo,
		syncLogs: syncLogRepo,
		closeFn:  db.Close,
	}
	return service, repos, nil
}
