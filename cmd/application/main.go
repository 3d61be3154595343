package main

import (
	"context"
	"flag"
	"log"
	"os"

	"gomuzikstore_api/config"
	"gomuzikstore_api/internal/app"
	"gomuzikstore_api/pkg/dbconnect/postgres"
)

func main() {
	configPath := flag.String("config", "", "путь к yaml конфигурации; пусто — переменные окружения")
	once := flag.Bool("once", false, "выполнить одну синхронизацию и выйти")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
	} else {
		cfg = config.GetAppConfig()
	}

	if cfg.Feed.URL == "" {
		log.Fatalf("Feed URL is not configured (feed.url / FEED_URL)")
	}

	connector := postgres.NewPgConnector(&cfg.Postgres)
	server := app.NewSyncServer(connector, cfg, os.Stdout)

	if *once {
		if err := server.RunOnce(context.Background()); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	}

	log.Printf("\nStarted app\n")
	if err := server.Run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
