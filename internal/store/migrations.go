package store

import (
	"database/sql"
	"fmt"
	"log"

	"gomuzikstore_api/pkg/dbconnect/migration"
)

type StoreSchema struct{}

func (m *StoreSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS store`)
	if err != nil {
		return fmt.Errorf("failed to create store schema: %w", err)
	}
	return nil
}

type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(db *sql.DB) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS migrations;
		CREATE TABLE IF NOT EXISTS migrations.migrations (
			name VARCHAR(255) PRIMARY KEY,
			time TIMESTAMP NOT NULL
		);
		`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	return nil
}

type StoreProducts struct{}

func (m *StoreProducts) UpMigration(db *sql.DB) error {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = 'store.products')").Scan(&migrationExists)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Println("Migration 'store.products' already completed. Skipping.")
		return nil
	}
	query :=
		`
		CREATE TABLE IF NOT EXISTS store.products (
		external_id VARCHAR(64) PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		brand VARCHAR(255),
		url TEXT,
		categories TEXT[],
		images TEXT[],
		price NUMERIC(12, 2),
		discounted_price NUMERIC(12, 2),
		stock INT,
		currency VARCHAR(8),
		vat_included BOOLEAN DEFAULT FALSE,
		vat_rate NUMERIC(5, 2),
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		);

		CREATE UNIQUE INDEX IF NOT EXISTS store_products_external_id_idx
		ON store.products(external_id);
		`
	_, err = db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create store.products table: %w", err)
	}
	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ('store.products', current_timestamp)")
	if err != nil {
		return fmt.Errorf("failed to mark store.products migration as complete: %w", err)
	}

	log.Println("Migration 'store.products' completed successfully.")
	return nil
}

type StoreSyncLogs struct{}

func (m *StoreSyncLogs) UpMigration(db *sql.DB) error {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = 'store.sync_logs')").Scan(&migrationExists)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Println("Migration 'store.sync_logs' already completed. Skipping.")
		return nil
	}
	query :=
		`
		CREATE TABLE IF NOT EXISTS store.sync_logs (
		id SERIAL PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		attempted INT NOT NULL,
		succeeded INT NOT NULL,
		failed INT NOT NULL,
		error TEXT
		);
		`
	_, err = db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create store.sync_logs table: %w", err)
	}
	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ('store.sync_logs', current_timestamp)")
	if err != nil {
		return fmt.Errorf("failed to mark store.sync_logs migration as complete: %w", err)
	}

	log.Println("Migration 'store.sync_logs' completed successfully.")
	return nil
}

// Migrations возвращает миграции схемы хранилища в порядке применения.
func Migrations() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&MigrationsSchema{},
		&StoreSchema{},
		&StoreProducts{},
		&StoreSyncLogs{},
	}
}
