package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gomuzikstore_api/internal/models"
)

// ProductRepository — доступ к таблице store.products.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByExternalID возвращает товар по идентификатору поставщика,
// (nil, nil) если строки нет.
func (r *ProductRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	query := `SELECT external_id, name, description, brand, url, categories, images,
				price, COALESCE(discounted_price, 0), stock, currency, vat_included, COALESCE(vat_rate, 0),
				created_at, updated_at
			  FROM store.products WHERE external_id = $1`

	var product models.Product
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(
		&product.ExternalID, &product.Name, &product.Description, &product.Brand, &product.URL,
		pq.Array(&product.Categories), pq.Array(&product.Images),
		&product.Price, &product.DiscountedPrice, &product.Stock, &product.Currency,
		&product.VATIncluded, &product.VATRate,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// Create вставляет новую строку товара.
func (r *ProductRepository) Create(ctx context.Context, product models.Product) error {
	query := `
		INSERT INTO store.products
			(external_id, name, description, brand, url, categories, images,
			 price, discounted_price, stock, currency, vat_included, vat_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		product.ExternalID, product.Name, product.Description, product.Brand, product.URL,
		pq.Array(product.Categories), pq.Array(product.Images),
		product.Price, discountValue(product), product.Stock, product.Currency,
		product.VATIncluded, product.VATRate,
	)
	if err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.ExternalID, err)
	}
	return nil
}

// Update полностью перезаписывает изменяемые поля существующей строки.
func (r *ProductRepository) Update(ctx context.Context, product models.Product) error {
	query := `
		UPDATE store.products SET
			name = $2, description = $3, brand = $4, url = $5,
			categories = $6, images = $7, price = $8, discounted_price = $9,
			stock = $10, currency = $11, vat_included = $12, vat_rate = $13,
			updated_at = current_timestamp
		WHERE external_id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		product.ExternalID, product.Name, product.Description, product.Brand, product.URL,
		pq.Array(product.Categories), pq.Array(product.Images),
		product.Price, discountValue(product), product.Stock, product.Currency,
		product.VATIncluded, product.VATRate,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ExternalID, err)
	}
	return nil
}

// Upsert — идемпотентная вставка-или-замена по external_id. Семантика
// полной замены: при конфликте перезаписываются все изменяемые поля,
// created_at сохраняется.
func (r *ProductRepository) Upsert(ctx context.Context, product models.Product) error {
	query := `
		INSERT INTO store.products
			(external_id, name, description, brand, url, categories, images,
			 price, discounted_price, stock, currency, vat_included, vat_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			url = EXCLUDED.url,
			categories = EXCLUDED.categories,
			images = EXCLUDED.images,
			price = EXCLUDED.price,
			discounted_price = EXCLUDED.discounted_price,
			stock = EXCLUDED.stock,
			currency = EXCLUDED.currency,
			vat_included = EXCLUDED.vat_included,
			vat_rate = EXCLUDED.vat_rate,
			updated_at = current_timestamp
	`
	_, err := r.db.ExecContext(ctx, query,
		product.ExternalID, product.Name, product.Description, product.Brand, product.URL,
		pq.Array(product.Categories), pq.Array(product.Images),
		product.Price, discountValue(product), product.Stock, product.Currency,
		product.VATIncluded, product.VATRate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ExternalID, err)
	}
	return nil
}

// Count возвращает число строк в store.products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM store.products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// GetExternalIDs возвращает все идентификаторы товаров в хранилище.
// Синхронизация строк не удаляет; список нужен, если поверх неё когда-нибудь
// появится зеркалирование фида.
func (r *ProductRepository) GetExternalIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT external_id FROM store.products`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса для получения externalIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования externalID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}

	return ids, nil
}

// discountValue: отсутствие скидки храним как NULL, а не как 0.
func discountValue(product models.Product) interface{} {
	if !product.HasDiscount() {
		return nil
	}
	return product.DiscountedPrice
}
