package models

import "time"

// Product — каноничная карточка товара, собранная из фида поставщика.
// Хранится в таблице store.products; единственный ключ сверки между
// запусками синхронизации — ExternalID (идентификатор товара у поставщика).
type Product struct {
	ExternalID  string `json:"external_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand,omitempty"`
	URL         string `json:"url,omitempty"`

	// Categories содержит метку категории и сегменты пути категорий
	// в порядке появления в фиде; дубликаты не вычищаются.
	Categories []string `json:"categories"`
	Images     []string `json:"images"`

	// Коммерческие условия первого варианта (Secenek) товара.
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discounted_price,omitempty"` // 0 означает отсутствие скидки
	Stock           int     `json:"stock"`
	Currency        string  `json:"currency"`
	VATIncluded     bool    `json:"vat_included"`
	VATRate         float64 `json:"vat_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"` // Дата и время создания записи.
	UpdatedAt time.Time `json:"updated_at"` // Дата и время последнего обновления.
}

// HasDiscount сообщает, есть ли у товара действующая скидочная цена.
func (p *Product) HasDiscount() bool {
	return p.DiscountedPrice > 0
}
