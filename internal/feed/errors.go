package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRedirects — превышена глубина редиректов при загрузке фида.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrMalformedXML — документ фида не разбирается; частичный разбор не выполняется.
	ErrMalformedXML = errors.New("malformed xml")

	// ErrInvalidProduct — запись товара без стабильного идентификатора.
	// Такая запись пропускается и логируется, подменять id случайным нельзя:
	// это ломает идемпотентность сверки между запусками.
	ErrInvalidProduct = errors.New("invalid product record")
)

// NetworkError — транспортная ошибка получения фида (connect/DNS/TLS/статус).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("feed fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
