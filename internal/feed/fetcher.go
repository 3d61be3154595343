package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher определяет интерфейс для получения сырого фида по URL.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]byte, error)
}

// DefaultMaxAttempts — сколько всего ответов допускается на одну загрузку,
// считая исходный запрос. 6 ответов подряд со статусом 3xx = отказ.
const DefaultMaxAttempts = 6

// HTTPFetcher загружает фид по HTTP(S), следуя редиректам вручную,
// чтобы контролировать глубину и каждый промежуточный ответ.
type HTTPFetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts int
}

func NewHTTPFetcher() *HTTPFetcher {
	client := &http.Client{
		Timeout: 120 * time.Second,
		// Редиректы обрабатываются в Fetch.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &HTTPFetcher{
		client:      client,
		maxAttempts: DefaultMaxAttempts,
	}
}

func (f *HTTPFetcher) SetNewClient(client *http.Client) *HTTPFetcher {
	if client != nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
		f.client = client
	}
	return f
}

func (f *HTTPFetcher) SetNewLimiter(limiter *rate.Limiter) *HTTPFetcher {
	f.limiter = limiter
	return f
}

func (f *HTTPFetcher) SetNewMaxAttempts(attempts int) *HTTPFetcher {
	if attempts > 0 {
		f.maxAttempts = attempts
	}
	return f
}

// Fetch возвращает полное тело документа фида. Редиректы (300–399 с Location)
// проходятся до maxAttempts ответов включительно, дальше — ErrTooManyRedirects.
// Транспортные ошибки заворачиваются в NetworkError с исходной причиной.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	current := feedURL

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &NetworkError{URL: current, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return nil, &NetworkError{URL: current, Err: err}
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, &NetworkError{URL: current, Err: err}
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if location == "" {
				return nil, &NetworkError{URL: current, Err: fmt.Errorf("redirect status %s without Location", resp.Status)}
			}
			next, err := resolveLocation(current, location)
			if err != nil {
				return nil, &NetworkError{URL: current, Err: err}
			}
			current = next
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &NetworkError{URL: current, Err: err}
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &NetworkError{URL: current, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
		}

		return body, nil
	}

	return nil, fmt.Errorf("%w: %s (max %d attempts)", ErrTooManyRedirects, feedURL, f.maxAttempts)
}

// resolveLocation разрешает относительный Location против текущего URL.
func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
