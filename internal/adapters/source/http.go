package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/followrank/internal/domain/model"
)

// Default HTTP source configuration constants.
const (
	defaultHTTPTimeout = 5 * time.Second
	defaultMaxBody     = 8 << 20
)

// HTTPSource fetches records from a JSON ranking endpoint.
type HTTPSource struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	maxBody int64
}

// HTTPOption applies a configuration option to the HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout bounds one fetch.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithRate throttles outbound requests to perSec with a burst of one.
func WithRate(perSec float64) HTTPOption {
	return func(s *HTTPSource) {
		if perSec > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// NewHTTPSource creates a source reading url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:     url,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		maxBody: defaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]model.RankedEntity, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	records, err := DecodeJSON(body)
	if err != nil {
		return nil, err
	}
	return Entities(records), nil
}
