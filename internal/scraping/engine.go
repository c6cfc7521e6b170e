package scraping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/drewfead/cip/internal/apperrors"
)

// Fetcher downloads pages through a colly collector. A fresh collector is built
// per request, so a Fetcher is safe for concurrent use.
type Fetcher struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
	// Transport is wrapped with response decompression. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

func (f *Fetcher) collector() *colly.Collector {
	c := colly.NewCollector(colly.AllowURLRevisit())
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	}
	c.WithTransport(NewCompressionTransport(f.Transport))
	return c
}

// Get returns the body of url. Transport failures and non-2xx responses are
// reported as *apperrors.FetchError.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, span := otel.Tracer("scraping").Start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	c := f.collector()
	var (
		body   []byte
		status int
	)
	c.OnRequest(InjectRequestHeaders(f.Headers))
	c.OnRequest(AbortWhenDone(ctx))
	c.OnResponse(LogResponses())
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(ReportBadResponses(&status))

	err := c.Visit(url)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		fetchErr := &apperrors.FetchError{URL: url, StatusCode: status, Err: err}
		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, fetchErr.Error())
		return nil, fetchErr
	}
	if status != http.StatusOK {
		fetchErr := &apperrors.FetchError{URL: url, StatusCode: status, Err: errors.New("unexpected status")}
		span.SetStatus(codes.Error, fetchErr.Error())
		return nil, fetchErr
	}

	span.SetAttributes(attribute.Int("bytes", len(body)))
	return body, nil
}

// GetJSON fetches url and decodes its body into OUT.
func GetJSON[OUT any](ctx context.Context, f *Fetcher, url string) (OUT, error) {
	var out OUT
	body, err := f.Get(ctx, url)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &apperrors.ParseError{Node: url, Detail: fmt.Sprintf("decode json: %v", err)}
	}
	return out, nil
}

func ReportBadResponses(status *int) func(r *colly.Response, err error) {
	return func(r *colly.Response, err error) {
		if r != nil {
			*status = r.StatusCode
		}
		zap.L().Debug("request failed", zap.Int("status", *status), zap.Error(err))
	}
}

func LogResponses() func(r *colly.Response) {
	return func(r *colly.Response) {
		zap.L().Debug("response",
			zap.Int("status", r.StatusCode),
			zap.String("url", r.Request.URL.String()),
			zap.Int("bytes", len(r.Body)),
		)
	}
}

func InjectRequestHeaders(headers map[string]string) func(r *colly.Request) {
	return func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	}
}

func AbortWhenDone(ctx context.Context) func(r *colly.Request) {
	return func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	}
}
