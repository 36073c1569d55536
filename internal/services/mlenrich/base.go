// Package mlenrich calls the external model service that scores regimes and
// predicts slippage. Enrichment is optional: callers treat failures as
// "no enrichment", never as a pipeline error.
package mlenrich

import (
	"context"
	"fmt"
	"time"

	"tradyxa/pkg/config"
	xhttp "tradyxa/pkg/http"
)

// HTTPServiceBase centralizes client construction and JSON POST handling for
// the model-service clients in this package.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

func NewHTTPServiceBase(cfg *config.Config) *HTTPServiceBase {
	timeout := cfg.Enrich.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: cfg.Enrich.ServiceURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// PostJSON posts the payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("enrich http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry posts JSON with up to `attempts` retries for transient errors.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		// simple backoff
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
