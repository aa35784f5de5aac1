// Package providers declares the built-in push provider schemas and
// their transports. Each provider contributes a schema value object plus
// a send strategy; the notifier framework supplies everything else.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kart-io/chatpush/pkg/notifier"
)

// sendTimeout bounds every provider HTTP call so a hung connection is
// treated as a failure for that provider only.
const sendTimeout = 10 * time.Second

var httpClient = &http.Client{Timeout: sendTimeout}

// Register adds every built-in provider to the registry. Called
// explicitly at startup; there is no dynamic discovery.
func Register(r *notifier.Registry) error {
	for _, register := range []func(*notifier.Registry) error{
		RegisterPushover,
		RegisterGotify,
		RegisterTelegram,
		RegisterWebhook,
	} {
		if err := register(r); err != nil {
			return err
		}
	}
	return nil
}

// doRequest performs the request and treats any non-2xx response as a
// transport failure.
func doRequest(ctx context.Context, req *http.Request) error {
	resp, err := httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
