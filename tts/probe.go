package tts

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ProbeTimeout bounds every reachability probe so backend checks can never
// stall session start or request handling.
const ProbeTimeout = 3 * time.Second

// Probe performs a single bounded GET against a health URL. Any HTTP
// response counts as reachable; only a network error or timeout is a
// failure. Timeouts are a normal outcome for self-hosted engines that are
// simply not running.
func Probe(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid health url %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	resp.Body.Close()
	return nil
}
