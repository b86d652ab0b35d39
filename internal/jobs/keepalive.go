// Package jobs runs the periodic background work of the server.
package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/logging"
)

// KeepAlive periodically GETs the public API URL so an idle free-tier host
// does not spin the service down.
type KeepAlive struct {
	url    string
	client *http.Client
	cron   *cron.Cron
	log    logging.Logger
}

// NewKeepAlive schedules the ping on cfg.Schedule (standard five-field cron).
func NewKeepAlive(cfg config.KeepAliveConfig, log logging.Logger) (*KeepAlive, error) {
	k := &KeepAlive{
		url:    cfg.URL,
		client: &http.Client{Timeout: 30 * time.Second},
		cron:   cron.New(),
		log:    log.With("job", "keepalive"),
	}

	if _, err := k.cron.AddFunc(cfg.Schedule, k.run); err != nil {
		return nil, fmt.Errorf("schedule keep-alive %q: %w", cfg.Schedule, err)
	}
	return k, nil
}

// Start runs the scheduler in its own goroutine.
func (k *KeepAlive) Start() {
	k.cron.Start()
	k.log.Info(context.Background(), "keep-alive scheduled", "url", k.url)
}

// Stop halts the scheduler and waits for a running ping to finish or ctx to end.
func (k *KeepAlive) Stop(ctx context.Context) {
	select {
	case <-k.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (k *KeepAlive) run() {
	ctx := context.Background()
	if err := k.Ping(ctx); err != nil {
		k.log.Warn(ctx, "keep-alive request failed", "url", k.url, "error", err)
		return
	}
	k.log.Info(ctx, "keep-alive request sent", "url", k.url)
}

// Ping sends one GET to the configured URL. Any status other than 200 is an
// error.
func (k *KeepAlive) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return err
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
