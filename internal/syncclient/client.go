// Package syncclient talks to the external content sync service. Pushes are
// wrapped in a circuit breaker so a dead sync backend fails compile runs fast
// instead of stacking timeouts.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/circuitbreaker"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/metrics"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/trace"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func New(baseURL string) *Client {
	// Sync pushes are in the compile critical path, so trip earlier than the
	// defaults and probe with fewer requests.
	cbConfig := circuitbreaker.DefaultConfig()
	cbConfig.FailureThreshold = 3
	cbConfig.HalfOpenMaxRequests = 2

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		cb: circuitbreaker.NewCircuitBreaker(cbConfig),
	}
}

type pushRequest struct {
	ExternalRef string `json:"external_ref"`
	Content     string `json:"content"`
}

// PushContent writes a rendered content block to the document behind
// externalRef. The caller owns retry policy; a failed push is returned as-is
// so the compiler can run its compensating release.
func (c *Client) PushContent(ctx context.Context, externalRef, content string) error {
	return c.cb.Execute(func() error {
		start := time.Now()
		b, err := json.Marshal(pushRequest{ExternalRef: externalRef, Content: content})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/content", bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName(), traceID)
		}

		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordSyncPushLatency("transport_error", latency)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			metrics.RecordSyncPushLatency("5xx", latency)
			return fmt.Errorf("sync service 5xx: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			metrics.RecordSyncPushLatency(fmt.Sprintf("%d", resp.StatusCode), latency)
			return fmt.Errorf("sync service rejected push: %d", resp.StatusCode)
		}

		metrics.RecordSyncPushLatency("success", latency)
		return nil
	})
}
