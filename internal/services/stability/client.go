package stability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShotTrace/internal/domain/models"
	domsvc "ShotTrace/internal/domain/service"
	"ShotTrace/pkg/config"
	xhttp "ShotTrace/pkg/http"
)

const windowsPath = "/stability/windows"

// Client asks the pose service for motion-stability scores around shot
// timestamps.
type Client struct {
	attempts int
	client   *xhttp.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Stability.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	attempts := cfg.Stability.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		attempts: attempts,
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithBaseURL(cfg.Stability.ServiceURL),
			xhttp.WithHeader("User-Agent", "shottrace-stability"),
		),
	}
}

type windowRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type windowsRequest struct {
	RoundID string          `json:"round_id"`
	Windows []windowRequest `json:"windows"`
}

type windowsResponse struct {
	Windows []struct {
		From  time.Time `json:"from"`
		To    time.Time `json:"to"`
		Score *float64  `json:"score"`
	} `json:"windows"`
}

// Fetch returns one window per timestamp the service could score. Windows
// the service leaves unscored are dropped.
func (c *Client) Fetch(ctx context.Context, roundID string, around []time.Time, halfWindow time.Duration) ([]models.StabilityWindow, error) {
	if len(around) == 0 {
		return nil, nil
	}
	req := windowsRequest{RoundID: roundID, Windows: make([]windowRequest, 0, len(around))}
	for _, ts := range around {
		req.Windows = append(req.Windows, windowRequest{From: ts.Add(-halfWindow), To: ts.Add(halfWindow)})
	}

	var resp windowsResponse
	if err := c.postJSONWithRetry(ctx, windowsPath, req, &resp); err != nil {
		return nil, fmt.Errorf("fetch stability windows: %w", err)
	}

	out := make([]models.StabilityWindow, 0, len(resp.Windows))
	for _, w := range resp.Windows {
		if w.Score == nil {
			continue
		}
		out = append(out, models.StabilityWindow{From: w.From, To: w.To, Score: *w.Score})
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	if c.client == nil || c.client.BaseURL() == "" {
		return fmt.Errorf("stability client not configured")
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    path,
		Body:   payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSONWithRetry(ctx context.Context, path string, payload, dest interface{}) error {
	var err error
	for i := 1; i <= c.attempts; i++ {
		if err = c.postJSON(ctx, path, payload, dest); err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return err
		}
		if i == c.attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

var _ domsvc.StabilityFetcher = (*Client)(nil)
