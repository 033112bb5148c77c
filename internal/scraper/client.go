package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/javari-ai/brain/pkg/circuitbreaker"
	"github.com/javari-ai/brain/pkg/logger"
	"github.com/javari-ai/brain/pkg/retry"
)

// Client is the shared outbound HTTP client for connectors. Each upstream
// host gets its own circuit breaker so one failing provider cannot block
// the others.
type Client struct {
	httpClient *http.Client
	userAgent  string
	pause      time.Duration

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

func NewClient(userAgent string, pause time.Duration) *Client {
	if userAgent == "" {
		userAgent = "JavariAI/1.0 (Learning Bot)"
	}
	if pause == 0 {
		pause = 300 * time.Millisecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  userAgent,
		pause:      pause,
		breakers:   make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// GetJSON fetches a JSON resource into out, retrying transient failures
// behind the host's circuit breaker.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	body, err := c.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", rawURL, err)
	}
	return nil
}

// GetDocument fetches a page and parses it as HTML.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.get(ctx, rawURL, "text/html")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	breaker := c.breakerFor(rawURL)

	cfg := retry.DefaultConfig()
	cfg.Logger = logger.Log

	return retry.DoWithResult(ctx, cfg, func() ([]byte, error) {
		var body []byte
		err := breaker.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("User-Agent", c.userAgent)
			req.Header.Set("Accept", accept)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			return nil
		})
		return body, err
	})
}

func (c *Client) breakerFor(rawURL string) *circuitbreaker.CircuitBreaker {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	breaker, ok := c.breakers[host]
	if !ok {
		breaker = circuitbreaker.New(host, circuitbreaker.Config{Logger: logger.Log})
		c.breakers[host] = breaker
	}
	return breaker
}

// Pause sleeps between consecutive upstream fetches to stay polite.
func (c *Client) Pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.pause):
	}
}
