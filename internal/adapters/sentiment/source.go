// Package sentiment reads an exogenous market sentiment score over HTTP.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 3 * time.Second

// Config configures the HTTP source.
type Config struct {
	URL     string
	Timeout time.Duration
	// Retries of transport failures and 5xx answers.
	Retries int
}

// payload accepts either {"score": x} or {"sentiment": x}.
type payload struct {
	Score     *float64 `json:"score"`
	Sentiment *float64 `json:"sentiment"`
}

// Source implements ports.SentimentSource.
type Source struct {
	client *resty.Client
	url    string
}

// New creates a source for the given endpoint.
func New(cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("sentiment.New: empty url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &Source{client: client, url: cfg.URL}, nil
}

// Sentiment fetches the score and clamps it into [-1, 1].
func (s *Source) Sentiment(ctx context.Context) (float64, error) {
	var out payload
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(s.url)
	if err != nil {
		return 0, fmt.Errorf("sentiment.Sentiment: %w", err)
	}
	if !resp.IsSuccess() {
		return 0, fmt.Errorf("sentiment.Sentiment: http %d: %s", resp.StatusCode(), truncate(resp.String(), 120))
	}

	v := out.Score
	if v == nil {
		v = out.Sentiment
	}
	if v == nil || math.IsNaN(*v) {
		return 0, fmt.Errorf("sentiment.Sentiment: response has no score")
	}
	return math.Max(-1, math.Min(1, *v)), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
