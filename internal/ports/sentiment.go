package ports

import "context"

// SentimentSource is an optional exogenous signal in [-1, 1].
type SentimentSource interface {
	Sentiment(ctx context.Context) (float64, error)
}
