package ports

import (
	"context"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// MarketDataGateway returns recent ticks of a digit market.
type MarketDataGateway interface {
	// FetchRecentTicks returns up to count of the latest ticks, oldest first.
	// Transport failures wrap domain.ErrConnectivity.
	FetchRecentTicks(ctx context.Context, market string, count int) ([]domain.Tick, error)
}

// Connector manages the authorized connection to the venue.
type Connector interface {
	// Connect opens the transport and authorizes. Credential problems wrap
	// domain.ErrAuthorization and must not be retried.
	Connect(ctx context.Context) (domain.Account, error)

	// Ping is the liveness probe. Callers bound it with a short timeout.
	Ping(ctx context.Context) error

	// Close releases the connection. Safe to call more than once.
	Close() error
}

// Venue is a full trading venue: connection, market data and execution.
type Venue interface {
	Connector
	MarketDataGateway
	TradeExecutor
}
