package ports

import (
	"context"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// TradeExecutor submits digit contracts and reports their settlement.
type TradeExecutor interface {
	// Submit buys a contract. Venue rejections wrap domain.ErrGateway and the
	// trade is treated as not executed.
	Submit(ctx context.Context, params domain.ContractParams) (domain.ContractHandle, error)

	// AwaitSettlement returns the next status update of the contract. Callers
	// poll until Status.Settled() reports true.
	AwaitSettlement(ctx context.Context, handle domain.ContractHandle) (domain.Settlement, error)
}
