package domain

import "errors"

// Failure taxonomy shared by the decision core, the simulator and the live
// session. Callers classify with errors.Is.
var (
	// ErrInsufficientData means the backtest window exceeds the series length.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrConnectivity is a transient transport failure; it is retried with backoff.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrAuthorization is a credential/token problem; it is never retried.
	ErrAuthorization = errors.New("authorization failure")

	// ErrGateway is a submission or settlement error reported by the venue.
	// The trade is treated as not executed.
	ErrGateway = errors.New("gateway error")

	// ErrConfiguration is an invalid input parameter, raised before any state mutation.
	ErrConfiguration = errors.New("configuration error")
)
