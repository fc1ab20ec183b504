package deriv

import (
	"encoding/json"
	"fmt"
)

// envelope holds the fields every response carries.
type envelope struct {
	ReqID   int       `json:"req_id"`
	MsgType string    `json:"msg_type"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error object of a rejected request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type authorizeResponse struct {
	Authorize struct {
		LoginID  string  `json:"loginid"`
		Balance  float64 `json:"balance"`
		Currency string  `json:"currency"`
	} `json:"authorize"`
}

type historyResponse struct {
	History struct {
		Prices []float64 `json:"prices"`
		Times  []int64   `json:"times"`
	} `json:"history"`
	PipSize *int `json:"pip_size,omitempty"`
}

type buyParameters struct {
	Amount       json.Number `json:"amount"`
	Basis        string      `json:"basis"`
	ContractType string      `json:"contract_type"`
	Currency     string      `json:"currency"`
	Duration     int         `json:"duration"`
	DurationUnit string      `json:"duration_unit"`
	Symbol       string      `json:"symbol"`
	Barrier      string      `json:"barrier,omitempty"`
}

type buyResponse struct {
	Buy struct {
		ContractID   json.Number `json:"contract_id"`
		BuyPrice     float64     `json:"buy_price"`
		PurchaseTime int64       `json:"purchase_time"`
	} `json:"buy"`
}

type openContractResponse struct {
	Contract struct {
		ContractID json.Number `json:"contract_id"`
		Status     string      `json:"status"`
		IsSold     int         `json:"is_sold"`
		Profit     float64     `json:"profit"`
		ExitTick   *float64    `json:"exit_tick,omitempty"`
	} `json:"proposal_open_contract"`
}
