package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Connect dials and authorizes with the API token.
func (c *Client) Connect(ctx context.Context) (domain.Account, error) {
	if c.cfg.Token == "" {
		return domain.Account{}, fmt.Errorf("deriv.Connect: missing api token: %w", domain.ErrAuthorization)
	}
	if err := c.dial(ctx); err != nil {
		return domain.Account{}, err
	}

	var resp authorizeResponse
	err := c.call(ctx, map[string]any{"authorize": c.cfg.Token}, &resp)
	if ae, ok := apiError(err); ok {
		_ = c.Close()
		if isAuthRejection(ae) {
			return domain.Account{}, fmt.Errorf("deriv.Connect: %w: %w", domain.ErrAuthorization, ae)
		}
		return domain.Account{}, fmt.Errorf("deriv.Connect: %w: %w", domain.ErrConnectivity, ae)
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("deriv.Connect: %w", err)
	}

	a := resp.Authorize
	slog.Info("deriv: authorized", "login_id", a.LoginID, "currency", a.Currency)
	return domain.Account{LoginID: a.LoginID, Balance: a.Balance, Currency: a.Currency}, nil
}

func isAuthRejection(e *APIError) bool {
	switch e.Code {
	case "InvalidToken", "AuthorizationRequired", "PermissionDenied":
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "token")
}

// Ping sends an application-level ping and expects a pong.
func (c *Client) Ping(ctx context.Context) error {
	var resp struct {
		Ping string `json:"ping"`
	}
	if err := c.call(ctx, map[string]any{"ping": 1}, &resp); err != nil {
		return fmt.Errorf("deriv.Ping: %w", err)
	}
	if resp.Ping != "pong" {
		return fmt.Errorf("deriv.Ping: unexpected reply %q: %w", resp.Ping, domain.ErrConnectivity)
	}
	return nil
}

// FetchRecentTicks requests the latest count ticks of market. Digits are
// taken with the market's pip size when the venue reports one.
func (c *Client) FetchRecentTicks(ctx context.Context, market string, count int) ([]domain.Tick, error) {
	req := map[string]any{
		"ticks_history": market,
		"count":         count,
		"end":           "latest",
		"style":         "ticks",
	}
	var resp historyResponse
	if err := c.call(ctx, req, &resp); err != nil {
		if ae, ok := apiError(err); ok {
			return nil, fmt.Errorf("deriv.FetchRecentTicks(%s): %w: %w", market, domain.ErrGateway, ae)
		}
		return nil, fmt.Errorf("deriv.FetchRecentTicks(%s): %w", market, err)
	}

	pip := -1
	if resp.PipSize != nil {
		pip = *resp.PipSize
		c.mu.Lock()
		c.pips[market] = pip
		c.mu.Unlock()
	}

	h := resp.History
	ticks := make([]domain.Tick, len(h.Prices))
	for i, p := range h.Prices {
		t := domain.Tick{Price: p, Digit: domain.DigitFromQuote(p, pip)}
		if i < len(h.Times) {
			t.Epoch = time.Unix(h.Times[i], 0).UTC()
		}
		ticks[i] = t
	}
	return ticks, nil
}

// Submit buys a contract at the stake price.
func (c *Client) Submit(ctx context.Context, p domain.ContractParams) (domain.ContractHandle, error) {
	amount := json.Number(p.Amount.StringFixed(2))
	params := buyParameters{
		Amount:       amount,
		Basis:        p.Basis,
		ContractType: string(p.Kind),
		Currency:     p.Currency,
		Duration:     p.Duration,
		DurationUnit: p.DurationUnit,
		Symbol:       p.Symbol,
	}
	if p.Barrier != nil {
		params.Barrier = strconv.Itoa(int(*p.Barrier))
	}

	var resp buyResponse
	err := c.call(ctx, map[string]any{"buy": 1, "price": amount, "parameters": params}, &resp)
	if ae, ok := apiError(err); ok {
		return domain.ContractHandle{}, fmt.Errorf("deriv.Submit: %w: %w", domain.ErrGateway, ae)
	}
	if err != nil {
		return domain.ContractHandle{}, fmt.Errorf("deriv.Submit: %w", err)
	}

	id := resp.Buy.ContractID.String()
	if id == "" {
		return domain.ContractHandle{}, fmt.Errorf("deriv.Submit: no contract id received: %w", domain.ErrGateway)
	}

	c.mu.Lock()
	c.markets[id] = p.Symbol
	c.mu.Unlock()

	return domain.ContractHandle{
		ContractID:  id,
		BuyPrice:    resp.Buy.BuyPrice,
		PurchasedAt: time.Unix(resp.Buy.PurchaseTime, 0).UTC(),
	}, nil
}

// AwaitSettlement returns the current status of an open contract.
func (c *Client) AwaitSettlement(ctx context.Context, h domain.ContractHandle) (domain.Settlement, error) {
	var id any = h.ContractID
	if n, err := strconv.ParseInt(h.ContractID, 10, 64); err == nil {
		id = n
	}

	var resp openContractResponse
	err := c.call(ctx, map[string]any{"proposal_open_contract": 1, "contract_id": id}, &resp)
	if ae, ok := apiError(err); ok {
		return domain.Settlement{}, fmt.Errorf("deriv.AwaitSettlement(%s): %w: %w", h.ContractID, domain.ErrGateway, ae)
	}
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("deriv.AwaitSettlement(%s): %w", h.ContractID, err)
	}

	oc := resp.Contract
	st := domain.Settlement{
		ContractID: h.ContractID,
		Status:     contractStatus(oc.Status, oc.IsSold),
		Profit:     oc.Profit,
	}
	if oc.ExitTick != nil {
		c.mu.Lock()
		pip, ok := c.pips[c.markets[h.ContractID]]
		if st.Status.Settled() {
			delete(c.markets, h.ContractID)
		}
		c.mu.Unlock()
		if !ok {
			pip = -1
		}
		d := domain.DigitFromQuote(*oc.ExitTick, pip)
		st.ExitDigit = &d
	}
	return st, nil
}

func contractStatus(s string, isSold int) domain.ContractStatus {
	switch s {
	case "won":
		return domain.ContractWon
	case "lost":
		return domain.ContractLost
	case "sold":
		return domain.ContractSold
	}
	if isSold == 1 {
		return domain.ContractSold
	}
	return domain.ContractOpen
}
