package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/google/uuid"
)

// awaitSettlement polls the venue until the contract reaches a terminal
// status. It is detached from ctx cancellation so that pausing or stopping
// the loop never abandons an open contract; SettleTimeout bounds the wait.
func (s *Session) awaitSettlement(ctx context.Context, handle domain.ContractHandle) (domain.Settlement, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SettleTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		st, err := s.venue.AwaitSettlement(ctx, handle)
		if err != nil {
			return domain.Settlement{}, gatewayErr("live.awaitSettlement", err)
		}
		if st.Status.Settled() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return domain.Settlement{}, fmt.Errorf("live.awaitSettlement: contract %s: %w: %w",
				handle.ContractID, domain.ErrGateway, ctx.Err())
		case <-ticker.C:
		}
	}
}

// applySettlement books a settled contract: martingale, statistics, state,
// persistence and the automatic pause rules.
func (s *Session) applySettlement(ctx context.Context, dec domain.Decision, handle domain.ContractHandle, st domain.Settlement) domain.LiveTrade {
	win := st.Profit > 0
	ms := s.stakes.Record(win, st.Profit)

	s.mu.Lock()
	s.inFlight = false
	if win {
		s.wins++
	} else {
		s.losses++
	}
	s.account.Balance += st.Profit
	if s.state == domain.StateAwaitingSettlement {
		s.setStateLocked(domain.StateReady)
	}

	sc := s.cfg.Session
	reason := domain.PauseNone
	switch {
	case ms.CumulativePnL >= sc.TargetProfit:
		reason = domain.PauseTargetProfit
	case ms.CumulativePnL <= -sc.StopLoss:
		reason = domain.PauseStopLoss
	case win && s.breakAfterWin:
		reason = domain.PauseBreakAfterWin
	}
	if win {
		s.breakAfterWin = false
	}
	if reason != domain.PauseNone && s.state != domain.StateTerminated {
		s.pauseLocked(reason)
	}
	s.mu.Unlock()

	trade := domain.LiveTrade{
		ID:              uuid.New().String(),
		SessionID:       s.id,
		ContractID:      handle.ContractID,
		Market:          sc.Market,
		Contract:        dec.Trade.Contract,
		Stake:           dec.Trade.Stake,
		Confidence:      dec.Trade.Confidence,
		Threshold:       dec.Threshold,
		IsWin:           win,
		Profit:          st.Profit,
		CumulativePnL:   ms.CumulativePnL,
		MartingaleLevel: ms.Level,
		SettledAt:       s.now().UTC(),
	}

	s.recorder.TradeSettled(win, st.Profit, dec.Trade.Stake)
	s.recorder.SessionPnL(ms.CumulativePnL)
	slog.Info("live: trade settled",
		"session", s.id,
		"contract_id", handle.ContractID,
		"win", win,
		"profit", st.Profit,
		"pnl", ms.CumulativePnL,
		"level", ms.Level,
	)

	if s.store != nil {
		if err := s.store.SaveLiveTrade(context.WithoutCancel(ctx), trade); err != nil {
			slog.Warn("live: save trade failed", "session", s.id, "err", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyTrade(ctx, trade); err != nil {
			slog.Debug("live: notify trade failed", "err", err)
		}
	}
	s.persistSession(ctx)
	return trade
}

func gatewayErr(op string, err error) error {
	if errors.Is(err, domain.ErrGateway) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrGateway, err)
}
