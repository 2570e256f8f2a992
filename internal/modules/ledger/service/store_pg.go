package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"tradego/internal/models"
	"tradego/pkg/db"
)

// PgStore — та же схема, что и sqlite, но поверх postgres для развёртываний
// с несколькими читателями (дашборд, аналитика).
type PgStore struct {
	txm db.TxManager
}

func NewPgStore(txm db.TxManager) *PgStore {
	return &PgStore{txm: txm}
}

const pgUpsertTrade = `
INSERT INTO trades (
    trade_id, symbol, strategy, entry_time, entry_price, quantity,
    product, direction, stop_loss, target, risk_amount,
    exit_time, exit_price, exit_reason,
    gross_pnl, brokerage, net_pnl, pnl_percent,
    mae, mfe, holding_minutes,
    news_score, tech_score, confidence,
    entry_order_id, target_order_id, sl_order_id,
    status, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
ON CONFLICT (trade_id) DO UPDATE SET
    stop_loss = EXCLUDED.stop_loss,
    target = EXCLUDED.target,
    exit_time = EXCLUDED.exit_time,
    exit_price = EXCLUDED.exit_price,
    exit_reason = EXCLUDED.exit_reason,
    gross_pnl = EXCLUDED.gross_pnl,
    brokerage = EXCLUDED.brokerage,
    net_pnl = EXCLUDED.net_pnl,
    pnl_percent = EXCLUDED.pnl_percent,
    mae = EXCLUDED.mae,
    mfe = EXCLUDED.mfe,
    holding_minutes = EXCLUDED.holding_minutes,
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at`

func (s *PgStore) SaveTrade(ctx context.Context, t models.Trade) error {
	return s.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var exitTime any
		if t.ExitTime != nil {
			exitTime = *t.ExitTime
		}
		_, err := tx.Exec(ctxTx, pgUpsertTrade,
			t.TradeID, t.Symbol, string(t.Strategy),
			t.EntryTime, t.Entry, t.Quantity,
			string(t.Product), string(t.Direction),
			t.StopLoss, t.Target, t.RiskAmount,
			exitTime, t.ExitPrice, string(t.ExitReason),
			t.GrossPnL, t.Brokerage, t.NetPnL, t.PnLPercent,
			t.MAE, t.MFE, t.HoldingMinutes,
			t.NewsScore, t.TechScore, t.Confidence,
			t.EntryOrderID, t.TargetOrderID, t.SLOrderID,
			string(t.Status), t.UpdatedAt,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert trade %s", t.TradeID)
		}
		return nil
	})
}

const pgSelectTrade = `
SELECT trade_id, symbol, strategy, entry_time, entry_price, quantity,
       product, direction, stop_loss, target, risk_amount,
       exit_time, exit_price, exit_reason,
       gross_pnl, brokerage, net_pnl, pnl_percent,
       mae, mfe, holding_minutes,
       news_score, tech_score, confidence,
       entry_order_id, target_order_id, sl_order_id,
       status, updated_at
FROM trades`

func (s *PgStore) GetTrade(ctx context.Context, tradeID string) (models.Trade, bool, error) {
	row := s.txm.Conn().QueryRow(ctx, pgSelectTrade+` WHERE trade_id = $1`, tradeID)
	t, err := scanPgTrade(row)
	if err == pgx.ErrNoRows {
		return models.Trade{}, false, nil
	}
	if err != nil {
		return models.Trade{}, false, err
	}
	return t, true, nil
}

func (s *PgStore) OpenTrades(ctx context.Context) ([]models.Trade, error) {
	rows, err := s.txm.Conn().Query(ctx, pgSelectTrade+` WHERE status = 'OPEN' ORDER BY entry_time DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query open trades")
	}
	defer rows.Close()
	return collectPgTrades(rows)
}

func (s *PgStore) ClosedTrades(ctx context.Context, f TradeFilter) ([]models.Trade, error) {
	query := pgSelectTrade + ` WHERE status = 'CLOSED'`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.Since.IsZero() {
		query += ` AND entry_time >= ` + arg(f.Since)
	}
	if !f.Until.IsZero() {
		query += ` AND entry_time <= ` + arg(f.Until)
	}
	if f.Strategy != "" {
		query += ` AND strategy = ` + arg(string(f.Strategy))
	}
	if f.Symbol != "" {
		query += ` AND symbol = ` + arg(f.Symbol)
	}
	if f.Product != "" {
		query += ` AND product = ` + arg(string(f.Product))
	}
	switch f.Outcome {
	case OutcomeWin:
		query += ` AND net_pnl > 0`
	case OutcomeLoss:
		query += ` AND net_pnl < 0`
	}
	query += ` ORDER BY entry_time DESC`

	rows, err := s.txm.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query closed trades")
	}
	defer rows.Close()
	return collectPgTrades(rows)
}

func (s *PgStore) SavePortfolio(ctx context.Context, p models.Portfolio) error {
	return s.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
INSERT INTO daily_portfolio (
    date, starting_capital, available_capital, deployed_capital,
    realized_pnl, unrealized_pnl, total_pnl,
    intraday_pnl, intraday_trades, intraday_wins, intraday_losses,
    swing_pnl, swing_trades, swing_wins, swing_losses,
    portfolio_heat, win_rate, profit_factor, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (date) DO UPDATE SET
    available_capital = EXCLUDED.available_capital,
    deployed_capital = EXCLUDED.deployed_capital,
    realized_pnl = EXCLUDED.realized_pnl,
    unrealized_pnl = EXCLUDED.unrealized_pnl,
    total_pnl = EXCLUDED.total_pnl,
    intraday_pnl = EXCLUDED.intraday_pnl,
    intraday_trades = EXCLUDED.intraday_trades,
    intraday_wins = EXCLUDED.intraday_wins,
    intraday_losses = EXCLUDED.intraday_losses,
    swing_pnl = EXCLUDED.swing_pnl,
    swing_trades = EXCLUDED.swing_trades,
    swing_wins = EXCLUDED.swing_wins,
    swing_losses = EXCLUDED.swing_losses,
    portfolio_heat = EXCLUDED.portfolio_heat,
    win_rate = EXCLUDED.win_rate,
    profit_factor = EXCLUDED.profit_factor,
    updated_at = EXCLUDED.updated_at`,
			p.Date, p.StartingCapital, p.AvailableCapital, p.DeployedCapital,
			p.RealizedPnL, p.UnrealizedPnL, p.TotalPnL,
			p.IntradayPnL, p.IntradayTrades, p.IntradayWins, p.IntradayLosses,
			p.SwingPnL, p.SwingTrades, p.SwingWins, p.SwingLosses,
			p.PortfolioHeat, p.WinRate, p.ProfitFactor, time.Now(),
		)
		if err != nil {
			return errors.Wrap(err, "upsert portfolio")
		}
		return nil
	})
}

func scanPgTrade(row pgx.Row) (models.Trade, error) {
	var (
		t                     models.Trade
		strategy, product     string
		direction, exitReason string
		status                string
		exitTime              *time.Time
	)

	err := row.Scan(
		&t.TradeID, &t.Symbol, &strategy,
		&t.EntryTime, &t.Entry, &t.Quantity,
		&product, &direction,
		&t.StopLoss, &t.Target, &t.RiskAmount,
		&exitTime, &t.ExitPrice, &exitReason,
		&t.GrossPnL, &t.Brokerage, &t.NetPnL, &t.PnLPercent,
		&t.MAE, &t.MFE, &t.HoldingMinutes,
		&t.NewsScore, &t.TechScore, &t.Confidence,
		&t.EntryOrderID, &t.TargetOrderID, &t.SLOrderID,
		&status, &t.UpdatedAt,
	)
	if err != nil {
		return models.Trade{}, err
	}

	t.Strategy = models.StrategyType(strategy)
	t.Product = models.Product(product)
	t.Direction = models.Side(direction)
	t.ExitReason = models.ExitReason(exitReason)
	t.Status = models.TradeStatus(status)
	t.ExitTime = exitTime
	return t, nil
}

func collectPgTrades(rows pgx.Rows) ([]models.Trade, error) {
	var out []models.Trade
	for rows.Next() {
		t, err := scanPgTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
