package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
	"tradego/internal/models"
	"tradego/pkg/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
    trade_id        TEXT PRIMARY KEY,
    symbol          TEXT NOT NULL,
    strategy        TEXT NOT NULL,

    entry_time      TEXT NOT NULL,
    entry_price     REAL NOT NULL,
    quantity        INTEGER NOT NULL,
    product         TEXT NOT NULL,
    direction       TEXT NOT NULL,

    stop_loss       REAL NOT NULL,
    target          REAL NOT NULL,
    risk_amount     REAL NOT NULL,

    exit_time       TEXT,
    exit_price      REAL DEFAULT 0,
    exit_reason     TEXT DEFAULT '',

    gross_pnl       REAL DEFAULT 0,
    brokerage       REAL DEFAULT 0,
    net_pnl         REAL DEFAULT 0,
    pnl_percent     REAL DEFAULT 0,

    mae             REAL DEFAULT 0,
    mfe             REAL DEFAULT 0,
    holding_minutes INTEGER DEFAULT 0,

    news_score      REAL DEFAULT 0,
    tech_score      REAL DEFAULT 0,
    confidence      REAL DEFAULT 0,

    entry_order_id  TEXT DEFAULT '',
    target_order_id TEXT DEFAULT '',
    sl_order_id     TEXT DEFAULT '',

    status          TEXT NOT NULL DEFAULT 'OPEN',
    updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy);
CREATE INDEX IF NOT EXISTS idx_trades_entry_time ON trades(entry_time);

CREATE TABLE IF NOT EXISTS daily_portfolio (
    date              TEXT PRIMARY KEY,
    starting_capital  REAL NOT NULL,
    available_capital REAL NOT NULL,
    deployed_capital  REAL NOT NULL,
    realized_pnl      REAL DEFAULT 0,
    unrealized_pnl    REAL DEFAULT 0,
    total_pnl         REAL DEFAULT 0,
    intraday_pnl      REAL DEFAULT 0,
    intraday_trades   INTEGER DEFAULT 0,
    intraday_wins     INTEGER DEFAULT 0,
    intraday_losses   INTEGER DEFAULT 0,
    swing_pnl         REAL DEFAULT 0,
    swing_trades      INTEGER DEFAULT 0,
    swing_wins        INTEGER DEFAULT 0,
    swing_losses      INTEGER DEFAULT 0,
    portfolio_heat    REAL DEFAULT 0,
    win_rate          REAL DEFAULT 0,
    profit_factor     REAL DEFAULT 0,
    updated_at        TEXT NOT NULL
);
`

// SQLiteStore — встраиваемое хранилище, дефолт для одиночного процесса.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// одно соединение — сериализуем запись, иначе sqlite ловит SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("sqlite store initialized at %s", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const tradeColumns = `trade_id, symbol, strategy, entry_time, entry_price, quantity,
product, direction, stop_loss, target, risk_amount,
exit_time, exit_price, exit_reason,
gross_pnl, brokerage, net_pnl, pnl_percent,
mae, mfe, holding_minutes,
news_score, tech_score, confidence,
entry_order_id, target_order_id, sl_order_id,
status, updated_at`

func (s *SQLiteStore) SaveTrade(ctx context.Context, t models.Trade) error {
	var exitTime any
	if t.ExitTime != nil {
		exitTime = t.ExitTime.Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO trades (`+tradeColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.TradeID, t.Symbol, string(t.Strategy),
		t.EntryTime.Format(time.RFC3339), t.Entry, t.Quantity,
		string(t.Product), string(t.Direction),
		t.StopLoss, t.Target, t.RiskAmount,
		exitTime, t.ExitPrice, string(t.ExitReason),
		t.GrossPnL, t.Brokerage, t.NetPnL, t.PnLPercent,
		t.MAE, t.MFE, t.HoldingMinutes,
		t.NewsScore, t.TechScore, t.Confidence,
		t.EntryOrderID, t.TargetOrderID, t.SLOrderID,
		string(t.Status), t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save trade %s: %w", t.TradeID, err)
	}
	return nil
}

func (s *SQLiteStore) GetTrade(ctx context.Context, tradeID string) (models.Trade, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return models.Trade{}, false, nil
	}
	if err != nil {
		return models.Trade{}, false, err
	}
	return t, true, nil
}

func (s *SQLiteStore) OpenTrades(ctx context.Context) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE status = 'OPEN' ORDER BY entry_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrades(rows)
}

func (s *SQLiteStore) ClosedTrades(ctx context.Context, f TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = 'CLOSED'`
	var args []any

	if !f.Since.IsZero() {
		query += ` AND entry_time >= ?`
		args = append(args, f.Since.Format(time.RFC3339))
	}
	if !f.Until.IsZero() {
		query += ` AND entry_time <= ?`
		args = append(args, f.Until.Format(time.RFC3339))
	}
	if f.Strategy != "" {
		query += ` AND strategy = ?`
		args = append(args, string(f.Strategy))
	}
	if f.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, f.Symbol)
	}
	if f.Product != "" {
		query += ` AND product = ?`
		args = append(args, string(f.Product))
	}
	switch f.Outcome {
	case OutcomeWin:
		query += ` AND net_pnl > 0`
	case OutcomeLoss:
		query += ` AND net_pnl < 0`
	}
	query += ` ORDER BY entry_time DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrades(rows)
}

func (s *SQLiteStore) SavePortfolio(ctx context.Context, p models.Portfolio) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO daily_portfolio (
    date, starting_capital, available_capital, deployed_capital,
    realized_pnl, unrealized_pnl, total_pnl,
    intraday_pnl, intraday_trades, intraday_wins, intraday_losses,
    swing_pnl, swing_trades, swing_wins, swing_losses,
    portfolio_heat, win_rate, profit_factor, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Date.Format("2006-01-02"),
		p.StartingCapital, p.AvailableCapital, p.DeployedCapital,
		p.RealizedPnL, p.UnrealizedPnL, p.TotalPnL,
		p.IntradayPnL, p.IntradayTrades, p.IntradayWins, p.IntradayLosses,
		p.SwingPnL, p.SwingTrades, p.SwingWins, p.SwingLosses,
		p.PortfolioHeat, p.WinRate, p.ProfitFactor,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save portfolio %s: %w", p.Date.Format("2006-01-02"), err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (models.Trade, error) {
	var (
		t                     models.Trade
		strategy, product     string
		direction, exitReason string
		status                string
		entryTime, updatedAt  string
		exitTime              sql.NullString
	)

	err := row.Scan(
		&t.TradeID, &t.Symbol, &strategy,
		&entryTime, &t.Entry, &t.Quantity,
		&product, &direction,
		&t.StopLoss, &t.Target, &t.RiskAmount,
		&exitTime, &t.ExitPrice, &exitReason,
		&t.GrossPnL, &t.Brokerage, &t.NetPnL, &t.PnLPercent,
		&t.MAE, &t.MFE, &t.HoldingMinutes,
		&t.NewsScore, &t.TechScore, &t.Confidence,
		&t.EntryOrderID, &t.TargetOrderID, &t.SLOrderID,
		&status, &updatedAt,
	)
	if err != nil {
		return models.Trade{}, err
	}

	t.Strategy = models.StrategyType(strategy)
	t.Product = models.Product(product)
	t.Direction = models.Side(direction)
	t.ExitReason = models.ExitReason(exitReason)
	t.Status = models.TradeStatus(status)

	t.EntryTime, _ = time.Parse(time.RFC3339, entryTime)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if exitTime.Valid {
		et, perr := time.Parse(time.RFC3339, exitTime.String)
		if perr == nil {
			t.ExitTime = &et
		}
	}
	return t, nil
}

func collectTrades(rows *sql.Rows) ([]models.Trade, error) {
	var out []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
