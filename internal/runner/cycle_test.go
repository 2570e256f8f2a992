package runner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradego/internal/models"
	brokersvc "tradego/internal/modules/broker/service"
	"tradego/internal/modules/config"
	ledgersvc "tradego/internal/modules/ledger/service"
	risksvc "tradego/internal/modules/risk/service"
	sigsvc "tradego/internal/modules/signals/service"
	"tradego/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func runnerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Risk = config.RiskLimits{
		TotalCapital:          1_000_000,
		IntradayAllocation:    0.70,
		SwingAllocation:       0.30,
		MinRiskPerTrade:       0.005,
		MaxRiskPerTrade:       0.010,
		MaxOpenPositions:      5,
		MaxPortfolioHeat:      0.03,
		MaxCapitalDeployed:    0.50,
		MaxPositionValue:      0.10,
		MaxPositionsPerSector: 2,
		MaxDailyLossPercent:   0.02,
		MaxCorrelation:        0.7,
	}
	cfg.Signals = config.SignalLimits{
		MinConfidence: 0.65,
		MinRRIntraday: 1.5,
		MinRRSwing:    1.2,
		MinStopPct:    0.005,
		MaxStopPct:    0.03,
	}
	cfg.Schedule = config.Schedule{
		MarketOpen:   "09:15",
		MarketClose:  "15:30",
		EODSquareOff: "15:20",
		SummaryAt:    "15:35",
	}
	return cfg
}

type silentNotifier struct{}

func (silentNotifier) Send(string)          {}
func (silentNotifier) Sendf(string, ...any) {}

func testBroker(t *testing.T, handler http.HandlerFunc) *brokersvc.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{}
	cfg.Broker.BaseURL = srv.URL
	return brokersvc.NewClient(cfg)
}

// chdir — аналог t.Chdir для go < 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// paperSettings — дефолты без settings.yaml: LIVE/PAPER.
func paperSettings(t *testing.T) *config.Settings {
	t.Helper()
	chdir(t, t.TempDir())
	s, err := config.NewSettings()
	require.NoError(t, err)
	return s
}

// realSettings — LIVE/REAL из файла.
func realSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"),
		[]byte("mode: LIVE\nlive_type: REAL\n"), 0o644))
	chdir(t, dir)
	s, err := config.NewSettings()
	require.NoError(t, err)
	return s
}

func TestRefreshCapital(t *testing.T) {
	ctx := context.Background()

	t.Run("paper mode uses config", func(t *testing.T) {
		cfg := runnerConfig()
		r := &Runner{cfg: cfg, settings: paperSettings(t), risk: risksvc.NewManager(cfg, nil)}

		r.refreshCapital(ctx)
		assert.InDelta(t, 1_000_000, r.risk.TotalCapital(), 1e-9)
	})

	t.Run("settings override wins over config", func(t *testing.T) {
		cfg := runnerConfig()
		settings := paperSettings(t)
		require.NoError(t, os.MkdirAll("configs", 0o755))
		settings.SetCapital(400_000)

		r := &Runner{cfg: cfg, settings: settings, risk: risksvc.NewManager(cfg, nil)}
		r.refreshCapital(ctx)
		assert.InDelta(t, 400_000, r.risk.TotalCapital(), 1e-9)
	})

	t.Run("real mode pulls broker margin", func(t *testing.T) {
		cfg := runnerConfig()
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "data": {"available_margin": 250000}}`))
		})
		r := &Runner{cfg: cfg, settings: realSettings(t), broker: broker, risk: risksvc.NewManager(cfg, nil)}

		r.refreshCapital(ctx)
		assert.InDelta(t, 250_000, r.risk.TotalCapital(), 1e-9)
	})

	t.Run("real mode falls back on broker error", func(t *testing.T) {
		cfg := runnerConfig()
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		})
		r := &Runner{cfg: cfg, settings: realSettings(t), broker: broker, risk: risksvc.NewManager(cfg, nil)}

		r.refreshCapital(ctx)
		assert.InDelta(t, 1_000_000, r.risk.TotalCapital(), 1e-9)
	})
}

func TestMarketOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("broker says open", func(t *testing.T) {
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "data": {"open": true, "phase": "NORMAL"}}`))
		})
		r := &Runner{cfg: runnerConfig(), broker: broker, loc: time.UTC}
		assert.True(t, r.marketOpen(ctx))
	})

	t.Run("broker says closed", func(t *testing.T) {
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "data": {"open": false, "phase": "CLOSED"}}`))
		})
		r := &Runner{cfg: runnerConfig(), broker: broker, loc: time.UTC}
		assert.False(t, r.marketOpen(ctx))
	})

	t.Run("broker unavailable falls back to clock", func(t *testing.T) {
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		})
		r := &Runner{cfg: runnerConfig(), broker: broker, loc: time.UTC}
		assert.Equal(t, r.isMarketOpen(), r.marketOpen(ctx))
	})
}

func TestReconcilePositions(t *testing.T) {
	ctx := context.Background()
	cfg := runnerConfig()

	store := ledgersvc.NewMemoryStore()
	require.NoError(t, store.SaveTrade(ctx, models.Trade{
		TradeID: "TCS_1", Symbol: "TCS", Quantity: 10, Status: models.TradeOpen,
	}))
	require.NoError(t, store.SaveTrade(ctx, models.Trade{
		TradeID: "INFY_1", Symbol: "INFY", Quantity: 5, Status: models.TradeOpen,
	}))

	t.Run("mismatches reported sorted", func(t *testing.T) {
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"status": "success",
				"data": [
					{"symbol": "TCS", "quantity": 10},
					{"symbol": "HDFCBANK", "quantity": 3}
				]
			}`))
		})
		r := &Runner{cfg: cfg, ledger: ledgersvc.NewEngine(cfg, store), broker: broker, n: silentNotifier{}, loc: time.UTC}

		mismatches := r.reconcilePositions(ctx)
		require.Len(t, mismatches, 2)
		assert.Contains(t, mismatches[0], "HDFCBANK")
		assert.Contains(t, mismatches[1], "INFY")
	})

	t.Run("clean when positions agree", func(t *testing.T) {
		broker := testBroker(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"status": "success",
				"data": [
					{"symbol": "TCS", "quantity": 10},
					{"symbol": "INFY", "quantity": 5}
				]
			}`))
		})
		r := &Runner{cfg: cfg, ledger: ledgersvc.NewEngine(cfg, store), broker: broker, n: silentNotifier{}, loc: time.UTC}
		assert.Empty(t, r.reconcilePositions(ctx))
	})
}

// ledger, у которого перечитывание открытых позиций всегда падает
type failingOpenStore struct {
	*ledgersvc.MemoryStore
}

func (s *failingOpenStore) OpenTrades(context.Context) ([]models.Trade, error) {
	return nil, errors.New("store offline")
}

func TestExecuteSignalsStopsWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	cfg := runnerConfig()

	mem := ledgersvc.NewMemoryStore()
	r := &Runner{
		cfg:      cfg,
		settings: paperSettings(t),
		signals:  sigsvc.NewEngine(cfg, nil, nil),
		risk:     risksvc.NewManager(cfg, nil),
		ledger:   ledgersvc.NewEngine(cfg, &failingOpenStore{MemoryStore: mem}),
		broker:   brokersvc.NewClient(&config.Config{}),
		n:        silentNotifier{},
		loc:      time.UTC,
	}

	sig := models.Signal{
		Symbol:     "TCS",
		Strategy:   models.StrategyNewsMomentum,
		Direction:  models.SideBuy,
		Entry:      100,
		StopLoss:   99,
		Target:     101.8,
		Confidence: 0.8,
		Product:    models.ProductIntraday,
	}
	second := sig
	second.Strategy = models.StrategyBreakout

	// после первой сделки список позиций перечитать не удалось: исполнение
	// останавливается и второй сигнал по тому же символу не даёт дубля
	executed := r.executeSignals(ctx, []models.Signal{sig, second}, nil, models.Portfolio{})
	assert.Equal(t, 1, executed)

	open, err := mem.OpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "TCS", open[0].Symbol)
}
