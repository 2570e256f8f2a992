package runner

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	brokersvc "tradego/internal/modules/broker/service"
	"tradego/internal/modules/config"
	ledgersvc "tradego/internal/modules/ledger/service"
	mdsvc "tradego/internal/modules/marketdata/service"
	risksvc "tradego/internal/modules/risk/service"
	sigsvc "tradego/internal/modules/signals/service"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Runner — оркестратор: торговый цикл, монитор позиций, дневной отчёт,
// безопасный шатдаун. Вся торговая логика живёт в модулях, здесь только
// расписание и склейка.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      *config.Config
	settings *config.Settings

	data    *mdsvc.Service
	signals *sigsvc.Engine
	risk    *risksvc.Manager
	ledger  *ledgersvc.Engine
	broker  *brokersvc.Client
	feed    *brokersvc.Feed
	n       Notifier

	// сбрасывается circuit breaker-ом до конца сессии
	tradingEnabled atomic.Bool

	loc         *time.Location
	summarySent atomic.Int64 // unix-день последнего отчёта
}

func New(
	cfg *config.Config,
	settings *config.Settings,
	data *mdsvc.Service,
	signals *sigsvc.Engine,
	risk *risksvc.Manager,
	ledger *ledgersvc.Engine,
	broker *brokersvc.Client,
	feed *brokersvc.Feed,
	n Notifier,
) *Runner {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.Local
	}

	r := &Runner{
		cfg:      cfg,
		settings: settings,
		data:     data,
		signals:  signals,
		risk:     risk,
		ledger:   ledger,
		broker:   broker,
		feed:     feed,
		n:        n,
		loc:      loc,
	}
	r.tradingEnabled.Store(true)
	return r
}

func (r *Runner) Start(parent context.Context) {
	r.ctx, r.cancel = context.WithCancel(parent)

	log.Printf("[RUNNER] старт: режим %s/%s, цикл %s, монитор %s",
		r.settings.Mode(), r.settings.LiveType(), r.cfg.Schedule.CycleEvery, r.cfg.Schedule.MonitorEvery)
	r.n.Sendf("🚀 TradeGo запущен: %s (%s)", r.settings.Mode(), r.settings.LiveType())

	if r.isRealMoney() {
		r.reconcilePositions(r.ctx)
	}

	go r.cycleLoop(r.ctx)
	go r.monitorLoop(r.ctx)
	go r.summaryLoop(r.ctx)
}

// Stop — безопасный шатдаун: интрадей закрываем, delivery оставляем.
func (r *Runner) Stop(ctx context.Context) {
	if r.cancel != nil {
		r.cancel()
	}
	r.safeShutdown(ctx)
}

func (r *Runner) cycleLoop(ctx context.Context) {
	// первый проход сразу, если рынок открыт или бэктест
	if r.settings.Mode() == config.ModeBacktest || r.isMarketOpen() {
		r.tradingCycle(ctx)
	}

	ticker := time.NewTicker(r.cfg.Schedule.CycleEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tradingCycle(ctx)
		}
	}
}

func (r *Runner) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Schedule.MonitorEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.monitorPositions(ctx)
		}
	}
}

func (r *Runner) summaryLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().In(r.loc)
			if now.Format("15:04") != r.cfg.Schedule.SummaryAt {
				continue
			}
			day := now.Unix() / 86400
			if r.summarySent.Swap(day) == day {
				continue // уже отправляли сегодня
			}
			r.dailySummary(ctx)
		}
	}
}

// marketOpen — статус сессии у брокера, при недоступности фолбэк на часы.
func (r *Runner) marketOpen(ctx context.Context) bool {
	if sess, err := r.broker.MarketSessionStatus(ctx); err == nil {
		return sess.Open
	}
	return r.isMarketOpen()
}

// isMarketOpen — торговая сессия NSE по локальному времени IST.
func (r *Runner) isMarketOpen() bool {
	now := time.Now().In(r.loc)
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}
	hhmm := now.Format("15:04")
	return hhmm >= r.cfg.Schedule.MarketOpen && hhmm <= r.cfg.Schedule.MarketClose
}

// pastEODCutoff — пора ли принудительно закрывать интрадей.
func (r *Runner) pastEODCutoff() bool {
	now := time.Now().In(r.loc)
	return now.Format("15:04") >= r.cfg.Schedule.EODSquareOff
}

// isRealMoney — живой режим с реальными ордерами.
func (r *Runner) isRealMoney() bool {
	return r.settings.Mode() == config.ModeLive && r.settings.LiveType() == config.LiveReal
}
