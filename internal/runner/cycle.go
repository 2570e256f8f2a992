package runner

import (
	"context"
	"log"
	"time"

	"github.com/opentracing/opentracing-go"
	"tradego/internal/models"
	"tradego/internal/modules/config"
	ledgersvc "tradego/internal/modules/ledger/service"
	"tradego/pkg/logger"
)

// tradingCycle — основной проход: портфель → circuit breaker → watchlist →
// сигналы → риск-фильтры → исполнение, по убыванию уверенности.
func (r *Runner) tradingCycle(ctx context.Context) {
	span := opentracing.StartSpan("trading_cycle")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	log.Printf("[CYCLE] ▶️ старт торгового цикла")

	if !r.tradingEnabled.Load() {
		log.Printf("[CYCLE] торговля выключена, пропуск")
		return
	}
	if !r.settings.AutoTrade() {
		log.Printf("[CYCLE] автоторговля выключена настройками, пропуск")
		return
	}
	if r.settings.Mode() == config.ModeLive && !r.marketOpen(ctx) {
		log.Printf("[CYCLE] рынок закрыт, пропуск")
		return
	}

	// 1. капитал и состояние портфеля
	r.refreshCapital(ctx)
	portfolio, err := r.ledger.GetDailyPnL(ctx, time.Now().In(r.loc), r.ltp)
	if err != nil {
		logger.Error("portfolio refresh: %v", err)
		return
	}
	openTrades, err := r.ledger.OpenTrades(ctx)
	if err != nil {
		logger.Error("open trades: %v", err)
		return
	}
	log.Printf("[CYCLE] P&L %.2f, открытых позиций %d", portfolio.TotalPnL, len(openTrades))

	// 2. circuit breaker
	dailyLoss := portfolio.TotalPnL / r.risk.TotalCapital()
	if dailyLoss < -r.cfg.Risk.MaxDailyLossPercent {
		logger.Warn("circuit breaker triggered: %.2f%% daily loss", dailyLoss*100)
		r.n.Sendf("⛔️ Circuit breaker: дневной убыток %.2f%%. Торговля остановлена до конца сессии.", dailyLoss*100)
		r.tradingEnabled.Store(false)
		return
	}

	// 3. watchlist и сигналы
	watchlist := r.data.Watchlist(ctx)
	r.feed.Subscribe(watchlist)

	signals := r.signals.GenerateSignals(ctx, watchlist)

	// 4. исполнение
	executed := r.executeSignals(ctx, signals, openTrades, portfolio)

	log.Printf("[CYCLE] ✅ цикл завершён, исполнено %d", executed)
}

// refreshCapital — эффективный капитал на цикл: в реальном режиме маржа
// с брокерского счёта, иначе переопределение из настроек или конфиг.
func (r *Runner) refreshCapital(ctx context.Context) {
	capital := r.cfg.Risk.TotalCapital
	if override := r.settings.Capital(); override > 0 {
		capital = override
	}

	if r.isRealMoney() {
		funds, err := r.broker.GetFunds(ctx)
		if err != nil {
			logger.Warn("broker funds unavailable, using configured capital: %v", err)
		} else if funds.AvailableMargin > 0 {
			capital = funds.AvailableMargin
		}
	}

	r.risk.SetTotalCapital(capital)
}

// executeSignals идёт по сигналам в порядке убывания уверенности и исполняет
// прошедшие все фильтры. Список открытых позиций перечитывается после каждой
// сделки; ошибка перечитывания останавливает исполнение до следующего цикла,
// иначе можно войти в тот же символ дважды.
func (r *Runner) executeSignals(ctx context.Context, signals []models.Signal,
	openTrades []models.Trade, portfolio models.Portfolio) int {

	executed := 0
	for _, sig := range signals {
		if !r.signals.ValidateSignal(sig) {
			continue
		}
		if hasPosition(openTrades, sig.Symbol) {
			log.Printf("[CYCLE] ⏭️ %s: позиция уже открыта", sig.Symbol)
			continue
		}

		available := r.risk.AvailableCapital(sig.Product, openTrades)
		size, ok := r.risk.SizePosition(sig, available)
		if !ok {
			log.Printf("[CYCLE] ⏭️ %s: сайзинг не прошёл", sig.Symbol)
			continue
		}

		if allowed, reason := r.risk.CheckPortfolioLimits(sig, size, openTrades, portfolio); !allowed {
			log.Printf("[CYCLE] ⏭️ %s: %s", sig.Symbol, reason)
			continue
		}

		verdict := r.risk.CheckCorrelation(ctx, sig.Symbol, openTrades)
		if !verdict.Allow {
			log.Printf("[CYCLE] ⏭️ %s: %s", sig.Symbol, verdict.Reason)
			continue
		}
		if !verdict.Verified {
			log.Printf("[CYCLE] ⚠️ %s: корреляция не подтверждена (%s), пропускаем сделку дальше", sig.Symbol, verdict.Reason)
		}

		if r.placeTrade(ctx, sig, size) {
			executed++
			refreshed, err := r.ledger.OpenTrades(ctx)
			if err != nil {
				logger.Error("open trades refresh: %v", err)
				break
			}
			openTrades = refreshed
			if len(openTrades) >= r.cfg.Risk.MaxOpenPositions {
				log.Printf("[CYCLE] ✅ лимит открытых позиций, стоп")
				break
			}
		}
	}
	return executed
}

// placeTrade исполняет сигнал и регистрирует сделку в леджере.
// Неуспех брокера => записи в леджере нет.
func (r *Runner) placeTrade(ctx context.Context, sig models.Signal, size models.PositionSize) bool {
	live := r.isRealMoney()

	result, err := r.broker.PlaceOrder(ctx, sig, size.Quantity, live)
	if err != nil {
		logger.Error("place order %s: %v", sig.Symbol, err)
		return false
	}

	trade, err := r.ledger.CreateTrade(ctx, sig, size, ledgersvc.OrderIDs{
		Entry:  result.EntryOrderID,
		Target: result.TargetOrderID,
		SL:     result.SLOrderID,
	})
	if err != nil {
		logger.Error("record trade %s: %v", sig.Symbol, err)
		return false
	}

	r.n.Sendf("🎯 Сделка %s\n%s %s x%d @ %.2f\nSL %.2f | TGT %.2f | conf %.0f%%",
		trade.TradeID, sig.Direction, sig.Symbol, size.Quantity, sig.Entry,
		sig.StopLoss, sig.Target, sig.Confidence*100)
	return true
}

// ltp — цена из ws-фида, при промахе REST.
func (r *Runner) ltp(symbol string) (float64, bool) {
	if px, ok := r.feed.Latest(symbol); ok {
		return px, true
	}
	px, err := r.broker.GetLtp(r.ctx, symbol)
	if err != nil {
		return 0, false
	}
	return px, true
}

func hasPosition(trades []models.Trade, symbol string) bool {
	for _, t := range trades {
		if t.Symbol == symbol {
			return true
		}
	}
	return false
}
