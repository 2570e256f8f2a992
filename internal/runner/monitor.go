package runner

import (
	"context"
	"log"
	"time"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	"tradego/pkg/logger"
)

// monitorPositions — быстрый цикл: MAE/MFE, стоп/цель, EOD-закрытие интрадея.
// Ошибка по одному символу не блокирует остальные.
func (r *Runner) monitorPositions(ctx context.Context) {
	// tradingEnabled здесь не проверяем: после circuit breaker-а
	// существующие позиции всё равно надо защищать
	if r.settings.Mode() == config.ModeLive && !r.isMarketOpen() {
		return
	}

	openTrades, err := r.ledger.OpenTrades(ctx)
	if err != nil {
		logger.Error("monitor: open trades: %v", err)
		return
	}
	if len(openTrades) == 0 {
		return
	}

	eod := r.pastEODCutoff()
	log.Printf("[MONITOR] позиций %d, eod=%v", len(openTrades), eod)

	for _, trade := range openTrades {
		price, ok := r.ltp(trade.Symbol)
		if !ok {
			log.Printf("[MONITOR] нет цены %s, пропуск до следующего тика", trade.Symbol)
			continue
		}

		if err := r.ledger.UpdatePosition(ctx, trade.TradeID, price); err != nil {
			logger.Error("monitor: update %s: %v", trade.TradeID, err)
			continue
		}

		// стоп/цель исполняем сами только на реальных деньгах,
		// у брокера и так стоят защитные ордера
		if r.isRealMoney() {
			if reason, hit := stopOrTarget(trade, price); hit {
				r.squareOffAndClose(ctx, trade, price, reason)
				continue
			}
		}

		// интрадей закрываем в любом режиме перед концом сессии
		if trade.Product == models.ProductIntraday && eod {
			log.Printf("[MONITOR] 📤 EOD square-off %s", trade.Symbol)
			if r.isRealMoney() {
				r.squareOffAndClose(ctx, trade, price, models.ExitEOD)
			} else {
				if _, err := r.ledger.CloseTrade(ctx, trade.TradeID, price, models.ExitEOD, 0); err != nil {
					logger.Error("monitor: eod close %s: %v", trade.TradeID, err)
				}
			}
		}
	}
}

// stopOrTarget — пробит ли стоп или цель с учётом направления.
func stopOrTarget(trade models.Trade, price float64) (models.ExitReason, bool) {
	if trade.Direction == models.SideBuy {
		if price <= trade.StopLoss {
			return models.ExitStopLoss, true
		}
		if price >= trade.Target {
			return models.ExitTarget, true
		}
		return "", false
	}
	if price >= trade.StopLoss {
		return models.ExitStopLoss, true
	}
	if price <= trade.Target {
		return models.ExitTarget, true
	}
	return "", false
}

func (r *Runner) squareOffAndClose(ctx context.Context, trade models.Trade, price float64, reason models.ExitReason) {
	if err := r.broker.SquareOff(ctx, trade.Symbol, r.isRealMoney()); err != nil {
		logger.Error("square off %s: %v", trade.Symbol, err)
		return // повторим на следующем тике
	}
	closed, err := r.ledger.CloseTrade(ctx, trade.TradeID, price, reason, 0)
	if err != nil {
		logger.Error("close trade %s: %v", trade.TradeID, err)
		return
	}
	r.n.Sendf("📤 Закрыта %s: %s @ %.2f, P&L %.2f (%s)",
		closed.Symbol, closed.Direction, price, closed.NetPnL, reason)
}

func (r *Runner) dailySummary(ctx context.Context) {
	p, err := r.ledger.GetDailyPnL(ctx, time.Now().In(r.loc), r.ltp)
	if err != nil {
		logger.Error("daily summary: %v", err)
		return
	}

	log.Printf("[SUMMARY] P&L %.2f | интрадей %.2f (%d) | свинг %.2f (%d) | WR %.1f%% | PF %.2f",
		p.TotalPnL, p.IntradayPnL, p.IntradayTrades, p.SwingPnL, p.SwingTrades, p.WinRate, p.ProfitFactor)

	r.n.Sendf("📊 Итоги дня %s\nP&L: %.2f\nИнтрадей: %.2f (%d сделок)\nСвинг: %.2f (%d сделок)\nWR %.1f%% | PF %.2f",
		p.Date.Format("2006-01-02"), p.TotalPnL,
		p.IntradayPnL, p.IntradayTrades, p.SwingPnL, p.SwingTrades,
		p.WinRate, p.ProfitFactor)
}

// safeShutdown: интрадей на реальных деньгах закрываем принудительно,
// delivery переносим через ночь.
func (r *Runner) safeShutdown(ctx context.Context) {
	log.Printf("[SHUTDOWN] безопасное завершение")

	openTrades, err := r.ledger.OpenTrades(ctx)
	if err != nil {
		logger.Error("shutdown: open trades: %v", err)
		return
	}

	for _, trade := range openTrades {
		log.Printf("[SHUTDOWN] • %s (%s) %s", trade.Symbol, trade.Direction, trade.Product)

		if trade.Product == models.ProductIntraday && r.isRealMoney() {
			price, ok := r.ltp(trade.Symbol)
			if !ok {
				price = trade.Entry
			}
			r.squareOffAndClose(ctx, trade, price, models.ExitShutdown)
		} else if trade.Product == models.ProductDelivery {
			log.Printf("[SHUTDOWN] ℹ️ delivery %s остаётся открытой", trade.Symbol)
		}
	}

	r.dailySummary(ctx)
	log.Printf("[SHUTDOWN] ✅ завершено")
}
