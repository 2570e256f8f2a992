package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"tradego/internal/modules/config"
	ledgersvc "tradego/internal/modules/ledger/service"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram — пассивный нотифайер + команды /status, /positions, /autotrade, /capital.
type Telegram struct {
	bot      *tgbot.BotAPI
	chatID   int64
	ledger   *ledgersvc.Engine
	settings *config.Settings
}

func NewTelegram(token string, chatID int64, ledger *ledgersvc.Engine, settings *config.Settings) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:      b,
		chatID:   chatID,
		ledger:   ledger,
		settings: settings,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// /positions — открытые позиции из леджера
func (t *Telegram) handlePositions(ctx context.Context) {
	trades, err := t.ledger.OpenTrades(ctx)
	if err != nil {
		t.Sendf("❗️ Ошибка получения позиций: %v", err)
		return
	}
	if len(trades) == 0 {
		t.Send("📭 Открытых позиций нет")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Открытые позиции:\n")
	for _, tr := range trades {
		fmt.Fprintf(&b, "- %s [%s/%s] qty=%d @ %.2f sl=%.2f tgt=%.2f\n",
			tr.Symbol, tr.Direction, tr.Product, tr.Quantity, tr.Entry, tr.StopLoss, tr.Target)
	}
	t.Send(b.String())
}

// /status — дневной P&L
func (t *Telegram) handleStatus(ctx context.Context) {
	p, err := t.ledger.GetDailyPnL(ctx, time.Now(), nil)
	if err != nil {
		t.Sendf("❗️ Ошибка расчёта P&L: %v", err)
		return
	}

	t.Sendf("💰 Дневной отчёт %s\n"+
		"Реализовано: %.2f\n"+
		"Нереализовано: %.2f\n"+
		"Итого: %.2f\n"+
		"Интрадей: %d сделок (%d/%d)\n"+
		"Свинг: %d сделок (%d/%d)\n"+
		"Heat: %.2f%% | WR: %.1f%% | PF: %.2f",
		p.Date.Format("2006-01-02"),
		p.RealizedPnL, p.UnrealizedPnL, p.TotalPnL,
		p.IntradayTrades, p.IntradayWins, p.IntradayLosses,
		p.SwingTrades, p.SwingWins, p.SwingLosses,
		p.PortfolioHeat*100, p.WinRate, p.ProfitFactor)
}

func (t *Telegram) handleAutoTrade(arg string) {
	switch strings.TrimSpace(arg) {
	case "on":
		t.settings.SetAutoTrade(true)
		t.Send("✅ Автоторговля включена")
	case "off":
		t.settings.SetAutoTrade(false)
		t.Send("⛔️ Автоторговля выключена")
	default:
		t.Sendf("Автоторговля: %v (/autotrade on|off)", t.settings.AutoTrade())
	}
}

// /capital 500000 — переопределить капитал, /capital 0 — вернуть конфиг.
func (t *Telegram) handleCapital(arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		t.Sendf("Капитал: %.0f (0 = из конфига). /capital <сумма>", t.settings.Capital())
		return
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || v < 0 {
		t.Sendf("Не понял сумму %q", arg)
		return
	}
	t.settings.SetCapital(v)
	if v == 0 {
		t.Send("✅ Капитал сброшен, действует значение из конфига")
		return
	}
	t.Sendf("✅ Капитал переопределён: %.0f", v)
}

// Start: long-polling для команд.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "positions":
					go t.handlePositions(ctx)
				case "status":
					go t.handleStatus(ctx)
				case "autotrade":
					t.handleAutoTrade(upd.Message.CommandArguments())
				case "capital":
					t.handleCapital(upd.Message.CommandArguments())
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка, всё в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { log.Println(msg) }
func (s *Stdout) Sendf(format string, args ...any) { log.Printf(format, args...) }
