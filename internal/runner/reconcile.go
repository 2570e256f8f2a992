package runner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"tradego/pkg/logger"
)

// reconcilePositions — сверка открытых сделок леджера с позициями брокера
// после рестарта. Расхождения не чиним автоматически, только сообщаем
// оператору. Возвращает список расхождений.
func (r *Runner) reconcilePositions(ctx context.Context) []string {
	open, err := r.ledger.OpenTrades(ctx)
	if err != nil {
		logger.Error("reconcile: open trades: %v", err)
		return nil
	}

	positions, err := r.broker.GetPositions(ctx)
	if err != nil {
		logger.Warn("reconcile: broker positions unavailable: %v", err)
		return nil
	}

	atBroker := make(map[string]int, len(positions))
	for _, p := range positions {
		if p.Quantity != 0 {
			atBroker[p.Symbol] = p.Quantity
		}
	}

	var mismatches []string
	for _, t := range open {
		qty, ok := atBroker[t.Symbol]
		if !ok {
			mismatches = append(mismatches,
				fmt.Sprintf("%s: в леджере %d, у брокера позиции нет", t.Symbol, t.Quantity))
			continue
		}
		if qty != t.Quantity {
			mismatches = append(mismatches,
				fmt.Sprintf("%s: в леджере %d, у брокера %d", t.Symbol, t.Quantity, qty))
		}
		delete(atBroker, t.Symbol)
	}
	for sym, qty := range atBroker {
		mismatches = append(mismatches,
			fmt.Sprintf("%s: у брокера %d, в леджере сделки нет", sym, qty))
	}
	sort.Strings(mismatches)

	if len(mismatches) == 0 {
		log.Printf("[RECONCILE] позиции сходятся (%d)", len(open))
		return nil
	}
	for _, m := range mismatches {
		log.Printf("[RECONCILE] ⚠️ %s", m)
	}
	r.n.Sendf("⚠️ Расхождения с брокером:\n%s", strings.Join(mismatches, "\n"))
	return mismatches
}
