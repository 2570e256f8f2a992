package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradego/internal/models"
	"tradego/internal/modules/config"
)

func validateEngine() *Engine {
	cfg := &config.Config{
		Signals: config.SignalLimits{
			MinConfidence: 0.65,
			MinRRIntraday: 1.5,
			MinRRSwing:    1.2,
			MinStopPct:    0.005,
			MaxStopPct:    0.03,
		},
	}
	return NewEngine(cfg, nil, nil)
}

func TestValidateSignal(t *testing.T) {
	e := validateEngine()

	base := models.Signal{
		Symbol:     "TCS",
		Direction:  models.SideBuy,
		Entry:      100,
		StopLoss:   99,
		Target:     101.8,
		Confidence: 0.80,
		Product:    models.ProductIntraday,
	}

	t.Run("accepts good intraday signal", func(t *testing.T) {
		assert.True(t, e.ValidateSignal(base)) // R:R 1.8
	})

	t.Run("rr boundary is inclusive", func(t *testing.T) {
		sig := base
		sig.Target = 101.5 // ровно 1.5
		assert.True(t, e.ValidateSignal(sig))

		sig.Target = 101.49
		assert.False(t, e.ValidateSignal(sig))
	})

	t.Run("swing uses lower rr threshold", func(t *testing.T) {
		sig := base
		sig.Product = models.ProductDelivery
		sig.Target = 101.3 // 1.3 >= 1.2, но < 1.5
		assert.True(t, e.ValidateSignal(sig))
	})

	t.Run("stop too tight", func(t *testing.T) {
		sig := base
		sig.StopLoss = 99.7 // 0.3%
		sig.Target = 100.6
		assert.False(t, e.ValidateSignal(sig))
	})

	t.Run("stop too wide", func(t *testing.T) {
		sig := base
		sig.StopLoss = 96 // 4%
		sig.Target = 108
		assert.False(t, e.ValidateSignal(sig))
	})

	t.Run("stop equals entry", func(t *testing.T) {
		sig := base
		sig.StopLoss = 100
		assert.False(t, e.ValidateSignal(sig))
	})

	t.Run("confidence below threshold", func(t *testing.T) {
		sig := base
		sig.Confidence = 0.60
		assert.False(t, e.ValidateSignal(sig))
	})
}
