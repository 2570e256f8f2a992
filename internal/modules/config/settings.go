package config

import (
	"sync"

	"github.com/spf13/viper"
	"tradego/pkg/logger"
)

const (
	ModeLive     = "LIVE"
	ModeBacktest = "BACKTEST"

	LivePaper = "PAPER"
	LiveReal  = "REAL"
)

// Settings — изменяемые на лету параметры, в отличие от Config.
// Живут в settings.yaml рядом с бинарём, правятся через телеграм.
type Settings struct {
	mu sync.RWMutex
	v  *viper.Viper
}

func NewSettings() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath(".")

	v.SetDefault("mode", ModeLive)
	v.SetDefault("live_type", LivePaper)
	v.SetDefault("auto_trade", true)
	v.SetDefault("capital", 0.0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		logger.Info("settings.yaml not found, using defaults")
	}

	return &Settings{v: v}, nil
}

func (s *Settings) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString("mode")
}

func (s *Settings) LiveType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString("live_type")
}

// AutoTrade — false означает только сигналы без исполнения.
func (s *Settings) AutoTrade() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetBool("auto_trade")
}

func (s *Settings) SetAutoTrade(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set("auto_trade", enabled)
	if err := s.v.WriteConfigAs("configs/settings.yaml"); err != nil {
		logger.Error("failed to persist settings: %v", err)
	}
}

// Capital — переопределение торгового капитала, 0 означает значение из конфига.
func (s *Settings) Capital() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetFloat64("capital")
}

func (s *Settings) SetCapital(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set("capital", v)
	if err := s.v.WriteConfigAs("configs/settings.yaml"); err != nil {
		logger.Error("failed to persist settings: %v", err)
	}
}

func (s *Settings) IsPaper() bool {
	return s.Mode() == ModeBacktest || s.LiveType() == LivePaper
}
