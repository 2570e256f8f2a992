package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	brokerTokenENV    = "BROKER_ACCESS_TOKEN"
)

// RiskLimits — иммутабельная конфигурация рисков. Значения по умолчанию —
// депозит 10 лакхов, 70/30 интрадей/свинг.
type RiskLimits struct {
	TotalCapital       float64 `yaml:"total_capital"`
	IntradayAllocation float64 `yaml:"intraday_allocation"` // доля капитала под интрадей
	SwingAllocation    float64 `yaml:"swing_allocation"`

	MinRiskPerTrade float64 `yaml:"min_risk_per_trade"` // 0.005 => 0.5% депозита по стопу
	MaxRiskPerTrade float64 `yaml:"max_risk_per_trade"`

	MaxOpenPositions   int     `yaml:"max_open_positions"`
	MaxPortfolioHeat   float64 `yaml:"max_portfolio_heat"`   // суммарный риск по стопам
	MaxCapitalDeployed float64 `yaml:"max_capital_deployed"` // доля задействованного капитала
	MaxPositionValue   float64 `yaml:"max_position_value"`   // доля капитала на одну позицию

	MaxPositionsPerSector int `yaml:"max_positions_per_sector"`

	MaxDailyLossPercent  float64 `yaml:"max_daily_loss_percent"` // circuit breaker
	MaxWeeklyLossPercent float64 `yaml:"max_weekly_loss_percent"`

	MaxCorrelation float64 `yaml:"max_correlation"`
}

// SignalLimits — пороги валидации сигналов.
type SignalLimits struct {
	MinConfidence float64 `yaml:"min_confidence"`
	MinRRIntraday float64 `yaml:"min_rr_intraday"`
	MinRRSwing    float64 `yaml:"min_rr_swing"`
	MinStopPct    float64 `yaml:"min_stop_pct"` // слишком узкий стоп
	MaxStopPct    float64 `yaml:"max_stop_pct"` // слишком широкий стоп
}

// Schedule — интервалы оркестратора и границы сессии (IST).
type Schedule struct {
	CycleEvery   time.Duration `yaml:"cycle_every"`
	MonitorEvery time.Duration `yaml:"monitor_every"`
	MarketOpen   string        `yaml:"market_open"`  // "09:15"
	MarketClose  string        `yaml:"market_close"` // "15:30"
	EODSquareOff string        `yaml:"eod_squareoff"`
	SummaryAt    string        `yaml:"summary_at"`
}

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB         string `yaml:"db_dsn"`
	Storage    string `yaml:"storage"` // postgres | sqlite | memory
	SQLitePath string `yaml:"sqlite_path"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Broker struct {
		BaseURL     string `yaml:"base_url"`
		FeedURL     string `yaml:"feed_url"` // ws-фид последних цен
		AccessToken string `yaml:"access_token"`
	} `yaml:"broker"`

	News struct {
		BaseURL  string `yaml:"base_url"`
		MaxItems int    `yaml:"max_items"`
	} `yaml:"news"`

	Risk     RiskLimits   `yaml:"risk"`
	Signals  SignalLimits `yaml:"signals"`
	Schedule Schedule     `yaml:"schedule"`

	Watchlist struct {
		Core         []string `yaml:"core"` // пусто => дефолтный Nifty50+мидкапы
		TopN         int      `yaml:"top_n"`
		MinAvgVolume float64  `yaml:"min_avg_volume"` // акций в день
	} `yaml:"watchlist"`

	// Статические справочники; пустые в yaml => встроенные дефолты
	SectorMap        map[string]string  `yaml:"sector_map"`
	KnownCompanies   map[string]string  `yaml:"known_companies"`
	PositiveKeywords map[string]float64 `yaml:"positive_keywords"`
	NegativeKeywords map[string]float64 `yaml:"negative_keywords"`

	BarCacheTTL  time.Duration `yaml:"bar_cache_ttl"`
	NewsCacheTTL time.Duration `yaml:"news_cache_ttl"`

	PerfWindowDays int           `yaml:"perf_window_days"` // окно лернера
	PerfCacheTTL   time.Duration `yaml:"perf_cache_ttl"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		Storage:    getenvDefault("STORAGE", "sqlite"),
		SQLitePath: getenvDefault("SQLITE_PATH", "data/tradego.db"),

		Risk: RiskLimits{
			TotalCapital:          floatFromEnv("TOTAL_CAPITAL", 1_000_000),
			IntradayAllocation:    0.70,
			SwingAllocation:       0.30,
			MinRiskPerTrade:       0.005,
			MaxRiskPerTrade:       0.010,
			MaxOpenPositions:      intFromEnv("MAX_OPEN_POSITIONS", 5),
			MaxPortfolioHeat:      0.03,
			MaxCapitalDeployed:    0.50,
			MaxPositionValue:      0.10,
			MaxPositionsPerSector: 2,
			MaxDailyLossPercent:   0.02,
			MaxWeeklyLossPercent:  0.05,
			MaxCorrelation:        0.7,
		},
		Signals: SignalLimits{
			MinConfidence: 0.65,
			MinRRIntraday: 1.5,
			MinRRSwing:    1.2,
			MinStopPct:    0.005,
			MaxStopPct:    0.03,
		},
		Schedule: Schedule{
			CycleEvery:   durationFromEnv("CYCLE_EVERY", "15m"),
			MonitorEvery: durationFromEnv("MONITOR_EVERY", "30s"),
			MarketOpen:   "09:15",
			MarketClose:  "15:30",
			EODSquareOff: "15:20",
			SummaryAt:    "15:35",
		},

		BarCacheTTL:  durationFromEnv("BAR_CACHE_TTL", "5m"),
		NewsCacheTTL: durationFromEnv("NEWS_CACHE_TTL", "30m"),

		PerfWindowDays: intFromEnv("PERF_WINDOW_DAYS", 30),
		PerfCacheTTL:   durationFromEnv("PERF_CACHE_TTL", "1h"),
	}
	config.Watchlist.TopN = 30
	config.Watchlist.MinAvgVolume = 100_000
	config.News.MaxItems = 20

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if t := os.Getenv(brokerTokenENV); t != "" {
		config.Broker.AccessToken = t
	}

	// добиваем справочники дефолтами
	if len(config.Watchlist.Core) == 0 {
		config.Watchlist.Core = defaultCoreWatchlist()
	}
	if len(config.SectorMap) == 0 {
		config.SectorMap = defaultSectorMap()
	}
	if len(config.KnownCompanies) == 0 {
		config.KnownCompanies = defaultKnownCompanies()
	}
	if len(config.PositiveKeywords) == 0 {
		config.PositiveKeywords = defaultPositiveKeywords()
	}
	if len(config.NegativeKeywords) == 0 {
		config.NegativeKeywords = defaultNegativeKeywords()
	}

	return &config, nil
}

func getenvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("env %s is required", key))
	}
	return v
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
