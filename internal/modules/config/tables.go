package config

// Встроенные справочники NSE. Перекрываются yaml-конфигом целиком,
// помержить частично нельзя.

func defaultCoreWatchlist() []string {
	return []string{
		// Nifty50 ликвидное ядро
		"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
		"HINDUNILVR", "ITC", "SBIN", "BHARTIARTL", "KOTAKBANK",
		"LT", "AXISBANK", "ASIANPAINT", "MARUTI", "TITAN",
		"SUNPHARMA", "BAJFINANCE", "WIPRO", "ULTRACEMCO", "NESTLEIND",
		"TATAMOTORS", "TATASTEEL", "POWERGRID", "NTPC", "HCLTECH",
		"JSWSTEEL", "INDUSINDBK", "ADANIENT", "COALINDIA", "HINDALCO",
		// мидкапы с приличным оборотом
		"PERSISTENT", "COFORGE", "LTIM", "MPHASIS", "POLYCAB",
		"DIXON", "TRENT", "DLF", "GODREJPROP", "ASTRAL",
		"CUMMINSIND", "ABB", "SIEMENS", "HAVELLS", "VOLTAS",
	}
}

func defaultSectorMap() map[string]string {
	return map[string]string{
		"RELIANCE":   "ENERGY",
		"ONGC":       "ENERGY",
		"COALINDIA":  "ENERGY",
		"NTPC":       "ENERGY",
		"POWERGRID":  "ENERGY",
		"TCS":        "IT",
		"INFY":       "IT",
		"WIPRO":      "IT",
		"HCLTECH":    "IT",
		"TECHM":      "IT",
		"LTIM":       "IT",
		"PERSISTENT": "IT",
		"COFORGE":    "IT",
		"MPHASIS":    "IT",
		"HDFCBANK":   "BANKING",
		"ICICIBANK":  "BANKING",
		"SBIN":       "BANKING",
		"KOTAKBANK":  "BANKING",
		"AXISBANK":   "BANKING",
		"INDUSINDBK": "BANKING",
		"BAJFINANCE": "FINANCE",
		"BAJAJFINSV": "FINANCE",
		"HINDUNILVR": "FMCG",
		"ITC":        "FMCG",
		"NESTLEIND":  "FMCG",
		"BRITANNIA":  "FMCG",
		"SUNPHARMA":  "PHARMA",
		"DRREDDY":    "PHARMA",
		"CIPLA":      "PHARMA",
		"DIVISLAB":   "PHARMA",
		"MARUTI":     "AUTO",
		"TATAMOTORS": "AUTO",
		"M&M":        "AUTO",
		"BAJAJ-AUTO": "AUTO",
		"EICHERMOT":  "AUTO",
		"TATASTEEL":  "METALS",
		"JSWSTEEL":   "METALS",
		"HINDALCO":   "METALS",
		"VEDL":       "METALS",
		"LT":         "INFRA",
		"ADANIENT":   "INFRA",
		"ABB":        "CAPITAL_GOODS",
		"SIEMENS":    "CAPITAL_GOODS",
		"CUMMINSIND": "CAPITAL_GOODS",
		"HAVELLS":    "CAPITAL_GOODS",
		"VOLTAS":     "CAPITAL_GOODS",
		"POLYCAB":    "CAPITAL_GOODS",
		"DIXON":      "CAPITAL_GOODS",
		"ASTRAL":     "CAPITAL_GOODS",
		"BHARTIARTL": "TELECOM",
		"ASIANPAINT": "CONSUMER",
		"TITAN":      "CONSUMER",
		"TRENT":      "CONSUMER",
		"ULTRACEMCO": "CEMENT",
		"DLF":        "REALTY",
		"GODREJPROP": "REALTY",
	}
}

// defaultKnownCompanies — название компании в новостях => тикер.
func defaultKnownCompanies() map[string]string {
	return map[string]string{
		"reliance":           "RELIANCE",
		"tata consultancy":   "TCS",
		"tcs":                "TCS",
		"hdfc bank":          "HDFCBANK",
		"infosys":            "INFY",
		"icici":              "ICICIBANK",
		"hindustan unilever": "HINDUNILVR",
		"itc":                "ITC",
		"state bank":         "SBIN",
		"sbi":                "SBIN",
		"airtel":             "BHARTIARTL",
		"kotak":              "KOTAKBANK",
		"larsen":             "LT",
		"axis bank":          "AXISBANK",
		"asian paints":       "ASIANPAINT",
		"maruti":             "MARUTI",
		"titan":              "TITAN",
		"sun pharma":         "SUNPHARMA",
		"bajaj finance":      "BAJFINANCE",
		"wipro":              "WIPRO",
		"ultratech":          "ULTRACEMCO",
		"nestle":             "NESTLEIND",
		"tata motors":        "TATAMOTORS",
		"tata steel":         "TATASTEEL",
		"hcl tech":           "HCLTECH",
		"jsw steel":          "JSWSTEEL",
		"adani":              "ADANIENT",
		"coal india":         "COALINDIA",
		"hindalco":           "HINDALCO",
		"persistent":         "PERSISTENT",
		"coforge":            "COFORGE",
		"polycab":            "POLYCAB",
		"dixon":              "DIXON",
		"trent":              "TRENT",
		"dlf":                "DLF",
		"godrej properties":  "GODREJPROP",
		"siemens":            "SIEMENS",
		"havells":            "HAVELLS",
		"voltas":             "VOLTAS",
	}
}

func defaultPositiveKeywords() map[string]float64 {
	return map[string]float64{
		"surge":        0.8,
		"soar":         0.8,
		"rally":        0.7,
		"jump":         0.6,
		"gain":         0.5,
		"rise":         0.4,
		"up":           0.3,
		"high":         0.4,
		"beat":         0.7,
		"strong":       0.6,
		"profit":       0.6,
		"growth":       0.6,
		"upgrade":      0.8,
		"buy":          0.5,
		"outperform":   0.7,
		"record":       0.6,
		"expansion":    0.5,
		"bullish":      0.7,
		"dividend":     0.4,
		"buyback":      0.6,
		"order win":    0.8,
		"contract win": 0.8,
		"approval":     0.6,
		"launch":       0.4,
	}
}

func defaultNegativeKeywords() map[string]float64 {
	return map[string]float64{
		"plunge":        -0.8,
		"crash":         -0.9,
		"slump":         -0.7,
		"fall":          -0.5,
		"drop":          -0.5,
		"decline":       -0.4,
		"down":          -0.3,
		"low":           -0.4,
		"miss":          -0.7,
		"weak":          -0.6,
		"loss":          -0.6,
		"downgrade":     -0.8,
		"sell":          -0.5,
		"underperform":  -0.7,
		"probe":         -0.7,
		"investigation": -0.7,
		"fraud":         -0.9,
		"penalty":       -0.6,
		"default":       -0.8,
		"bearish":       -0.7,
		"layoff":        -0.6,
		"resignation":   -0.5,
		"recall":        -0.6,
		"shutdown":      -0.7,
	}
}
