package domain

// MonthlyAverage holds the mean open and close prices of one month
type MonthlyAverage struct {
	AverageOpen  float64 `json:"average_open"`
	AverageClose float64 `json:"average_close"`
}

// MonthlyAverages maps each month with data to its averages
type MonthlyAverages map[MonthKey]MonthlyAverage

// VarianceDay is the trading day with the widest high-low spread
type VarianceDay struct {
	Date     Date    `json:"date"`
	Variance float64 `json:"variance"`
}

// BusyDays lists the days whose volume exceeded the busy threshold
type BusyDays struct {
	AverageVolume float64          `json:"average_volume"`
	Days          map[Date]float64 `json:"busy_days"`
}

// BiggestLoser reports the symbols with the most losing days
type BiggestLoser struct {
	Symbols []string `json:"symbols"`
	Days    int      `json:"days"`
}

// SymbolCount pairs a symbol with a count, preserving caller order
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}
