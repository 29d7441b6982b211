package model

import "time"

// Quote is one spot price snapshot of a symbol.
type Quote struct {
	Symbol    string
	LastDone  float64
	PrevClose float64
	Open      float64
	High      float64
	Low       float64
	Volume    int64
	Turnover  float64
	Timestamp int64
}

// Time returns the quote timestamp as UTC time.
func (q Quote) Time() time.Time {
	return time.Unix(q.Timestamp, 0).UTC()
}

// Candle is one OHLC bar of a symbol.
type Candle struct {
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Turnover  float64
	Timestamp int64
}

// Time returns the candle open timestamp as UTC time.
func (c Candle) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// Period is the bar width of a candle series.
type Period string

const (
	PeriodMinute Period = "1m"
	PeriodHour   Period = "1h"
	PeriodDay    Period = "1d"
)

// Duration returns the bar width, or zero for an unknown period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodMinute:
		return time.Minute
	case PeriodHour:
		return time.Hour
	case PeriodDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ParsePeriod accepts "1m", "1h" and "1d".
func ParsePeriod(s string) (Period, bool) {
	p := Period(s)
	return p, p.Duration() > 0
}
