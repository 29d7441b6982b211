package quote

import (
	"strconv"

	"finfo/internal/model"

	"github.com/yanun0323/decimal"
)

type QuoteResponse struct {
	Quotes []QuotePayload `json:"quotes"`
}

type QuotePayload struct {
	Symbol    string          `json:"symbol"`
	LastDone  decimal.Decimal `json:"last_done"`
	PrevClose decimal.Decimal `json:"prev_close"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    int64           `json:"volume"`
	Turnover  decimal.Decimal `json:"turnover"`
	Timestamp int64           `json:"timestamp"`
}

func (p QuotePayload) Model() model.Quote {
	return model.Quote{
		Symbol:    p.Symbol,
		LastDone:  toFloat(p.LastDone),
		PrevClose: toFloat(p.PrevClose),
		Open:      toFloat(p.Open),
		High:      toFloat(p.High),
		Low:       toFloat(p.Low),
		Volume:    p.Volume,
		Turnover:  toFloat(p.Turnover),
		Timestamp: p.Timestamp,
	}
}

type CandleResponse struct {
	Symbol  string          `json:"symbol"`
	Candles []CandlePayload `json:"candlesticks"`
}

type CandlePayload struct {
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Turnover  decimal.Decimal `json:"turnover"`
	Timestamp int64           `json:"timestamp"`
}

func (p CandlePayload) Model(symbol string) model.Candle {
	return model.Candle{
		Symbol:    symbol,
		Open:      toFloat(p.Open),
		High:      toFloat(p.High),
		Low:       toFloat(p.Low),
		Close:     toFloat(p.Close),
		Volume:    p.Volume,
		Turnover:  toFloat(p.Turnover),
		Timestamp: p.Timestamp,
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return 0
	}
	return f
}
