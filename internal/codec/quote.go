package codec

import "finfo/internal/model"

const (
	QuoteMeasurement  = "stock_price"
	CandleMeasurement = "stock_candle"

	symbolTag = "symbol"
)

// AppendQuote encodes a spot price sample:
//
//	stock_price,symbol=<s> last_done=..,prev_close=..,open=..,high=..,low=..,volume=..,turnover=.. <ts>
func AppendQuote(dst []byte, q model.Quote) []byte {
	dst = appendMeasurement(dst, QuoteMeasurement)
	dst = appendTag(dst, symbolTag, q.Symbol)
	f := fieldSet{dst: dst}
	f.float("last_done", q.LastDone)
	f.float("prev_close", q.PrevClose)
	f.float("open", q.Open)
	f.float("high", q.High)
	f.float("low", q.Low)
	f.int("volume", q.Volume)
	f.float("turnover", q.Turnover)
	return appendTimestamp(f.dst, q.Timestamp)
}

// AppendCandle encodes an OHLC bar:
//
//	stock_candle,symbol=<s> open=..,high=..,low=..,close=..,volume=..,turnover=.. <ts>
func AppendCandle(dst []byte, c model.Candle) []byte {
	dst = appendMeasurement(dst, CandleMeasurement)
	dst = appendTag(dst, symbolTag, c.Symbol)
	f := fieldSet{dst: dst}
	f.float("open", c.Open)
	f.float("high", c.High)
	f.float("low", c.Low)
	f.float("close", c.Close)
	f.int("volume", c.Volume)
	f.float("turnover", c.Turnover)
	return appendTimestamp(f.dst, c.Timestamp)
}

var (
	_ Encoder[model.Quote]  = AppendQuote
	_ Encoder[model.Candle] = AppendCandle
)
