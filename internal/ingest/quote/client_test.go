package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finfo/internal/model"
	"finfo/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", Token: "tok"}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestFetchQuotes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote", r.URL.Path)
		assert.Equal(t, "AAPL.US,700.HK", r.URL.Query().Get("symbol"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"AAPL.US","last_done":"150.0","prev_close":"148","open":"149","high":"151","low":"147.5","volume":1000000,"turnover":"150000000","timestamp":1700000000},
			{"symbol":"700.HK","last_done":"301.2","prev_close":"300","open":"299.8","high":"305","low":"299","volume":42,"turnover":"12650.4","timestamp":1700000001}
		]}`))
	})

	quotes, err := c.FetchQuotes(context.Background(), []string{"AAPL.US", "700.HK"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, model.Quote{
		Symbol:    "AAPL.US",
		LastDone:  150,
		PrevClose: 148,
		Open:      149,
		High:      151,
		Low:       147.5,
		Volume:    1000000,
		Turnover:  150000000,
		Timestamp: 1700000000,
	}, quotes[0])
	assert.Equal(t, 301.2, quotes[1].LastDone)
}

func TestFetchQuotesEmptySymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	})
	_, err := c.FetchQuotes(context.Background(), nil)
	require.ErrorIs(t, err, exception.ErrQuoteEmptySymbols)
}

func TestFetchQuotesUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.FetchQuotes(context.Background(), []string{"AAPL.US"})
	require.ErrorIs(t, err, exception.ErrQuoteUnauthorized)
}

func TestFetchQuotesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	_, err := c.FetchQuotes(context.Background(), []string{"AAPL.US"})
	require.ErrorIs(t, err, exception.ErrQuoteStatus)
}

func TestFetchCandlesFiltersRange(t *testing.T) {
	from := time.Unix(1700000000, 0)
	to := from.Add(2 * time.Minute)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/candlesticks", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "AAPL.US", q.Get("symbol"))
		assert.Equal(t, "1m", q.Get("period"))
		assert.Equal(t, "1700000000", q.Get("start"))
		assert.Equal(t, "1700000120", q.Get("end"))
		_, _ = w.Write([]byte(`{"symbol":"AAPL.US","candlesticks":[
			{"open":"1","high":"2","low":"0.5","close":"1.5","volume":10,"turnover":"15","timestamp":1699999940},
			{"open":"1","high":"2","low":"0.5","close":"1.5","volume":10,"turnover":"15","timestamp":1700000000},
			{"open":"1.5","high":"3","low":"1","close":"2.5","volume":20,"turnover":"50","timestamp":1700000060},
			{"open":"2.5","high":"3","low":"2","close":"2","volume":5,"turnover":"10","timestamp":1700000120}
		]}`))
	})

	candles, err := c.FetchCandles(context.Background(), "AAPL.US", model.PeriodMinute, from, to)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, model.Candle{
		Symbol:    "AAPL.US",
		Open:      1.5,
		High:      3,
		Low:       1,
		Close:     2.5,
		Volume:    20,
		Turnover:  50,
		Timestamp: 1700000060,
	}, candles[1])
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New(Config{BaseURL: "quotes.local"}, nil)
	require.ErrorIs(t, err, exception.ErrConfigInvalid)
}
