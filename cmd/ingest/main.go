package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"finfo/internal/codec"
	"finfo/internal/ingest"
	"finfo/internal/ingest/quote"
	"finfo/internal/model"
	"finfo/internal/obs"
	"finfo/internal/ops"
	"finfo/internal/recorder"
	"finfo/internal/sink"
	"finfo/internal/watchlist"
	"finfo/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"golang.org/x/time/rate"
)

const (
	modeQuote   = "quote"
	modeHistory = "history"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ingest: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "YAML config path (optional)")
	modeFlag := flag.String("mode", modeQuote, "quote: poll spot quotes, history: backfill candles")
	fromFlag := flag.String("from", "", "history start, RFC3339 or 2006-01-02")
	toFlag := flag.String("to", "", "history end, RFC3339 or 2006-01-02 (default now)")
	windowFlag := flag.Duration("window", 24*time.Hour, "history span per request")
	periodFlag := flag.String("period", string(model.PeriodMinute), "history candle period: 1m, 1h, 1d")
	rateFlag := flag.Float64("rate", 5, "history requests per second, 0 for unlimited")
	flag.Parse()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sys.Shutdown():
			logs.Infof("shutdown signal received, draining")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Profile.PyroscopeAddr != "" {
		profiler, err := startProfiler(cfg.Profile)
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr, reg)
		defer stopMetrics()
	}

	symbols, err := loadWatchlist(ctx, cfg.Watchlist)
	if err != nil {
		return err
	}
	logs.Infof("watchlist: %s", strings.Join(symbols, ","))

	sinkClient, err := sink.New(cfg.SinkClientConfig(), nil, metrics)
	if err != nil {
		return err
	}
	logs.Infof("writing to %s", sinkClient.Endpoint())

	quoteClient, err := quote.New(quote.Config{
		BaseURL: cfg.Quote.BaseURL,
		Token:   cfg.Quote.Token,
		Timeout: cfg.Quote.Timeout,
	}, nil)
	if err != nil {
		return err
	}

	recCfg, err := cfg.RecorderConfig()
	if err != nil {
		return err
	}

	switch *modeFlag {
	case modeQuote:
		return runQuotes(ctx, cfg, recCfg, sinkClient, quoteClient, metrics, symbols)
	case modeHistory:
		from, to, err := parseRange(*fromFlag, *toFlag, time.Now())
		if err != nil {
			return err
		}
		period, ok := model.ParsePeriod(*periodFlag)
		if !ok {
			return errors.New("unknown period " + *periodFlag)
		}
		var limiter *rate.Limiter
		if *rateFlag > 0 {
			limiter = rate.NewLimiter(rate.Limit(*rateFlag), 1)
		}
		spec := ingest.BackfillConfig{
			Period:  period,
			From:    from,
			To:      to,
			Window:  *windowFlag,
			Limiter: limiter,
		}
		return runHistory(ctx, spec, recCfg, sinkClient, quoteClient, metrics, symbols)
	default:
		return errors.New("unknown mode " + *modeFlag + "; use -mode quote|history")
	}
}

func runQuotes(ctx context.Context, cfg ops.Config, recCfg recorder.Config, s recorder.Sink, fetcher ingest.QuoteFetcher, metrics *obs.Metrics, symbols []string) error {
	writer, err := recorder.NewWriter(recCfg, s, codec.AppendQuote, metrics)
	if err != nil {
		return err
	}
	producers := make([]ingest.Producer[model.Quote], 0, len(symbols))
	for _, symbol := range symbols {
		p, err := ingest.NewPoller(symbol, fetcher, cfg.Producer.PollInterval)
		if err != nil {
			return err
		}
		producers = append(producers, p)
	}
	logs.Infof("polling %d symbols every %s", len(producers), cfg.Producer.PollInterval)
	return ingest.NewPipeline(writer, metrics).Run(ctx, producers...)
}

func runHistory(ctx context.Context, spec ingest.BackfillConfig, recCfg recorder.Config, s recorder.Sink, fetcher ingest.CandleFetcher, metrics *obs.Metrics, symbols []string) error {
	writer, err := recorder.NewWriter(recCfg, s, codec.AppendCandle, metrics)
	if err != nil {
		return err
	}
	producers := make([]ingest.Producer[model.Candle], 0, len(symbols))
	for _, symbol := range symbols {
		bc := spec
		bc.Symbol = symbol
		b, err := ingest.NewBackfill(bc, fetcher)
		if err != nil {
			return err
		}
		producers = append(producers, b)
	}
	logs.Infof("backfilling %d symbols, %s candles in [%s, %s)", len(producers), spec.Period, spec.From.Format(time.RFC3339), spec.To.Format(time.RFC3339))
	return ingest.NewPipeline(writer, metrics).Run(ctx, producers...)
}

func loadWatchlist(ctx context.Context, cfg ops.WatchlistConfig) ([]string, error) {
	var deps watchlist.Deps
	if len(cfg.Symbols) == 0 && strings.TrimSpace(cfg.Env) == "" && cfg.File == "" {
		switch {
		case cfg.Redis.URL != "":
			client, err := conn.NewRedis(ctx, conn.RedisOption{URL: cfg.Redis.URL})
			if err != nil {
				return nil, err
			}
			defer client.Close()
			deps.Redis = client
		case cfg.Postgres.DSN != "":
			pg, err := conn.NewPostgres(ctx, conn.PostgresOption{ConnString: cfg.Postgres.DSN})
			if err != nil {
				return nil, err
			}
			defer pg.Close()
			deps.DB = pg.DB()
		}
	}
	return watchlist.Load(ctx, cfg, deps)
}

func parseRange(fromText, toText string, now time.Time) (time.Time, time.Time, error) {
	if fromText == "" {
		return time.Time{}, time.Time{}, errors.New("history mode needs -from")
	}
	from, err := parseTime(fromText)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to := now
	if toText != "" {
		if to, err = parseTime(toText); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, errors.New("-from must be before -to")
	}
	return from, to, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logs.Infof("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("metrics server: %+v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{})  { logs.Debugf(format, args...) }
func (profilerLogger) Debugf(format string, args ...interface{}) { logs.Debugf(format, args...) }
func (profilerLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }

func startProfiler(cfg ops.ProfileConfig) (*pyroscope.Profiler, error) {
	return pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.AppName,
		ServerAddress:   cfg.PyroscopeAddr,
		Logger:          profilerLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
}
