package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"finfo/internal/ops"
	"finfo/internal/query"

	"github.com/yanun0323/logs"
)

func main() {
	if err := run(); err != nil {
		log.Printf("query: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "YAML config path (optional)")
	sqlFlag := flag.String("sql", "", "SQL statement to run")
	flag.Parse()

	stmt := strings.TrimSpace(*sqlFlag)
	if stmt == "" {
		stmt = strings.TrimSpace(strings.Join(flag.Args(), " "))
	}
	if stmt == "" {
		return errors.New("missing statement; use -sql")
	}

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := query.New(ctx, query.Config{
		Addr:     cfg.Query.Addr,
		Database: cfg.Query.Database,
		Token:    cfg.Query.Token,
		TLS:      cfg.Query.TLS,
		Timeout:  cfg.Query.Timeout,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Execute(ctx, stmt)
	if err != nil {
		return err
	}
	defer res.Release()

	if _, err := res.WriteTo(os.Stdout); err != nil {
		return err
	}
	logs.Infof("%d rows in %d batches", res.NumRows(), len(res.Records))
	return nil
}
