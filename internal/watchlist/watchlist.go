package watchlist

import (
	"context"
	"os"
	"strings"

	"finfo/internal/ops"
	"finfo/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"
)

// SetReader is the subset of a Redis client used to read a symbol set.
type SetReader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// Deps holds the optional backends for Load. Nil entries disable their source.
type Deps struct {
	Redis SetReader
	DB    *gorm.DB
}

// Load resolves the watchlist from the first configured source.
func Load(ctx context.Context, cfg ops.WatchlistConfig, deps Deps) ([]string, error) {
	switch {
	case len(cfg.Symbols) > 0:
		return normalize(cfg.Symbols)
	case strings.TrimSpace(cfg.Env) != "":
		return FromEnv(cfg.Env)
	case cfg.File != "":
		return FromFile(cfg.File)
	case cfg.Redis.URL != "":
		return FromRedis(ctx, deps.Redis, cfg.Redis.Key)
	case cfg.Postgres.DSN != "":
		if deps.DB == nil {
			return nil, exception.ErrWatchlistNilClient
		}
		return FromPostgres(ctx, deps.DB, cfg.Postgres.Table)
	default:
		return nil, exception.ErrNoWatchlistSource
	}
}

// FromEnv parses a comma separated symbol list.
func FromEnv(value string) ([]string, error) {
	return normalize(strings.Split(value, ","))
}

// FromFile reads a JSON array of symbols.
func FromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read watchlist file")
	}
	var symbols []string
	if err := sonic.Unmarshal(data, &symbols); err != nil {
		return nil, errors.Wrapf(err, "decode watchlist file %s", path)
	}
	return normalize(symbols)
}

// FromRedis reads the members of a Redis set.
func FromRedis(ctx context.Context, r SetReader, key string) ([]string, error) {
	if r == nil {
		return nil, exception.ErrWatchlistNilClient
	}
	symbols, err := r.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "smembers %s", key)
	}
	logs.Debugf("watchlist: %d members in redis set %s", len(symbols), key)
	return normalize(symbols)
}

// FromPostgres reads enabled symbols from a table with columns symbol and enabled.
func FromPostgres(ctx context.Context, db *gorm.DB, table string) ([]string, error) {
	if db == nil {
		return nil, exception.ErrWatchlistNilClient
	}
	var symbols []string
	err := db.WithContext(ctx).
		Table(table).
		Where("enabled = ?", true).
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, errors.Wrapf(err, "select watchlist from %s", table)
	}
	return normalize(symbols)
}

// normalize trims, drops empties and dedupes preserving first-seen order.
func normalize(symbols []string) ([]string, error) {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, exception.ErrEmptyWatchlist
	}
	return out, nil
}
