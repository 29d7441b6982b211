package exception

import "github.com/yanun0323/errors"

var (
	ErrEmptyWatchlist     = errors.New("watchlist: empty")
	ErrNoWatchlistSource  = errors.New("watchlist: no source configured")
	ErrWatchlistNilClient = errors.New("watchlist: nil client")
)
