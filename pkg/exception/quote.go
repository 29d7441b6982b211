package exception

import "github.com/yanun0323/errors"

var (
	ErrQuoteStatus       = errors.New("quote: unexpected status")
	ErrQuoteUnauthorized = errors.New("quote: unauthorized")
	ErrQuoteEmptySymbols = errors.New("quote: empty symbols")
)
